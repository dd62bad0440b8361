// Package queue carries purchase intents from the HTTP intake to the
// settlement worker over Kafka.
//
// Messages are keyed by product id so intents for the same product land on
// the same partition and settle in submission order. Delivery is
// at-least-once; the worker tolerates re-delivery.
package queue

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// Message is one record fetched from the queue.
type Message struct {
	Key   []byte
	Value []byte
}

// Producer publishes purchase intents. Safe for concurrent use.
type Producer struct {
	w *kafka.Writer
}

// NewProducer builds a producer for the given topic. The hash balancer keeps
// all messages for one key on one partition.
func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
	}
}

// Publish writes one message and waits for broker acknowledgement.
func (p *Producer) Publish(ctx context.Context, key, value []byte) error {
	err := p.w.WriteMessages(ctx, kafka.Message{Key: key, Value: value})
	if err != nil {
		return fmt.Errorf("kafka write %s: %w", p.w.Topic, err)
	}
	return nil
}

// Close flushes pending writes and releases the writer.
func (p *Producer) Close() error {
	return p.w.Close()
}

// Consumer fetches purchase intents as part of a consumer group.
type Consumer interface {
	// Fetch blocks for the next message, committing the previous offset.
	Fetch(ctx context.Context) (Message, error)
	Close() error
}

type kafkaConsumer struct {
	r *kafka.Reader
}

// NewConsumer joins the consumer group on the given topic. New groups start
// from the earliest retained offset so intents queued before the worker came
// up are not skipped.
func NewConsumer(brokers []string, topic, groupID string) Consumer {
	return &kafkaConsumer{
		r: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     brokers,
			Topic:       topic,
			GroupID:     groupID,
			StartOffset: kafka.FirstOffset,
		}),
	}
}

func (c *kafkaConsumer) Fetch(ctx context.Context) (Message, error) {
	m, err := c.r.ReadMessage(ctx)
	if err != nil {
		return Message{}, fmt.Errorf("kafka read %s: %w", c.r.Config().Topic, err)
	}
	return Message{Key: m.Key, Value: m.Value}, nil
}

func (c *kafkaConsumer) Close() error {
	return c.r.Close()
}
