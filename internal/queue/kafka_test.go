package queue

import (
	"context"
	"testing"
)

func TestNewProducer_Config(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, "purchases")
	defer p.Close()
	if p.w.Topic != "purchases" {
		t.Fatalf("topic = %q", p.w.Topic)
	}
	if p.w.Balancer == nil {
		t.Fatal("expected hash balancer")
	}
}

func TestPublish_CancelledContext(t *testing.T) {
	p := NewProducer([]string{"127.0.0.1:1"}, "purchases")
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Publish(ctx, []byte("1"), []byte(`{}`)); err == nil {
		t.Fatal("expected error with cancelled context")
	}
}

func TestNewConsumer_Config(t *testing.T) {
	c := NewConsumer([]string{"localhost:9092"}, "purchases", "settlement-worker")
	defer c.Close()

	kc, ok := c.(*kafkaConsumer)
	if !ok {
		t.Fatalf("unexpected consumer type %T", c)
	}
	cfg := kc.r.Config()
	if cfg.Topic != "purchases" || cfg.GroupID != "settlement-worker" {
		t.Fatalf("config = %q/%q", cfg.Topic, cfg.GroupID)
	}
}
