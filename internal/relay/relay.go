// Package relay bridges the Redis stock-update channel to connected HTTP
// clients.
//
// One goroutine per subscriber holds a Redis subscription and forwards
// decoded stock events to the client's channel, interleaving keep-alive
// ticks so proxies do not reap idle connections. A lost Redis connection is
// retried with exponential backoff while keep-alives continue, so clients
// stay attached through a Redis restart. Malformed payloads are dropped.
package relay

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-store-backend/internal/domain"
)

// Event is one item delivered to a subscriber: either a decoded stock event
// or a keep-alive tick.
type Event struct {
	domain.StockEvent
	KeepAlive bool
}

// Subscriber opens Redis subscriptions. Satisfied by cache.Client.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (*redis.PubSub, error)
}

// Relay fans stock events out to live subscribers.
type Relay struct {
	// Source opens the upstream Redis subscription.
	Source Subscriber
	// Channel is the Redis channel to subscribe on.
	Channel string
	// KeepAlive is the interval between keep-alive events.
	KeepAlive time.Duration
	// MinBackoff and MaxBackoff bound the resubscribe backoff.
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// New constructs a Relay with the given source and channel.
func New(src Subscriber, channel string, keepAlive, minBackoff, maxBackoff time.Duration) *Relay {
	return &Relay{
		Source:     src,
		Channel:    channel,
		KeepAlive:  keepAlive,
		MinBackoff: minBackoff,
		MaxBackoff: maxBackoff,
	}
}

// Subscribe returns a channel of events for one client. The channel is
// closed when ctx is cancelled. Slow clients lose events rather than block
// the relay; stock events are re-fetch hints, not a changelog.
func (r *Relay) Subscribe(ctx context.Context) <-chan Event {
	out := make(chan Event, 16)
	go r.run(ctx, out)
	return out
}

func (r *Relay) run(ctx context.Context, out chan<- Event) {
	defer close(out)

	ticker := time.NewTicker(r.KeepAlive)
	defer ticker.Stop()

	backoff := r.MinBackoff
	for {
		ps, err := r.Source.Subscribe(ctx, r.Channel)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("stock relay subscribe failed")
			if !r.idle(ctx, out, ticker, backoff) {
				return
			}
			backoff *= 2
			if backoff > r.MaxBackoff {
				backoff = r.MaxBackoff
			}
			continue
		}
		backoff = r.MinBackoff

		if !r.forward(ctx, out, ticker, ps) {
			_ = ps.Close()
			return
		}
		_ = ps.Close()
	}
}

// forward pumps one subscription session. Returns false when ctx ended,
// true when the subscription broke and should be reopened.
func (r *Relay) forward(ctx context.Context, out chan<- Event, ticker *time.Ticker, ps *redis.PubSub) bool {
	msgs := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if !send(ctx, out, Event{KeepAlive: true}) {
				return false
			}
		case msg, ok := <-msgs:
			if !ok {
				return true
			}
			ev, err := domain.ParseStockEvent([]byte(msg.Payload))
			if err != nil {
				log.Warn().Str("payload", msg.Payload).Msg("dropping malformed stock event")
				continue
			}
			if !send(ctx, out, Event{StockEvent: ev}) {
				return false
			}
		}
	}
}

// idle waits out one backoff period, still emitting keep-alives so the
// client connection survives the Redis outage. Returns false when ctx ended.
func (r *Relay) idle(ctx context.Context, out chan<- Event, ticker *time.Ticker, d time.Duration) bool {
	deadline := time.NewTimer(d)
	defer deadline.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return true
		case <-ticker.C:
			if !send(ctx, out, Event{KeepAlive: true}) {
				return false
			}
		}
	}
}

// send delivers without blocking forever: a full buffer drops the event.
func send(ctx context.Context, out chan<- Event, ev Event) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- ev:
		return true
	default:
		return true
	}
}
