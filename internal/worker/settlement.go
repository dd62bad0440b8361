// Package worker runs the settlement loop: it drains purchase intents from
// the queue and turns each into a paid or failed order.
//
// Settlement is the only place stock is decremented for purchases. The
// decision is a single conditional decrement in the store, so concurrent
// intents for the same product can never overdraw stock regardless of how
// many worker instances run.
//
// Delivery is at-least-once: a re-delivered intent whose order already
// reached a terminal status is skipped without touching stock. Undecodable
// messages are logged and dropped so one poison message cannot wedge the
// queue.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-store-backend/internal/domain"
	"github.com/tbourn/go-store-backend/internal/queue"
	"github.com/tbourn/go-store-backend/internal/repo"
)

var (
	settlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlements_total",
		Help: "Settlement outcomes by result (paid, failed, skipped, dropped).",
	}, []string{"outcome"})

	stockEventsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_events_published_total",
		Help: "Stock events published after settlement.",
	})
)

// Repo defines the persistence contract required by the settlement worker.
type Repo interface {
	// GetOrder fetches an order row by ID.
	GetOrder(ctx context.Context, db *gorm.DB, id int) (*domain.Order, error)

	// UpdateOrderStatus moves an order to the given status.
	UpdateOrderStatus(ctx context.Context, db *gorm.DB, id int, status string) error

	// ReserveStock atomically decrements stock if enough remains and reports
	// whether the decrement applied.
	ReserveStock(ctx context.Context, db *gorm.DB, productID, quantity int) (bool, error)

	// GetStock reads the authoritative stock level after settlement.
	GetStock(ctx context.Context, db *gorm.DB, id int) (int, error)
}

// Mirror refreshes the cached copies of a product after settlement.
type Mirror interface {
	RefreshProduct(ctx context.Context, id int)
}

// Publisher broadcasts stock events to connected clients.
type Publisher interface {
	Publish(ctx context.Context, channel, payload string) error
}

// Settlement consumes purchase intents and settles them against the store.
type Settlement struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the persistence layer used for settlement.
	Repo Repo
	// Mirror keeps the product cache in step with settled stock.
	Mirror Mirror
	// Events broadcasts post-settlement stock levels.
	Events Publisher
	// Channel is the pub/sub channel stock events are published on.
	Channel string

	// NewConsumer opens a fresh queue consumer; called again after failures.
	NewConsumer func() queue.Consumer

	// PaymentDelay simulates the upstream payment confirmation latency.
	PaymentDelay time.Duration
	// MinBackoff and MaxBackoff bound the reconnect backoff.
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// Run consumes intents until ctx is cancelled, reconnecting with exponential
// backoff when the queue becomes unreachable. A session that handled at least
// one message, or that held its connection past the base backoff, resets the
// backoff; only sessions failing straight away keep escalating it, so a
// healthy-but-idle queue never pins the worker at the maximum delay. Always
// returns ctx.Err().
func (w *Settlement) Run(ctx context.Context) error {
	backoff := w.MinBackoff
	for {
		start := time.Now()
		handled, err := w.consume(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if handled > 0 || time.Since(start) >= w.MinBackoff {
			backoff = w.MinBackoff
		}
		log.Error().Err(err).Dur("retry_in", backoff).Msg("settlement consumer lost, reconnecting")
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
		if backoff > w.MaxBackoff {
			backoff = w.MaxBackoff
		}
	}
}

// consume drains messages from one consumer session until the session fails
// or ctx is cancelled, returning how many messages it handled.
func (w *Settlement) consume(ctx context.Context) (int, error) {
	c := w.NewConsumer()
	defer c.Close()

	handled := 0
	for {
		msg, err := c.Fetch(ctx)
		if err != nil {
			return handled, err
		}
		w.process(ctx, msg)
		handled++
		if ctx.Err() != nil {
			return handled, ctx.Err()
		}
	}
}

// process settles one intent. Outcomes never propagate as errors: a failed
// reservation is a normal business result and a malformed message is dropped.
func (w *Settlement) process(ctx context.Context, msg queue.Message) {
	intent, err := domain.ParsePurchaseIntent(msg.Value)
	if err != nil {
		settlementsTotal.WithLabelValues("dropped").Inc()
		log.Warn().Err(err).Str("payload", string(msg.Value)).Msg("dropping undecodable purchase intent")
		return
	}

	lg := log.With().
		Int("order_id", intent.OrderID).
		Int("product_id", intent.ProductID).
		Int("quantity", intent.Quantity).
		Logger()

	order, err := w.Repo.GetOrder(ctx, w.DB, intent.OrderID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			settlementsTotal.WithLabelValues("dropped").Inc()
			lg.Warn().Msg("dropping intent for unknown order")
		} else {
			lg.Error().Err(err).Msg("order lookup failed, leaving order pending")
		}
		return
	}
	if order.Terminal() {
		// Re-delivered intent; the first delivery already settled it.
		settlementsTotal.WithLabelValues("skipped").Inc()
		lg.Info().Str("status", order.Status).Msg("order already settled, skipping")
		return
	}

	if w.PaymentDelay > 0 {
		select {
		case <-time.After(w.PaymentDelay):
		case <-ctx.Done():
			return
		}
	}

	applied, err := w.Repo.ReserveStock(ctx, w.DB, intent.ProductID, intent.Quantity)
	if err != nil {
		// Store unavailable; leave the order pending so redelivery retries it.
		lg.Error().Err(err).Msg("stock reservation errored, leaving order pending")
		return
	}

	status := domain.OrderFailed
	if applied {
		status = domain.OrderPaid
	}
	if err := w.Repo.UpdateOrderStatus(ctx, w.DB, intent.OrderID, status); err != nil {
		lg.Error().Err(err).Str("status", status).Msg("order status update failed")
		return
	}
	settlementsTotal.WithLabelValues(status).Inc()
	lg.Info().Str("status", status).Msg("order settled")

	if !applied {
		return
	}

	w.Mirror.RefreshProduct(ctx, intent.ProductID)
	w.publishStock(ctx, intent.ProductID, &lg)
}

func (w *Settlement) publishStock(ctx context.Context, productID int, lg *zerolog.Logger) {
	stock, err := w.Repo.GetStock(ctx, w.DB, productID)
	if err != nil {
		lg.Warn().Err(err).Msg("post-settlement stock read failed")
		return
	}
	payload, _ := json.Marshal(domain.StockEvent{ProductID: productID, Stock: stock})
	if err := w.Events.Publish(ctx, w.Channel, string(payload)); err != nil {
		lg.Warn().Err(err).Msg("stock event publish failed")
		return
	}
	stockEventsPublished.Inc()
}
