// Package services – OrderService
//
// This file implements OrderService, which accepts purchase requests and
// hands them to the settlement pipeline. Intake is deliberately optimistic:
// the stock check here is advisory (it reads through the cache and may be
// stale), and the binding decision is made later by the settlement worker's
// conditional stock reservation. Intake creates the pending order row and
// queues a purchase intent keyed by product id; it never decrements stock.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-store-backend/internal/domain"
	"github.com/tbourn/go-store-backend/internal/repo"
)

// OrderRepo defines the repository contract required by OrderService.
type OrderRepo interface {
	// CreateOrder inserts a pending order row and returns it with its ID.
	CreateOrder(ctx context.Context, db *gorm.DB, productID, quantity int) (*domain.Order, error)

	// GetOrder fetches an order row by ID.
	GetOrder(ctx context.Context, db *gorm.DB, id int) (*domain.Order, error)
}

// StockReader supplies the advisory stock level consulted at intake.
type StockReader interface {
	GetStock(ctx context.Context, id int) (int, error)
}

// IntentPublisher queues purchase intents for the settlement worker.
type IntentPublisher interface {
	Publish(ctx context.Context, key, value []byte) error
}

// OrderService accepts purchases and queues them for settlement.
type OrderService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the order repository used by this service.
	Repo OrderRepo
	// Stock supplies the advisory availability check.
	Stock StockReader
	// Queue carries purchase intents to the settlement worker.
	Queue IntentPublisher
}

// NewOrderService constructs an OrderService.
func NewOrderService(db *gorm.DB, r OrderRepo, stock StockReader, q IntentPublisher) *OrderService {
	return &OrderService{DB: db, Repo: r, Stock: stock, Queue: q}
}

// SubmitPurchase validates the request, creates a pending order, and queues
// the purchase intent. The returned order is pending: settlement happens
// asynchronously and the advisory stock check here does not reserve anything.
//
// ErrBrokerUnavailable means the order row exists but no intent was queued;
// the order stays pending until re-submitted or reconciled.
func (s *OrderService) SubmitPurchase(ctx context.Context, productID, quantity int) (*domain.Order, error) {
	tr := otel.Tracer("services/OrderService")
	ctx, span := tr.Start(ctx, "SubmitPurchase",
		trace.WithAttributes(
			attribute.Int("product.id", productID),
			attribute.Int("quantity", quantity),
		),
	)
	defer span.End()

	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	stock, err := s.Stock.GetStock(ctx, productID)
	if err != nil {
		return nil, err
	}
	if stock == 0 {
		return nil, ErrOutOfStock
	}
	if stock < quantity {
		return nil, &InsufficientStockError{Available: stock}
	}

	order, err := s.Repo.CreateOrder(ctx, s.DB, productID, quantity)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("order.id", order.ID))

	intent := domain.PurchaseIntent{
		OrderID:   order.ID,
		ProductID: productID,
		Quantity:  quantity,
	}
	payload, _ := json.Marshal(intent)
	key := []byte(strconv.Itoa(productID))
	if err := s.Queue.Publish(ctx, key, payload); err != nil {
		return order, ErrBrokerUnavailable
	}
	return order, nil
}

// GetOrder returns an order row by ID for status polling.
func (s *OrderService) GetOrder(ctx context.Context, id int) (*domain.Order, error) {
	order, err := s.Repo.GetOrder(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}
