package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/go-store-backend/internal/domain"
)

func TestCreateOrder_AssignsIDAndPending(t *testing.T) {
	db := newRepoDB(t, &domain.Product{}, &domain.Order{})
	p := mustCreateProduct(t, db, domain.Product{Name: "Widget", Stock: 5})

	o, err := CreateOrder(context.Background(), db, p.ID, 2)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if o.ID == 0 {
		t.Fatalf("order id not assigned")
	}
	if o.Status != domain.OrderPending || o.ProductID != p.ID || o.Quantity != 2 {
		t.Fatalf("unexpected order: %+v", o)
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	db := newRepoDB(t, &domain.Product{}, &domain.Order{})
	if _, err := GetOrder(context.Background(), db, 123); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateOrderStatus_Lifecycle(t *testing.T) {
	db := newRepoDB(t, &domain.Product{}, &domain.Order{})
	p := mustCreateProduct(t, db, domain.Product{Name: "Widget", Stock: 5})
	o, err := CreateOrder(context.Background(), db, p.ID, 1)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if err := UpdateOrderStatus(context.Background(), db, o.ID, domain.OrderPaid); err != nil {
		t.Fatalf("UpdateOrderStatus: %v", err)
	}

	got, err := GetOrder(context.Background(), db, o.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if got.Status != domain.OrderPaid || !got.Terminal() {
		t.Fatalf("unexpected status: %+v", got)
	}
}

func TestUpdateOrderStatus_MissingOrder(t *testing.T) {
	db := newRepoDB(t, &domain.Product{}, &domain.Order{})
	if err := UpdateOrderStatus(context.Background(), db, 999, domain.OrderFailed); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
