package repo

import (
	"context"
	"testing"

	"github.com/tbourn/go-store-backend/internal/domain"
)

func TestEnsureProduct_CreatesOnce(t *testing.T) {
	db := newRepoDB(t, &domain.Product{})

	if err := EnsureProduct(context.Background(), db, 1, "Widget", 100, 9.99); err != nil {
		t.Fatalf("EnsureProduct: %v", err)
	}

	// Second call must not reset stock.
	if err := UpdateStock(context.Background(), db, 1, 40); err != nil {
		t.Fatalf("UpdateStock: %v", err)
	}
	if err := EnsureProduct(context.Background(), db, 1, "Widget", 100, 9.99); err != nil {
		t.Fatalf("EnsureProduct (second): %v", err)
	}

	stock, err := GetStock(context.Background(), db, 1)
	if err != nil || stock != 40 {
		t.Fatalf("stock = %d, %v; want 40 untouched", stock, err)
	}
}

func TestSeedProducts_IdempotentByName(t *testing.T) {
	db := newRepoDB(t, &domain.Product{})

	added, err := SeedProducts(context.Background(), db, SampleProducts)
	if err != nil {
		t.Fatalf("SeedProducts: %v", err)
	}
	if added != len(SampleProducts) {
		t.Fatalf("added = %d, want %d", added, len(SampleProducts))
	}

	added, err = SeedProducts(context.Background(), db, SampleProducts)
	if err != nil {
		t.Fatalf("SeedProducts (second): %v", err)
	}
	if added != 0 {
		t.Fatalf("second run added %d rows, want 0", added)
	}

	all, err := ListAllProducts(context.Background(), db)
	if err != nil {
		t.Fatalf("ListAllProducts: %v", err)
	}
	if len(all) != len(SampleProducts) {
		t.Fatalf("catalog size = %d, want %d", len(all), len(SampleProducts))
	}
}
