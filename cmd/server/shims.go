package main

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-store-backend/internal/domain"
	"github.com/tbourn/go-store-backend/internal/repo"
)

// repoShim adapts the repository free functions to the interfaces consumed by
// the inventory service and the settlement worker.
type repoShim struct{}

func (repoShim) GetProduct(ctx context.Context, db *gorm.DB, id int) (*domain.Product, error) {
	return repo.GetProduct(ctx, db, id)
}

func (repoShim) CountProducts(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountProducts(ctx, db)
}

func (repoShim) ListProductsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Product, error) {
	return repo.ListProductsPage(ctx, db, offset, limit)
}

func (repoShim) GetStock(ctx context.Context, db *gorm.DB, id int) (int, error) {
	return repo.GetStock(ctx, db, id)
}

func (repoShim) UpdateStock(ctx context.Context, db *gorm.DB, id, stock int) error {
	return repo.UpdateStock(ctx, db, id, stock)
}

func (repoShim) GetOrder(ctx context.Context, db *gorm.DB, id int) (*domain.Order, error) {
	return repo.GetOrder(ctx, db, id)
}

func (repoShim) UpdateOrderStatus(ctx context.Context, db *gorm.DB, id int, status string) error {
	return repo.UpdateOrderStatus(ctx, db, id, status)
}

func (repoShim) ReserveStock(ctx context.Context, db *gorm.DB, productID, quantity int) (bool, error) {
	return repo.ReserveStock(ctx, db, productID, quantity)
}
