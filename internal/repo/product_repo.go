// Package repo implements the data persistence layer for the storefront,
// backed by GORM. This file provides repository functions for the Product
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a product is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// ReserveStock is the single correctness-critical operation of the whole
// pipeline: the decrement is guarded by the stock predicate inside one
// conditional UPDATE, so concurrent reservations for the same product can
// never jointly overdraw stock regardless of interleaving.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-store-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// GetProduct fetches a single product by id. If the record does not exist,
// it returns ErrNotFound. On other DB errors, the raw error is returned.
func GetProduct(ctx context.Context, db *gorm.DB, id int) (*domain.Product, error) {
	var p domain.Product
	if err := db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// CountProducts returns the total number of products in the catalog.
func CountProducts(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Product{}).Count(&total).Error
	return total, err
}

// ListProductsPage returns a page of products ordered by id. Use
// CountProducts to obtain the total for pagination metadata.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListProductsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Product, error) {
	var out []domain.Product
	err := db.WithContext(ctx).
		Order("id asc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetStock reads the stock scalar for a product. Returns ErrNotFound when
// the product does not exist.
func GetStock(ctx context.Context, db *gorm.DB, id int) (int, error) {
	var stock int
	res := db.WithContext(ctx).
		Model(&domain.Product{}).
		Select("stock").
		Where("id = ?", id).
		Scan(&stock)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrNotFound
	}
	return stock, nil
}

// UpdateStock overwrites a product's stock unconditionally. This is the
// administrative override path, not the reservation path. Returns ErrNotFound
// when no row was affected.
func UpdateStock(ctx context.Context, db *gorm.DB, id, stock int) error {
	res := db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ?", id).
		Update("stock", stock)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReserveStock atomically decrements stock by quantity only when enough stock
// remains. The guard and the decrement are one conditional UPDATE executed in
// its own transaction; the store resolves contention, not the application.
// It reports whether the reservation applied.
func ReserveStock(ctx context.Context, db *gorm.DB, id, quantity int) (bool, error) {
	var applied bool
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Product{}).
			Where("id = ? AND stock >= ?", id, quantity).
			Update("stock", gorm.Expr("stock - ?", quantity))
		if res.Error != nil {
			return res.Error
		}
		applied = res.RowsAffected > 0
		return nil
	})
	return applied, err
}
