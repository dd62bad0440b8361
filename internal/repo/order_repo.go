// Package repo implements the data persistence layer for the storefront,
// backed by GORM. This file provides repository functions for the Order
// model.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-store-backend/internal/domain"
)

// CreateOrder inserts a new pending order and returns it with the
// store-assigned id. On failure, it returns a DB error.
func CreateOrder(ctx context.Context, db *gorm.DB, productID, quantity int) (*domain.Order, error) {
	o := &domain.Order{
		ProductID: productID,
		Quantity:  quantity,
		Status:    domain.OrderPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(o).Error; err != nil {
		return nil, err
	}
	return o, nil
}

// GetOrder fetches a single order by id, or ErrNotFound if missing.
func GetOrder(ctx context.Context, db *gorm.DB, id int) (*domain.Order, error) {
	var o domain.Order
	if err := db.WithContext(ctx).First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateOrderStatus moves an order to the given status. If no rows are
// affected (order missing), it returns ErrNotFound. On DB error, the raw
// error is returned.
func UpdateOrderStatus(ctx context.Context, db *gorm.DB, id int, status string) error {
	res := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
