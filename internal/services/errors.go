// Package services defines the business logic for inventory and purchases.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrProductNotFound indicates that the requested product does not exist.
	ErrProductNotFound = errors.New("product not found")

	// ErrOrderNotFound indicates that the requested order does not exist.
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidQuantity is returned when a purchase request carries a
	// quantity that is zero or negative.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrInvalidStock is returned when a stock write carries a negative value.
	ErrInvalidStock = errors.New("stock must be non-negative")

	// ErrOutOfStock is returned when a purchase is requested for a product
	// with no remaining stock at intake time.
	ErrOutOfStock = errors.New("product out of stock")

	// ErrInsufficientStock is returned when the requested quantity exceeds
	// the stock visible at intake time.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrBrokerUnavailable is returned when a purchase intent could not be
	// queued for settlement. The order row is left pending.
	ErrBrokerUnavailable = errors.New("settlement queue unavailable")
)

// InsufficientStockError carries the stock level observed at intake so the
// caller can report how many units were actually available. It matches
// ErrInsufficientStock under errors.Is.
type InsufficientStockError struct {
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: %d available", e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
