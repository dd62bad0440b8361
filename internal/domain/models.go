// Package domain defines the persistence models for products and orders.
// These types are mapped with GORM and form the core data layer of the
// storefront application.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Order lifecycle states. An order is created as pending by order intake and
// moved to exactly one of paid/failed by the settlement worker; both are
// terminal.
const (
	OrderPending = "pending"
	OrderPaid    = "paid"
	OrderFailed  = "failed"
)

// Product represents a stocked item in the catalog. The products table is the
// system of record for stock; the Redis mirror is best-effort and may lag.
//
// Fields:
//   - ID: stable integer primary key.
//   - Name: display name.
//   - Stock: units on hand; never negative in the store (enforced by the
//     guarded decrement in repo.ReserveStock and a DB check constraint).
//   - Price: unit price. Kept as a float to match the cached JSON snapshot;
//     move to integer cents if money arithmetic ever happens server-side.
//   - ImageURL: optional catalog image.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker (retains row for audit/history).
type Product struct {
	ID        int            `json:"id"         gorm:"primaryKey"`
	Name      string         `json:"name"       gorm:"type:varchar(255);not null;index"`
	Stock     int            `json:"stock"      gorm:"not null;default:0;check:stock >= 0"`
	Price     float64        `json:"price"      gorm:"not null;default:0"`
	ImageURL  string         `json:"image_url,omitempty" gorm:"type:varchar(512)"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string { return "products" }

// Order represents a purchase request moving through the fulfillment
// pipeline.
//
// Fields:
//   - ID: store-assigned integer primary key (returned to the caller at
//     intake time, before settlement).
//   - ProductID: foreign key to the purchased product (indexed).
//   - Quantity: positive number of units requested.
//   - Status: pending | paid | failed (enforced by DB constraint).
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - Product: FK association; orders are not cascade-deleted because they
//     are the audit trail of the pipeline.
type Order struct {
	ID        int       `json:"id"         gorm:"primaryKey;autoIncrement"`
	ProductID int       `json:"product_id" gorm:"not null;index"`
	Quantity  int       `json:"quantity"   gorm:"not null;check:quantity > 0"`
	Status    string    `json:"status"     gorm:"type:varchar(32);not null;default:'pending';check:status IN ('pending','paid','failed')"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Product Product `json:"-" gorm:"foreignKey:ProductID;references:ID;constraint:OnUpdate:CASCADE"`
}

// TableName returns the database table name for Order.
func (Order) TableName() string { return "orders" }

// Terminal reports whether the order has reached a final settlement state.
// Redelivered purchase intents for terminal orders are acknowledged without
// touching stock.
func (o *Order) Terminal() bool {
	return o.Status == OrderPaid || o.Status == OrderFailed
}
