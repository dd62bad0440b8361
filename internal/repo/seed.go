// Package repo – seeding
//
// Startup helpers that guarantee a usable catalog: EnsureProduct creates the
// configured default product when absent, and SeedProducts loads the sample
// catalog idempotently (matched by name, so re-running a deploy never
// duplicates rows).
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-store-backend/internal/domain"
)

// SampleProducts is the demo catalog loaded at startup.
var SampleProducts = []domain.Product{
	{Name: "Laptop Pro 14", Stock: 20, Price: 1499.00},
	{Name: "Wireless Mouse", Stock: 150, Price: 24.99},
	{Name: "Mechanical Keyboard", Stock: 80, Price: 89.99},
	{Name: "USB-C Hub", Stock: 120, Price: 39.99},
	{Name: "Noise-cancelling Headphones", Stock: 35, Price: 199.99},
	{Name: "4K Monitor 27\"", Stock: 25, Price: 329.99},
	{Name: "Portable SSD 1TB", Stock: 60, Price: 99.99},
	{Name: "Smartphone Charger 65W", Stock: 200, Price: 19.99},
	{Name: "Webcam 1080p", Stock: 75, Price: 49.99},
	{Name: "Bluetooth Speaker", Stock: 40, Price: 59.99},
}

// EnsureProduct creates the product with the given id when it does not exist
// yet. Existing rows are left untouched, including their stock.
func EnsureProduct(ctx context.Context, db *gorm.DB, id int, name string, stock int, price float64) error {
	var p domain.Product
	err := db.WithContext(ctx).First(&p, id).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	return db.WithContext(ctx).Create(&domain.Product{
		ID:    id,
		Name:  name,
		Stock: stock,
		Price: price,
	}).Error
}

// SeedProducts inserts any of the given products whose name is not present
// yet and returns the number of rows added.
func SeedProducts(ctx context.Context, db *gorm.DB, products []domain.Product) (int, error) {
	added := 0
	for _, p := range products {
		var count int64
		if err := db.WithContext(ctx).
			Model(&domain.Product{}).
			Where("name = ?", p.Name).
			Count(&count).Error; err != nil {
			return added, err
		}
		if count > 0 {
			continue
		}
		row := p // insert a copy so the shared slice keeps zero IDs
		if err := db.WithContext(ctx).Create(&row).Error; err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

// ListAllProducts returns the full catalog ordered by id. Used by the cache
// warm pass after seeding; prefer ListProductsPage for request paths.
func ListAllProducts(ctx context.Context, db *gorm.DB) ([]domain.Product, error) {
	var out []domain.Product
	err := db.WithContext(ctx).Order("id asc").Find(&out).Error
	return out, err
}
