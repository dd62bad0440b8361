package cache

import "fmt"

// StockKey is the mirrored stock scalar for a product, e.g. "product:3:stock".
func StockKey(productID int) string {
	return fmt.Sprintf("product:%d:stock", productID)
}

// ProductKey is the mirrored JSON snapshot for a product, e.g. "product:3:data".
func ProductKey(productID int) string {
	return fmt.Sprintf("product:%d:data", productID)
}
