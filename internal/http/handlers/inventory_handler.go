// Inventory HTTP handlers.
//
// This file exposes REST endpoints for the product catalog and stock:
//   - GET  /products        (list, paginated)
//   - GET  /products/{id}   (single product snapshot)
//   - GET  /stock           (stock level for ?product_id=)
//   - PUT  /stock           (admin stock override)
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-store-backend/internal/services"
	"github.com/tbourn/go-store-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// InventoryService defines catalog and stock operations consumed by HTTP
// handlers. Implementations must be safe for concurrent use and honor the
// provided context.
type InventoryService interface {
	// GetStock returns the stock level for a product (cache-aside).
	GetStock(ctx context.Context, id int) (int, error)
	// GetProduct returns the product snapshot (cache-aside).
	GetProduct(ctx context.Context, id int) (*services.ProductSnapshot, error)
	// ListProducts returns a page of products and the total count.
	ListProducts(ctx context.Context, page, pageSize int) ([]services.ProductSnapshot, int64, error)
	// SetStock overwrites a product's stock level (write-through).
	SetStock(ctx context.Context, id, stock int) error
}

//
// DTOs
//

// ProductResponse is the JSON shape of a product on the public API.
type ProductResponse struct {
	ID           int     `json:"id" example:"1"`
	Name         string  `json:"name" example:"Walnut Desk Organizer"`
	Stock        int     `json:"stock" example:"25"`
	Price        float64 `json:"price" example:"34.5"`
	PriceDisplay string  `json:"price_display" example:"$34.50"`
	ImageURL     string  `json:"image_url" example:"https://example.com/organizer.png"`
}

// StockResponse reports a product's stock level.
type StockResponse struct {
	ProductID int `json:"product_id" example:"1"`
	Stock     int `json:"stock" example:"25"`
}

// UpdateStockRequest is the JSON payload for the admin stock override.
type UpdateStockRequest struct {
	ProductID int `json:"product_id" binding:"required" example:"1"`
	// Stock is the new absolute level, not a delta.
	Stock *int `json:"stock" binding:"required" example:"40"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListProductsResponse wraps a page of products and pagination information.
type ListProductsResponse struct {
	Products   []ProductResponse `json:"products"`
	Pagination Pagination        `json:"pagination"`
}

//
// Helpers
//

// toProductResponse derives the API shape from a service snapshot.
func toProductResponse(s *services.ProductSnapshot) ProductResponse {
	return ProductResponse{
		ID:           s.ID,
		Name:         s.Name,
		Stock:        s.Stock,
		Price:        s.Price,
		PriceDisplay: utils.FormatPrice(s.Price),
		ImageURL:     s.ImageURL,
	}
}

// clampPagination parses and bounds page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// parseID parses a positive integer identifier from s.
func parseID(s string) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

//
// Handlers
//

// ListProducts godoc
// @ID          listProducts
// @Summary     List products (paginated)
// @Description Returns a page of the catalog with current stock levels.
// @Tags        Products
// @Produce     json
//
// @Param       page       query  int  false "Page number"     minimum(1) default(1)
// @Param       page_size  query  int  false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListProductsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /products [get]
func (h *Handlers) ListProducts(c *gin.Context) {
	page, pageSize := clampPagination(c)

	items, total, err := h.invSvc.ListProducts(c.Request.Context(), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	products := make([]ProductResponse, 0, len(items))
	for i := range items {
		products = append(products, toProductResponse(&items[i]))
	}
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListProductsResponse{
		Products: products,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetProduct godoc
// @ID          getProduct
// @Summary     Get a product
// @Description Returns one product snapshot, served from the cache when warm.
// @Tags        Products
// @Produce     json
//
// @Param       id  path  int  true  "Product ID"  minimum(1)
//
// @Success     200  {object}  handlers.ProductResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Product not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /products/{id} [get]
func (h *Handlers) GetProduct(c *gin.Context) {
	id, okID := parseID(c.Param("id"))
	if !okID {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "product id must be a positive integer")
		return
	}

	snap, err := h.invSvc.GetProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			fail(c, http.StatusNotFound, ErrCodeProductNotFound, "product not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, toProductResponse(snap))
}

// GetStock godoc
// @ID          getStock
// @Summary     Get stock level
// @Description Returns the stock level for a product, served from the cache when warm.
// @Tags        Stock
// @Produce     json
//
// @Param       product_id  query  int  true  "Product ID"  minimum(1)
//
// @Success     200  {object}  handlers.StockResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Product not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /stock [get]
func (h *Handlers) GetStock(c *gin.Context) {
	id, okID := parseID(c.Query("product_id"))
	if !okID {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "product_id query param must be a positive integer")
		return
	}

	stock, err := h.invSvc.GetStock(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			fail(c, http.StatusNotFound, ErrCodeProductNotFound, "product not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, StockResponse{ProductID: id, Stock: stock})
}

// UpdateStock godoc
// @ID          updateStock
// @Summary     Override stock level
// @Description Sets a product's stock to an absolute value, refreshes the cache, and notifies subscribers.
// @Tags        Stock
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.UpdateStockRequest  true  "New stock level"
//
// @Success     200  {object}  handlers.StockResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Product not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /stock [put]
func (h *Handlers) UpdateStock(c *gin.Context) {
	var req UpdateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Stock == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "product_id and stock required")
		return
	}
	if req.ProductID <= 0 || *req.Stock < 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "product_id must be positive and stock non-negative")
		return
	}

	if err := h.invSvc.SetStock(c.Request.Context(), req.ProductID, *req.Stock); err != nil {
		switch {
		case errors.Is(err, services.ErrProductNotFound):
			fail(c, http.StatusNotFound, ErrCodeProductNotFound, "product not found")
		case errors.Is(err, services.ErrInvalidStock):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "stock must be non-negative")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, StockResponse{ProductID: req.ProductID, Stock: *req.Stock})
}
