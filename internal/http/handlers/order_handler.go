// Order HTTP handlers.
//
// This file exposes the purchase intake endpoint and order status polling:
//   - POST /purchase       (accept a purchase, queue settlement)
//   - GET  /orders/{id}    (poll settlement status)
//
// A 202 from POST /purchase means the purchase was accepted, not settled:
// settlement runs asynchronously and the final paid/failed status is reached
// later. Clients poll the order or watch the event stream.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-store-backend/internal/domain"
	"github.com/tbourn/go-store-backend/internal/services"
)

// OrderService defines purchase intake operations consumed by HTTP handlers.
// Implementations must be safe for concurrent use and honor the provided
// context.
type OrderService interface {
	// SubmitPurchase validates, records, and queues a purchase.
	SubmitPurchase(ctx context.Context, productID, quantity int) (*domain.Order, error)
	// GetOrder returns an order for status polling.
	GetOrder(ctx context.Context, id int) (*domain.Order, error)
}

//
// DTOs
//

// PurchaseRequest is the JSON payload for submitting a purchase.
type PurchaseRequest struct {
	ProductID int `json:"product_id" binding:"required" example:"1"`
	Quantity  int `json:"quantity" binding:"required" example:"2"`
}

// OrderResponse is the JSON shape of an order on the public API.
type OrderResponse struct {
	OrderID   int    `json:"order_id" example:"17"`
	ProductID int    `json:"product_id" example:"1"`
	Quantity  int    `json:"quantity" example:"2"`
	Status    string `json:"status" example:"pending" enums:"pending,paid,failed"`
}

func toOrderResponse(o *domain.Order) OrderResponse {
	return OrderResponse{
		OrderID:   o.ID,
		ProductID: o.ProductID,
		Quantity:  o.Quantity,
		Status:    o.Status,
	}
}

//
// Handlers
//

// SubmitPurchase godoc
// @ID          submitPurchase
// @Summary     Submit a purchase
// @Description Accepts a purchase and queues it for asynchronous settlement. The returned order is pending; poll it or watch the event stream for the outcome.
// @Tags        Orders
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.PurchaseRequest  true  "Purchase payload"
//
// @Success     202  {object}  handlers.OrderResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request / not enough stock"
// @Failure     404  {object}  handlers.ErrorResponse  "Product not found"
// @Failure     503  {object}  handlers.ErrorResponse  "Settlement queue unavailable"
// @Router      /purchase [post]
func (h *Handlers) SubmitPurchase(c *gin.Context) {
	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	order, err := h.orderSvc.SubmitPurchase(c.Request.Context(), req.ProductID, req.Quantity)
	if err != nil {
		var insufficient *services.InsufficientStockError
		switch {
		case errors.Is(err, services.ErrInvalidQuantity):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "quantity must be positive")
		case errors.Is(err, services.ErrProductNotFound):
			fail(c, http.StatusNotFound, ErrCodeProductNotFound, "product not found")
		case errors.Is(err, services.ErrOutOfStock):
			fail(c, http.StatusBadRequest, ErrCodeOutOfStock, "product out of stock")
		case errors.As(err, &insufficient):
			failInsufficientStock(c, insufficient.Available)
		case errors.Is(err, services.ErrInsufficientStock):
			fail(c, http.StatusBadRequest, ErrCodeInsufficientStock, "not enough stock for requested quantity")
		case errors.Is(err, services.ErrBrokerUnavailable):
			fail(c, http.StatusServiceUnavailable, ErrCodeBrokerUnavailable, "purchase recorded but settlement queue unavailable, try again")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusAccepted, toOrderResponse(order))
}

// GetOrder godoc
// @ID          getOrder
// @Summary     Get order status
// @Description Returns the current settlement status of an order.
// @Tags        Orders
// @Produce     json
//
// @Param       id  path  int  true  "Order ID"  minimum(1)
//
// @Success     200  {object}  handlers.OrderResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Order not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /orders/{id} [get]
func (h *Handlers) GetOrder(c *gin.Context) {
	id, okID := parseID(c.Param("id"))
	if !okID {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "order id must be a positive integer")
		return
	}

	order, err := h.orderSvc.GetOrder(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			fail(c, http.StatusNotFound, ErrCodeOrderNotFound, "order not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, toOrderResponse(order))
}
