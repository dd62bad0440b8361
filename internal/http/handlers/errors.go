// Package handlers defines HTTP-layer error codes used across all API
// endpoints.
//
// These symbolic constants are mapped to HTTP responses via the `fail()`
// helper and give clients a stable, machine-readable error taxonomy that
// supplements human-readable messages. Generic codes mirror common HTTP
// status semantics; domain codes carry business outcomes that a status alone
// cannot (e.g. out_of_stock vs insufficient_stock are both 4xx).
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeProductNotFound   = "product_not_found"
	ErrCodeOrderNotFound     = "order_not_found"
	ErrCodeOutOfStock        = "out_of_stock"
	ErrCodeInsufficientStock = "insufficient_stock"
	ErrCodeBrokerUnavailable = "broker_unavailable"
	ErrCodeListFailed        = "list_failed"
	ErrCodeUpdateFailed      = "update_failed"
)
