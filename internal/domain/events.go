// Package domain – wire formats
//
// This file defines the messages that cross process boundaries: the
// purchase-intent record carried by Kafka from order intake to the settlement
// worker, and the stock-change event broadcast on the Redis notification
// channel to live subscribers.
package domain

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// ErrBadEvent is returned when a notification payload is neither a structured
// stock event nor a legacy bare integer.
var ErrBadEvent = errors.New("malformed stock event payload")

// PurchaseIntent is the durable record of an accepted-but-unsettled purchase,
// produced once per accepted order and consumed at least once by the
// settlement worker.
type PurchaseIntent struct {
	OrderID   int `json:"order_id"`
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

// Valid reports whether the decoded intent identifies a real order line.
// Intents that fail this check are poison messages and are dropped.
func (p PurchaseIntent) Valid() bool {
	return p.OrderID > 0 && p.ProductID > 0 && p.Quantity > 0
}

// ParsePurchaseIntent decodes a queued purchase intent and rejects payloads
// that do not identify a real order line.
func ParsePurchaseIntent(payload []byte) (PurchaseIntent, error) {
	var p PurchaseIntent
	if err := json.Unmarshal(payload, &p); err != nil {
		return PurchaseIntent{}, ErrBadEvent
	}
	if !p.Valid() {
		return PurchaseIntent{}, ErrBadEvent
	}
	return p, nil
}

// StockEvent is the payload published on the notification channel after a
// stock change. ProductID may be zero when the event was decoded from the
// legacy bare-integer form; subscribers treat such events as a hint to
// re-fetch rather than an addressed update.
type StockEvent struct {
	ProductID int `json:"product_id,omitempty"`
	Stock     int `json:"stock"`
}

// ParseStockEvent decodes a notification payload. It accepts the structured
// {"product_id":N,"stock":M} form as well as the legacy form where the
// payload is the bare stock integer (older publishers wrote str(stock)).
func ParseStockEvent(payload []byte) (StockEvent, error) {
	s := strings.TrimSpace(string(payload))
	if s == "" {
		return StockEvent{}, ErrBadEvent
	}
	if strings.HasPrefix(s, "{") {
		var ev StockEvent
		if err := json.Unmarshal([]byte(s), &ev); err != nil {
			return StockEvent{}, ErrBadEvent
		}
		if ev.Stock < 0 {
			return StockEvent{}, ErrBadEvent
		}
		return ev, nil
	}
	// Legacy bare integer: wrap as a stock-only event.
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return StockEvent{}, ErrBadEvent
	}
	return StockEvent{Stock: n}, nil
}
