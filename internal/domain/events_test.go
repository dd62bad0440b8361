package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestPurchaseIntent_Valid(t *testing.T) {
	cases := []struct {
		name string
		in   PurchaseIntent
		want bool
	}{
		{"ok", PurchaseIntent{OrderID: 1, ProductID: 2, Quantity: 3}, true},
		{"zero order", PurchaseIntent{ProductID: 2, Quantity: 3}, false},
		{"zero product", PurchaseIntent{OrderID: 1, Quantity: 3}, false},
		{"zero quantity", PurchaseIntent{OrderID: 1, ProductID: 2}, false},
		{"negative quantity", PurchaseIntent{OrderID: 1, ProductID: 2, Quantity: -1}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.Valid(); got != tc.want {
				t.Fatalf("Valid() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestParseStockEvent_Structured(t *testing.T) {
	ev, err := ParseStockEvent([]byte(`{"product_id":7,"stock":42}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.ProductID != 7 || ev.Stock != 42 {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestParseStockEvent_LegacyBareInt(t *testing.T) {
	ev, err := ParseStockEvent([]byte(" 13 "))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.ProductID != 0 || ev.Stock != 13 {
		t.Fatalf("legacy form should wrap as stock-only event, got %+v", ev)
	}
}

func TestParseStockEvent_Malformed(t *testing.T) {
	for _, payload := range []string{"", "nope", "{", `{"stock":-1}`, "-5"} {
		if _, err := ParseStockEvent([]byte(payload)); !errors.Is(err, ErrBadEvent) {
			t.Fatalf("ParseStockEvent(%q) err = %v, want ErrBadEvent", payload, err)
		}
	}
}

func TestStockEvent_JSONShape(t *testing.T) {
	b, err := json.Marshal(StockEvent{ProductID: 3, Stock: 9})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"product_id":3,"stock":9}` {
		t.Fatalf("unexpected wire shape: %s", b)
	}
}

func TestOrder_Terminal(t *testing.T) {
	cases := map[string]bool{
		OrderPending: false,
		OrderPaid:    true,
		OrderFailed:  true,
	}
	for status, want := range cases {
		o := Order{Status: status}
		if got := o.Terminal(); got != want {
			t.Fatalf("Terminal() with %q = %v, want %v", status, got, want)
		}
	}
}
