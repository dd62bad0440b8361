package handlers

// Handlers groups the HTTP endpoints for products, stock, purchases, and the
// live event stream. It depends on abstract service interfaces to keep
// transport concerns separate from business logic.
type Handlers struct {
	invSvc   InventoryService
	orderSvc OrderService
	stream   EventStream
}

// New constructs a Handlers instance bound to the given services.
func New(invSvc InventoryService, orderSvc OrderService, stream EventStream) *Handlers {
	return &Handlers{invSvc: invSvc, orderSvc: orderSvc, stream: stream}
}
