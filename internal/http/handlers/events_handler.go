// Live stock event stream.
//
// This file exposes GET /events, a Server-Sent Events endpoint that relays
// stock updates to connected storefront clients. Each stock change settles
// into one `event: stock` frame with a JSON body; periodic comment frames
// keep intermediaries from reaping the idle connection. Clients reconnect
// automatically per the SSE `retry:` hint.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-store-backend/internal/relay"
)

// EventStream supplies per-client stock event channels. Satisfied by
// relay.Relay.
type EventStream interface {
	// Subscribe returns a channel of events closed when ctx ends.
	Subscribe(ctx context.Context) <-chan relay.Event
}

// StreamEvents godoc
// @ID          streamEvents
// @Summary     Stream stock updates (SSE)
// @Description Server-Sent Events stream of stock changes. Emits `event: stock` frames with {"product_id":N,"stock":M} bodies and keep-alive comments.
// @Tags        Events
// @Produce     text/event-stream
//
// @Success     200  {string}  string  "event stream"
// @Router      /events [get]
func (h *Handlers) StreamEvents(c *gin.Context) {
	w := c.Writer
	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	// Disable proxy buffering so frames reach the client immediately.
	header.Set("X-Accel-Buffering", "no")

	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "streaming unsupported")
		return
	}

	// Reconnect hint for the browser EventSource.
	fmt.Fprint(w, "retry: 3000\n\n")
	flusher.Flush()

	ctx := c.Request.Context()
	events := h.stream.Subscribe(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, open := <-events:
			if !open {
				return
			}
			if ev.KeepAlive {
				fmt.Fprint(w, ": keep-alive\n\n")
				flusher.Flush()
				continue
			}
			body, err := json.Marshal(ev.StockEvent)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: stock\ndata: %s\n\n", body)
			flusher.Flush()
		}
	}
}
