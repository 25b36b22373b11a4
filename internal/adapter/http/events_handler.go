package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/YelzhanWeb/tableside/internal/adapter/logger"
	"github.com/YelzhanWeb/tableside/internal/events"
	"github.com/google/uuid"
)

const (
	keepaliveInterval = 30 * time.Second
	eventBuffer       = 64
)

// EventSource is the subscription side of the event bus
type EventSource interface {
	Subscribe(name string, buffer int) (<-chan events.Event, func())
}

// EventsHandler streams lifecycle events to dashboards over Server-Sent Events
type EventsHandler struct {
	source    EventSource
	keepalive time.Duration
	logger    logger.Logger
}

func NewEventsHandler(source EventSource, logger logger.Logger) *EventsHandler {
	return &EventsHandler{
		source:    source,
		keepalive: keepaliveInterval,
		logger:    logger,
	}
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, "Streaming unsupported", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	subscriberID := "sse-" + uuid.NewString()
	ch, cancel := h.source.Subscribe(subscriberID, eventBuffer)
	defer cancel()

	h.logger.Debug("sse_connected", "New event stream connection", requestID(r), map[string]interface{}{
		"subscriber_id": subscriberID,
	})

	fmt.Fprintf(w, ": connected\n\n")
	fmt.Fprintf(w, "retry: 2000\n\n")
	flusher.Flush()

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Debug("sse_disconnected", "Event stream client disconnected", requestID(r), map[string]interface{}{
				"subscriber_id": subscriberID,
			})
			return

		case <-ticker.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flusher.Flush()

		case evt, ok := <-ch:
			if !ok {
				return
			}

			data, err := json.Marshal(evt)
			if err != nil {
				h.logger.Error("sse_encode_failed", "Failed to encode event", requestID(r), nil, err)
				continue
			}

			fmt.Fprintf(w, "event: %s\n", evt.Type)
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}
