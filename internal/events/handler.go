package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opencanteen/opencanteen/internal/platform/httpx"
)

// Handler streams user events to admin clients over Server-Sent Events.
type Handler struct {
	logger *slog.Logger
	broker *Broker
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, broker *Broker) *Handler {
	return &Handler{logger: logger, broker: broker}
}

// MountRoutes registers event routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/users", h.streamUsers)
}

func (h *Handler) streamUsers(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "streaming unsupported")
		return
	}
	ch, err := h.broker.SubscribeUserEvents(r.Context())
	if err != nil {
		h.logger.Error("subscribe user events", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			payload, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, payload)
			flusher.Flush()
		}
	}
}
