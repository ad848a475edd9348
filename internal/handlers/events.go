package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"vital-backend/internal/middleware"
	"vital-backend/internal/notify"
	"vital-backend/internal/sse"
)

const keepAliveInterval = 30 * time.Second

// EventsHandler is the live update stream dashboards subscribe to with
// EventSource.
type EventsHandler struct {
	hub *notify.Hub
	log zerolog.Logger
}

func NewEventsHandler(hub *notify.Hub, log zerolog.Logger) *EventsHandler {
	return &EventsHandler{hub: hub, log: log}
}

func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	username := middleware.GetUsername(r.Context())

	stream, err := sse.NewWriter(w)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Streaming unsupported", r))
		return
	}

	events, cancel := h.hub.Subscribe(username)
	defer cancel()

	stream.Send("connected", map[string]string{"user": username})
	h.log.Debug().Str("user", username).Msg("event stream opened")

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.log.Debug().Str("user", username).Msg("event stream closed")
			return
		case <-keepAlive.C:
			stream.Send("ping", map[string]int64{"ts": time.Now().UnixMilli()})
		case event, ok := <-events:
			if !ok {
				return
			}
			stream.Send(event.Name, event.Payload)
		}
	}
}
