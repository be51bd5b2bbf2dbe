package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jwebster45206/eryndor/internal/game"
	"github.com/jwebster45206/eryndor/internal/middleware"
	"github.com/jwebster45206/eryndor/internal/services/events"
)

const keepaliveInterval = 30 * time.Second

// EventsHandler handles Server-Sent Events (SSE) for world changes
type EventsHandler struct {
	broadcaster *events.Broadcaster
	alerts      *game.AlertService
	logger      *slog.Logger
	keepalive   time.Duration
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(broadcaster *events.Broadcaster, alerts *game.AlertService, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		broadcaster: broadcaster,
		alerts:      alerts,
		logger:      logger,
		keepalive:   keepaliveInterval,
	}
}

// ServeHTTP streams world changes in the caller's regions.
// GET /v1/events/world?region=..
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, r, h.logger, http.MethodGet)
		return
	}
	if !h.broadcaster.Enabled() {
		writeJSON(w, h.logger, http.StatusServiceUnavailable, game.Result{
			Error: "Real-time updates are not available.",
		})
		return
	}

	playerID := middleware.PlayerID(r.Context())
	regions, err := requestedRegions(r, func() ([]string, error) {
		return h.alerts.UnlockedRegions(r.Context(), playerID)
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	allowed := make(map[string]bool, len(regions))
	for _, region := range regions {
		allowed[region] = true
	}

	pubsub := h.broadcaster.Subscribe(r.Context())
	defer func() {
		if err := pubsub.Close(); err != nil {
			h.logger.Error("Failed to close pubsub", "error", err)
		}
	}()

	// Wait for the subscription to be confirmed so no event published after
	// "connected" is missed.
	if _, err := pubsub.Receive(r.Context()); err != nil {
		h.logger.Error("Failed to subscribe to world events", "error", err)
		writeJSON(w, h.logger, http.StatusServiceUnavailable, game.Result{
			Error: "Real-time updates are not available.",
		})
		return
	}

	h.logger.Info("SSE connection established",
		"player_id", playerID,
		"regions", regions,
		"remote_addr", r.RemoteAddr)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)

	msgChan := pubsub.Channel()

	keepaliveTicker := time.NewTicker(h.keepalive)
	defer keepaliveTicker.Stop()

	h.sendSSE(w, "connected", map[string]any{
		"regions": regions,
		"message": "Connected to event stream",
	})

	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("SSE client disconnected", "player_id", playerID)
			return

		case msg, ok := <-msgChan:
			if !ok {
				return
			}
			var event events.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				h.logger.Error("Failed to unmarshal event", "error", err, "payload", msg.Payload)
				continue
			}
			if !allowed[event.Region] {
				continue
			}
			h.sendSSE(w, string(event.Type), event.Data)

		case <-keepaliveTicker.C:
			if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
				h.logger.Error("Failed to write keepalive", "error", err)
				return
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
		}
	}
}

// sendSSE sends a Server-Sent Event to the client
func (h *EventsHandler) sendSSE(w http.ResponseWriter, eventType string, data any) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("Failed to marshal SSE data", "error", err)
		return
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, dataJSON); err != nil {
		h.logger.Error("Failed to write event", "error", err)
		return
	}

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}
