package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/eryndor/internal/game"
	"github.com/jwebster45206/eryndor/internal/middleware"
	"github.com/jwebster45206/eryndor/pkg/chat"
)

// TurnHandler submits player actions to the turn pipeline.
type TurnHandler struct {
	turns  *game.TurnProcessor
	logger *slog.Logger
}

func NewTurnHandler(turns *game.TurnProcessor, logger *slog.Logger) *TurnHandler {
	return &TurnHandler{
		turns:  turns,
		logger: logger,
	}
}

// ServeHTTP handles POST /v1/turn. A processed turn always answers 200; the
// outcome is carried in the body's success and error fields.
func (h *TurnHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, r, h.logger, http.MethodPost)
		return
	}

	var req chat.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid turn request body", "error", err)
		writeBadRequest(w, h.logger, "Invalid request body. Expected JSON with 'action' field.")
		return
	}

	playerID := middleware.PlayerID(r.Context())
	h.logger.Debug("Turn submitted",
		"player_id", playerID,
		"session_id", req.SessionID,
		"action_length", len(req.Action))

	writeJSON(w, h.logger, http.StatusOK, h.turns.ProcessTurn(r.Context(), playerID, req))
}
