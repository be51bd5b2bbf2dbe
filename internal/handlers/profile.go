package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/eryndor/internal/game"
	"github.com/jwebster45206/eryndor/internal/middleware"
	"github.com/jwebster45206/eryndor/pkg/state"
)

type ProfileRequest struct {
	DisplayName string `json:"display_name"`
}

type ProfileResponse struct {
	game.Result
	Profile *state.Profile `json:"profile,omitempty"`
}

// ProfileHandler creates and reads the caller's profile.
type ProfileHandler struct {
	profiles *game.ProfileService
	logger   *slog.Logger
}

func NewProfileHandler(profiles *game.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		logger:   logger,
	}
}

// ServeHTTP handles GET and POST /v1/profile. POST is idempotent: an existing
// profile is returned unchanged.
func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.PlayerID(r.Context())

	switch r.Method {
	case http.MethodGet:
		profile, err := h.profiles.Get(r.Context(), playerID)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, h.logger, http.StatusOK, ProfileResponse{Result: game.OK(), Profile: profile})

	case http.MethodPost:
		var req ProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			h.logger.Warn("Invalid profile request body", "error", err)
			writeBadRequest(w, h.logger, "Invalid request body.")
			return
		}
		name := req.DisplayName
		if name == "" {
			name = middleware.DisplayName(r.Context())
		}

		profile, err := h.profiles.Ensure(r.Context(), playerID, name)
		if err != nil {
			h.logger.Error("Failed to ensure profile", "error", err, "player_id", playerID)
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, h.logger, http.StatusOK, ProfileResponse{Result: game.OK(), Profile: profile})

	default:
		writeMethodNotAllowed(w, r, h.logger, http.MethodGet, http.MethodPost)
	}
}
