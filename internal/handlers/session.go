package handlers

import (
	"log/slog"
	"net/http"

	"github.com/jwebster45206/eryndor/internal/game"
	"github.com/jwebster45206/eryndor/internal/middleware"
	"github.com/jwebster45206/eryndor/pkg/chat"
	"github.com/jwebster45206/eryndor/pkg/state"
)

type SessionResponse struct {
	game.Result
	Session  *state.GameSession       `json:"session,omitempty"`
	Messages []chat.TranscriptMessage `json:"messages"`
}

// SessionHandler resumes the caller's latest session.
type SessionHandler struct {
	sessions *game.SessionService
	logger   *slog.Logger
}

func NewSessionHandler(sessions *game.SessionService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// ServeHTTP handles GET /v1/session
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, r, h.logger, http.MethodGet)
		return
	}

	view, err := h.sessions.Resume(r.Context(), middleware.PlayerID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, SessionResponse{
		Result:   game.OK(),
		Session:  &view.Session,
		Messages: view.Messages,
	})
}
