package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jwebster45206/eryndor/internal/game"
	"github.com/jwebster45206/eryndor/internal/middleware"
)

type SummaryResponse struct {
	game.Result
	Summary       *string    `json:"summary,omitempty"`
	LastSummaryAt *time.Time `json:"last_summary_at,omitempty"`
}

// SummaryHandler generates and reads the adventure summary.
type SummaryHandler struct {
	summaries *game.SummaryService
	logger    *slog.Logger
}

func NewSummaryHandler(summaries *game.SummaryService, logger *slog.Logger) *SummaryHandler {
	return &SummaryHandler{
		summaries: summaries,
		logger:    logger,
	}
}

// ServeHTTP handles GET and POST /v1/summary
func (h *SummaryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.PlayerID(r.Context())

	switch r.Method {
	case http.MethodPost:
		summary, err := h.summaries.Generate(r.Context(), playerID)
		if err != nil {
			h.logger.Error("Summary generation failed", "error", err, "player_id", playerID)
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, h.logger, http.StatusOK, SummaryResponse{Result: game.OK(), Summary: &summary})

	case http.MethodGet:
		stored, err := h.summaries.Get(r.Context(), playerID)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, h.logger, http.StatusOK, SummaryResponse{
			Result:        game.OK(),
			Summary:       stored.Summary,
			LastSummaryAt: stored.LastSummaryAt,
		})

	default:
		writeMethodNotAllowed(w, r, h.logger, http.MethodGet, http.MethodPost)
	}
}
