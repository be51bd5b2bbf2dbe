package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/eryndor/internal/game"
	"github.com/jwebster45206/eryndor/internal/middleware"
	"github.com/jwebster45206/eryndor/pkg/state"
)

type SkillsResponse struct {
	game.Result
	Skills []state.Skill `json:"skills"`
}

type SkillResponse struct {
	game.Result
	Skill *state.Skill `json:"skill,omitempty"`
}

// SkillsHandler lists and creates the caller's skills.
type SkillsHandler struct {
	skills *game.SkillService
	logger *slog.Logger
}

func NewSkillsHandler(skills *game.SkillService, logger *slog.Logger) *SkillsHandler {
	return &SkillsHandler{
		skills: skills,
		logger: logger,
	}
}

// ServeHTTP handles GET and POST /v1/skills
func (h *SkillsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.PlayerID(r.Context())

	switch r.Method {
	case http.MethodGet:
		skills, err := h.skills.List(r.Context(), playerID)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, h.logger, http.StatusOK, SkillsResponse{Result: game.OK(), Skills: skills})

	case http.MethodPost:
		var req game.NewSkill
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.logger.Warn("Invalid skill request body", "error", err)
			writeBadRequest(w, h.logger, "Invalid request body. Expected JSON with 'name' and 'element' fields.")
			return
		}

		skill, err := h.skills.Create(r.Context(), playerID, req)
		if err != nil {
			h.logger.Info("Skill creation rejected", "error", err, "player_id", playerID)
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, h.logger, http.StatusCreated, SkillResponse{Result: game.OK(), Skill: skill})

	default:
		writeMethodNotAllowed(w, r, h.logger, http.MethodGet, http.MethodPost)
	}
}
