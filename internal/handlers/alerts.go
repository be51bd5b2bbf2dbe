package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/jwebster45206/eryndor/internal/game"
	"github.com/jwebster45206/eryndor/internal/middleware"
	"github.com/jwebster45206/eryndor/pkg/state"
	"github.com/jwebster45206/eryndor/pkg/world"
)

type WorldChangesResponse struct {
	game.Result
	Changes []state.WorldChange `json:"changes"`
}

// AlertsHandler serves unseen world changes and acknowledges them.
type AlertsHandler struct {
	alerts *game.AlertService
	logger *slog.Logger
}

func NewAlertsHandler(alerts *game.AlertService, logger *slog.Logger) *AlertsHandler {
	return &AlertsHandler{
		alerts: alerts,
		logger: logger,
	}
}

// ServeHTTP handles GET /v1/alerts and POST /v1/alerts/{id}/seen
func (h *AlertsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.PlayerID(r.Context())

	if strings.Trim(r.URL.Path, "/") == "v1/alerts" {
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, r, h.logger, http.MethodGet)
			return
		}

		regions, err := requestedRegions(r, func() ([]string, error) {
			return h.alerts.UnlockedRegions(r.Context(), playerID)
		})
		if err != nil {
			writeError(w, h.logger, err)
			return
		}

		alerts, err := h.alerts.Unseen(r.Context(), playerID, regions)
		if err != nil {
			h.logger.Error("Failed to load alerts", "error", err, "player_id", playerID)
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, h.logger, http.StatusOK, WorldChangesResponse{Result: game.OK(), Changes: alerts})
		return
	}

	changeID, ok := pathID(r.URL.Path, "alerts", "seen")
	if !ok {
		writeJSON(w, h.logger, http.StatusNotFound, game.Result{
			Error: "Invalid path. Expected /v1/alerts/{id}/seen",
		})
		return
	}
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, r, h.logger, http.MethodPost)
		return
	}

	if err := h.alerts.MarkSeen(r.Context(), playerID, changeID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, game.OK())
}

// WorldHistoryHandler serves the public world change log.
type WorldHistoryHandler struct {
	alerts *game.AlertService
	logger *slog.Logger
}

func NewWorldHistoryHandler(alerts *game.AlertService, logger *slog.Logger) *WorldHistoryHandler {
	return &WorldHistoryHandler{
		alerts: alerts,
		logger: logger,
	}
}

// ServeHTTP handles GET /v1/world/history?region=&limit=
func (h *WorldHistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, r, h.logger, http.MethodGet)
		return
	}

	query := r.URL.Query()
	region := strings.TrimSpace(query.Get("region"))
	if region != "" && !world.IsRegion(region) {
		writeBadRequest(w, h.logger, "Unknown region.")
		return
	}

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeBadRequest(w, h.logger, "Limit must be a non-negative integer.")
			return
		}
		limit = n
	}

	changes, err := h.alerts.History(r.Context(), region, limit)
	if err != nil {
		h.logger.Error("Failed to load world history", "error", err, "region", region)
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, WorldChangesResponse{Result: game.OK(), Changes: changes})
}

// requestedRegions reads ?region= (repeated or comma separated). Without it
// the fallback supplies the caller's unlocked regions.
func requestedRegions(r *http.Request, fallback func() ([]string, error)) ([]string, error) {
	var regions []string
	for _, v := range r.URL.Query()["region"] {
		for _, region := range strings.Split(v, ",") {
			if region = strings.TrimSpace(region); region != "" {
				regions = append(regions, region)
			}
		}
	}
	if len(regions) > 0 {
		return regions, nil
	}
	return fallback()
}
