package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/eryndor/internal/game"
	"github.com/jwebster45206/eryndor/internal/services"
)

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// writeError reports err as a failed result with a status derived from it.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	writeJSON(w, logger, statusFor(err), game.Fail(err))
}

func writeBadRequest(w http.ResponseWriter, logger *slog.Logger, message string) {
	writeJSON(w, logger, http.StatusBadRequest, game.Result{Error: message})
}

func writeMethodNotAllowed(w http.ResponseWriter, r *http.Request, logger *slog.Logger, allowed ...string) {
	logger.Warn("Method not allowed",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeJSON(w, logger, http.StatusMethodNotAllowed, game.Result{
		Error: "Method not allowed. Only " + strings.Join(allowed, ", ") + " supported.",
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, game.ErrProfileNotFound),
		errors.Is(err, game.ErrSessionNotFound),
		errors.Is(err, game.ErrItemNotFound),
		errors.Is(err, game.ErrWorldChangeNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrEmptyAction),
		errors.Is(err, game.ErrInvalidSkill),
		errors.Is(err, game.ErrInvalidElement),
		errors.Is(err, game.ErrInvalidSlot),
		errors.Is(err, game.ErrNoHistory):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrNoSkillSlots):
		return http.StatusConflict
	case errors.Is(err, game.ErrAINotConfigured), errors.Is(err, services.ErrMissingAPIKey):
		return http.StatusServiceUnavailable
	case errors.Is(err, game.ErrSummaryFailed), errors.Is(err, game.ErrEmptyReply):
		return http.StatusBadGateway
	}
	var apiErr *services.APIStatusError
	if errors.As(err, &apiErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// pathID extracts the id from paths shaped /v1/{resource}/{id}/{action}.
func pathID(path, resource, action string) (uuid.UUID, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 4 || parts[0] != "v1" || parts[1] != resource || parts[3] != action {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(parts[2])
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
