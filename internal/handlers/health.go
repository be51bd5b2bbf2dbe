package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jwebster45206/eryndor/pkg/storage"
	"github.com/redis/go-redis/v9"
)

type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Service    string            `json:"service"`
	Components map[string]string `json:"components"`
}

type HealthHandler struct {
	store       storage.Storage
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewHealthHandler creates a health handler. redisClient may be nil when the
// world feed is disabled.
func NewHealthHandler(store storage.Storage, redisClient *redis.Client, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		store:       store,
		redisClient: redisClient,
		logger:      logger,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Health check requested",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := make(map[string]string)
	overallStatus := "healthy"

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("Database health check failed", "error", err)
		components["database"] = "unhealthy"
		overallStatus = "degraded"
	} else {
		components["database"] = "healthy"
	}

	switch {
	case h.redisClient == nil:
		components["redis"] = "disabled"
	case h.redisClient.Ping(ctx).Err() != nil:
		h.logger.Warn("Redis health check failed")
		components["redis"] = "unhealthy"
		overallStatus = "degraded"
	default:
		components["redis"] = "healthy"
	}

	statusCode := http.StatusOK
	if overallStatus != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, h.logger, statusCode, HealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Service:    "eryndor",
		Components: components,
	})
}
