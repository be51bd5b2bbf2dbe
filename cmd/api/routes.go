package main

import (
	"log/slog"
	"net/http"

	"github.com/jwebster45206/eryndor/internal/game"
	"github.com/jwebster45206/eryndor/internal/handlers"
	"github.com/jwebster45206/eryndor/internal/middleware"
	"github.com/jwebster45206/eryndor/internal/services"
	"github.com/jwebster45206/eryndor/internal/services/events"
	"github.com/jwebster45206/eryndor/pkg/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type routerDeps struct {
	store       storage.Storage
	llm         services.LLMService
	broadcaster *events.Broadcaster
	redisClient *redis.Client
	jwtSecret   []byte
	logger      *slog.Logger
}

// newRouter wires the game services to their endpoints. Everything under
// /v1/ except the world history requires a bearer token.
func newRouter(d routerDeps) http.Handler {
	log := d.logger

	var publisher game.WorldChangePublisher
	if d.broadcaster != nil {
		publisher = d.broadcaster
	}
	reconciler := game.NewReconciler(d.store, publisher, log)
	alerts := game.NewAlertService(d.store, log)

	authed := http.NewServeMux()
	authed.Handle("/v1/profile", handlers.NewProfileHandler(game.NewProfileService(d.store, log), log))
	authed.Handle("/v1/session", handlers.NewSessionHandler(game.NewSessionService(d.store, log), log))
	authed.Handle("/v1/turn", handlers.NewTurnHandler(game.NewTurnProcessor(d.store, d.llm, reconciler, log), log))

	alertsHandler := handlers.NewAlertsHandler(alerts, log)
	authed.Handle("/v1/alerts", alertsHandler)
	authed.Handle("/v1/alerts/", alertsHandler)

	authed.Handle("/v1/summary", handlers.NewSummaryHandler(game.NewSummaryService(d.store, d.llm, log), log))
	authed.Handle("/v1/skills", handlers.NewSkillsHandler(game.NewSkillService(d.store, log), log))

	inventoryHandler := handlers.NewInventoryHandler(game.NewInventoryService(d.store, log), log)
	authed.Handle("/v1/inventory", inventoryHandler)
	authed.Handle("/v1/inventory/", inventoryHandler)

	authed.Handle("/v1/events/world", handlers.NewEventsHandler(d.broadcaster, alerts, log))

	mux := http.NewServeMux()
	mux.Handle("/health", handlers.NewHealthHandler(d.store, d.redisClient, log))
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/v1/world/history", handlers.NewWorldHistoryHandler(alerts, log))
	mux.Handle("/v1/", middleware.Auth(d.jwtSecret, log)(authed))

	return middleware.Chain(mux, middleware.Logger(log), middleware.Recover(log))
}
