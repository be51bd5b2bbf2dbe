package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/eryndor/internal/config"
	"github.com/jwebster45206/eryndor/internal/logger"
	"github.com/jwebster45206/eryndor/internal/services"
	"github.com/jwebster45206/eryndor/internal/services/events"
	"github.com/jwebster45206/eryndor/internal/storage"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Eryndor API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"model_name", cfg.ModelName,
		"world_feed", cfg.RedisURL != "")

	if cfg.AutoMigrate {
		if err := storage.ApplyMigrations(cfg.DatabaseURL, log); err != nil {
			log.Error("Failed to apply migrations", "error", err)
			os.Exit(1)
		}
	}

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	store, err := storage.NewPostgresStorage(storageCtx, cfg.DatabaseURL, log)
	if err != nil {
		log.Error("Failed to create storage", "error", err)
		os.Exit(1)
	}
	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Error("Invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(storageCtx).Err(); err != nil {
			// The world feed is optional; alerts still work by polling.
			log.Warn("Redis unavailable, real-time world feed disabled", "error", err)
			_ = redisClient.Close()
			redisClient = nil
		}
	}

	var broadcaster *events.Broadcaster
	if redisClient != nil {
		broadcaster = events.NewBroadcaster(redisClient, log)
	}

	if cfg.OpenRouterAPIKey == "" {
		log.Warn("OPENROUTER_API_KEY is not set; turns and summaries will fail")
	}
	llm := services.NewOpenRouterService(services.OpenRouterConfig{
		APIKey:   cfg.OpenRouterAPIKey,
		BaseURL:  cfg.OpenRouterBaseURL,
		Model:    cfg.ModelName,
		SiteURL:  cfg.SiteURL,
		AppTitle: cfg.AppTitle,
		Timeout:  cfg.ModelTimeout,
	}, log)

	handler := newRouter(routerDeps{
		store:       store,
		llm:         llm,
		broadcaster: broadcaster,
		redisClient: redisClient,
		jwtSecret:   []byte(cfg.JWTSecret),
		logger:      log,
	})

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the world feed is a long-lived stream.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing redis connection", "error", err)
		}
	}
	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}
