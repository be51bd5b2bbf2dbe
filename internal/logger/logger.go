package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/eryndor/internal/config"
	"github.com/lmittmann/tint"
)

// Setup configures the global slog logger based on environment
func Setup(cfg *config.Config) *slog.Logger {
	logger := New(os.Stdout, cfg.IsProduction(), cfg.LogLevel)
	slog.SetDefault(logger)
	return logger
}

// New builds a JSON logger for production and a colourised one otherwise.
func New(w io.Writer, production bool, level slog.Level) *slog.Logger {
	if production {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

// WithRequestID adds request ID to logger context
func WithRequestID(logger *slog.Logger, requestID string) *slog.Logger {
	return logger.With("request_id", requestID)
}

// WithError adds error to logger context
func WithError(logger *slog.Logger, err error) *slog.Logger {
	return logger.With("error", err.Error())
}

func WithPlayer(logger *slog.Logger, playerID uuid.UUID) *slog.Logger {
	return logger.With("player_id", playerID.String())
}
