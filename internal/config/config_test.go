package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/eryndor")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	for _, key := range []string{"PORT", "ENVIRONMENT", "LOG_LEVEL", "REDIS_URL", "OPENROUTER_BASE_URL",
		"MODEL_NAME", "SITE_URL", "APP_TITLE", "AUTO_MIGRATE", "MODEL_TIMEOUT", "OPENROUTER_API_KEY"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.OpenRouterBaseURL)
	assert.Equal(t, "x-ai/grok-4-fast:free", cfg.ModelName)
	assert.Equal(t, "https://v0.app", cfg.SiteURL)
	assert.Equal(t, "Eryndor RPG", cfg.AppTitle)
	assert.True(t, cfg.AutoMigrate)
	assert.Zero(t, cfg.ModelTimeout)
	assert.Empty(t, cfg.RedisURL)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9000")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("AUTO_MIGRATE", "false")
	t.Setenv("MODEL_TIMEOUT", "45s")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, 45*time.Second, cfg.ModelTimeout)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "missing database", env: map[string]string{"DATABASE_URL": ""}, wantErr: "DATABASE_URL is required"},
		{name: "missing secret", env: map[string]string{"JWT_SECRET": ""}, wantErr: "JWT_SECRET is required"},
		{name: "bad migrate flag", env: map[string]string{"AUTO_MIGRATE": "sometimes"}, wantErr: "invalid AUTO_MIGRATE"},
		{name: "bad timeout", env: map[string]string{"MODEL_TIMEOUT": "soon"}, wantErr: "invalid MODEL_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv("AUTO_MIGRATE", "")
			t.Setenv("MODEL_TIMEOUT", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLogLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("verbose"))
}
