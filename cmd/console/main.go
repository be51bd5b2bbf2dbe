package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type ConsoleConfig struct {
	APIBaseURL string
	Token      string
	Timeout    time.Duration
}

func main() {
	cfg := &ConsoleConfig{
		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8080"),
		Token:      os.Getenv("ERYNDOR_TOKEN"),
		// Turns wait on the model, so this is generous.
		Timeout: 90 * time.Second,
	}
	if cfg.Token == "" {
		fmt.Fprintf(os.Stderr, "ERYNDOR_TOKEN is not set. Sign in and export your access token first.\n")
		os.Exit(1)
	}

	api := &apiClient{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.APIBaseURL,
		token:   cfg.Token,
	}

	if !api.testConnection() {
		fmt.Fprintf(os.Stderr, "Could not connect to API. Please ensure the API is running.\nTry: docker-compose up -d\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	profile, err := api.ensureProfile(ctx)
	if err != nil {
		cancel()
		fmt.Fprintf(os.Stderr, "Failed to load profile: %v\n", err)
		os.Exit(1)
	}
	session, err := api.resumeSession(ctx)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to resume session: %v\n", err)
		os.Exit(1)
	}

	feedCtx, stopFeed := context.WithCancel(context.Background())
	defer stopFeed()
	events := make(chan SSEEvent, 16)
	go func() {
		// The world feed is optional; the game plays without it.
		_ = api.listenToWorld(feedCtx, events)
		close(events)
	}()

	p := tea.NewProgram(NewConsoleUI(api, profile, session, events),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
