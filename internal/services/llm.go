package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jwebster45206/eryndor/pkg/chat"
)

// ErrMissingAPIKey is returned by every model call when no credential is configured.
var ErrMissingAPIKey = errors.New("OPENROUTER_API_KEY environment variable is not set")

// APIStatusError is returned when the model API answers with a non-success status.
type APIStatusError struct {
	StatusCode int
	Body       string
}

func (e *APIStatusError) Error() string {
	return fmt.Sprintf("OpenRouter API error: %d", e.StatusCode)
}

// LLMService defines the interface for interacting with the model API
type LLMService interface {
	// GenerateTurn sends the system prompt, the tail of the session history
	// and the player's action, and returns the raw reply text.
	GenerateTurn(ctx context.Context, systemPrompt string, history []chat.ChatMessage, action string) (string, error)

	// GenerateSummary sends a single summarisation prompt and returns the raw reply text.
	GenerateSummary(ctx context.Context, prompt string) (string, error)
}
