package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jwebster45206/eryndor/internal/metrics"
	"github.com/jwebster45206/eryndor/pkg/chat"
	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultBaseURL  = "https://openrouter.ai/api/v1"
	DefaultModel    = "x-ai/grok-4-fast:free"
	DefaultSiteURL  = "https://v0.app"
	DefaultAppTitle = "Eryndor RPG"

	// HistoryWindow is how many prior messages accompany a turn.
	HistoryWindow = 3

	turnTemperature    = 0.8
	turnMaxTokens      = 1000
	summaryTemperature = 0.7
	summaryMaxTokens   = 800
)

// OpenRouterConfig configures OpenRouterService. Zero values take the defaults above.
type OpenRouterConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	SiteURL  string
	AppTitle string
	// Timeout bounds each model call. Zero leaves the transport default.
	Timeout time.Duration
}

// OpenRouterService implements LLMService against an OpenAI-compatible
// chat-completions endpoint.
type OpenRouterService struct {
	client  *openai.Client
	apiKey  string
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

var _ LLMService = (*OpenRouterService)(nil)

// NewOpenRouterService creates the model client. A missing API key is not an
// error here; calls fail with ErrMissingAPIKey instead.
func NewOpenRouterService(cfg OpenRouterConfig, logger *slog.Logger) *OpenRouterService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.SiteURL == "" {
		cfg.SiteURL = DefaultSiteURL
	}
	if cfg.AppTitle == "" {
		cfg.AppTitle = DefaultAppTitle
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	clientCfg.HTTPClient = &http.Client{
		Transport: &identityTransport{
			base:    http.DefaultTransport,
			referer: cfg.SiteURL,
			title:   cfg.AppTitle,
		},
	}

	return &OpenRouterService{
		client:  openai.NewClientWithConfig(clientCfg),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// GenerateTurn sends [system] + last 3 history messages + [action].
func (s *OpenRouterService) GenerateTurn(ctx context.Context, systemPrompt string, history []chat.ChatMessage, action string) (string, error) {
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, m := range history {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: action,
	})

	return s.complete(ctx, metrics.PurposeTurn, openai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    messages,
		Temperature: turnTemperature,
		MaxTokens:   turnMaxTokens,
	})
}

// GenerateSummary sends the prompt as a single user message.
func (s *OpenRouterService) GenerateSummary(ctx context.Context, prompt string) (string, error) {
	return s.complete(ctx, metrics.PurposeSummary, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: summaryTemperature,
		MaxTokens:   summaryMaxTokens,
	})
}

// complete performs one request and returns the first choice's content,
// or "" when the reply has no choices.
func (s *OpenRouterService) complete(ctx context.Context, purpose string, req openai.ChatCompletionRequest) (string, error) {
	if s.apiKey == "" {
		metrics.ModelRequestsTotal.WithLabelValues(purpose, metrics.StatusError).Inc()
		return "", ErrMissingAPIKey
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)
	metrics.ModelRequestDuration.WithLabelValues(purpose).Observe(duration.Seconds())

	if err != nil {
		metrics.ModelRequestsTotal.WithLabelValues(purpose, metrics.StatusError).Inc()
		err = statusError(err)
		s.logger.Error("Model request failed",
			"purpose", purpose,
			"model", s.model,
			"duration", duration,
			"error", err)
		return "", err
	}

	if len(resp.Choices) == 0 {
		metrics.ModelRequestsTotal.WithLabelValues(purpose, metrics.StatusEmpty).Inc()
		s.logger.Warn("Model returned no choices", "purpose", purpose, "model", s.model)
		return "", nil
	}

	metrics.ModelRequestsTotal.WithLabelValues(purpose, metrics.StatusSuccess).Inc()
	s.logger.Debug("Model request completed",
		"purpose", purpose,
		"model", s.model,
		"duration", duration,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	return resp.Choices[0].Message.Content, nil
}

// statusError converts go-openai HTTP failures into APIStatusError.
func statusError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &APIStatusError{StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &APIStatusError{StatusCode: reqErr.HTTPStatusCode, Body: reqErr.Error()}
	}
	return fmt.Errorf("model request failed: %w", err)
}

// identityTransport adds the caller identification headers OpenRouter
// uses for attribution.
type identityTransport struct {
	base    http.RoundTripper
	referer string
	title   string
}

func (t *identityTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("HTTP-Referer", t.referer)
	req.Header.Set("X-Title", t.title)
	return t.base.RoundTrip(req)
}
