package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/jwebster45206/eryndor/pkg/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Path    string
	Header  http.Header
	Payload struct {
		Model       string             `json:"model"`
		Messages    []chat.ChatMessage `json:"messages"`
		Temperature float64            `json:"temperature"`
		MaxTokens   int                `json:"max_tokens"`
	}
}

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, func() []capturedRequest) {
	t.Helper()
	var mu sync.Mutex
	var captured []capturedRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var c capturedRequest
		c.Path = r.URL.Path
		c.Header = r.Header.Clone()
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &c.Payload)

		mu.Lock()
		captured = append(captured, c)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedRequest(nil), captured...)
	}
}

func completionBody(content string) string {
	return `{"id":"gen-1","object":"chat.completion","model":"x-ai/grok-4-fast:free",` +
		`"choices":[{"index":0,"message":{"role":"assistant","content":` + mustJSON(content) + `},"finish_reason":"stop"}],` +
		`"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func testService(baseURL, apiKey string) *OpenRouterService {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewOpenRouterService(OpenRouterConfig{APIKey: apiKey, BaseURL: baseURL}, log)
}

func TestOpenRouterService_GenerateTurn(t *testing.T) {
	srv, captured := newTestServer(t, http.StatusOK, completionBody(`{"narrative":"You enter."}`))
	svc := testService(srv.URL, "test-key")

	history := []chat.ChatMessage{
		{Role: chat.ChatRoleUser, Content: "one"},
		{Role: chat.ChatRoleAgent, Content: "two"},
		{Role: chat.ChatRoleUser, Content: "three"},
		{Role: chat.ChatRoleAgent, Content: "four"},
	}

	text, err := svc.GenerateTurn(context.Background(), "SYSTEM", history, "open the door")
	require.NoError(t, err)
	assert.Equal(t, `{"narrative":"You enter."}`, text)

	require.Len(t, captured(), 1)
	req := captured()[0]
	assert.Equal(t, "/chat/completions", req.Path)
	assert.Equal(t, "Bearer test-key", req.Header.Get("Authorization"))
	assert.Equal(t, DefaultSiteURL, req.Header.Get("HTTP-Referer"))
	assert.Equal(t, DefaultAppTitle, req.Header.Get("X-Title"))
	assert.Equal(t, DefaultModel, req.Payload.Model)
	assert.InDelta(t, 0.8, req.Payload.Temperature, 0.0001)
	assert.Equal(t, 1000, req.Payload.MaxTokens)

	assert.Equal(t, []chat.ChatMessage{
		{Role: "system", Content: "SYSTEM"},
		{Role: "assistant", Content: "two"},
		{Role: "user", Content: "three"},
		{Role: "assistant", Content: "four"},
		{Role: "user", Content: "open the door"},
	}, req.Payload.Messages)
}

func TestOpenRouterService_GenerateTurnShortHistory(t *testing.T) {
	srv, captured := newTestServer(t, http.StatusOK, completionBody("ok"))
	svc := testService(srv.URL, "test-key")

	_, err := svc.GenerateTurn(context.Background(), "SYSTEM", nil, "wait")
	require.NoError(t, err)
	require.Len(t, captured(), 1)
	assert.Len(t, captured()[0].Payload.Messages, 2)
}

func TestOpenRouterService_GenerateSummary(t *testing.T) {
	srv, captured := newTestServer(t, http.StatusOK, completionBody("A brave tale."))
	svc := testService(srv.URL, "test-key")

	text, err := svc.GenerateSummary(context.Background(), "summarise this")
	require.NoError(t, err)
	assert.Equal(t, "A brave tale.", text)

	req := captured()[0]
	assert.InDelta(t, 0.7, req.Payload.Temperature, 0.0001)
	assert.Equal(t, 800, req.Payload.MaxTokens)
	assert.Equal(t, []chat.ChatMessage{{Role: "user", Content: "summarise this"}}, req.Payload.Messages)
}

func TestOpenRouterService_MissingAPIKey(t *testing.T) {
	srv, captured := newTestServer(t, http.StatusOK, completionBody("unused"))
	svc := testService(srv.URL, "")

	_, err := svc.GenerateTurn(context.Background(), "SYSTEM", nil, "look")
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = svc.GenerateSummary(context.Background(), "p")
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	assert.Empty(t, captured(), "no request should be sent without a key")
}

func TestOpenRouterService_NonSuccessStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"structured error", http.StatusTooManyRequests, `{"error":{"message":"rate limited","type":"rate_limit_error","code":429}}`},
		{"plain text error", http.StatusBadGateway, `upstream unavailable`},
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key","code":401}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tt.status, tt.body)
			svc := testService(srv.URL, "test-key")

			_, err := svc.GenerateTurn(context.Background(), "SYSTEM", nil, "look")
			require.Error(t, err)

			var statusErr *APIStatusError
			require.True(t, errors.As(err, &statusErr), "got %T: %v", err, err)
			assert.Equal(t, tt.status, statusErr.StatusCode)
			assert.Contains(t, err.Error(), strconv.Itoa(tt.status))
		})
	}
}

func TestOpenRouterService_NoChoices(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `{"id":"gen-2","object":"chat.completion","choices":[]}`)
	svc := testService(srv.URL, "test-key")

	text, err := svc.GenerateTurn(context.Background(), "SYSTEM", nil, "look")
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestOpenRouterService_CustomIdentity(t *testing.T) {
	srv, captured := newTestServer(t, http.StatusOK, completionBody("ok"))
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewOpenRouterService(OpenRouterConfig{
		APIKey:   "k",
		BaseURL:  srv.URL,
		Model:    "other/model",
		SiteURL:  "https://eryndor.example",
		AppTitle: "Eryndor Test",
	}, log)

	_, err := svc.GenerateSummary(context.Background(), "p")
	require.NoError(t, err)

	req := captured()[0]
	assert.Equal(t, "https://eryndor.example", req.Header.Get("HTTP-Referer"))
	assert.Equal(t, "Eryndor Test", req.Header.Get("X-Title"))
	assert.Equal(t, "other/model", req.Payload.Model)
}
