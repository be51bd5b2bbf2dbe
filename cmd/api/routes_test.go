package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/eryndor/internal/game"
	"github.com/jwebster45206/eryndor/internal/middleware"
	"github.com/jwebster45206/eryndor/internal/services"
	"github.com/jwebster45206/eryndor/pkg/chat"
	"github.com/jwebster45206/eryndor/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("router-secret")

func newTestRouter(store *storage.MockStorage, llm *services.MockLLM) http.Handler {
	return newRouter(routerDeps{
		store:     store,
		llm:       llm,
		jwtSecret: secret,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func authed(t *testing.T, method, target, body string, player uuid.UUID) *http.Request {
	t.Helper()
	token, err := middleware.IssueToken(secret, player, "Aria", time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestRouter_PublicEndpoints(t *testing.T) {
	h := newTestRouter(storage.NewMockStorage(), services.NewMockLLM())

	for _, path := range []string{"/health", "/metrics", "/v1/world/history"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}
}

func TestRouter_ProtectedEndpointsRequireToken(t *testing.T) {
	h := newTestRouter(storage.NewMockStorage(), services.NewMockLLM())

	for _, path := range []string{"/v1/profile", "/v1/session", "/v1/turn", "/v1/alerts", "/v1/summary",
		"/v1/skills", "/v1/inventory", "/v1/events/world"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
		assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))
	}
}

func TestRouter_NewPlayerPlaysATurn(t *testing.T) {
	store := storage.NewMockStorage()
	llm := services.NewMockLLM()
	llm.SetTurnResponse(`{"narrative":"Oakhaven bustles around you.","rewards":{"experience":5}}`, nil)
	h := newTestRouter(store, llm)
	player := uuid.New()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authed(t, http.MethodPost, "/v1/profile", "", player))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authed(t, http.MethodPost, "/v1/turn", `{"action":"I look around"}`, player))
	require.Equal(t, http.StatusOK, rr.Code)
	var turn chat.TurnResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&turn))
	require.True(t, turn.Success, turn.Error)
	assert.Equal(t, "Oakhaven bustles around you.", turn.Response)

	profile, err := store.GetProfile(context.Background(), player)
	require.NoError(t, err)
	assert.Equal(t, 5, profile.Experience)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authed(t, http.MethodGet, "/v1/events/world", "", player))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code, "no redis configured")
	var res game.Result
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.False(t, res.Success)
}
