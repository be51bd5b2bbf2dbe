package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jwebster45206/eryndor/internal/game"
	"github.com/jwebster45206/eryndor/internal/middleware"
	"github.com/jwebster45206/eryndor/internal/services/events"
	"github.com/jwebster45206/eryndor/pkg/state"
	"github.com/jwebster45206/eryndor/pkg/storage"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sseEvent struct {
	name string
	data string
}

// readEvent returns the next event, skipping keepalive comments.
func readEvent(t *testing.T, r *bufio.Reader) sseEvent {
	t.Helper()
	var ev sseEvent
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			ev.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		case line == "" && ev.name != "":
			return ev
		}
	}
}

func TestEventsHandler_StreamsUnlockedRegions(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), Protocol: 2})
	t.Cleanup(func() { _ = client.Close() })

	store := storage.NewMockStorage()
	p := seedProfile(t, store, 1)
	broadcaster := events.NewBroadcaster(client, testLogger())
	h := NewEventsHandler(broadcaster, game.NewAlertService(store, testLogger()), testLogger())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r.WithContext(middleware.WithPlayer(r.Context(), p.ID, "Aria")))
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/events/world", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	connected := readEvent(t, reader)
	assert.Equal(t, "connected", connected.name)
	assert.Contains(t, connected.data, "Eryndor")

	locked := &state.WorldChange{ID: uuid.New(), Region: "Ashen Wastes", Location: "Cinder Gate", ChangeSummary: "The gate fell"}
	open := &state.WorldChange{ID: uuid.New(), Region: "Eryndor", Location: "Oakhaven", ChangeSummary: "The well ran dry"}
	require.NoError(t, broadcaster.PublishWorldChange(ctx, locked))
	require.NoError(t, broadcaster.PublishWorldChange(ctx, open))

	ev := readEvent(t, reader)
	assert.Equal(t, string(events.EventTypeWorldChange), ev.name)
	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(ev.data), &data))
	assert.Equal(t, open.ID.String(), data["id"])
	assert.Equal(t, "The well ran dry", data["change_summary"])
}

func TestEventsHandler_Keepalive(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), Protocol: 2})
	t.Cleanup(func() { _ = client.Close() })

	store := storage.NewMockStorage()
	p := seedProfile(t, store, 1)
	h := NewEventsHandler(events.NewBroadcaster(client, testLogger()), game.NewAlertService(store, testLogger()), testLogger())
	h.keepalive = 20 * time.Millisecond

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r.WithContext(middleware.WithPlayer(r.Context(), p.ID, "")))
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/events/world?region=Eryndor", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	assert.Equal(t, "connected", readEvent(t, reader).name)
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if line == ": keepalive\n" {
			return
		}
	}
}

func TestEventsHandler_Unavailable(t *testing.T) {
	store := storage.NewMockStorage()
	p := seedProfile(t, store, 1)
	var disabled *events.Broadcaster
	h := NewEventsHandler(disabled, game.NewAlertService(store, testLogger()), testLogger())

	rr := serve(t, h, p.ID, http.MethodGet, "/v1/events/world", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = serve(t, h, p.ID, http.MethodPost, "/v1/events/world", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestEventsHandler_UnknownProfile(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), Protocol: 2})
	t.Cleanup(func() { _ = client.Close() })

	h := NewEventsHandler(events.NewBroadcaster(client, testLogger()), game.NewAlertService(storage.NewMockStorage(), testLogger()), testLogger())

	rr := serve(t, h, uuid.New(), http.MethodGet, "/v1/events/world", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
