package game

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jwebster45206/eryndor/pkg/state"
	"github.com/jwebster45206/eryndor/pkg/storage"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedProfile(t *testing.T, store *storage.MockStorage, experience, level int) *state.Profile {
	t.Helper()
	p := &state.Profile{
		ID:              uuid.New(),
		DisplayName:     "Aria",
		Level:           level,
		Experience:      experience,
		CurrentLocation: "Oakhaven",
		CurrentRegion:   "Eryndor",
		SkillSlots:      1,
	}
	require.NoError(t, store.CreateProfile(context.Background(), p))
	return p
}

// fakePublisher records published world changes.
type fakePublisher struct {
	mu      sync.Mutex
	changes []state.WorldChange
	err     error
}

func (f *fakePublisher) PublishWorldChange(ctx context.Context, wc *state.WorldChange) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes = append(f.changes, *wc)
	return f.err
}

func (f *fakePublisher) published() []state.WorldChange {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]state.WorldChange(nil), f.changes...)
}

func intPtr(i int) *int { return &i }
