package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/eryndor/pkg/state"
	"github.com/jwebster45206/eryndor/pkg/storage"
	"github.com/jwebster45206/eryndor/pkg/world"
)

const (
	// AlertWindow is how far back unseen alerts reach.
	AlertWindow = time.Hour
	// MaxUnseenAlerts caps one unseen-alerts read.
	MaxUnseenAlerts = 5

	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

// AlertService serves the read side of the world change log.
type AlertService struct {
	store  storage.Storage
	logger *slog.Logger
	now    func() time.Time
}

func NewAlertService(store storage.Storage, logger *slog.Logger) *AlertService {
	return &AlertService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Unseen returns up to MaxUnseenAlerts recent changes in the given regions
// that the player has not acknowledged, newest first.
func (s *AlertService) Unseen(ctx context.Context, playerID uuid.UUID, regions []string) ([]state.WorldChange, error) {
	if err := requirePlayer(playerID); err != nil {
		return nil, err
	}

	alerts := []state.WorldChange{}
	if len(regions) == 0 {
		return alerts, nil
	}

	changes, err := s.store.ListWorldChanges(ctx, storage.WorldChangeQuery{
		Regions: regions,
		Since:   s.now().Add(-AlertWindow),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load world changes: %w", err)
	}
	if len(changes) == 0 {
		return alerts, nil
	}

	ids := make([]uuid.UUID, len(changes))
	for i, c := range changes {
		ids[i] = c.ID
	}
	seenIDs, err := s.store.ListSeenWorldChangeIDs(ctx, playerID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load seen changes: %w", err)
	}
	seen := make(map[uuid.UUID]struct{}, len(seenIDs))
	for _, id := range seenIDs {
		seen[id] = struct{}{}
	}

	for _, c := range changes {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		alerts = append(alerts, c)
		if len(alerts) == MaxUnseenAlerts {
			break
		}
	}
	return alerts, nil
}

// MarkSeen records that the player acknowledged a change. Marking the same
// change twice succeeds.
func (s *AlertService) MarkSeen(ctx context.Context, playerID, changeID uuid.UUID) error {
	if err := requirePlayer(playerID); err != nil {
		return err
	}
	if err := s.store.MarkWorldChangeSeen(ctx, playerID, changeID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrWorldChangeNotFound
		}
		return fmt.Errorf("failed to mark alert as seen: %w", err)
	}
	return nil
}

// History returns the newest changes, across the world or in one region.
// A non-positive limit means DefaultHistoryLimit.
func (s *AlertService) History(ctx context.Context, region string, limit int) ([]state.WorldChange, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit = min(limit, MaxHistoryLimit)

	q := storage.WorldChangeQuery{Limit: limit}
	if region != "" {
		q.Regions = []string{region}
	}
	changes, err := s.store.ListWorldChanges(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch world history: %w", err)
	}
	if changes == nil {
		changes = []state.WorldChange{}
	}
	return changes, nil
}

// UnlockedRegions returns the regions open to the player at their current level.
func (s *AlertService) UnlockedRegions(ctx context.Context, playerID uuid.UUID) ([]string, error) {
	if err := requirePlayer(playerID); err != nil {
		return nil, err
	}
	profile, err := s.store.GetProfile(ctx, playerID)
	if err != nil {
		return nil, notFound(err, ErrProfileNotFound)
	}
	return world.UnlockedRegions(profile.Level), nil
}
