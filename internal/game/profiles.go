package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/eryndor/pkg/state"
	"github.com/jwebster45206/eryndor/pkg/storage"
	"github.com/jwebster45206/eryndor/pkg/world"
)

// ProfileService creates and reads player profiles.
type ProfileService struct {
	store  storage.Storage
	logger *slog.Logger
}

func NewProfileService(store storage.Storage, logger *slog.Logger) *ProfileService {
	return &ProfileService{store: store, logger: logger}
}

// DefaultDisplayName is used when a player registers without a name.
const DefaultDisplayName = "Adventurer"

// Ensure returns the player's profile, creating a fresh level 1 character in
// the starting town when none exists.
func (s *ProfileService) Ensure(ctx context.Context, playerID uuid.UUID, displayName string) (*state.Profile, error) {
	if err := requirePlayer(playerID); err != nil {
		return nil, err
	}

	profile, err := s.store.GetProfile(ctx, playerID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	name := strings.TrimSpace(displayName)
	if name == "" {
		name = DefaultDisplayName
	}
	profile = &state.Profile{
		ID:              playerID,
		DisplayName:     name,
		Level:           world.LevelForExperience(0),
		Experience:      0,
		CurrentLocation: world.StartLocation,
		CurrentRegion:   world.StartRegion,
		SkillSlots:      world.StartSkillSlots,
	}
	if err := s.store.CreateProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	s.logger.Info("Profile created", "player_id", playerID, "display_name", name)
	return profile, nil
}

func (s *ProfileService) Get(ctx context.Context, playerID uuid.UUID) (*state.Profile, error) {
	if err := requirePlayer(playerID); err != nil {
		return nil, err
	}
	profile, err := s.store.GetProfile(ctx, playerID)
	if err != nil {
		return nil, notFound(err, ErrProfileNotFound)
	}
	return profile, nil
}
