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

// NewSkill is a player's request to learn a skill.
// A zero SlotNumber takes the lowest free slot.
type NewSkill struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Element     string `json:"element"`
	SlotNumber  int    `json:"slot_number"`
}

type SkillService struct {
	store  storage.Storage
	logger *slog.Logger
}

func NewSkillService(store storage.Storage, logger *slog.Logger) *SkillService {
	return &SkillService{store: store, logger: logger}
}

// List returns the player's skills ordered by slot.
func (s *SkillService) List(ctx context.Context, playerID uuid.UUID) ([]state.Skill, error) {
	if err := requirePlayer(playerID); err != nil {
		return nil, err
	}
	skills, err := s.store.ListSkills(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	if skills == nil {
		skills = []state.Skill{}
	}
	return skills, nil
}

// Create adds a skill in a free slot.
func (s *SkillService) Create(ctx context.Context, playerID uuid.UUID, in NewSkill) (*state.Skill, error) {
	if err := requirePlayer(playerID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidSkill
	}
	element, ok := world.NormalizeElement(in.Element)
	if !ok {
		return nil, ErrInvalidElement
	}

	profile, err := s.store.GetProfile(ctx, playerID)
	if err != nil {
		return nil, notFound(err, ErrProfileNotFound)
	}

	existing, err := s.store.ListSkills(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	if len(existing) >= profile.SkillSlots {
		return nil, ErrNoSkillSlots
	}

	slot, err := pickSlot(in.SlotNumber, profile.SkillSlots, existing)
	if err != nil {
		return nil, err
	}

	skill := &state.Skill{
		PlayerID:   playerID,
		Name:       name,
		Element:    element,
		BaseDamage: world.BaseSkillDamage,
		SlotNumber: slot,
	}
	if d := strings.TrimSpace(in.Description); d != "" {
		skill.Description = &d
	}

	if err := s.store.CreateSkill(ctx, skill); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrInvalidSlot
		}
		return nil, fmt.Errorf("failed to create skill: %w", err)
	}

	s.logger.Info("Skill created",
		"player_id", playerID,
		"skill", skill.Name,
		"element", skill.Element,
		"slot", skill.SlotNumber)
	return skill, nil
}

// pickSlot validates a requested slot, or finds the lowest free one when
// requested is zero.
func pickSlot(requested, capacity int, existing []state.Skill) (int, error) {
	used := make(map[int]bool, len(existing))
	for _, sk := range existing {
		used[sk.SlotNumber] = true
	}

	if requested == 0 {
		for slot := 1; slot <= capacity; slot++ {
			if !used[slot] {
				return slot, nil
			}
		}
		return 0, ErrNoSkillSlots
	}

	if requested < 1 || requested > capacity || used[requested] {
		return 0, ErrInvalidSlot
	}
	return requested, nil
}
