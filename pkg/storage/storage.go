package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/eryndor/pkg/state"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert violates a uniqueness rule
	// that the caller is expected to handle.
	ErrDuplicate = errors.New("duplicate")
)

// WorldChangeQuery filters the world change log.
// Empty Regions means every region; a zero Since means no time bound.
type WorldChangeQuery struct {
	Regions []string
	Since   time.Time
	Limit   int
}

// Storage is the Persistence Gateway. The game core talks to the store only
// through this interface so tests can substitute MockStorage.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Profiles
	GetProfile(ctx context.Context, playerID uuid.UUID) (*state.Profile, error)
	CreateProfile(ctx context.Context, p *state.Profile) error
	UpdateExperience(ctx context.Context, playerID uuid.UUID, experience, level int) error
	UpdateLocation(ctx context.Context, playerID uuid.UUID, location, region string) error
	UpdateSkillSlots(ctx context.Context, playerID uuid.UUID, slots int) error
	UpdateAdventureSummary(ctx context.Context, playerID uuid.UUID, summary string, at time.Time) error

	// Skills
	ListSkills(ctx context.Context, playerID uuid.UUID) ([]state.Skill, error)
	CountSkills(ctx context.Context, playerID uuid.UUID) (int, error)
	// CreateSkill returns ErrDuplicate when the slot is already taken.
	CreateSkill(ctx context.Context, s *state.Skill) error

	// Equipment and inventory
	GetEquipmentByName(ctx context.Context, name string) (*state.Equipment, error)
	ListInventory(ctx context.Context, playerID uuid.UUID) ([]state.InventoryItem, error)
	ListEquippedItems(ctx context.Context, playerID uuid.UUID) ([]state.InventoryItem, error)
	GetInventoryItem(ctx context.Context, playerID, itemID uuid.UUID) (*state.InventoryItem, error)
	// GrantEquipment inserts an unequipped inventory row. A second grant of
	// the same equipment is ignored and reports false.
	GrantEquipment(ctx context.Context, playerID, equipmentID uuid.UUID) (bool, error)
	SetEquipped(ctx context.Context, playerID, itemID uuid.UUID, equipped bool) error
	UnequipCategory(ctx context.Context, playerID uuid.UUID, category string) error

	// NPCs
	ListNPCs(ctx context.Context, region, location string) ([]state.NPC, error)
	// CreateNPC ignores an NPC whose (name, location) already exists and reports false.
	CreateNPC(ctx context.Context, npc *state.NPC) (bool, error)

	// World state
	GetWorldContext(ctx context.Context, region, location string) (*state.WorldContext, error)
	UpdateWorldContext(ctx context.Context, wc *state.WorldContext) error
	CreateWorldChange(ctx context.Context, wc *state.WorldChange) error
	// ListWorldChanges returns matching changes newest first.
	ListWorldChanges(ctx context.Context, q WorldChangeQuery) ([]state.WorldChange, error)
	ListSeenWorldChangeIDs(ctx context.Context, playerID uuid.UUID, changeIDs []uuid.UUID) ([]uuid.UUID, error)
	// MarkWorldChangeSeen succeeds when the change is already marked.
	MarkWorldChangeSeen(ctx context.Context, playerID, changeID uuid.UUID) error

	// Transcript
	SaveMessage(ctx context.Context, m *state.Message) error
	ListSessionMessages(ctx context.Context, sessionID uuid.UUID) ([]state.Message, error)
	// ListRecentMessages returns the newest limit messages of a session in
	// chronological order.
	ListRecentMessages(ctx context.Context, sessionID uuid.UUID, limit int) ([]state.Message, error)
	// ListPlayerMessages returns the newest limit messages of a player across
	// all sessions in chronological order.
	ListPlayerMessages(ctx context.Context, playerID uuid.UUID, limit int) ([]state.Message, error)

	// Sessions
	GetSession(ctx context.Context, sessionID uuid.UUID) (*state.GameSession, error)
	GetLatestSession(ctx context.Context, playerID uuid.UUID) (*state.GameSession, error)
	CreateSession(ctx context.Context, s *state.GameSession) error
	TouchSession(ctx context.Context, sessionID uuid.UUID, at time.Time) error

	// Audit
	LogPlayerAction(ctx context.Context, a *state.PlayerAction) error
}
