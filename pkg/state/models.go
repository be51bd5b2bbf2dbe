package state

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// MaxExperience is the largest experience total the profiles table can hold.
const MaxExperience = math.MaxInt32

// Profile is one player's persistent character sheet.
type Profile struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	DisplayName      string     `db:"display_name" json:"display_name"`
	Level            int        `db:"level" json:"level"`
	Experience       int        `db:"experience" json:"experience"`
	CurrentLocation  string     `db:"current_location" json:"current_location"`
	CurrentRegion    string     `db:"current_region" json:"current_region"`
	SkillSlots       int        `db:"skill_slots" json:"skill_slots"`
	AdventureSummary *string    `db:"adventure_summary" json:"adventure_summary,omitempty"`
	LastSummaryAt    *time.Time `db:"last_summary_at" json:"last_summary_at,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// Skill belongs to exactly one player and occupies one slot.
type Skill struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PlayerID    uuid.UUID `db:"player_id" json:"player_id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	Element     string    `db:"element" json:"element"`
	BaseDamage  int       `db:"base_damage" json:"base_damage"`
	SlotNumber  int       `db:"slot_number" json:"slot_number"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Equipment is a catalog entry. Players reference it through InventoryItem.
type Equipment struct {
	ID            uuid.UUID          `db:"id" json:"id"`
	Name          string             `db:"name" json:"name"`
	Category      string             `db:"category" json:"category"`
	Tier          int                `db:"tier" json:"tier"`
	StatModifiers map[string]float64 `db:"stat_modifiers" json:"stat_modifiers"`
	UnlockLevel   int                `db:"unlock_level" json:"unlock_level"`
	Description   *string            `db:"description" json:"description,omitempty"`
}

// InventoryItem links a player to a catalog item.
type InventoryItem struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PlayerID    uuid.UUID `db:"player_id" json:"player_id"`
	EquipmentID uuid.UUID `db:"equipment_id" json:"equipment_id"`
	IsEquipped  bool      `db:"is_equipped" json:"is_equipped"`
	AcquiredAt  time.Time `db:"acquired_at" json:"acquired_at"`
	Equipment   Equipment `db:"equipment" json:"equipment"`
}

const (
	ImportanceMinor = "minor"
	ImportanceMajor = "major"
)

// NPC is a named character living at a location.
type NPC struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	Name              string     `db:"name" json:"name"`
	Description       string     `db:"description" json:"description"`
	Location          string     `db:"location" json:"location"`
	Region            string     `db:"region" json:"region"`
	ImportanceLevel   string     `db:"importance_level" json:"importance_level"`
	IsInitial         bool       `db:"is_initial" json:"is_initial"`
	CreatedByPlayerID *uuid.UUID `db:"created_by_player_id" json:"created_by_player_id,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}

// WorldContext is the versioned memory of one location.
type WorldContext struct {
	ID             uuid.UUID      `db:"id" json:"id"`
	Region         string         `db:"region" json:"region"`
	Location       string         `db:"location" json:"location"`
	ContextData    map[string]any `db:"context_data" json:"context_data"`
	Version        int            `db:"version" json:"version"`
	LastModifiedBy *uuid.UUID     `db:"last_modified_by" json:"last_modified_by,omitempty"`
	LastModifiedAt time.Time      `db:"last_modified_at" json:"last_modified_at"`
}

// WorldChange is an append-only record of a world context mutation.
type WorldChange struct {
	ID                  uuid.UUID `db:"id" json:"id"`
	Region              string    `db:"region" json:"region"`
	Location            string    `db:"location" json:"location"`
	ChangeSummary       string    `db:"change_summary" json:"change_summary"`
	ChangedByPlayerID   uuid.UUID `db:"changed_by_player_id" json:"changed_by_player_id"`
	ChangedByPlayerName string    `db:"changed_by_player_name" json:"changed_by_player_name"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
}

// Message is one transcript entry.
type Message struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PlayerID  uuid.UUID `db:"player_id" json:"player_id"`
	SessionID uuid.UUID `db:"session_id" json:"session_id"`
	Role      string    `db:"role" json:"role"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// GameSession tracks a player's activity.
type GameSession struct {
	ID             uuid.UUID `db:"id" json:"id"`
	PlayerID       uuid.UUID `db:"player_id" json:"player_id"`
	StartedAt      time.Time `db:"started_at" json:"started_at"`
	LastActivityAt time.Time `db:"last_activity_at" json:"last_activity_at"`
}

const (
	ActionTypeCombat      = "combat"
	ActionTypeExploration = "exploration"
)

// PlayerAction is the audit record of one processed turn.
type PlayerAction struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	PlayerID   uuid.UUID  `db:"player_id" json:"player_id"`
	ActionType string     `db:"action_type" json:"action_type"`
	Location   string     `db:"location" json:"location"`
	Region     string     `db:"region" json:"region"`
	ActionData ActionData `db:"action_data" json:"action_data"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// ActionData is the opaque payload of a PlayerAction.
type ActionData struct {
	Action   string      `json:"action"`
	Response *AIResponse `json:"response"`
}
