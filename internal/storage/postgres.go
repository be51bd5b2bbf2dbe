package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jwebster45206/eryndor/pkg/state"
	"github.com/jwebster45206/eryndor/pkg/storage"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

const profileColumns = `id, display_name, level, experience, current_location, current_region,
	skill_slots, adventure_summary, last_summary_at, created_at, updated_at`

const inventoryColumns = `pi.id, pi.player_id, pi.equipment_id, pi.is_equipped, pi.acquired_at,
	e.id AS "equipment.id", e.name AS "equipment.name", e.category AS "equipment.category",
	e.tier AS "equipment.tier", e.stat_modifiers AS "equipment.stat_modifiers",
	e.unlock_level AS "equipment.unlock_level", e.description AS "equipment.description"`

const worldChangeColumns = `id, region, location, change_summary, changed_by_player_id, changed_by_player_name, created_at`

const messageColumns = `id, player_id, session_id, role, content, created_at`

// PostgresStorage implements the Storage interface on a pgx connection pool.
type PostgresStorage struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Ensure PostgresStorage implements Storage interface
var _ storage.Storage = (*PostgresStorage)(nil)

// NewPostgresStorage creates a pool for databaseURL. The pool connects lazily;
// call WaitForConnection during startup.
func NewPostgresStorage(ctx context.Context, databaseURL string, logger *slog.Logger) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	return &PostgresStorage{pool: pool, logger: logger}, nil
}

// Health and lifecycle methods

func (p *PostgresStorage) Ping(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	p.logger.Info("Postgres connection pool closed")
	return nil
}

// WaitForConnection waits for Postgres to become available (used during startup)
func (p *PostgresStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := p.Ping(ctx); err != nil {
			p.logger.Debug("Postgres not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for postgres: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		p.logger.Info("Postgres connection established")
		return nil
	}

	return fmt.Errorf("postgres did not become available after %d attempts", maxRetries)
}

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// exec runs a single-row update and maps "no rows" to ErrNotFound.
func (p *PostgresStorage) exec(ctx context.Context, op, query string, args ...any) error {
	tag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		p.logger.Error("Postgres write failed", "op", op, "error", err)
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Profiles

func (p *PostgresStorage) GetProfile(ctx context.Context, playerID uuid.UUID) (*state.Profile, error) {
	var profile state.Profile
	err := pgxscan.Get(ctx, p.pool, &profile, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, playerID)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

func (p *PostgresStorage) CreateProfile(ctx context.Context, profile *state.Profile) error {
	query := `INSERT INTO profiles (id, display_name, level, experience, current_location, current_region, skill_slots)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`
	err := p.pool.QueryRow(ctx, query,
		profile.ID, profile.DisplayName, profile.Level, profile.Experience,
		profile.CurrentLocation, profile.CurrentRegion, profile.SkillSlots,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}
	p.logger.Info("Profile created", "player_id", profile.ID, "display_name", profile.DisplayName)
	return nil
}

func (p *PostgresStorage) UpdateExperience(ctx context.Context, playerID uuid.UUID, experience, level int) error {
	return p.exec(ctx, "update experience",
		`UPDATE profiles SET experience = $2, level = $3, updated_at = NOW() WHERE id = $1`,
		playerID, experience, level)
}

func (p *PostgresStorage) UpdateLocation(ctx context.Context, playerID uuid.UUID, location, region string) error {
	return p.exec(ctx, "update location",
		`UPDATE profiles SET current_location = $2, current_region = $3, updated_at = NOW() WHERE id = $1`,
		playerID, location, region)
}

func (p *PostgresStorage) UpdateSkillSlots(ctx context.Context, playerID uuid.UUID, slots int) error {
	return p.exec(ctx, "update skill slots",
		`UPDATE profiles SET skill_slots = $2, updated_at = NOW() WHERE id = $1`,
		playerID, slots)
}

func (p *PostgresStorage) UpdateAdventureSummary(ctx context.Context, playerID uuid.UUID, summary string, at time.Time) error {
	return p.exec(ctx, "update adventure summary",
		`UPDATE profiles SET adventure_summary = $2, last_summary_at = $3, updated_at = NOW() WHERE id = $1`,
		playerID, summary, at)
}

// Skills

func (p *PostgresStorage) ListSkills(ctx context.Context, playerID uuid.UUID) ([]state.Skill, error) {
	var skills []state.Skill
	err := pgxscan.Select(ctx, p.pool, &skills,
		`SELECT id, player_id, name, description, element, base_damage, slot_number, created_at
		FROM skills WHERE player_id = $1 ORDER BY slot_number`, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	return skills, nil
}

func (p *PostgresStorage) CountSkills(ctx context.Context, playerID uuid.UUID) (int, error) {
	var count int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM skills WHERE player_id = $1`, playerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count skills: %w", err)
	}
	return count, nil
}

func (p *PostgresStorage) CreateSkill(ctx context.Context, s *state.Skill) error {
	query := `INSERT INTO skills (player_id, name, description, element, base_damage, slot_number)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	err := p.pool.QueryRow(ctx, query,
		s.PlayerID, s.Name, s.Description, s.Element, s.BaseDamage, s.SlotNumber,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("failed to create skill: %w", err)
	}
	return nil
}

// Equipment and inventory

func (p *PostgresStorage) GetEquipmentByName(ctx context.Context, name string) (*state.Equipment, error) {
	var e state.Equipment
	err := pgxscan.Get(ctx, p.pool, &e,
		`SELECT id, name, category, tier, stat_modifiers, unlock_level, description
		FROM equipment WHERE name = $1`, name)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get equipment: %w", err)
	}
	return &e, nil
}

func (p *PostgresStorage) listInventory(ctx context.Context, where string, args ...any) ([]state.InventoryItem, error) {
	var items []state.InventoryItem
	query := `SELECT ` + inventoryColumns + `
		FROM player_inventory pi
		JOIN equipment e ON e.id = pi.equipment_id
		WHERE ` + where + `
		ORDER BY pi.is_equipped DESC, pi.acquired_at`
	if err := pgxscan.Select(ctx, p.pool, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	return items, nil
}

func (p *PostgresStorage) ListInventory(ctx context.Context, playerID uuid.UUID) ([]state.InventoryItem, error) {
	return p.listInventory(ctx, `pi.player_id = $1`, playerID)
}

func (p *PostgresStorage) ListEquippedItems(ctx context.Context, playerID uuid.UUID) ([]state.InventoryItem, error) {
	return p.listInventory(ctx, `pi.player_id = $1 AND pi.is_equipped`, playerID)
}

func (p *PostgresStorage) GetInventoryItem(ctx context.Context, playerID, itemID uuid.UUID) (*state.InventoryItem, error) {
	items, err := p.listInventory(ctx, `pi.player_id = $1 AND pi.id = $2`, playerID, itemID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, storage.ErrNotFound
	}
	return &items[0], nil
}

func (p *PostgresStorage) GrantEquipment(ctx context.Context, playerID, equipmentID uuid.UUID) (bool, error) {
	tag, err := p.pool.Exec(ctx,
		`INSERT INTO player_inventory (player_id, equipment_id, is_equipped)
		VALUES ($1, $2, FALSE)
		ON CONFLICT (player_id, equipment_id) DO NOTHING`,
		playerID, equipmentID)
	if err != nil {
		return false, fmt.Errorf("failed to grant equipment: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (p *PostgresStorage) SetEquipped(ctx context.Context, playerID, itemID uuid.UUID, equipped bool) error {
	return p.exec(ctx, "set equipped",
		`UPDATE player_inventory SET is_equipped = $3 WHERE id = $2 AND player_id = $1`,
		playerID, itemID, equipped)
}

func (p *PostgresStorage) UnequipCategory(ctx context.Context, playerID uuid.UUID, category string) error {
	_, err := p.pool.Exec(ctx,
		`UPDATE player_inventory pi SET is_equipped = FALSE
		FROM equipment e
		WHERE e.id = pi.equipment_id AND pi.player_id = $1 AND e.category = $2 AND pi.is_equipped`,
		playerID, category)
	if err != nil {
		return fmt.Errorf("failed to unequip category: %w", err)
	}
	return nil
}

// NPCs

func (p *PostgresStorage) ListNPCs(ctx context.Context, region, location string) ([]state.NPC, error) {
	var npcs []state.NPC
	err := pgxscan.Select(ctx, p.pool, &npcs,
		`SELECT id, name, description, location, region, importance_level, is_initial, created_by_player_id, created_at
		FROM npcs WHERE region = $1 AND location = $2 ORDER BY created_at`, region, location)
	if err != nil {
		return nil, fmt.Errorf("failed to list npcs: %w", err)
	}
	return npcs, nil
}

func (p *PostgresStorage) CreateNPC(ctx context.Context, npc *state.NPC) (bool, error) {
	err := p.pool.QueryRow(ctx,
		`INSERT INTO npcs (name, description, location, region, importance_level, is_initial, created_by_player_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name, location) DO NOTHING
		RETURNING id, created_at`,
		npc.Name, npc.Description, npc.Location, npc.Region, npc.ImportanceLevel, npc.IsInitial, npc.CreatedByPlayerID,
	).Scan(&npc.ID, &npc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create npc: %w", err)
	}
	return true, nil
}

// World state

func (p *PostgresStorage) GetWorldContext(ctx context.Context, region, location string) (*state.WorldContext, error) {
	var wc state.WorldContext
	err := pgxscan.Get(ctx, p.pool, &wc,
		`SELECT id, region, location, context_data, version, last_modified_by, last_modified_at
		FROM world_context WHERE region = $1 AND location = $2`, region, location)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get world context: %w", err)
	}
	return &wc, nil
}

func (p *PostgresStorage) UpdateWorldContext(ctx context.Context, wc *state.WorldContext) error {
	return p.exec(ctx, "update world context",
		`UPDATE world_context
		SET context_data = $2, version = $3, last_modified_by = $4, last_modified_at = $5
		WHERE id = $1`,
		wc.ID, wc.ContextData, wc.Version, wc.LastModifiedBy, wc.LastModifiedAt)
}

func (p *PostgresStorage) CreateWorldChange(ctx context.Context, wc *state.WorldChange) error {
	err := p.pool.QueryRow(ctx,
		`INSERT INTO world_changes (region, location, change_summary, changed_by_player_id, changed_by_player_name)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		wc.Region, wc.Location, wc.ChangeSummary, wc.ChangedByPlayerID, wc.ChangedByPlayerName,
	).Scan(&wc.ID, &wc.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create world change: %w", err)
	}
	return nil
}

func (p *PostgresStorage) ListWorldChanges(ctx context.Context, q storage.WorldChangeQuery) ([]state.WorldChange, error) {
	var (
		conds []string
		args  []any
	)
	if len(q.Regions) > 0 {
		args = append(args, q.Regions)
		conds = append(conds, fmt.Sprintf("region = ANY($%d)", len(args)))
	}
	if !q.Since.IsZero() {
		args = append(args, q.Since)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}

	query := `SELECT ` + worldChangeColumns + ` FROM world_changes`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at DESC`
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var changes []state.WorldChange
	if err := pgxscan.Select(ctx, p.pool, &changes, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list world changes: %w", err)
	}
	return changes, nil
}

func (p *PostgresStorage) ListSeenWorldChangeIDs(ctx context.Context, playerID uuid.UUID, changeIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(changeIDs) == 0 {
		return nil, nil
	}
	var ids []uuid.UUID
	err := pgxscan.Select(ctx, p.pool, &ids,
		`SELECT world_change_id FROM seen_world_changes WHERE player_id = $1 AND world_change_id = ANY($2)`,
		playerID, changeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list seen world changes: %w", err)
	}
	return ids, nil
}

// MarkWorldChangeSeen treats a unique violation as success.
func (p *PostgresStorage) MarkWorldChangeSeen(ctx context.Context, playerID, changeID uuid.UUID) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO seen_world_changes (player_id, world_change_id) VALUES ($1, $2)`,
		playerID, changeID)
	if err != nil {
		switch {
		case isPgError(err, pgUniqueViolation):
			return nil
		case isPgError(err, pgForeignKeyViolation):
			return storage.ErrNotFound
		}
		return fmt.Errorf("failed to mark world change seen: %w", err)
	}
	return nil
}

// Transcript

func (p *PostgresStorage) SaveMessage(ctx context.Context, m *state.Message) error {
	err := p.pool.QueryRow(ctx,
		`INSERT INTO messages (player_id, session_id, role, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		m.PlayerID, m.SessionID, m.Role, m.Content,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

func (p *PostgresStorage) ListSessionMessages(ctx context.Context, sessionID uuid.UUID) ([]state.Message, error) {
	var msgs []state.Message
	err := pgxscan.Select(ctx, p.pool, &msgs,
		`SELECT `+messageColumns+` FROM messages WHERE session_id = $1 ORDER BY created_at`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list session messages: %w", err)
	}
	return msgs, nil
}

func (p *PostgresStorage) ListRecentMessages(ctx context.Context, sessionID uuid.UUID, limit int) ([]state.Message, error) {
	var msgs []state.Message
	err := pgxscan.Select(ctx, p.pool, &msgs,
		`SELECT `+messageColumns+` FROM (
			SELECT `+messageColumns+` FROM messages WHERE session_id = $1 ORDER BY created_at DESC LIMIT $2
		) recent ORDER BY created_at`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent messages: %w", err)
	}
	return msgs, nil
}

func (p *PostgresStorage) ListPlayerMessages(ctx context.Context, playerID uuid.UUID, limit int) ([]state.Message, error) {
	var msgs []state.Message
	err := pgxscan.Select(ctx, p.pool, &msgs,
		`SELECT `+messageColumns+` FROM (
			SELECT `+messageColumns+` FROM messages WHERE player_id = $1 ORDER BY created_at DESC LIMIT $2
		) recent ORDER BY created_at`, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list player messages: %w", err)
	}
	return msgs, nil
}

// Sessions

func (p *PostgresStorage) GetSession(ctx context.Context, sessionID uuid.UUID) (*state.GameSession, error) {
	var s state.GameSession
	err := pgxscan.Get(ctx, p.pool, &s,
		`SELECT id, player_id, started_at, last_activity_at FROM game_sessions WHERE id = $1`, sessionID)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

func (p *PostgresStorage) GetLatestSession(ctx context.Context, playerID uuid.UUID) (*state.GameSession, error) {
	var s state.GameSession
	err := pgxscan.Get(ctx, p.pool, &s,
		`SELECT id, player_id, started_at, last_activity_at FROM game_sessions
		WHERE player_id = $1 ORDER BY last_activity_at DESC LIMIT 1`, playerID)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get latest session: %w", err)
	}
	return &s, nil
}

func (p *PostgresStorage) CreateSession(ctx context.Context, s *state.GameSession) error {
	err := p.pool.QueryRow(ctx,
		`INSERT INTO game_sessions (player_id) VALUES ($1) RETURNING id, started_at, last_activity_at`,
		s.PlayerID,
	).Scan(&s.ID, &s.StartedAt, &s.LastActivityAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (p *PostgresStorage) TouchSession(ctx context.Context, sessionID uuid.UUID, at time.Time) error {
	return p.exec(ctx, "touch session",
		`UPDATE game_sessions SET last_activity_at = $2 WHERE id = $1`, sessionID, at)
}

// Audit

func (p *PostgresStorage) LogPlayerAction(ctx context.Context, a *state.PlayerAction) error {
	err := p.pool.QueryRow(ctx,
		`INSERT INTO player_actions (player_id, action_type, location, region, action_data)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		a.PlayerID, a.ActionType, a.Location, a.Region, a.ActionData,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to log player action: %w", err)
	}
	return nil
}
