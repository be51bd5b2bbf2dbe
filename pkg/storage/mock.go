package storage

import (
	"cmp"
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/eryndor/pkg/state"
)

// MockStorage is an in-memory Storage for tests. It enforces the same
// uniqueness and world-change reference rules as the Postgres schema.
type MockStorage struct {
	mu sync.RWMutex

	profiles      map[uuid.UUID]*state.Profile
	skills        []state.Skill
	equipment     []state.Equipment
	inventory     []state.InventoryItem
	npcs          []state.NPC
	contexts      []state.WorldContext
	changes       []state.WorldChange
	seen          map[uuid.UUID]map[uuid.UUID]bool
	messages      []state.Message
	sessions      []state.GameSession
	actions       []state.PlayerAction
	errors        map[string]error
	seenInserts   int
	pingError     error
	closed        bool
	now           func() time.Time
	lastTimestamp time.Time
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates an empty mock store.
func NewMockStorage() *MockStorage {
	return &MockStorage{
		profiles: make(map[uuid.UUID]*state.Profile),
		seen:     make(map[uuid.UUID]map[uuid.UUID]bool),
		errors:   make(map[string]error),
		now:      time.Now,
	}
}

// SetNow replaces the clock used to stamp rows.
func (m *MockStorage) SetNow(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetError makes the named method fail with err. A nil err clears it.
func (m *MockStorage) SetError(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errors, method)
		return
	}
	m.errors[method] = err
}

// stamp returns a strictly increasing timestamp so ordering by time is stable.
func (m *MockStorage) stamp() time.Time {
	t := m.now()
	if !t.After(m.lastTimestamp) {
		t = m.lastTimestamp.Add(time.Microsecond)
	}
	m.lastTimestamp = t
	return t
}

func (m *MockStorage) fail(method string) error {
	return m.errors[method]
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Profiles

func (m *MockStorage) GetProfile(ctx context.Context, playerID uuid.UUID) (*state.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fail("GetProfile"); err != nil {
		return nil, err
	}
	p, ok := m.profiles[playerID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockStorage) CreateProfile(ctx context.Context, p *state.Profile) error {
	if p == nil {
		return errors.New("profile cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateProfile"); err != nil {
		return err
	}
	if _, ok := m.profiles[p.ID]; ok {
		return ErrDuplicate
	}
	now := m.stamp()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	cp := *p
	m.profiles[p.ID] = &cp
	return nil
}

func (m *MockStorage) updateProfile(method string, playerID uuid.UUID, fn func(p *state.Profile)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(method); err != nil {
		return err
	}
	p, ok := m.profiles[playerID]
	if !ok {
		return ErrNotFound
	}
	fn(p)
	p.UpdatedAt = m.stamp()
	return nil
}

func (m *MockStorage) UpdateExperience(ctx context.Context, playerID uuid.UUID, experience, level int) error {
	return m.updateProfile("UpdateExperience", playerID, func(p *state.Profile) {
		p.Experience = experience
		p.Level = level
	})
}

func (m *MockStorage) UpdateLocation(ctx context.Context, playerID uuid.UUID, location, region string) error {
	return m.updateProfile("UpdateLocation", playerID, func(p *state.Profile) {
		p.CurrentLocation = location
		p.CurrentRegion = region
	})
}

func (m *MockStorage) UpdateSkillSlots(ctx context.Context, playerID uuid.UUID, slots int) error {
	return m.updateProfile("UpdateSkillSlots", playerID, func(p *state.Profile) {
		p.SkillSlots = slots
	})
}

func (m *MockStorage) UpdateAdventureSummary(ctx context.Context, playerID uuid.UUID, summary string, at time.Time) error {
	return m.updateProfile("UpdateAdventureSummary", playerID, func(p *state.Profile) {
		p.AdventureSummary = &summary
		p.LastSummaryAt = &at
	})
}

// Skills

func (m *MockStorage) ListSkills(ctx context.Context, playerID uuid.UUID) ([]state.Skill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fail("ListSkills"); err != nil {
		return nil, err
	}
	var out []state.Skill
	for _, s := range m.skills {
		if s.PlayerID == playerID {
			out = append(out, s)
		}
	}
	slices.SortFunc(out, func(a, b state.Skill) int { return cmp.Compare(a.SlotNumber, b.SlotNumber) })
	return out, nil
}

func (m *MockStorage) CountSkills(ctx context.Context, playerID uuid.UUID) (int, error) {
	skills, err := m.ListSkills(ctx, playerID)
	return len(skills), err
}

func (m *MockStorage) CreateSkill(ctx context.Context, s *state.Skill) error {
	if s == nil {
		return errors.New("skill cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateSkill"); err != nil {
		return err
	}
	for _, existing := range m.skills {
		if existing.PlayerID == s.PlayerID && existing.SlotNumber == s.SlotNumber {
			return ErrDuplicate
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = m.stamp()
	m.skills = append(m.skills, *s)
	return nil
}

// Equipment and inventory

// AddEquipment seeds the equipment catalog and returns the stored entry.
func (m *MockStorage) AddEquipment(e state.Equipment) state.Equipment {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	m.equipment = append(m.equipment, e)
	return e
}

func (m *MockStorage) GetEquipmentByName(ctx context.Context, name string) (*state.Equipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fail("GetEquipmentByName"); err != nil {
		return nil, err
	}
	for _, e := range m.equipment {
		if e.Name == name {
			cp := e
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MockStorage) equipmentByID(id uuid.UUID) state.Equipment {
	for _, e := range m.equipment {
		if e.ID == id {
			return e
		}
	}
	return state.Equipment{ID: id}
}

func (m *MockStorage) ListInventory(ctx context.Context, playerID uuid.UUID) ([]state.InventoryItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fail("ListInventory"); err != nil {
		return nil, err
	}
	var out []state.InventoryItem
	for _, item := range m.inventory {
		if item.PlayerID == playerID {
			item.Equipment = m.equipmentByID(item.EquipmentID)
			out = append(out, item)
		}
	}
	// equipped first, then acquisition order
	slices.SortStableFunc(out, func(a, b state.InventoryItem) int {
		if a.IsEquipped != b.IsEquipped {
			if a.IsEquipped {
				return -1
			}
			return 1
		}
		return a.AcquiredAt.Compare(b.AcquiredAt)
	})
	return out, nil
}

func (m *MockStorage) ListEquippedItems(ctx context.Context, playerID uuid.UUID) ([]state.InventoryItem, error) {
	items, err := m.ListInventory(ctx, playerID)
	if err != nil {
		return nil, err
	}
	var out []state.InventoryItem
	for _, item := range items {
		if item.IsEquipped {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *MockStorage) GetInventoryItem(ctx context.Context, playerID, itemID uuid.UUID) (*state.InventoryItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fail("GetInventoryItem"); err != nil {
		return nil, err
	}
	for _, item := range m.inventory {
		if item.ID == itemID && item.PlayerID == playerID {
			item.Equipment = m.equipmentByID(item.EquipmentID)
			return &item, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MockStorage) GrantEquipment(ctx context.Context, playerID, equipmentID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GrantEquipment"); err != nil {
		return false, err
	}
	for _, item := range m.inventory {
		if item.PlayerID == playerID && item.EquipmentID == equipmentID {
			return false, nil
		}
	}
	m.inventory = append(m.inventory, state.InventoryItem{
		ID:          uuid.New(),
		PlayerID:    playerID,
		EquipmentID: equipmentID,
		AcquiredAt:  m.stamp(),
	})
	return true, nil
}

func (m *MockStorage) SetEquipped(ctx context.Context, playerID, itemID uuid.UUID, equipped bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("SetEquipped"); err != nil {
		return err
	}
	for i := range m.inventory {
		if m.inventory[i].ID == itemID && m.inventory[i].PlayerID == playerID {
			m.inventory[i].IsEquipped = equipped
			return nil
		}
	}
	return ErrNotFound
}

func (m *MockStorage) UnequipCategory(ctx context.Context, playerID uuid.UUID, category string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UnequipCategory"); err != nil {
		return err
	}
	for i := range m.inventory {
		item := &m.inventory[i]
		if item.PlayerID == playerID && m.equipmentByID(item.EquipmentID).Category == category {
			item.IsEquipped = false
		}
	}
	return nil
}

// NPCs

func (m *MockStorage) ListNPCs(ctx context.Context, region, location string) ([]state.NPC, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fail("ListNPCs"); err != nil {
		return nil, err
	}
	var out []state.NPC
	for _, n := range m.npcs {
		if n.Region == region && n.Location == location {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *MockStorage) CreateNPC(ctx context.Context, npc *state.NPC) (bool, error) {
	if npc == nil {
		return false, errors.New("npc cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateNPC"); err != nil {
		return false, err
	}
	for _, n := range m.npcs {
		if n.Name == npc.Name && n.Location == npc.Location {
			return false, nil
		}
	}
	if npc.ID == uuid.Nil {
		npc.ID = uuid.New()
	}
	npc.CreatedAt = m.stamp()
	m.npcs = append(m.npcs, *npc)
	return true, nil
}

// NPCs returns every stored NPC.
func (m *MockStorage) NPCs() []state.NPC {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.npcs)
}

// World state

// AddWorldContext seeds a world context row.
func (m *MockStorage) AddWorldContext(wc state.WorldContext) state.WorldContext {
	m.mu.Lock()
	defer m.mu.Unlock()
	if wc.ID == uuid.Nil {
		wc.ID = uuid.New()
	}
	if wc.Version == 0 {
		wc.Version = 1
	}
	m.contexts = append(m.contexts, wc)
	return wc
}

// WorldContexts returns every stored world context.
func (m *MockStorage) WorldContexts() []state.WorldContext {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.contexts)
}

func (m *MockStorage) GetWorldContext(ctx context.Context, region, location string) (*state.WorldContext, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fail("GetWorldContext"); err != nil {
		return nil, err
	}
	for _, wc := range m.contexts {
		if wc.Region == region && wc.Location == location {
			cp := wc
			cp.ContextData = maps.Clone(wc.ContextData)
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MockStorage) UpdateWorldContext(ctx context.Context, wc *state.WorldContext) error {
	if wc == nil {
		return errors.New("world context cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdateWorldContext"); err != nil {
		return err
	}
	for i := range m.contexts {
		if m.contexts[i].ID == wc.ID {
			m.contexts[i].ContextData = wc.ContextData
			m.contexts[i].Version = wc.Version
			m.contexts[i].LastModifiedBy = wc.LastModifiedBy
			m.contexts[i].LastModifiedAt = wc.LastModifiedAt
			return nil
		}
	}
	return ErrNotFound
}

// AddWorldChange seeds the change log with an explicit timestamp.
func (m *MockStorage) AddWorldChange(wc state.WorldChange) state.WorldChange {
	m.mu.Lock()
	defer m.mu.Unlock()
	if wc.ID == uuid.Nil {
		wc.ID = uuid.New()
	}
	m.changes = append(m.changes, wc)
	return wc
}

// WorldChanges returns the change log in insertion order.
func (m *MockStorage) WorldChanges() []state.WorldChange {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.changes)
}

func (m *MockStorage) CreateWorldChange(ctx context.Context, wc *state.WorldChange) error {
	if wc == nil {
		return errors.New("world change cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateWorldChange"); err != nil {
		return err
	}
	if wc.ID == uuid.Nil {
		wc.ID = uuid.New()
	}
	wc.CreatedAt = m.stamp()
	m.changes = append(m.changes, *wc)
	return nil
}

func (m *MockStorage) ListWorldChanges(ctx context.Context, q WorldChangeQuery) ([]state.WorldChange, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fail("ListWorldChanges"); err != nil {
		return nil, err
	}
	var out []state.WorldChange
	for _, wc := range m.changes {
		if len(q.Regions) > 0 && !slices.Contains(q.Regions, wc.Region) {
			continue
		}
		if !q.Since.IsZero() && wc.CreatedAt.Before(q.Since) {
			continue
		}
		out = append(out, wc)
	}
	slices.SortStableFunc(out, func(a, b state.WorldChange) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *MockStorage) ListSeenWorldChangeIDs(ctx context.Context, playerID uuid.UUID, changeIDs []uuid.UUID) ([]uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fail("ListSeenWorldChangeIDs"); err != nil {
		return nil, err
	}
	var out []uuid.UUID
	for _, id := range changeIDs {
		if m.seen[playerID][id] {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *MockStorage) MarkWorldChangeSeen(ctx context.Context, playerID, changeID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("MarkWorldChangeSeen"); err != nil {
		return err
	}
	if !slices.ContainsFunc(m.changes, func(wc state.WorldChange) bool { return wc.ID == changeID }) {
		return ErrNotFound
	}
	if m.seen[playerID] == nil {
		m.seen[playerID] = make(map[uuid.UUID]bool)
	}
	if !m.seen[playerID][changeID] {
		m.seen[playerID][changeID] = true
		m.seenInserts++
	}
	return nil
}

// SeenCount returns the number of stored seen records.
func (m *MockStorage) SeenCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.seenInserts
}

// Transcript

func (m *MockStorage) SaveMessage(ctx context.Context, msg *state.Message) error {
	if msg == nil {
		return errors.New("message cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("SaveMessage:" + msg.Role); err != nil {
		return err
	}
	if err := m.fail("SaveMessage"); err != nil {
		return err
	}
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	msg.CreatedAt = m.stamp()
	m.messages = append(m.messages, *msg)
	return nil
}

// Messages returns every stored message in insertion order.
func (m *MockStorage) Messages() []state.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.messages)
}

func (m *MockStorage) ListSessionMessages(ctx context.Context, sessionID uuid.UUID) ([]state.Message, error) {
	return m.ListRecentMessages(ctx, sessionID, 0)
}

func (m *MockStorage) ListRecentMessages(ctx context.Context, sessionID uuid.UUID, limit int) ([]state.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fail("ListRecentMessages"); err != nil {
		return nil, err
	}
	var out []state.Message
	for _, msg := range m.messages {
		if msg.SessionID == sessionID {
			out = append(out, msg)
		}
	}
	return tail(out, limit), nil
}

func (m *MockStorage) ListPlayerMessages(ctx context.Context, playerID uuid.UUID, limit int) ([]state.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fail("ListPlayerMessages"); err != nil {
		return nil, err
	}
	var out []state.Message
	for _, msg := range m.messages {
		if msg.PlayerID == playerID {
			out = append(out, msg)
		}
	}
	return tail(out, limit), nil
}

func tail[T any](s []T, limit int) []T {
	if limit > 0 && len(s) > limit {
		return s[len(s)-limit:]
	}
	return s
}

// Sessions

func (m *MockStorage) GetSession(ctx context.Context, sessionID uuid.UUID) (*state.GameSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fail("GetSession"); err != nil {
		return nil, err
	}
	for _, s := range m.sessions {
		if s.ID == sessionID {
			cp := s
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MockStorage) GetLatestSession(ctx context.Context, playerID uuid.UUID) (*state.GameSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fail("GetLatestSession"); err != nil {
		return nil, err
	}
	var latest *state.GameSession
	for i := range m.sessions {
		s := m.sessions[i]
		if s.PlayerID != playerID {
			continue
		}
		if latest == nil || s.LastActivityAt.After(latest.LastActivityAt) {
			latest = &s
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest, nil
}

func (m *MockStorage) CreateSession(ctx context.Context, s *state.GameSession) error {
	if s == nil {
		return errors.New("session cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateSession"); err != nil {
		return err
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	now := m.stamp()
	s.StartedAt = now
	s.LastActivityAt = now
	m.sessions = append(m.sessions, *s)
	return nil
}

func (m *MockStorage) TouchSession(ctx context.Context, sessionID uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("TouchSession"); err != nil {
		return err
	}
	for i := range m.sessions {
		if m.sessions[i].ID == sessionID {
			m.sessions[i].LastActivityAt = at
			return nil
		}
	}
	return ErrNotFound
}

// Audit

func (m *MockStorage) LogPlayerAction(ctx context.Context, a *state.PlayerAction) error {
	if a == nil {
		return errors.New("action cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("LogPlayerAction"); err != nil {
		return err
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = m.stamp()
	m.actions = append(m.actions, *a)
	return nil
}

// Actions returns the audit log.
func (m *MockStorage) Actions() []state.PlayerAction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.actions)
}
