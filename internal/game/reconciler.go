package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jwebster45206/eryndor/internal/metrics"
	"github.com/jwebster45206/eryndor/pkg/state"
	"github.com/jwebster45206/eryndor/pkg/storage"
	"github.com/jwebster45206/eryndor/pkg/world"
)

// WorldChangePublisher pushes freshly recorded world changes to live clients.
type WorldChangePublisher interface {
	PublishWorldChange(ctx context.Context, wc *state.WorldChange) error
}

// Reconciler applies a parsed model reply to the store.
//
// Each optional section of the reply maps to one step. Steps run in a fixed
// order and are individually idempotent; they are not wrapped in a
// transaction, so a failing step leaves earlier steps applied. Missing world
// contexts, duplicate NPCs and unknown equipment are no-ops, not failures.
type Reconciler struct {
	store     storage.Storage
	publisher WorldChangePublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewReconciler creates a reconciler. publisher may be nil.
func NewReconciler(store storage.Storage, publisher WorldChangePublisher, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		store:     store,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

type reconcileStep struct {
	name  string
	apply func(ctx context.Context, p *state.Profile, resp *state.AIResponse) error
}

func (r *Reconciler) steps() []reconcileStep {
	return []reconcileStep{
		{"experience", r.applyExperience},
		{"location", r.applyLocation},
		{"skill_slot", r.applySkillSlot},
		{"world_change", r.applyWorldChange},
		{"new_npc", r.applyNewNPC},
		{"equipment", r.applyEquipment},
	}
}

// Apply runs every step against the profile snapshot taken before the model
// call. It stops at the first failing step.
func (r *Reconciler) Apply(ctx context.Context, profile *state.Profile, resp *state.AIResponse) error {
	if profile == nil || resp == nil {
		return errors.New("profile and response are required")
	}
	for _, step := range r.steps() {
		if err := step.apply(ctx, profile, resp); err != nil {
			return fmt.Errorf("failed to apply %s: %w", step.name, err)
		}
	}
	return nil
}

func (r *Reconciler) applyExperience(ctx context.Context, p *state.Profile, resp *state.AIResponse) error {
	delta := resp.ExperienceDelta()
	if delta == 0 {
		return nil
	}
	// Totals saturate at the column limit.
	experience := p.Experience + min(delta, state.MaxExperience-p.Experience)
	level := world.LevelForExperience(experience)
	if err := r.store.UpdateExperience(ctx, p.ID, experience, level); err != nil {
		return err
	}
	if level > p.Level {
		r.logger.Info("Player leveled up", "player_id", p.ID, "level", level)
	}
	return nil
}

func (r *Reconciler) applyLocation(ctx context.Context, p *state.Profile, resp *state.AIResponse) error {
	lc := resp.LocationChange
	if lc == nil {
		return nil
	}
	return r.store.UpdateLocation(ctx, p.ID, lc.NewLocation, lc.NewRegion)
}

func (r *Reconciler) applySkillSlot(ctx context.Context, p *state.Profile, resp *state.AIResponse) error {
	if resp.Rewards == nil || !resp.Rewards.SkillSlot {
		return nil
	}
	return r.store.UpdateSkillSlots(ctx, p.ID, p.SkillSlots+1)
}

func (r *Reconciler) applyWorldChange(ctx context.Context, p *state.Profile, resp *state.AIResponse) error {
	out := resp.WorldChange
	if out == nil {
		return nil
	}

	wc, err := r.store.GetWorldContext(ctx, out.Region, out.Location)
	if errors.Is(err, storage.ErrNotFound) {
		r.logger.Debug("Ignoring world change for unknown location",
			"region", out.Region,
			"location", out.Location)
		return nil
	}
	if err != nil {
		return err
	}

	now := r.now()
	modifier := p.ID
	wc.ContextData = out.NewContextData
	wc.Version++
	wc.LastModifiedBy = &modifier
	wc.LastModifiedAt = now
	if err := r.store.UpdateWorldContext(ctx, wc); err != nil {
		return err
	}

	change := &state.WorldChange{
		Region:              out.Region,
		Location:            out.Location,
		ChangeSummary:       out.ChangeSummary,
		ChangedByPlayerID:   p.ID,
		ChangedByPlayerName: p.DisplayName,
	}
	if err := r.store.CreateWorldChange(ctx, change); err != nil {
		return err
	}
	metrics.WorldChangesTotal.WithLabelValues(change.Region).Inc()

	r.logger.Info("World changed",
		"region", change.Region,
		"location", change.Location,
		"version", wc.Version,
		"player_id", p.ID)

	// Live delivery is best effort; polling still finds the change.
	if r.publisher != nil {
		if err := r.publisher.PublishWorldChange(ctx, change); err != nil {
			r.logger.Warn("Failed to publish world change", "error", err, "world_change_id", change.ID)
		}
	}
	return nil
}

func (r *Reconciler) applyNewNPC(ctx context.Context, p *state.Profile, resp *state.AIResponse) error {
	n := resp.NewNPC
	if n == nil {
		return nil
	}
	creator := p.ID
	created, err := r.store.CreateNPC(ctx, &state.NPC{
		Name:              n.Name,
		Description:       n.Description,
		Location:          n.Location,
		Region:            n.Region,
		ImportanceLevel:   state.ImportanceMinor,
		CreatedByPlayerID: &creator,
	})
	if err != nil {
		return err
	}
	if !created {
		r.logger.Debug("NPC already exists", "name", n.Name, "location", n.Location)
	}
	return nil
}

func (r *Reconciler) applyEquipment(ctx context.Context, p *state.Profile, resp *state.AIResponse) error {
	if resp.Rewards == nil || resp.Rewards.Equipment == "" {
		return nil
	}
	name := resp.Rewards.Equipment

	eq, err := r.store.GetEquipmentByName(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		r.logger.Debug("Ignoring unknown equipment reward", "equipment", name)
		return nil
	}
	if err != nil {
		return err
	}

	granted, err := r.store.GrantEquipment(ctx, p.ID, eq.ID)
	if err != nil {
		return err
	}
	if granted {
		r.logger.Info("Equipment granted", "player_id", p.ID, "equipment", eq.Name)
	}
	return nil
}

