package game

import (
	"context"
	"errors"
	"testing"

	"github.com/jwebster45206/eryndor/pkg/state"
	"github.com/jwebster45206/eryndor/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconciler_Experience(t *testing.T) {
	tests := []struct {
		name          string
		experience    int
		level         int
		reward        *int
		wantExp       int
		wantLevel     int
		wantUnchanged bool
	}{
		{name: "level up", experience: 95, level: 1, reward: intPtr(10), wantExp: 105, wantLevel: 2},
		{name: "same level", experience: 10, level: 1, reward: intPtr(20), wantExp: 30, wantLevel: 1},
		{name: "several levels", experience: 150, level: 2, reward: intPtr(260), wantExp: 410, wantLevel: 5},
		{name: "no reward", experience: 40, level: 1, reward: nil, wantExp: 40, wantLevel: 1},
		{name: "saturates at limit", experience: state.MaxExperience - 5, level: state.MaxExperience/100 + 1, reward: intPtr(50), wantExp: state.MaxExperience, wantLevel: state.MaxExperience/100 + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMockStorage()
			p := seedProfile(t, store, tt.experience, tt.level)
			r := NewReconciler(store, nil, testLogger())

			resp := &state.AIResponse{Narrative: "ok"}
			if tt.reward != nil {
				resp.Rewards = &state.Rewards{Experience: tt.reward}
			}
			require.NoError(t, r.Apply(context.Background(), p, resp))

			got, err := store.GetProfile(context.Background(), p.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantExp, got.Experience)
			assert.Equal(t, tt.wantLevel, got.Level)
			assert.GreaterOrEqual(t, got.Level, tt.level)
		})
	}
}

func TestReconciler_LocationAndSkillSlot(t *testing.T) {
	store := storage.NewMockStorage()
	p := seedProfile(t, store, 0, 1)
	r := NewReconciler(store, nil, testLogger())

	resp := &state.AIResponse{
		Narrative:      "You climb.",
		LocationChange: &state.LocationChange{NewLocation: "Frostgate", NewRegion: "Skaldor Peaks"},
		Rewards:        &state.Rewards{SkillSlot: true},
	}
	require.NoError(t, r.Apply(context.Background(), p, resp))

	got, err := store.GetProfile(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Frostgate", got.CurrentLocation)
	assert.Equal(t, "Skaldor Peaks", got.CurrentRegion)
	assert.Equal(t, 2, got.SkillSlots)
}

func TestReconciler_WorldChange(t *testing.T) {
	store := storage.NewMockStorage()
	p := seedProfile(t, store, 0, 1)
	seeded := store.AddWorldContext(state.WorldContext{
		Region:      "Eryndor",
		Location:    "Oakhaven",
		ContextData: map[string]any{"description": "A quiet town"},
		Version:     3,
	})
	pub := &fakePublisher{}
	r := NewReconciler(store, pub, testLogger())

	resp := &state.AIResponse{
		Narrative: "The mill burns.",
		WorldChange: &state.WorldChangeOut{
			Location:       "Oakhaven",
			Region:         "Eryndor",
			ChangeSummary:  "The mill burned down",
			NewContextData: map[string]any{"description": "A town with a ruined mill"},
		},
	}
	require.NoError(t, r.Apply(context.Background(), p, resp))

	contexts := store.WorldContexts()
	require.Len(t, contexts, 1)
	assert.Equal(t, seeded.ID, contexts[0].ID)
	assert.Equal(t, 4, contexts[0].Version)
	assert.Equal(t, "A town with a ruined mill", contexts[0].ContextData["description"])
	require.NotNil(t, contexts[0].LastModifiedBy)
	assert.Equal(t, p.ID, *contexts[0].LastModifiedBy)

	changes := store.WorldChanges()
	require.Len(t, changes, 1)
	assert.Equal(t, "The mill burned down", changes[0].ChangeSummary)
	assert.Equal(t, p.ID, changes[0].ChangedByPlayerID)
	assert.Equal(t, "Aria", changes[0].ChangedByPlayerName)

	published := pub.published()
	require.Len(t, published, 1)
	assert.Equal(t, changes[0].ID, published[0].ID)
}

func TestReconciler_WorldChangeWithoutContextIsNoop(t *testing.T) {
	store := storage.NewMockStorage()
	p := seedProfile(t, store, 0, 1)
	pub := &fakePublisher{}
	r := NewReconciler(store, pub, testLogger())

	resp := &state.AIResponse{
		Narrative: "Something happens far away.",
		WorldChange: &state.WorldChangeOut{
			Location:       "Nowhere",
			Region:         "Eryndor",
			ChangeSummary:  "Nothing",
			NewContextData: map[string]any{"x": 1.0},
		},
	}
	require.NoError(t, r.Apply(context.Background(), p, resp))

	assert.Empty(t, store.WorldContexts())
	assert.Empty(t, store.WorldChanges())
	assert.Empty(t, pub.published())
}

func TestReconciler_PublishFailureIsNotFatal(t *testing.T) {
	store := storage.NewMockStorage()
	p := seedProfile(t, store, 0, 1)
	store.AddWorldContext(state.WorldContext{Region: "Eryndor", Location: "Oakhaven", ContextData: map[string]any{}})
	r := NewReconciler(store, &fakePublisher{err: errors.New("redis down")}, testLogger())

	resp := &state.AIResponse{
		Narrative: "x",
		WorldChange: &state.WorldChangeOut{
			Location: "Oakhaven", Region: "Eryndor", ChangeSummary: "Changed", NewContextData: map[string]any{},
		},
	}
	require.NoError(t, r.Apply(context.Background(), p, resp))
	assert.Len(t, store.WorldChanges(), 1)
}

func TestReconciler_NewNPCInsertOrIgnore(t *testing.T) {
	store := storage.NewMockStorage()
	p := seedProfile(t, store, 0, 1)
	r := NewReconciler(store, nil, testLogger())

	resp := &state.AIResponse{
		Narrative: "A bard appears.",
		NewNPC:    &state.NewNPC{Name: "Wandering Bard", Description: "Sings", Location: "Oakhaven", Region: "Eryndor"},
	}
	require.NoError(t, r.Apply(context.Background(), p, resp))

	npcs := store.NPCs()
	require.Len(t, npcs, 1)
	assert.Equal(t, state.ImportanceMinor, npcs[0].ImportanceLevel)
	require.NotNil(t, npcs[0].CreatedByPlayerID)
	assert.Equal(t, p.ID, *npcs[0].CreatedByPlayerID)

	resp.NewNPC.Description = "Sings again"
	require.NoError(t, r.Apply(context.Background(), p, resp))
	assert.Equal(t, npcs, store.NPCs())
}

func TestReconciler_Equipment(t *testing.T) {
	store := storage.NewMockStorage()
	p := seedProfile(t, store, 0, 1)
	store.AddEquipment(state.Equipment{Name: "Iron Sword", Category: "weapon", Tier: 1})
	r := NewReconciler(store, nil, testLogger())
	ctx := context.Background()

	unknown := &state.AIResponse{Narrative: "x", Rewards: &state.Rewards{Equipment: "Sword of Nowhere"}}
	require.NoError(t, r.Apply(ctx, p, unknown))
	items, err := store.ListInventory(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	sword := &state.AIResponse{Narrative: "x", Rewards: &state.Rewards{Equipment: "Iron Sword"}}
	require.NoError(t, r.Apply(ctx, p, sword))
	require.NoError(t, r.Apply(ctx, p, sword))

	items, err = store.ListInventory(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Iron Sword", items[0].Equipment.Name)
	assert.False(t, items[0].IsEquipped)
}

func TestReconciler_StopsAtFirstFailure(t *testing.T) {
	store := storage.NewMockStorage()
	p := seedProfile(t, store, 0, 1)
	store.SetError("UpdateLocation", errors.New("connection reset"))
	r := NewReconciler(store, nil, testLogger())

	resp := &state.AIResponse{
		Narrative:      "x",
		Rewards:        &state.Rewards{Experience: intPtr(50)},
		LocationChange: &state.LocationChange{NewLocation: "Frostgate", NewRegion: "Skaldor Peaks"},
		NewNPC:         &state.NewNPC{Name: "Guard", Location: "Frostgate", Region: "Skaldor Peaks"},
	}
	err := r.Apply(context.Background(), p, resp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "location")

	got, gerr := store.GetProfile(context.Background(), p.ID)
	require.NoError(t, gerr)
	assert.Equal(t, 50, got.Experience, "earlier steps stay applied")
	assert.Empty(t, store.NPCs(), "later steps are skipped")
}

func TestReconciler_RequiresInputs(t *testing.T) {
	r := NewReconciler(storage.NewMockStorage(), nil, testLogger())
	assert.Error(t, r.Apply(context.Background(), nil, &state.AIResponse{}))
	assert.Error(t, r.Apply(context.Background(), &state.Profile{}, nil))
}
