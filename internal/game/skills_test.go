package game

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jwebster45206/eryndor/pkg/storage"
	"github.com/jwebster45206/eryndor/pkg/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkillService_Create(t *testing.T) {
	store := storage.NewMockStorage()
	p := seedProfile(t, store, 0, 1)
	require.NoError(t, store.UpdateSkillSlots(context.Background(), p.ID, 3))
	svc := NewSkillService(store, testLogger())

	skill, err := svc.Create(context.Background(), p.ID, NewSkill{Name: " Ember ", Element: "FIRE", Description: "A spark"})
	require.NoError(t, err)
	assert.Equal(t, "Ember", skill.Name)
	assert.Equal(t, "fire", skill.Element)
	assert.Equal(t, world.BaseSkillDamage, skill.BaseDamage)
	assert.Equal(t, 1, skill.SlotNumber)
	require.NotNil(t, skill.Description)
	assert.Equal(t, "A spark", *skill.Description)

	third, err := svc.Create(context.Background(), p.ID, NewSkill{Name: "Gale", Element: "air", SlotNumber: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, third.SlotNumber)
	assert.Nil(t, third.Description)

	second, err := svc.Create(context.Background(), p.ID, NewSkill{Name: "Frost", Element: "ice"})
	require.NoError(t, err)
	assert.Equal(t, 2, second.SlotNumber)

	_, err = svc.Create(context.Background(), p.ID, NewSkill{Name: "Stone", Element: "earth"})
	assert.ErrorIs(t, err, ErrNoSkillSlots)

	skills, err := svc.List(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, skills, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{skills[0].SlotNumber, skills[1].SlotNumber, skills[2].SlotNumber})
}

func TestSkillService_CreateValidation(t *testing.T) {
	tests := []struct {
		name string
		in   NewSkill
		want error
	}{
		{name: "blank name", in: NewSkill{Name: "  ", Element: "fire"}, want: ErrInvalidSkill},
		{name: "unknown element", in: NewSkill{Name: "Void", Element: "shadow"}, want: ErrInvalidElement},
		{name: "slot out of range", in: NewSkill{Name: "Ember", Element: "fire", SlotNumber: 3}, want: ErrInvalidSlot},
		{name: "negative slot", in: NewSkill{Name: "Ember", Element: "fire", SlotNumber: -1}, want: ErrInvalidSlot},
		{name: "used slot", in: NewSkill{Name: "Ember", Element: "fire", SlotNumber: 1}, want: ErrInvalidSlot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMockStorage()
			p := seedProfile(t, store, 0, 1)
			require.NoError(t, store.UpdateSkillSlots(context.Background(), p.ID, 2))
			svc := NewSkillService(store, testLogger())
			_, err := svc.Create(context.Background(), p.ID, NewSkill{Name: "Spark", Element: "lightning", SlotNumber: 1})
			require.NoError(t, err)

			_, err = svc.Create(context.Background(), p.ID, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSkillService_Auth(t *testing.T) {
	svc := NewSkillService(storage.NewMockStorage(), testLogger())

	_, err := svc.Create(context.Background(), uuid.Nil, NewSkill{Name: "Ember", Element: "fire"})
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = svc.Create(context.Background(), uuid.New(), NewSkill{Name: "Ember", Element: "fire"})
	assert.ErrorIs(t, err, ErrProfileNotFound)

	skills, err := svc.List(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, skills)
	assert.Empty(t, skills)
}
