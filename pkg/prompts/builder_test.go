package prompts

import (
	"strings"
	"testing"

	"github.com/jwebster45206/eryndor/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func testProfile() *state.Profile {
	return &state.Profile{
		DisplayName:     "Aria",
		Level:           2,
		Experience:      105,
		CurrentLocation: "Oakhaven",
		CurrentRegion:   "Eryndor",
		SkillSlots:      2,
	}
}

func TestBuilder_FluentInterface(t *testing.T) {
	p := testProfile()
	wc := &state.WorldContext{Region: "Eryndor", Location: "Oakhaven"}
	npcs := []state.NPC{{Name: "Mira"}}

	builder := New().
		WithProfile(p).
		WithWorldContext(wc).
		WithNPCs(npcs).
		WithEquippedItems(nil).
		WithSkills(nil)

	if builder.profile != p {
		t.Error("WithProfile did not set profile")
	}
	if builder.context != wc {
		t.Error("WithWorldContext did not set context")
	}
	if len(builder.npcs) != 1 {
		t.Error("WithNPCs did not set npcs")
	}
}

func TestBuilder_Build_RequiresProfile(t *testing.T) {
	_, err := New().Build()
	if err == nil {
		t.Fatal("Expected error when profile is missing")
	}
	if !strings.Contains(err.Error(), "profile is required") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestBuilder_Build_Placeholders(t *testing.T) {
	prompt, err := New().WithProfile(testProfile()).Build()
	require.NoError(t, err)

	assert.Contains(t, prompt, "- Name: Aria")
	assert.Contains(t, prompt, "- Level: 2")
	assert.Contains(t, prompt, "- Experience: 105")
	assert.Contains(t, prompt, "- Current Location: Oakhaven, Eryndor")
	assert.Contains(t, prompt, "- Skill Slots: 0/2")
	assert.Contains(t, prompt, "CURRENT LOCATION CONTEXT:\n{}")
	assert.Contains(t, prompt, "NPCS IN AREA:\n"+NoNPCs)
	assert.Contains(t, prompt, "EQUIPPED ITEMS:\n"+NoItems)
	assert.Contains(t, prompt, "PLAYER SKILLS:\n"+NoSkills)
	assert.NotContains(t, prompt, "ADVENTURE SUMMARY")
	assert.Contains(t, prompt, "Level up every 100 XP.")
	assert.Contains(t, prompt, `"narrative": "The story text describing what happens"`)
	assert.True(t, strings.HasPrefix(prompt, Intro))
	assert.True(t, strings.HasSuffix(prompt, Outro))
}

func TestBuilder_Build_FullContext(t *testing.T) {
	p := testProfile()
	p.AdventureSummary = strPtr("Aria saved the mill.")

	prompt, err := New().
		WithProfile(p).
		WithWorldContext(&state.WorldContext{ContextData: map[string]any{
			"weather": "storm",
			"bridge":  map[string]any{"state": "collapsed"},
			"note":    "<fragile>",
		}}).
		WithNPCs([]state.NPC{
			{Name: "Mira", Description: "A ferrywoman"},
			{Name: "Tor", Description: "The smith"},
		}).
		WithEquippedItems([]state.InventoryItem{
			{Equipment: state.Equipment{Name: "Iron Sword", Category: "weapon"}},
		}).
		WithSkills([]state.Skill{
			{Name: "Ember", Element: "fire", BaseDamage: 10, Description: strPtr("A small flame")},
			{Name: "Gust", Element: "air", BaseDamage: 10},
		}).
		Build()
	require.NoError(t, err)

	assert.Contains(t, prompt, "ADVENTURE SUMMARY (Previous Events):\nAria saved the mill.\n\n"+SummaryNote)
	assert.Contains(t, prompt, "{\n  \"bridge\": {\n    \"state\": \"collapsed\"\n  },\n  \"note\": \"<fragile>\",\n  \"weather\": \"storm\"\n}")
	assert.Contains(t, prompt, "- Mira: A ferrywoman\n- Tor: The smith")
	assert.Contains(t, prompt, "- Iron Sword (weapon)")
	assert.Contains(t, prompt, "- Ember (fire, 10 base damage): A small flame")
	assert.Contains(t, prompt, "- Gust (air, 10 base damage): "+NoDesc)
	assert.Contains(t, prompt, "- Skill Slots: 2/2")
}

func TestBuilder_Build_Deterministic(t *testing.T) {
	b := New().
		WithProfile(testProfile()).
		WithWorldContext(&state.WorldContext{ContextData: map[string]any{"a": 1, "b": 2, "c": 3}})

	first, err := b.Build()
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := b.Build()
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestBuildSummaryPrompt(t *testing.T) {
	messages := []state.Message{
		{Role: "user", Content: "I enter the tavern."},
		{Role: "assistant", Content: "The barkeep nods."},
	}

	prompt, err := BuildSummaryPrompt(testProfile(), messages)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(prompt, SummaryInstructions))
	assert.Contains(t, prompt, "RECENT ADVENTURE:\nUSER: I enter the tavern.\n\nASSISTANT: The barkeep nods.\n\n"+SummaryClosing)
	assert.Contains(t, prompt, "- Current Location: Oakhaven, Eryndor")

	_, err = BuildSummaryPrompt(testProfile(), nil)
	assert.Error(t, err)
}
