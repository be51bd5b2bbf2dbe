package prompts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jwebster45206/eryndor/pkg/state"
)

// Builder assembles the Game Master system prompt using a fluent interface.
// It performs no I/O; every input is passed in by the caller.
type Builder struct {
	profile  *state.Profile
	context  *state.WorldContext
	npcs     []state.NPC
	equipped []state.InventoryItem
	skills   []state.Skill
}

// New creates a new prompt builder.
func New() *Builder {
	return &Builder{}
}

// WithProfile sets the acting player's profile. Required.
func (b *Builder) WithProfile(p *state.Profile) *Builder {
	b.profile = p
	return b
}

// WithWorldContext sets the context of the player's current location.
// A nil context renders as an empty object.
func (b *Builder) WithWorldContext(wc *state.WorldContext) *Builder {
	b.context = wc
	return b
}

func (b *Builder) WithNPCs(npcs []state.NPC) *Builder {
	b.npcs = npcs
	return b
}

func (b *Builder) WithEquippedItems(items []state.InventoryItem) *Builder {
	b.equipped = items
	return b
}

func (b *Builder) WithSkills(skills []state.Skill) *Builder {
	b.skills = skills
	return b
}

// Build renders the system prompt.
func (b *Builder) Build() (string, error) {
	if b.profile == nil {
		return "", fmt.Errorf("profile is required")
	}

	contextJSON, err := b.contextJSON()
	if err != nil {
		return "", fmt.Errorf("error encoding world context: %w", err)
	}

	p := b.profile
	var sb strings.Builder

	sb.WriteString(Intro)
	sb.WriteString("\n\nPLAYER INFO:\n")
	fmt.Fprintf(&sb, "- Name: %s\n", p.DisplayName)
	fmt.Fprintf(&sb, "- Level: %d\n", p.Level)
	fmt.Fprintf(&sb, "- Experience: %d\n", p.Experience)
	fmt.Fprintf(&sb, "- Current Location: %s, %s\n", p.CurrentLocation, p.CurrentRegion)
	fmt.Fprintf(&sb, "- Skill Slots: %d/%d\n", len(b.skills), p.SkillSlots)

	if p.AdventureSummary != nil && strings.TrimSpace(*p.AdventureSummary) != "" {
		sb.WriteString("\nADVENTURE SUMMARY (Previous Events):\n")
		sb.WriteString(*p.AdventureSummary)
		sb.WriteString("\n\n" + SummaryNote + "\n")
	}

	sb.WriteString("\nCURRENT LOCATION CONTEXT:\n")
	sb.WriteString(contextJSON)

	sb.WriteString("\n\nNPCS IN AREA:\n")
	sb.WriteString(listOr(b.npcs, NoNPCs, func(n state.NPC) string {
		return fmt.Sprintf("- %s: %s", n.Name, n.Description)
	}))

	sb.WriteString("\n\nEQUIPPED ITEMS:\n")
	sb.WriteString(listOr(b.equipped, NoItems, func(i state.InventoryItem) string {
		return fmt.Sprintf("- %s (%s)", i.Equipment.Name, i.Equipment.Category)
	}))

	sb.WriteString("\n\nPLAYER SKILLS:\n")
	sb.WriteString(listOr(b.skills, NoSkills, func(s state.Skill) string {
		desc := NoDesc
		if s.Description != nil && *s.Description != "" {
			desc = *s.Description
		}
		return fmt.Sprintf("- %s (%s, %d base damage): %s", s.Name, s.Element, s.BaseDamage, desc)
	}))

	sb.WriteString("\n\n" + GameRules)
	sb.WriteString("\n\n" + ResponseFormat)
	sb.WriteString("\n\n" + Outro)

	return sb.String(), nil
}

// contextJSON renders the raw context payload indented by two spaces.
func (b *Builder) contextJSON() (string, error) {
	var data map[string]any
	if b.context != nil {
		data = b.context.ContextData
	}
	if data == nil {
		data = map[string]any{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func listOr[T any](items []T, placeholder string, line func(T) string) string {
	if len(items) == 0 {
		return placeholder
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = line(item)
	}
	return strings.Join(lines, "\n")
}
