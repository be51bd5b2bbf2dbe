package prompts

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/eryndor/pkg/state"
)

// BuildSummaryPrompt renders the adventure summary request for a player.
// Messages must already be in chronological order.
func BuildSummaryPrompt(p *state.Profile, messages []state.Message) (string, error) {
	if p == nil {
		return "", fmt.Errorf("profile is required")
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("at least one message is required")
	}

	var sb strings.Builder
	sb.WriteString(SummaryInstructions)
	sb.WriteString("\n\nPLAYER INFO:\n")
	fmt.Fprintf(&sb, "- Name: %s\n", p.DisplayName)
	fmt.Fprintf(&sb, "- Level: %d\n", p.Level)
	fmt.Fprintf(&sb, "- Current Location: %s, %s\n", p.CurrentLocation, p.CurrentRegion)

	sb.WriteString("\nRECENT ADVENTURE:\n")
	for i, m := range messages {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(strings.ToUpper(m.Role) + ": " + m.Content)
	}

	sb.WriteString("\n\n" + SummaryClosing)
	return sb.String(), nil
}
