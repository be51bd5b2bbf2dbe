package state

import (
	"encoding/json"
	"strings"
)

// AIResponse is the structured reply the Game Master model is asked to produce.
// Narrative is always present; every other field is optional.
type AIResponse struct {
	Narrative      string          `json:"narrative"`
	WorldChange    *WorldChangeOut `json:"worldChange,omitempty"`
	NewNPC         *NewNPC         `json:"newNPC,omitempty"`
	Combat         *Combat         `json:"combat,omitempty"`
	Rewards        *Rewards        `json:"rewards,omitempty"`
	LocationChange *LocationChange `json:"locationChange,omitempty"`
}

// WorldChangeOut replaces the context of an existing location.
type WorldChangeOut struct {
	Location       string         `json:"location"`
	Region         string         `json:"region"`
	ChangeSummary  string         `json:"changeSummary"`
	NewContextData map[string]any `json:"newContextData"`
}

type NewNPC struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Region      string `json:"region"`
}

type Combat struct {
	Occurred bool     `json:"occurred"`
	Damage   *float64 `json:"damage,omitempty"`
	Result   string   `json:"result,omitempty"`
}

type Rewards struct {
	Experience *int   `json:"experience,omitempty"`
	Equipment  string `json:"equipment,omitempty"`
	SkillSlot  bool   `json:"skillSlot,omitempty"`
}

type LocationChange struct {
	NewLocation string `json:"newLocation"`
	NewRegion   string `json:"newRegion"`
}

// ParseResponse extracts the JSON object embedded in free-form model output.
// The span from the first '{' to the last '}' is decoded; when there is no
// such span or it does not decode, the whole text becomes the narrative.
// ParseResponse never fails.
func ParseResponse(text string) *AIResponse {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return &AIResponse{Narrative: text}
	}

	var resp AIResponse
	if err := json.Unmarshal([]byte(text[start:end+1]), &resp); err != nil {
		return &AIResponse{Narrative: text}
	}

	// A decodable object without a story is still shown to the player.
	if strings.TrimSpace(resp.Narrative) == "" {
		resp.Narrative = text
	}
	return &resp
}

// ActionType classifies the turn for the audit log.
func (r *AIResponse) ActionType() string {
	if r != nil && r.Combat != nil && r.Combat.Occurred {
		return ActionTypeCombat
	}
	return ActionTypeExploration
}

// ExperienceDelta returns the rewarded experience, or 0.
func (r *AIResponse) ExperienceDelta() int {
	if r == nil || r.Rewards == nil || r.Rewards.Experience == nil {
		return 0
	}
	return *r.Rewards.Experience
}

// Sanitize drops optional sections that are syntactically valid but cannot
// be applied: experience that is non-positive or beyond MaxExperience, blank
// names or locations, negative damage. It returns the names of the dropped
// sections.
func (r *AIResponse) Sanitize() []string {
	var dropped []string

	if r.Rewards != nil {
		if r.Rewards.Experience != nil && (*r.Rewards.Experience <= 0 || *r.Rewards.Experience > MaxExperience) {
			r.Rewards.Experience = nil
			dropped = append(dropped, "rewards.experience")
		}
		r.Rewards.Equipment = strings.TrimSpace(r.Rewards.Equipment)
		if r.Rewards.Experience == nil && r.Rewards.Equipment == "" && !r.Rewards.SkillSlot {
			r.Rewards = nil
		}
	}

	if wc := r.WorldChange; wc != nil {
		if blank(wc.Location) || blank(wc.Region) || blank(wc.ChangeSummary) || wc.NewContextData == nil {
			r.WorldChange = nil
			dropped = append(dropped, "worldChange")
		}
	}

	if npc := r.NewNPC; npc != nil {
		if blank(npc.Name) || blank(npc.Location) || blank(npc.Region) {
			r.NewNPC = nil
			dropped = append(dropped, "newNPC")
		}
	}

	if lc := r.LocationChange; lc != nil {
		if blank(lc.NewLocation) || blank(lc.NewRegion) {
			r.LocationChange = nil
			dropped = append(dropped, "locationChange")
		}
	}

	if r.Combat != nil && r.Combat.Damage != nil && *r.Combat.Damage < 0 {
		r.Combat.Damage = nil
		dropped = append(dropped, "combat.damage")
	}

	return dropped
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
