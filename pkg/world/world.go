// Package world holds the fixed geography and rules of Eryndor.
package world

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// ExperiencePerLevel is the leveling cadence.
	ExperiencePerLevel = 100

	// BaseSkillDamage is the damage every newly created skill starts with.
	BaseSkillDamage = 10

	StartRegion     = "Eryndor"
	StartLocation   = "Oakhaven"
	StartSkillSlots = 1
)

// Region is one of the five regions of the world.
type Region struct {
	Name        string `json:"name"`
	UnlockLevel int    `json:"unlock_level"`
}

// Regions lists the world in unlock order.
var Regions = []Region{
	{Name: "Eryndor", UnlockLevel: 1},
	{Name: "Skaldor Peaks", UnlockLevel: 5},
	{Name: "Valtheris Marshes", UnlockLevel: 10},
	{Name: "Ashen Wastes", UnlockLevel: 15},
	{Name: "Nytheris Isles", UnlockLevel: 20},
}

// Elements are the skill elements a player may choose from.
var Elements = []string{"fire", "water", "earth", "air", "lightning", "ice", "light", "dark"}

// LevelForExperience returns the level for a total experience value.
func LevelForExperience(experience int) int {
	if experience < 0 {
		experience = 0
	}
	return experience/ExperiencePerLevel + 1
}

// UnlockedRegions returns the region names available at the given level.
func UnlockedRegions(level int) []string {
	regions := make([]string, 0, len(Regions))
	for _, r := range Regions {
		if level >= r.UnlockLevel {
			regions = append(regions, r.Name)
		}
	}
	return regions
}

// IsRegion reports whether name is one of the known regions.
func IsRegion(name string) bool {
	for _, r := range Regions {
		if r.Name == name {
			return true
		}
	}
	return false
}

// NormalizeElement lower-cases and validates a skill element.
// The second return value is false when the element is unknown.
func NormalizeElement(element string) (string, bool) {
	// Casers carry state and are not safe to share.
	e := cases.Lower(language.English).String(strings.TrimSpace(element))
	for _, known := range Elements {
		if e == known {
			return e, true
		}
	}
	return "", false
}
