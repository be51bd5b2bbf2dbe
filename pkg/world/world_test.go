package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelForExperience(t *testing.T) {
	tests := []struct {
		experience int
		expected   int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{105, 2},
		{999, 10},
		{-5, 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, LevelForExperience(tt.experience), "experience %d", tt.experience)
	}
}

func TestLevelForExperience_NeverDecreasesWithPositiveDelta(t *testing.T) {
	for e := 0; e < 500; e += 7 {
		for d := 0; d < 250; d += 13 {
			before := LevelForExperience(e)
			after := LevelForExperience(e + d)
			assert.Equal(t, (e+d)/100+1, after)
			assert.GreaterOrEqual(t, after, before)
		}
	}
}

func TestUnlockedRegions(t *testing.T) {
	assert.Equal(t, []string{"Eryndor"}, UnlockedRegions(1))
	assert.Equal(t, []string{"Eryndor", "Skaldor Peaks"}, UnlockedRegions(5))
	assert.Equal(t, []string{"Eryndor", "Skaldor Peaks", "Valtheris Marshes", "Ashen Wastes"}, UnlockedRegions(19))
	assert.Len(t, UnlockedRegions(20), 5)
}

func TestNormalizeElement(t *testing.T) {
	e, ok := NormalizeElement("  Fire ")
	assert.True(t, ok)
	assert.Equal(t, "fire", e)

	e, ok = NormalizeElement("LIGHTNING")
	assert.True(t, ok)
	assert.Equal(t, "lightning", e)

	_, ok = NormalizeElement("plasma")
	assert.False(t, ok)
}

func TestIsRegion(t *testing.T) {
	assert.True(t, IsRegion("Ashen Wastes"))
	assert.False(t, IsRegion("Atlantis"))
}
