package economy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomModifierGenerator_DeterministicForSeed(t *testing.T) {
	regions := []string{"region-1", "region-2", "region-3"}

	first := NewRandomModifierGenerator(42)
	second := NewRandomModifierGenerator(42)

	for tick := 1; tick <= 50; tick++ {
		assert.Equal(t, first.Generate(tick, regions), second.Generate(tick, regions), "tick %d diverged", tick)
	}
}

func TestRandomModifierGenerator_MultipliersStayReasonable(t *testing.T) {
	gen := NewRandomModifierGenerator(7)
	regions := []string{"region-1", "region-2"}

	for tick := 1; tick <= 200; tick++ {
		for _, mod := range gen.Generate(tick, regions) {
			assert.Greater(t, mod.Multiplier, 0.0)
			assert.LessOrEqual(t, mod.Multiplier, 1.5)
			assert.NotEmpty(t, mod.Event)
			assert.NotEmpty(t, mod.RegionID)
		}
	}
}

func TestNopModifierGenerator(t *testing.T) {
	assert.Nil(t, NopModifierGenerator{}.Generate(10, []string{"region-1"}))
}
