package economy

import (
	"math/rand"
)

// RegionModifier is one price pressure applied to a resource in a region
// during a tick. Multiplier acts on demand, so >1 pushes prices up.
type RegionModifier struct {
	RegionID   string  `json:"region_id"`
	ResourceID string  `json:"resource_id"`
	Multiplier float64 `json:"multiplier"`
	Event      string  `json:"event,omitempty"`
}

// ModifierGenerator produces the tick's economic perturbations. The
// coordinator calls it exactly once per tick so randomness stays in one
// replaceable place.
type ModifierGenerator interface {
	Generate(tickCount int, regionIDs []string) []RegionModifier
}

// NopModifierGenerator produces no perturbations.
type NopModifierGenerator struct{}

func (NopModifierGenerator) Generate(int, []string) []RegionModifier { return nil }

// RandomModifierGenerator rolls economic cycles and market fluctuations
// from a seeded source, so a fixed seed replays the same economy.
type RandomModifierGenerator struct {
	rng *rand.Rand
}

func NewRandomModifierGenerator(seed int64) *RandomModifierGenerator {
	return &RandomModifierGenerator{rng: rand.New(rand.NewSource(seed))}
}

// Generate rolls at most one economy-wide cycle event every tenth tick and
// an occasional per-region fluctuation.
func (g *RandomModifierGenerator) Generate(tickCount int, regionIDs []string) []RegionModifier {
	var modifiers []RegionModifier

	if tickCount > 0 && tickCount%10 == 0 && g.rng.Float64() < 0.3 {
		cycle := [...]struct {
			name string
			mult float64
		}{
			{"economic_growth", 1.08},
			{"recession", 0.92},
			{"recovery", 1.03},
		}[g.rng.Intn(3)]
		for _, regionID := range regionIDs {
			modifiers = append(modifiers, RegionModifier{
				RegionID:   regionID,
				Multiplier: cycle.mult,
				Event:      cycle.name,
			})
		}
	}

	for _, regionID := range regionIDs {
		if g.rng.Float64() < 0.1 {
			severity := 0.5 + g.rng.Float64() // 0.5 to 1.5
			modifiers = append(modifiers, RegionModifier{
				RegionID:   regionID,
				Multiplier: severity,
				Event:      "market_fluctuation",
			})
		}
	}

	return modifiers
}
