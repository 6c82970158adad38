package economy

import (
	"math"

	"github.com/roach88/upgrades/internal/catalog"
)

// Multipliers is the composed effect of every upgrade level and researched
// technology.
type Multipliers struct {
	Resource map[catalog.ResourceKind]float64 `json:"resource"`
	Global   float64                          `json:"global"`
}

// recompute rebuilds multipliers, effective growth and rates from the owned
// counts, upgrade levels and research flags. It never patches previous values.
func (s *State) recompute() {
	for i := range s.resourceMult {
		s.resourceMult[i] = 1
	}
	s.globalMult = 1
	for i, p := range s.cat.Producers {
		s.growth[i] = p.Growth
	}

	for i, u := range s.cat.Upgrades {
		if s.levels[i] > 0 {
			s.applyEffect(u.Effect, s.levels[i])
		}
	}
	for i, t := range s.cat.Technologies {
		if s.researched[i] {
			s.applyEffect(t.Effect, 1)
		}
	}

	for i := range s.rates {
		s.rates[i] = 0
	}
	for i, p := range s.cat.Producers {
		if s.owned[i] == 0 {
			continue
		}
		r, _ := s.cat.ResourceIndex(p.Target)
		s.rates[r] += float64(s.owned[i]) * p.Output * s.resourceMult[r] * s.globalMult
	}
}

// applyEffect folds one effect, repeated times times, into the derived state.
func (s *State) applyEffect(effect catalog.Effect, times int) {
	switch e := effect.(type) {
	case catalog.ResourceMultiplier:
		if r, ok := s.cat.ResourceIndex(e.Resource); ok {
			s.resourceMult[r] *= math.Pow(e.Factor, float64(times))
		}
	case catalog.GlobalMultiplier:
		s.globalMult *= math.Pow(e.Factor, float64(times))
	case catalog.TierUnlock:
		// Gating reads the research flags directly.
	case catalog.CostReduction:
		f := math.Pow(e.Factor, float64(times))
		for i, p := range s.cat.Producers {
			if e.Applies(p.Kind) {
				s.growth[i] *= f
			}
		}
	}
}

// Multipliers returns a copy of the current multiplier state.
func (s *State) Multipliers() Multipliers {
	m := Multipliers{
		Resource: make(map[catalog.ResourceKind]float64, len(s.resourceMult)),
		Global:   s.globalMult,
	}
	for i, r := range s.cat.Resources {
		m.Resource[r.Kind] = s.resourceMult[i]
	}
	return m
}

// Rate returns the production per second of a resource, ignoring gating.
func (s *State) Rate(kind catalog.ResourceKind) float64 {
	i, ok := s.cat.ResourceIndex(kind)
	if !ok {
		return 0
	}
	return s.rates[i]
}

// Rates returns the production per second of every resource in declaration
// order. Locked resources report their rate even though it does not accrue.
func (s *State) Rates() []Amount {
	out := make([]Amount, len(s.rates))
	for i, r := range s.cat.Resources {
		out[i] = Amount{Kind: r.Kind, Amount: s.rates[i]}
	}
	return out
}

// IsUnlocked reports whether a resource accrues production: it has no tier,
// or the technology gating its tier has been researched.
func (s *State) IsUnlocked(kind catalog.ResourceKind) bool {
	if !s.ledger.Has(kind) {
		return false
	}
	tech, gated := s.cat.Gate(kind)
	if !gated {
		return true
	}
	i, _ := s.cat.TechnologyIndex(tech)
	return s.researched[i]
}
