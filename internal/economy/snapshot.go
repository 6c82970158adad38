package economy

import (
	"fmt"
	"time"

	"github.com/roach88/upgrades/internal/catalog"
)

// Snapshot is the complete persistable state of a game session.
// Maps are keyed by catalog kind; entries for kinds the catalog does not
// declare are ignored by Restore.
type Snapshot struct {
	Resources    map[catalog.ResourceKind]float64 `json:"resources"`
	Producers    map[catalog.ProducerKind]int     `json:"producers"`
	Upgrades     map[catalog.UpgradeKind]int      `json:"upgrades"`
	Technologies map[catalog.TechnologyKind]bool  `json:"technologies"`
	Stats        Stats                            `json:"stats"`
	LastTick     time.Time                        `json:"last_tick"`
	LastSave     time.Time                        `json:"last_save"`
}

// Snapshot copies the state into a value that shares nothing with it.
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Resources:    make(map[catalog.ResourceKind]float64, len(s.cat.Resources)),
		Producers:    make(map[catalog.ProducerKind]int, len(s.cat.Producers)),
		Upgrades:     make(map[catalog.UpgradeKind]int, len(s.cat.Upgrades)),
		Technologies: make(map[catalog.TechnologyKind]bool, len(s.cat.Technologies)),
		Stats:        s.stats,
		LastTick:     s.lastTick,
		LastSave:     s.lastSave,
	}
	for i, r := range s.cat.Resources {
		snap.Resources[r.Kind] = s.ledger.amounts[i]
	}
	for i, p := range s.cat.Producers {
		snap.Producers[p.Kind] = s.owned[i]
	}
	for i, u := range s.cat.Upgrades {
		snap.Upgrades[u.Kind] = s.levels[i]
	}
	for i, t := range s.cat.Technologies {
		snap.Technologies[t.Kind] = s.researched[i]
	}
	return snap
}

// Restore builds a state from a snapshot. Kinds missing from the snapshot
// start at zero; kinds the catalog does not declare are skipped. Negative or
// non-finite quantities are rejected with an INVALID_AMOUNT error.
func Restore(c *catalog.Catalog, snap Snapshot) (*State, error) {
	s := New(c, snap.LastTick)
	for kind, amount := range snap.Resources {
		if !validAmount(amount) {
			return nil, invalidAmount(string(kind), amount)
		}
		s.ledger.set(kind, amount)
	}
	for kind, n := range snap.Producers {
		if n < 0 {
			return nil, invalidAmount(string(kind), float64(n))
		}
		if i, ok := c.ProducerIndex(kind); ok {
			s.owned[i] = n
		}
	}
	for kind, n := range snap.Upgrades {
		if n < 0 {
			return nil, invalidAmount(string(kind), float64(n))
		}
		if i, ok := c.UpgradeIndex(kind); ok {
			s.levels[i] = n
		}
	}
	for kind, done := range snap.Technologies {
		if i, ok := c.TechnologyIndex(kind); ok {
			s.researched[i] = done
		}
	}
	if snap.Stats.TotalGathers < 0 || !validAmount(snap.Stats.SimulatedSeconds) {
		return nil, &Error{Code: CodeInvalidAmount, Message: fmt.Sprintf("invalid stats %+v", snap.Stats)}
	}
	s.stats = snap.Stats
	s.lastSave = snap.LastSave
	s.recompute()
	return s, nil
}

// View is a read-only rendering of a state for display and notification.
// Every list follows catalog declaration order.
type View struct {
	Resources    []ResourceView   `json:"resources"`
	Producers    []ProducerView   `json:"producers"`
	Upgrades     []UpgradeView    `json:"upgrades"`
	Technologies []TechnologyView `json:"technologies"`
	Multipliers  Multipliers      `json:"multipliers"`
	Stats        Stats            `json:"stats"`
	LastTick     time.Time        `json:"last_tick"`
	LastSave     time.Time        `json:"last_save"`
}

// ResourceView is one resource line of a View.
type ResourceView struct {
	Kind     catalog.ResourceKind `json:"kind"`
	Amount   float64              `json:"amount"`
	Rate     float64              `json:"rate"`
	Unlocked bool                 `json:"unlocked"`
}

// ProducerView is one producer line of a View.
type ProducerView struct {
	Kind       catalog.ProducerKind `json:"kind"`
	Target     catalog.ResourceKind `json:"target"`
	Owned      int                  `json:"owned"`
	Cost       catalog.CostMap      `json:"cost"`
	Affordable bool                 `json:"affordable"`
}

// UpgradeView is one upgrade line of a View.
type UpgradeView struct {
	Kind       catalog.UpgradeKind `json:"kind"`
	Level      int                 `json:"level"`
	MaxLevel   int                 `json:"max_level,omitempty"`
	Cost       catalog.CostMap     `json:"cost"`
	Affordable bool                `json:"affordable"`
}

// TechnologyView is one technology line of a View.
type TechnologyView struct {
	Kind        catalog.TechnologyKind `json:"kind"`
	Description string                 `json:"description,omitempty"`
	Researched  bool                   `json:"researched"`
	Cost        catalog.CostMap        `json:"cost"`
	Affordable  bool                   `json:"affordable"`
}

// View renders the state.
func (s *State) View() View {
	v := View{
		Resources:    make([]ResourceView, len(s.cat.Resources)),
		Producers:    make([]ProducerView, len(s.cat.Producers)),
		Upgrades:     make([]UpgradeView, len(s.cat.Upgrades)),
		Technologies: make([]TechnologyView, len(s.cat.Technologies)),
		Multipliers:  s.Multipliers(),
		Stats:        s.stats,
		LastTick:     s.lastTick,
		LastSave:     s.lastSave,
	}
	for i, r := range s.cat.Resources {
		v.Resources[i] = ResourceView{
			Kind:     r.Kind,
			Amount:   s.ledger.amounts[i],
			Rate:     s.rates[i],
			Unlocked: s.IsUnlocked(r.Kind),
		}
	}
	for i, p := range s.cat.Producers {
		cost := scaledCost(p.Cost, s.growth[i], s.owned[i])
		v.Producers[i] = ProducerView{
			Kind:       p.Kind,
			Target:     p.Target,
			Owned:      s.owned[i],
			Cost:       cost,
			Affordable: s.ledger.CanAfford(cost),
		}
	}
	for i, u := range s.cat.Upgrades {
		cost := scaledCost(u.Cost, u.Growth, s.levels[i])
		v.Upgrades[i] = UpgradeView{
			Kind:       u.Kind,
			Level:      s.levels[i],
			MaxLevel:   u.MaxLevel,
			Cost:       cost,
			Affordable: s.ledger.CanAfford(cost) && (u.MaxLevel == 0 || s.levels[i] < u.MaxLevel),
		}
	}
	for i, t := range s.cat.Technologies {
		v.Technologies[i] = TechnologyView{
			Kind:        t.Kind,
			Description: t.Description,
			Researched:  s.researched[i],
			Cost:        t.Cost.Clone(),
			Affordable:  !s.researched[i] && s.ledger.CanAfford(t.Cost),
		}
	}
	return v
}
