package economy

import (
	"time"

	"github.com/roach88/upgrades/internal/catalog"
)

// Stats are lifetime counters carried in saves.
type Stats struct {
	TotalGathers     int64   `json:"total_gathers"`
	SimulatedSeconds float64 `json:"simulated_seconds"`
}

// State is one game session: ledger, purchases, research and the clock
// bookkeeping. Create it with New or Restore.
type State struct {
	cat    *catalog.Catalog
	ledger *Ledger

	owned      []int  // by producer index
	levels     []int  // by upgrade index
	researched []bool // by technology index

	resourceMult []float64 // by resource index
	globalMult   float64
	growth       []float64 // effective growth by producer index
	rates        []float64 // by resource index

	stats    Stats
	lastTick time.Time
	lastSave time.Time
}

// New returns a fresh state: zero balances, nothing owned, nothing
// researched, and the clock anchored at now.
func New(c *catalog.Catalog, now time.Time) *State {
	s := &State{
		cat:          c,
		ledger:       NewLedger(c),
		owned:        make([]int, len(c.Producers)),
		levels:       make([]int, len(c.Upgrades)),
		researched:   make([]bool, len(c.Technologies)),
		resourceMult: make([]float64, len(c.Resources)),
		growth:       make([]float64, len(c.Producers)),
		rates:        make([]float64, len(c.Resources)),
		lastTick:     now,
	}
	s.recompute()
	return s
}

// Catalog returns the catalog the state was built from.
func (s *State) Catalog() *catalog.Catalog { return s.cat }

// Ledger exposes the resource balances. Callers must not mutate it outside
// the goroutine that owns the state.
func (s *State) Ledger() *Ledger { return s.ledger }

// Balance returns the quantity held of a resource.
func (s *State) Balance(kind catalog.ResourceKind) float64 { return s.ledger.Get(kind) }

// Gather credits a manual collection of amount units.
func (s *State) Gather(kind catalog.ResourceKind, amount float64) error {
	if !s.ledger.Has(kind) {
		return unknownKind("resource", string(kind))
	}
	if err := s.ledger.Add(kind, amount); err != nil {
		return err
	}
	s.stats.TotalGathers++
	return nil
}

// CanAfford reports whether the ledger covers cost.
func (s *State) CanAfford(cost catalog.CostMap) bool { return s.ledger.CanAfford(cost) }

// CostOfProducer returns the price of the next unit of a producer.
func (s *State) CostOfProducer(kind catalog.ProducerKind) (catalog.CostMap, error) {
	i, ok := s.cat.ProducerIndex(kind)
	if !ok {
		return nil, unknownKind("producer", string(kind))
	}
	return scaledCost(s.cat.Producers[i].Cost, s.growth[i], s.owned[i]), nil
}

// CostOfUpgrade returns the price of the next level of an upgrade.
func (s *State) CostOfUpgrade(kind catalog.UpgradeKind) (catalog.CostMap, error) {
	i, ok := s.cat.UpgradeIndex(kind)
	if !ok {
		return nil, unknownKind("upgrade", string(kind))
	}
	u := s.cat.Upgrades[i]
	return scaledCost(u.Cost, u.Growth, s.levels[i]), nil
}

// CostOfTechnology returns the fixed price of a technology.
func (s *State) CostOfTechnology(kind catalog.TechnologyKind) (catalog.CostMap, error) {
	i, ok := s.cat.TechnologyIndex(kind)
	if !ok {
		return nil, unknownKind("technology", string(kind))
	}
	return s.cat.Technologies[i].Cost.Clone(), nil
}

// BuyProducer pays for and adds one unit of a producer.
// Producers targeting a locked resource may be bought; they accrue nothing
// until the resource unlocks.
func (s *State) BuyProducer(kind catalog.ProducerKind) error {
	cost, err := s.CostOfProducer(kind)
	if err != nil {
		return err
	}
	if !s.ledger.TryDeduct(cost) {
		return insufficientFunds(string(kind), cost)
	}
	i, _ := s.cat.ProducerIndex(kind)
	s.owned[i]++
	s.recompute()
	return nil
}

// BuyUpgrade pays for and raises an upgrade by one level.
func (s *State) BuyUpgrade(kind catalog.UpgradeKind) error {
	cost, err := s.CostOfUpgrade(kind)
	if err != nil {
		return err
	}
	i, _ := s.cat.UpgradeIndex(kind)
	if limit := s.cat.Upgrades[i].MaxLevel; limit > 0 && s.levels[i] >= limit {
		return &Error{Code: CodeMaxLevelReached, Kind: string(kind), Message: "upgrade is at its maximum level"}
	}
	if !s.ledger.TryDeduct(cost) {
		return insufficientFunds(string(kind), cost)
	}
	s.levels[i]++
	s.recompute()
	return nil
}

// Research pays for a technology and applies its effect.
func (s *State) Research(kind catalog.TechnologyKind) error {
	cost, err := s.CostOfTechnology(kind)
	if err != nil {
		return err
	}
	i, _ := s.cat.TechnologyIndex(kind)
	if s.researched[i] {
		return &Error{Code: CodeAlreadyUnlocked, Kind: string(kind), Message: "technology already researched"}
	}
	if !s.ledger.TryDeduct(cost) {
		return insufficientFunds(string(kind), cost)
	}
	s.researched[i] = true
	s.recompute()
	return nil
}

// Owned returns how many units of a producer are owned.
func (s *State) Owned(kind catalog.ProducerKind) int {
	if i, ok := s.cat.ProducerIndex(kind); ok {
		return s.owned[i]
	}
	return 0
}

// Level returns the current level of an upgrade.
func (s *State) Level(kind catalog.UpgradeKind) int {
	if i, ok := s.cat.UpgradeIndex(kind); ok {
		return s.levels[i]
	}
	return 0
}

// Researched reports whether a technology has been researched.
func (s *State) Researched(kind catalog.TechnologyKind) bool {
	if i, ok := s.cat.TechnologyIndex(kind); ok {
		return s.researched[i]
	}
	return false
}

// Growth returns the effective cost growth of a producer after reductions.
func (s *State) Growth(kind catalog.ProducerKind) float64 {
	if i, ok := s.cat.ProducerIndex(kind); ok {
		return s.growth[i]
	}
	return 0
}

// Stats returns the lifetime counters.
func (s *State) Stats() Stats { return s.stats }

// LastTick returns the timestamp accrual was last computed up to.
func (s *State) LastTick() time.Time { return s.lastTick }

// LastSave returns when the state was last persisted, or the zero time.
func (s *State) LastSave() time.Time { return s.lastSave }

// MarkSaved records a successful save.
func (s *State) MarkSaved(at time.Time) { s.lastSave = at }

// Reset returns the state to a fresh game anchored at now.
func (s *State) Reset(now time.Time) {
	*s = *New(s.cat, now)
}
