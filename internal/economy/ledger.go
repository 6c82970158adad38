package economy

import (
	"math"

	"github.com/roach88/upgrades/internal/catalog"
)

// Ledger holds the quantity of every declared resource.
// Quantities are never negative.
type Ledger struct {
	kinds   []catalog.ResourceKind
	index   map[catalog.ResourceKind]int
	amounts []float64
}

// Amount is a resource quantity, used where declaration order matters.
type Amount struct {
	Kind   catalog.ResourceKind `json:"kind"`
	Amount float64              `json:"amount"`
}

// NewLedger returns a ledger with every catalog resource at zero.
func NewLedger(c *catalog.Catalog) *Ledger {
	kinds := c.ResourceKinds()
	l := &Ledger{
		kinds:   kinds,
		index:   make(map[catalog.ResourceKind]int, len(kinds)),
		amounts: make([]float64, len(kinds)),
	}
	for i, k := range kinds {
		l.index[k] = i
	}
	return l
}

// Has reports whether the ledger tracks the resource.
func (l *Ledger) Has(kind catalog.ResourceKind) bool {
	_, ok := l.index[kind]
	return ok
}

// Get returns the balance of a resource. Unknown kinds read as zero.
func (l *Ledger) Get(kind catalog.ResourceKind) float64 {
	i, ok := l.index[kind]
	if !ok {
		return 0
	}
	return l.amounts[i]
}

// Add credits delta to a resource.
func (l *Ledger) Add(kind catalog.ResourceKind, delta float64) error {
	i, ok := l.index[kind]
	if !ok {
		return unknownKind("resource", string(kind))
	}
	if !validAmount(delta) {
		return invalidAmount(string(kind), delta)
	}
	l.amounts[i] += delta
	return nil
}

// CanAfford reports whether every entry of cost is covered.
func (l *Ledger) CanAfford(cost catalog.CostMap) bool {
	for kind, amount := range cost {
		i, ok := l.index[kind]
		if !ok || l.amounts[i] < amount {
			return false
		}
	}
	return true
}

// TryDeduct removes cost from the ledger if and only if every entry is
// covered. On false the ledger is unchanged.
func (l *Ledger) TryDeduct(cost catalog.CostMap) bool {
	if !l.CanAfford(cost) {
		return false
	}
	for kind, amount := range cost {
		i := l.index[kind]
		l.amounts[i] = math.Max(0, l.amounts[i]-amount)
	}
	return true
}

// Amounts returns every balance in declaration order.
func (l *Ledger) Amounts() []Amount {
	out := make([]Amount, len(l.kinds))
	for i, k := range l.kinds {
		out[i] = Amount{Kind: k, Amount: l.amounts[i]}
	}
	return out
}

func (l *Ledger) set(kind catalog.ResourceKind, amount float64) bool {
	i, ok := l.index[kind]
	if ok {
		l.amounts[i] = amount
	}
	return ok
}

func (l *Ledger) clear() {
	for i := range l.amounts {
		l.amounts[i] = 0
	}
}

func validAmount(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}
