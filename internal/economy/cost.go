package economy

import (
	"math"

	"github.com/roach88/upgrades/internal/catalog"
)

// costAt returns the price of the (n+1)th purchase on a curve with the given
// base and growth (> 1).
//
// The raw curve ceil(base * growth^n) can repeat a value while one growth
// step is worth less than a unit. Each price is therefore at least one more
// than the previous price:
//
//	c(0) = ceil(base)
//	c(n) = max(ceil(base * growth^n), c(n-1) + 1)
//
// Unrolled, c(n) = n + max_{j<=n}(ceil(base*growth^j) - j). Once
// base*growth^j*(growth-1) >= 2 the raw curve rises by at least one per step,
// so only the first few terms can contribute to the maximum.
func costAt(base, growth float64, n int) float64 {
	raw := func(j int) float64 {
		return math.Ceil(base * math.Pow(growth, float64(j)))
	}
	if n <= 0 {
		return raw(0)
	}

	limit := n
	if steep := rampSteps(base, growth); steep < limit {
		limit = steep
	}
	best := math.Inf(-1)
	for j := 0; j <= limit; j++ {
		best = math.Max(best, raw(j)-float64(j))
	}
	return math.Max(raw(n), best+float64(n))
}

// rampSteps is the smallest j with base*growth^j*(growth-1) >= 2.
func rampSteps(base, growth float64) int {
	step := base * (growth - 1)
	if step >= 2 {
		return 0
	}
	j := math.Ceil(math.Log(2/step) / math.Log(growth))
	if math.IsNaN(j) || j < 0 {
		return 0
	}
	if j > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(j)
}

// scaledCost applies costAt to every entry of a base cost.
func scaledCost(base catalog.CostMap, growth float64, n int) catalog.CostMap {
	out := make(catalog.CostMap, len(base))
	for kind, amount := range base {
		out[kind] = costAt(amount, growth, n)
	}
	return out
}
