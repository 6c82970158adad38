package catalog

import (
	"fmt"
	"math"
	"strings"
)

// Validation error codes (E200-E299)
const (
	ErrNoResources        = "E200" // at least one resource required
	ErrDuplicateKind      = "E201" // kind declared twice
	ErrEmptyKind          = "E202" // kind must be non-empty
	ErrUnknownResource    = "E203" // reference to an undeclared resource
	ErrUnknownProducer    = "E204" // reference to an undeclared producer
	ErrInvalidGrowth      = "E205" // growth rate must be > 1
	ErrInvalidCost        = "E206" // cost must be non-empty with positive amounts
	ErrInvalidOutput      = "E207" // output rate must be finite and >= 0
	ErrInvalidFactor      = "E208" // multiplier factor out of range
	ErrInvalidEffect      = "E209" // effect not allowed here
	ErrUngatedTier        = "E210" // tier has no unlocking technology
	ErrDuplicateGate      = "E211" // tier unlocked by more than one technology
	ErrUnusedTier         = "E212" // tier_unlock names a tier no resource uses
	ErrNonIncreasingCurve = "E213" // cost reductions would flatten a cost curve
	ErrInvalidMaxLevel    = "E214" // max_level must be >= 0
)

// ValidationError represents a catalog invariant violation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// InvalidCatalogError aggregates every violation found in one catalog.
type InvalidCatalogError struct {
	Name   string
	Errors []ValidationError
}

func (e *InvalidCatalogError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, v := range e.Errors {
		msgs[i] = v.Error()
	}
	return fmt.Sprintf("catalog %q is invalid: %s", e.Name, strings.Join(msgs, "; "))
}

// Validate checks every catalog invariant.
// Returns all errors found (does not fail-fast).
func Validate(c *Catalog) []ValidationError {
	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
	}

	if len(c.Resources) == 0 {
		add("resources", ErrNoResources, "at least one resource is required")
	}

	resources := make(map[ResourceKind]bool, len(c.Resources))
	tiers := make(map[string]bool)
	for i, r := range c.Resources {
		field := fmt.Sprintf("resources[%d]", i)
		if r.Kind == "" {
			add(field, ErrEmptyKind, "kind must be non-empty")
			continue
		}
		if resources[r.Kind] {
			add(field, ErrDuplicateKind, "resource %q declared twice", r.Kind)
		}
		resources[r.Kind] = true
		if r.Tier != "" {
			tiers[r.Tier] = true
		}
	}

	checkCost := func(field string, cost CostMap) {
		if len(cost) == 0 {
			add(field, ErrInvalidCost, "cost must name at least one resource")
			return
		}
		for _, kind := range cost.SortedKinds() {
			amount := cost[kind]
			if !resources[kind] {
				add(field, ErrUnknownResource, "cost references unknown resource %q", kind)
			}
			if !(amount > 0) || math.IsInf(amount, 0) {
				add(field, ErrInvalidCost, "cost of %q must be a positive finite amount, got %v", kind, amount)
			}
		}
	}

	producers := make(map[ProducerKind]bool, len(c.Producers))
	for i, p := range c.Producers {
		field := fmt.Sprintf("producers.%s", p.Kind)
		if p.Kind == "" {
			add(fmt.Sprintf("producers[%d]", i), ErrEmptyKind, "kind must be non-empty")
			continue
		}
		if producers[p.Kind] {
			add(field, ErrDuplicateKind, "producer %q declared twice", p.Kind)
		}
		producers[p.Kind] = true
		if !resources[p.Target] {
			add(field+".target", ErrUnknownResource, "target %q is not a declared resource", p.Target)
		}
		if !(p.Output >= 0) || math.IsInf(p.Output, 0) {
			add(field+".output", ErrInvalidOutput, "output must be finite and >= 0, got %v", p.Output)
		}
		if !(p.Growth > 1) || math.IsInf(p.Growth, 0) {
			add(field+".growth", ErrInvalidGrowth, "growth must be > 1, got %v", p.Growth)
		}
		checkCost(field+".cost", p.Cost)
	}

	checkFactor := func(field string, factor float64) {
		if !(factor >= 0) || math.IsInf(factor, 0) {
			add(field, ErrInvalidFactor, "factor must be finite and >= 0, got %v", factor)
		}
	}

	upgrades := make(map[UpgradeKind]bool, len(c.Upgrades))
	for i, u := range c.Upgrades {
		field := fmt.Sprintf("upgrades.%s", u.Kind)
		if u.Kind == "" {
			add(fmt.Sprintf("upgrades[%d]", i), ErrEmptyKind, "kind must be non-empty")
			continue
		}
		if upgrades[u.Kind] {
			add(field, ErrDuplicateKind, "upgrade %q declared twice", u.Kind)
		}
		upgrades[u.Kind] = true
		if !(u.Growth > 1) || math.IsInf(u.Growth, 0) {
			add(field+".growth", ErrInvalidGrowth, "growth must be > 1, got %v", u.Growth)
		}
		if u.MaxLevel < 0 {
			add(field+".max_level", ErrInvalidMaxLevel, "max_level must be >= 0, got %d", u.MaxLevel)
		}
		checkCost(field+".cost", u.Cost)
		switch eff := u.Effect.(type) {
		case ResourceMultiplier:
			if !resources[eff.Resource] {
				add(field+".effect", ErrUnknownResource, "effect targets unknown resource %q", eff.Resource)
			}
			checkFactor(field+".effect.factor", eff.Factor)
		case GlobalMultiplier:
			checkFactor(field+".effect.factor", eff.Factor)
		case nil:
			add(field+".effect", ErrInvalidEffect, "effect is required")
		default:
			add(field+".effect", ErrInvalidEffect, "upgrades only support multiplier effects, got %s", eff.EffectKind())
		}
	}

	technologies := make(map[TechnologyKind]bool, len(c.Technologies))
	gates := make(map[string]TechnologyKind)
	var reductions []CostReduction
	for i, t := range c.Technologies {
		field := fmt.Sprintf("technologies.%s", t.Kind)
		if t.Kind == "" {
			add(fmt.Sprintf("technologies[%d]", i), ErrEmptyKind, "kind must be non-empty")
			continue
		}
		if technologies[t.Kind] {
			add(field, ErrDuplicateKind, "technology %q declared twice", t.Kind)
		}
		technologies[t.Kind] = true
		checkCost(field+".cost", t.Cost)
		switch eff := t.Effect.(type) {
		case ResourceMultiplier:
			if !resources[eff.Resource] {
				add(field+".effect", ErrUnknownResource, "effect targets unknown resource %q", eff.Resource)
			}
			checkFactor(field+".effect.factor", eff.Factor)
		case GlobalMultiplier:
			checkFactor(field+".effect.factor", eff.Factor)
		case TierUnlock:
			if !tiers[eff.Tier] {
				add(field+".effect", ErrUnusedTier, "no resource belongs to tier %q", eff.Tier)
			}
			if prev, dup := gates[eff.Tier]; dup {
				add(field+".effect", ErrDuplicateGate, "tier %q is already unlocked by %q", eff.Tier, prev)
			}
			gates[eff.Tier] = t.Kind
		case CostReduction:
			if !(eff.Factor > 0 && eff.Factor <= 1) {
				add(field+".effect.factor", ErrInvalidFactor, "cost reduction factor must be in (0, 1], got %v", eff.Factor)
			}
			for _, p := range eff.Producers {
				if !producers[p] {
					add(field+".effect", ErrUnknownProducer, "cost reduction targets unknown producer %q", p)
				}
			}
			reductions = append(reductions, eff)
		case nil:
			add(field+".effect", ErrInvalidEffect, "effect is required")
		}
	}

	for tier := range tiers {
		if _, ok := gates[tier]; !ok {
			add("resources", ErrUngatedTier, "tier %q has no technology that unlocks it", tier)
		}
	}

	// Worst case: every reduction researched.
	for _, p := range c.Producers {
		growth := p.Growth
		for _, r := range reductions {
			if r.Applies(p.Kind) {
				growth *= r.Factor
			}
		}
		if p.Growth > 1 && !(growth > 1) {
			add(fmt.Sprintf("producers.%s.growth", p.Kind), ErrNonIncreasingCurve,
				"growth %v falls to %v once every cost reduction is researched", p.Growth, growth)
		}
	}

	return errs
}
