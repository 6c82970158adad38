package harness

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/roach88/upgrades/internal/catalog"
	"github.com/roach88/upgrades/internal/economy"
)

// tolerance absorbs float error in accrued quantities.
const tolerance = 1e-9

// AssertionError describes a failed assertion.
type AssertionError struct {
	Type     string
	Subject  string
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s %s\n", e.Type, e.Subject)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion against the final view and
// returns one message per failure.
func EvaluateAssertions(v economy.View, assertions []Assertion) []string {
	var errs []string
	for _, a := range assertions {
		if err := evaluate(v, a); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluate(v economy.View, a Assertion) error {
	switch a.Type {
	case AssertBalance, AssertRate:
		r, ok := findResource(v, a.Resource)
		if !ok {
			return missing(a, a.Resource)
		}
		got := r.Amount
		if a.Type == AssertRate {
			got = r.Rate
		}
		return compareFloat(a, a.Resource, got)
	case AssertOwned:
		for _, p := range v.Producers {
			if string(p.Kind) == a.Producer {
				return compareFloat(a, a.Producer, float64(p.Owned))
			}
		}
		return missing(a, a.Producer)
	case AssertLevel:
		for _, u := range v.Upgrades {
			if string(u.Kind) == a.Upgrade {
				return compareFloat(a, a.Upgrade, float64(u.Level))
			}
		}
		return missing(a, a.Upgrade)
	case AssertResearched:
		for _, t := range v.Technologies {
			if string(t.Kind) == a.Technology {
				return compareBool(a, a.Technology, t.Researched)
			}
		}
		return missing(a, a.Technology)
	case AssertUnlocked:
		r, ok := findResource(v, a.Resource)
		if !ok {
			return missing(a, a.Resource)
		}
		return compareBool(a, a.Resource, r.Unlocked)
	case AssertCost:
		return compareCost(v, a)
	case AssertGathers:
		return compareFloat(a, "", float64(v.Stats.TotalGathers))
	default:
		return &AssertionError{Type: a.Type, Expected: "known assertion type", Actual: a.Type}
	}
}

func findResource(v economy.View, kind string) (economy.ResourceView, bool) {
	for _, r := range v.Resources {
		if string(r.Kind) == kind {
			return r, true
		}
	}
	return economy.ResourceView{}, false
}

func compareFloat(a Assertion, subject string, got float64) error {
	if a.Equals != nil && math.Abs(got-*a.Equals) > tolerance {
		return &AssertionError{Type: a.Type, Subject: subject,
			Expected: fmt.Sprintf("%g", *a.Equals), Actual: fmt.Sprintf("%g", got)}
	}
	if a.AtLeast != nil && got < *a.AtLeast-tolerance {
		return &AssertionError{Type: a.Type, Subject: subject,
			Expected: fmt.Sprintf(">= %g", *a.AtLeast), Actual: fmt.Sprintf("%g", got)}
	}
	return nil
}

func compareBool(a Assertion, subject string, got bool) error {
	want := true
	if a.Value != nil {
		want = *a.Value
	}
	if got != want {
		return &AssertionError{Type: a.Type, Subject: subject,
			Expected: fmt.Sprintf("%t", want), Actual: fmt.Sprintf("%t", got)}
	}
	return nil
}

func compareCost(v economy.View, a Assertion) error {
	var (
		cost    catalog.CostMap
		found   bool
		subject = a.Producer
	)
	if a.Producer != "" {
		for _, p := range v.Producers {
			if string(p.Kind) == a.Producer {
				cost, found = p.Cost, true
			}
		}
	} else {
		subject = a.Upgrade
		for _, u := range v.Upgrades {
			if string(u.Kind) == a.Upgrade {
				cost, found = u.Cost, true
			}
		}
	}
	if !found {
		return missing(a, subject)
	}

	want := make(catalog.CostMap, len(a.Cost))
	for k, amount := range a.Cost {
		want[catalog.ResourceKind(k)] = amount
	}
	if len(want) == len(cost) {
		equal := true
		for k, amount := range want {
			if math.Abs(cost[k]-amount) > tolerance {
				equal = false
			}
		}
		if equal {
			return nil
		}
	}
	return &AssertionError{Type: a.Type, Subject: subject,
		Expected: formatCost(want), Actual: formatCost(cost)}
}

func formatCost(c catalog.CostMap) string {
	parts := make([]string, 0, len(c))
	for k, v := range c {
		parts = append(parts, fmt.Sprintf("%s=%g", k, v))
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, " ") + "}"
}

func missing(a Assertion, subject string) error {
	return &AssertionError{Type: a.Type, Subject: subject,
		Expected: "kind declared in the catalog", Actual: "not found"}
}
