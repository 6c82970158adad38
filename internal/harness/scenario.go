package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultStart is the fake wall time a scenario starts at unless it says
// otherwise.
var DefaultStart = time.Date(2025, 12, 15, 7, 30, 0, 0, time.UTC)

// Scenario is one scripted play session.
type Scenario struct {
	// Name uniquely identifies the scenario; golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what the scenario demonstrates.
	Description string `yaml:"description"`

	// Catalog is a CUE catalog path, relative to the scenario file. Empty
	// means the built-in catalog.
	Catalog string `yaml:"catalog,omitempty"`

	// Start overrides DefaultStart.
	Start *time.Time `yaml:"start,omitempty"`

	// OfflineCredit controls whether reload credits the time since the save.
	// Defaults to true.
	OfflineCredit *bool `yaml:"offline_credit,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is a single player action. Exactly one action field is set.
type Step struct {
	Gather   *GatherStep `yaml:"gather,omitempty"`
	Buy      string      `yaml:"buy,omitempty"`
	Upgrade  string      `yaml:"upgrade,omitempty"`
	Research string      `yaml:"research,omitempty"`

	// Advance moves the wall clock forward, e.g. "90s".
	Advance string `yaml:"advance,omitempty"`

	// Reset starts over with a confirmed reset.
	Reset bool `yaml:"reset,omitempty"`

	// Reload saves, reads the save back from the slot and imports it.
	Reload bool `yaml:"reload,omitempty"`

	// Expect overrides the default expectation of success.
	Expect *Expect `yaml:"expect,omitempty"`
}

// GatherStep gathers by hand. Amount defaults to one.
type GatherStep struct {
	Resource string  `yaml:"resource"`
	Amount   float64 `yaml:"amount,omitempty"`
}

// Expect describes the expected outcome of a step.
type Expect struct {
	// Error is the expected error code, e.g. INSUFFICIENT_FUNDS.
	Error string `yaml:"error"`
}

// Assertion checks the final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	Resource   string `yaml:"resource,omitempty"`
	Producer   string `yaml:"producer,omitempty"`
	Upgrade    string `yaml:"upgrade,omitempty"`
	Technology string `yaml:"technology,omitempty"`

	// Equals is compared with a small tolerance for float quantities.
	Equals *float64 `yaml:"equals,omitempty"`

	// AtLeast is a lower bound for float quantities.
	AtLeast *float64 `yaml:"at_least,omitempty"`

	// Value is used by boolean assertions.
	Value *bool `yaml:"value,omitempty"`

	// Cost is the expected next cost, used by cost.
	Cost map[string]float64 `yaml:"cost,omitempty"`
}

// Assertion types.
const (
	AssertBalance    = "balance"
	AssertRate       = "rate"
	AssertOwned      = "owned"
	AssertLevel      = "level"
	AssertResearched = "researched"
	AssertUnlocked   = "unlocked"
	AssertCost       = "cost"
	AssertGathers    = "total_gathers"
)

// LoadScenario reads and validates a scenario file. A relative catalog path
// is resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	if scenario.Catalog != "" && !filepath.IsAbs(scenario.Catalog) {
		scenario.Catalog = filepath.Join(filepath.Dir(path), scenario.Catalog)
	}
	return scenario, nil
}

// ParseScenario decodes a scenario in strict mode and validates it.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if n := step.actions(); n != 1 {
			return fmt.Errorf("step %d: exactly one action required, found %d", i+1, n)
		}
		if step.Gather != nil && step.Gather.Resource == "" {
			return fmt.Errorf("step %d: gather requires resource", i+1)
		}
		if step.Advance != "" {
			d, err := time.ParseDuration(step.Advance)
			if err != nil {
				return fmt.Errorf("step %d: advance: %w", i+1, err)
			}
			if d < 0 {
				return fmt.Errorf("step %d: advance must not be negative", i+1)
			}
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertion %d (%s): %w", i+1, a.Type, err)
		}
	}
	return nil
}

func (s Step) actions() int {
	n := 0
	for _, set := range []bool{
		s.Gather != nil,
		s.Buy != "",
		s.Upgrade != "",
		s.Research != "",
		s.Advance != "",
		s.Reset,
		s.Reload,
	} {
		if set {
			n++
		}
	}
	return n
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertBalance, AssertRate:
		if a.Resource == "" {
			return fmt.Errorf("resource is required")
		}
		if a.Equals == nil && a.AtLeast == nil {
			return fmt.Errorf("equals or at_least is required")
		}
	case AssertOwned:
		if a.Producer == "" || a.Equals == nil {
			return fmt.Errorf("producer and equals are required")
		}
	case AssertLevel:
		if a.Upgrade == "" || a.Equals == nil {
			return fmt.Errorf("upgrade and equals are required")
		}
	case AssertResearched:
		if a.Technology == "" {
			return fmt.Errorf("technology is required")
		}
	case AssertUnlocked:
		if a.Resource == "" {
			return fmt.Errorf("resource is required")
		}
	case AssertCost:
		if (a.Producer == "") == (a.Upgrade == "") {
			return fmt.Errorf("exactly one of producer or upgrade is required")
		}
		if len(a.Cost) == 0 {
			return fmt.Errorf("cost is required")
		}
	case AssertGathers:
		if a.Equals == nil {
			return fmt.Errorf("equals is required")
		}
	default:
		return fmt.Errorf("unknown assertion type")
	}
	return nil
}
