package harness

import "github.com/roach88/upgrades/internal/economy"

// Outcome recorded for a step that succeeded.
const OutcomeOK = "ok"

// TraceEvent records one executed step and the balances right after it.
type TraceEvent struct {
	Step     int                `json:"step"`
	Action   string             `json:"action"`
	Target   string             `json:"target,omitempty"`
	Amount   float64            `json:"amount,omitempty"`
	Outcome  string             `json:"outcome"`
	Balances map[string]float64 `json:"balances"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step expectation and assertion held.
	Pass bool `json:"pass"`

	Trace  []TraceEvent `json:"trace"`
	Errors []string     `json:"errors,omitempty"`

	// Final is the state after the last step.
	Final economy.View `json:"final"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
