package harness

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/upgrades/internal/catalog"
	"github.com/roach88/upgrades/internal/economy"
	"github.com/roach88/upgrades/internal/engine"
	"github.com/roach88/upgrades/internal/store"
	"github.com/roach88/upgrades/internal/testutil"
)

// SessionID is stamped on every save a scenario writes.
const SessionID = "scenario-session"

// Harness executes one scenario.
type Harness struct {
	engine *engine.Engine
	slot   *store.Slot
	clock  *testutil.FakeClock
	cat    *catalog.Catalog
}

// Run executes a scenario in a fresh in-memory store.
//
// Errors are returned only when the scenario cannot run at all, e.g. a
// catalog that fails to compile. Failed expectations and assertions are
// reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	cat, err := loadCatalog(scenario.Catalog)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	start := DefaultStart
	if scenario.Start != nil {
		start = scenario.Start.UTC()
	}
	offline := true
	if scenario.OfflineCredit != nil {
		offline = *scenario.OfflineCredit
	}

	clk := testutil.NewFakeClock(start)
	slot := st.Slot(scenario.Name, SessionID)
	eng := engine.New(economy.New(cat, start), slot,
		engine.WithClock(clk),
		engine.WithSession(SessionID),
		engine.WithOfflineCredit(offline),
		// Steps credit production themselves; ticks would only add
		// nondeterministic interleaving.
		engine.WithTickInterval(24*time.Hour),
		engine.WithAutosaveInterval(0),
	)

	ctx := context.Background()
	go func() {
		if err := eng.Run(ctx); err != nil {
			slog.Warn("scenario engine stopped", "scenario", scenario.Name, "error", err)
		}
	}()
	defer func() {
		eng.Stop()
		<-eng.Done()
	}()

	h := &Harness{engine: eng, slot: slot, clock: clk, cat: cat}
	result := NewResult()

	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i+1, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}

	final, err := eng.Do(ctx, engine.Snapshot{})
	if err != nil {
		return nil, fmt.Errorf("final snapshot: %w", err)
	}
	result.Final = final.View

	for _, msg := range EvaluateAssertions(final.View, scenario.Assertions) {
		result.AddError(msg)
	}

	slog.Debug("scenario finished",
		"scenario", scenario.Name,
		"steps", len(scenario.Steps),
		"pass", result.Pass)
	return result, nil
}

// RunFile loads and runs a scenario file.
func RunFile(path string) (*Scenario, *Result, error) {
	scenario, err := LoadScenario(path)
	if err != nil {
		return nil, nil, err
	}
	result, err := Run(scenario)
	return scenario, result, err
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}

// executeStep runs one step and records it in the trace. The returned error
// is reserved for infrastructure failures; rule failures are outcomes.
func (h *Harness) executeStep(ctx context.Context, n int, step Step, result *Result) error {
	event := TraceEvent{Step: n}

	var (
		view economy.View
		err  error
	)

	switch {
	case step.Gather != nil:
		event.Action, event.Target = "gather", step.Gather.Resource
		event.Amount = step.Gather.Amount
		view, err = h.do(ctx, engine.Gather{
			Resource: catalog.ResourceKind(step.Gather.Resource),
			Amount:   step.Gather.Amount,
		})
	case step.Buy != "":
		event.Action, event.Target = "buy", step.Buy
		view, err = h.do(ctx, engine.BuyProducer{Producer: catalog.ProducerKind(step.Buy)})
	case step.Upgrade != "":
		event.Action, event.Target = "upgrade", step.Upgrade
		view, err = h.do(ctx, engine.BuyUpgrade{Upgrade: catalog.UpgradeKind(step.Upgrade)})
	case step.Research != "":
		event.Action, event.Target = "research", step.Research
		view, err = h.do(ctx, engine.Research{Technology: catalog.TechnologyKind(step.Research)})
	case step.Advance != "":
		d, perr := time.ParseDuration(step.Advance)
		if perr != nil {
			return perr
		}
		event.Action, event.Amount = "advance", d.Seconds()
		h.clock.Advance(d)
		view, err = h.do(ctx, engine.Snapshot{})
	case step.Reset:
		event.Action = "reset"
		view, err = h.do(ctx, engine.Reset{Confirmed: true})
	case step.Reload:
		event.Action = "reload"
		view, err = h.reload(ctx)
	default:
		return fmt.Errorf("step has no action")
	}

	if err != nil && !engine.IsRuleError(err) {
		return err
	}

	event.Outcome = outcome(err)
	if err != nil {
		// Rule failures leave the state unchanged; show it anyway.
		view, err = h.do(ctx, engine.Snapshot{})
		if err != nil {
			return err
		}
	}
	event.Balances = balances(view)
	result.Trace = append(result.Trace, event)

	want := OutcomeOK
	if step.Expect != nil {
		want = step.Expect.Error
	}
	if event.Outcome != want {
		result.AddError(fmt.Sprintf("step %d (%s %s): expected %s, got %s",
			n, event.Action, event.Target, want, event.Outcome))
	}
	return nil
}

func (h *Harness) do(ctx context.Context, in engine.Intent) (economy.View, error) {
	res, err := h.engine.Do(ctx, in)
	return res.View, err
}

// reload pushes the state through the sqlite slot and back.
func (h *Harness) reload(ctx context.Context) (economy.View, error) {
	if _, err := h.engine.Do(ctx, engine.Save{}); err != nil {
		return economy.View{}, err
	}
	blob, found, err := h.slot.Read(ctx)
	if err != nil {
		return economy.View{}, err
	}
	if !found {
		return economy.View{}, fmt.Errorf("reload: slot %s is empty after save", h.slot.Name())
	}
	res, err := h.engine.Do(ctx, engine.Import{Blob: blob})
	if err != nil {
		return economy.View{}, err
	}
	if len(res.Report.Dropped) > 0 {
		return economy.View{}, fmt.Errorf("reload dropped %v", res.Report.Dropped)
	}
	return res.View, nil
}

func outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	return string(economy.CodeOf(err))
}

func balances(v economy.View) map[string]float64 {
	out := make(map[string]float64, len(v.Resources))
	for _, r := range v.Resources {
		out[string(r.Kind)] = r.Amount
	}
	return out
}
