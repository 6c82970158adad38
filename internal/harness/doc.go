// Package harness runs YAML game scenarios against a real engine.
//
// A scenario names a catalog, a list of steps (gather, buy, upgrade,
// research, advance, reset, reload) and assertions on the final state. The
// harness drives the steps through engine intents on a fake clock with an
// in-memory sqlite save slot, so a run is deterministic: the same scenario
// always produces the same trace, which golden tests pin down.
//
// Step outcomes are checked as they happen. Every step expects success
// unless it names an error code in expect.error. A failed expectation does
// not stop the run; it is recorded in Result.Errors and the scenario fails.
package harness
