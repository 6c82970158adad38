package engine

import (
	"time"

	"github.com/roach88/upgrades/internal/catalog"
	"github.com/roach88/upgrades/internal/economy"
	"github.com/roach88/upgrades/internal/persist"
)

// Intent is a request for the engine loop. The set is closed; the loop
// handles every variant in one switch.
type Intent interface {
	// Name identifies the intent in logs and notifications.
	Name() string
	intent()
}

// Gather adds Amount of Resource by hand. A zero Amount gathers one unit.
type Gather struct {
	Resource catalog.ResourceKind
	Amount   float64
}

// BuyProducer buys one more of a producer.
type BuyProducer struct {
	Producer catalog.ProducerKind
}

// BuyUpgrade raises an upgrade by one level.
type BuyUpgrade struct {
	Upgrade catalog.UpgradeKind
}

// Research unlocks a technology.
type Research struct {
	Technology catalog.TechnologyKind
}

// Snapshot asks for a copy of the current state.
type Snapshot struct{}

// Reset starts a fresh game and wipes the save slot. Nothing happens unless
// Confirmed is set.
type Reset struct {
	Confirmed bool
}

// Save writes the current state now instead of waiting for the autosave.
type Save struct{}

// Export serializes the current state without writing it anywhere.
type Export struct{}

// Import replaces the current state with a serialized save.
type Import struct {
	Blob []byte
}

// saved is posted by the saver after a successful write.
type saved struct {
	at    time.Time
	epoch int
}

func (Gather) Name() string      { return "gather" }
func (BuyProducer) Name() string { return "buy_producer" }
func (BuyUpgrade) Name() string  { return "buy_upgrade" }
func (Research) Name() string    { return "research" }
func (Snapshot) Name() string    { return "snapshot" }
func (Reset) Name() string       { return "reset" }
func (Save) Name() string        { return "save" }
func (Export) Name() string      { return "export" }
func (Import) Name() string      { return "import" }
func (saved) Name() string       { return "saved" }

func (Gather) intent()      {}
func (BuyProducer) intent() {}
func (BuyUpgrade) intent()  {}
func (Research) intent()    {}
func (Snapshot) intent()    {}
func (Reset) intent()       {}
func (Save) intent()        {}
func (Export) intent()      {}
func (Import) intent()      {}
func (saved) intent()       {}

// Result is the answer to an intent. View is always the state after the
// intent was applied; the other fields are set by the intents named.
type Result struct {
	View economy.View

	// Snapshot is set by Snapshot.
	Snapshot economy.Snapshot

	// Blob is set by Export.
	Blob []byte

	// Report is set by Import.
	Report persist.Report
}

type request struct {
	intent Intent
	reply  chan response
}

type response struct {
	result Result
	err    error
}
