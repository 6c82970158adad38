package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/roach88/upgrades/internal/catalog"
	"github.com/roach88/upgrades/internal/economy"
)

// FormatVersion is the envelope format written by Serialize.
const FormatVersion = 1

var (
	// ErrCorruptSave indicates a blob that cannot be turned into a snapshot.
	ErrCorruptSave = errors.New("corrupt save")

	// ErrPersistenceUnavailable indicates the save medium could not be used.
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
)

type envelope struct {
	Checksum string          `json:"checksum"`
	Format   int             `json:"format"`
	State    json.RawMessage `json:"state"`
}

// Report lists what Deserialize discarded from a blob.
type Report struct {
	// Dropped holds "section/kind" for every entry naming a kind the catalog
	// does not declare, sorted.
	Dropped []string `json:"dropped,omitempty"`
}

// Serialize encodes a snapshot as a canonical, checksummed blob.
// Equal snapshots give byte-identical blobs.
func Serialize(snap economy.Snapshot) ([]byte, error) {
	state, err := MarshalCanonical(normalize(snap))
	if err != nil {
		return nil, fmt.Errorf("serialize state: %w", err)
	}
	blob, err := MarshalCanonical(envelope{
		Checksum: Checksum(state),
		Format:   FormatVersion,
		State:    state,
	})
	if err != nil {
		return nil, fmt.Errorf("serialize envelope: %w", err)
	}
	return blob, nil
}

// normalize fills nil maps and pins timestamps to UTC so that equal states
// serialize identically.
func normalize(snap economy.Snapshot) economy.Snapshot {
	if snap.Resources == nil {
		snap.Resources = map[catalog.ResourceKind]float64{}
	}
	if snap.Producers == nil {
		snap.Producers = map[catalog.ProducerKind]int{}
	}
	if snap.Upgrades == nil {
		snap.Upgrades = map[catalog.UpgradeKind]int{}
	}
	if snap.Technologies == nil {
		snap.Technologies = map[catalog.TechnologyKind]bool{}
	}
	snap.LastTick = snap.LastTick.UTC()
	snap.LastSave = snap.LastSave.UTC()
	return snap
}

// Deserialize decodes a blob against a catalog. Entries for undeclared kinds
// are dropped and listed in the report; declared kinds missing from the blob
// are left out of the snapshot and start at zero on restore.
//
// Every other defect wraps ErrCorruptSave: malformed JSON, an unsupported
// format, a checksum mismatch, negative or fractional counts, negative or
// non-finite quantities.
func Deserialize(blob []byte, c *catalog.Catalog) (economy.Snapshot, Report, error) {
	var report Report

	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return economy.Snapshot{}, report, corrupt("decode envelope: %v", err)
	}
	if env.Format != FormatVersion {
		return economy.Snapshot{}, report, corrupt("unsupported format version %d", env.Format)
	}
	if len(env.State) == 0 {
		return economy.Snapshot{}, report, corrupt("missing state")
	}

	canonical, err := Canonicalize(env.State)
	if err != nil {
		return economy.Snapshot{}, report, corrupt("canonicalize state: %v", err)
	}
	if sum := Checksum(canonical); sum != env.Checksum {
		return economy.Snapshot{}, report, corrupt("checksum mismatch: stored %q, computed %q", env.Checksum, sum)
	}

	var snap economy.Snapshot
	if err := json.Unmarshal(env.State, &snap); err != nil {
		return economy.Snapshot{}, report, corrupt("decode state: %v", err)
	}

	for kind, amount := range snap.Resources {
		if _, ok := c.ResourceIndex(kind); !ok {
			delete(snap.Resources, kind)
			report.Dropped = append(report.Dropped, "resources/"+string(kind))
			continue
		}
		if amount < 0 {
			return economy.Snapshot{}, report, corrupt("negative quantity %v for resource %q", amount, kind)
		}
	}
	for kind, n := range snap.Producers {
		if _, ok := c.ProducerIndex(kind); !ok {
			delete(snap.Producers, kind)
			report.Dropped = append(report.Dropped, "producers/"+string(kind))
			continue
		}
		if n < 0 {
			return economy.Snapshot{}, report, corrupt("negative count %d for producer %q", n, kind)
		}
	}
	for kind, n := range snap.Upgrades {
		if _, ok := c.UpgradeIndex(kind); !ok {
			delete(snap.Upgrades, kind)
			report.Dropped = append(report.Dropped, "upgrades/"+string(kind))
			continue
		}
		if n < 0 {
			return economy.Snapshot{}, report, corrupt("negative level %d for upgrade %q", n, kind)
		}
	}
	for kind := range snap.Technologies {
		if _, ok := c.TechnologyIndex(kind); !ok {
			delete(snap.Technologies, kind)
			report.Dropped = append(report.Dropped, "technologies/"+string(kind))
		}
	}
	if snap.Stats.TotalGathers < 0 || snap.Stats.SimulatedSeconds < 0 {
		return economy.Snapshot{}, report, corrupt("negative stats %+v", snap.Stats)
	}
	sort.Strings(report.Dropped)

	return snap, report, nil
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptSave, fmt.Sprintf(format, args...))
}
