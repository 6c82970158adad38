package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/upgrades/internal/catalog"
	"github.com/roach88/upgrades/internal/economy"
)

// LoadOptions controls how a save is turned back into a live state.
type LoadOptions struct {
	// Now is the wall time at load completion.
	Now time.Time

	// OfflineCredit credits production for the time between the saved tick
	// and Now. When false the tick is moved to Now and that interval is lost.
	OfflineCredit bool
}

// LoadResult describes the outcome of Load. State is always usable.
type LoadResult struct {
	State *economy.State

	// Restored is true when State came from a save rather than a fresh game.
	Restored bool

	// OfflineSeconds is the interval credited on load.
	OfflineSeconds float64

	Report Report

	// Err is the recoverable failure that forced a fresh game, if any.
	// It wraps ErrPersistenceUnavailable or ErrCorruptSave.
	Err error
}

// Load reads the latest save from src. Any failure falls back to a fresh
// state and is reported in LoadResult.Err instead of being returned. A source
// that detects damaged data itself reports it wrapping ErrCorruptSave.
func Load(ctx context.Context, src Source, c *catalog.Catalog, opts LoadOptions) LoadResult {
	fresh := func(err error) LoadResult {
		if err != nil {
			slog.Warn("starting fresh game", "error", err)
		}
		return LoadResult{State: economy.New(c, opts.Now), Err: err}
	}

	blob, found, err := src.Read(ctx)
	switch {
	case errors.Is(err, ErrCorruptSave):
		return fresh(err)
	case err != nil:
		return fresh(fmt.Errorf("%w: %w", ErrPersistenceUnavailable, err))
	}
	if !found {
		slog.Debug("no save found")
		return fresh(nil)
	}

	state, report, err := Decode(blob, c)
	if err != nil {
		return fresh(err)
	}
	if len(report.Dropped) > 0 {
		slog.Warn("save references unknown kinds", "dropped", report.Dropped)
	}

	result := LoadResult{State: state, Restored: true, Report: report}
	if opts.OfflineCredit {
		result.OfflineSeconds = state.Advance(opts.Now)
	} else {
		state.Rebase(opts.Now)
	}
	slog.Info("save loaded",
		"catalog", c.Name,
		"offline_seconds", result.OfflineSeconds,
		"last_save", state.LastSave())
	return result
}

// Decode turns a blob into a state without applying any load policy.
// Errors wrap ErrCorruptSave.
func Decode(blob []byte, c *catalog.Catalog) (*economy.State, Report, error) {
	snap, report, err := Deserialize(blob, c)
	if err != nil {
		return nil, report, err
	}
	state, err := economy.Restore(c, snap)
	if err != nil {
		return nil, report, fmt.Errorf("%w: %w", ErrCorruptSave, err)
	}
	return state, report, nil
}

// Save serializes snap and writes it to sink. Errors wrap
// ErrPersistenceUnavailable except for serialization failures.
func Save(ctx context.Context, sink Sink, snap economy.Snapshot) error {
	blob, err := Serialize(snap)
	if err != nil {
		return err
	}
	if err := sink.Write(ctx, blob); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistenceUnavailable, err)
	}
	return nil
}
