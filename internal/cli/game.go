package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/upgrades/internal/catalog"
	"github.com/roach88/upgrades/internal/engine"
	"github.com/roach88/upgrades/internal/persist"
	"github.com/roach88/upgrades/internal/store"
)

// game is a running engine over the configured save slot.
type game struct {
	engine *engine.Engine
	store  *store.Store
	slot   *store.Slot
	loaded persist.LoadResult

	errc chan error
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}

// openGame loads the slot and starts an engine over it. The engine runs
// until close, which writes the final save.
func openGame(ctx context.Context, opts *RootOptions) (*game, error) {
	cfg := opts.config

	cat, err := loadCatalog(cfg.Catalog)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load catalog", err)
	}

	st, err := store.Open(cfg.Database,
		store.WithHistory(cfg.History),
		store.WithClock(opts.Clock.Now),
	)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	session := engine.UUIDv7Generator{}.Generate()
	slot := st.Slot(cfg.Slot, session)
	loaded := persist.Load(ctx, slot, cat, persist.LoadOptions{
		Now:           opts.Clock.Now(),
		OfflineCredit: cfg.OfflineCredit,
	})

	eng := engine.New(loaded.State, slot,
		engine.WithClock(opts.Clock),
		engine.WithSession(session),
		engine.WithTickInterval(cfg.TickInterval),
		engine.WithAutosaveInterval(cfg.AutosaveInterval),
		engine.WithOfflineCredit(cfg.OfflineCredit),
	)

	g := &game{engine: eng, store: st, slot: slot, loaded: loaded, errc: make(chan error, 1)}
	go func() { g.errc <- eng.Run(ctx) }()

	slog.Debug("game opened",
		"slot", cfg.Slot,
		"session", session,
		"catalog", cat.Name,
		"restored", loaded.Restored,
		"offline_seconds", loaded.OfflineSeconds)
	return g, nil
}

// close stops the engine, waits for the final save and closes the store.
func (g *game) close() error {
	g.engine.Stop()
	runErr := <-g.errc
	if err := g.store.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("engine: %w", runErr)
	}
	return nil
}

// withGame runs fn against a freshly opened game and closes it afterwards.
func withGame(ctx context.Context, opts *RootOptions, fn func(*game) error) (err error) {
	g, err := openGame(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := g.close(); cerr != nil && err == nil {
			err = WrapExitError(ExitFailure, "engine error", cerr)
		}
	}()
	return fn(g)
}
