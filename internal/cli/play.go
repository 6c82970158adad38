package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/upgrades/internal/feed"
	"github.com/roach88/upgrades/internal/format"
)

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Run the game loop until interrupted",
		Long: `Load the save slot and run the game loop. Production is credited every
tick, the slot is autosaved and a final save is written on Ctrl-C.

With --listen the game is also served over a websocket feed: clients get
the current view, every change as it happens, and can send actions.

Example:
  upgrades play --slot main
  upgrades play --listen 127.0.0.1:8080 --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(rootOpts, cmd)
		},
	}

	cmd.Flags().String("listen", "", "serve the websocket feed on this address (overrides config)")

	return cmd
}

func runPlay(opts *RootOptions, cmd *cobra.Command) error {
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	// The engine outlives ctx so that Stop can write the final save.
	g, err := openGame(context.WithoutCancel(ctx), opts)
	if err != nil {
		return err
	}

	cfg := opts.config
	feedErr := make(chan error, 1)
	if cfg.Listen != "" {
		go func() { feedErr <- feed.Serve(ctx, cfg.Listen, g.engine) }()
	}

	out := cmd.OutOrStdout()
	if g.loaded.Restored {
		fmt.Fprintf(out, "Loaded slot %s, %s of offline production credited.\n",
			cfg.Slot, format.Seconds(g.loaded.OfflineSeconds))
	} else {
		fmt.Fprintf(out, "New game in slot %s.\n", cfg.Slot)
	}
	if cfg.Listen != "" {
		fmt.Fprintf(out, "Feed listening on ws://%s/ws\n", cfg.Listen)
	}
	fmt.Fprintln(out, "Press Ctrl-C to stop.")

	var runErr error
	select {
	case sig := <-sigChan:
		slog.Info("received signal, shutting down", "signal", sig)
	case <-ctx.Done():
	case runErr = <-feedErr:
		slog.Error("feed stopped", "error", runErr)
	case <-g.engine.Done():
	}

	cancel()
	if err := g.close(); err != nil {
		return WrapExitError(ExitFailure, "engine error", err)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return WrapExitError(ExitFailure, "feed error", runErr)
	}
	slog.Info("game stopped", "slot", cfg.Slot)
	fmt.Fprintln(out, "Saved.")
	return nil
}
