package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/upgrades/internal/clock"
	"github.com/roach88/upgrades/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Overrides for the matching config keys.
	Database string
	Slot     string
	Catalog  string

	// Clock supplies wall time to the engine. Tests swap in a fake.
	Clock clock.Clock

	config config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the upgrades CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{Clock: clock.System{}})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upgrades",
		Short: "Idle resource game engine",
		Long: `An idle game of gathering, production and research.

Resources are gathered by hand or accrue from producers. Upgrades multiply
output, research unlocks new resource tiers, and progress is saved to a
sqlite save slot between sessions.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			setupLogging(cmd.ErrOrStderr(), opts.Verbose)
			return opts.loadConfig(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "sqlite save database (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Slot, "slot", "", "save slot name (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Catalog, "catalog", "", "CUE catalog file (overrides config)")

	cmd.AddCommand(NewPlayCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewGatherCommand(opts))
	cmd.AddCommand(NewBuyCommand(opts))
	cmd.AddCommand(NewUpgradeCommand(opts))
	cmd.AddCommand(NewResearchCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewCatalogCommand(opts))
	cmd.AddCommand(NewScenarioCommand(opts))

	return cmd
}

// loadConfig reads the config file, if any, and applies flag overrides.
func (opts *RootOptions) loadConfig(cmd *cobra.Command) error {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load config", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Database = opts.Database
	}
	if flags.Changed("slot") {
		cfg.Slot = opts.Slot
	}
	if flags.Changed("catalog") {
		cfg.Catalog = opts.Catalog
	}
	if flags.Lookup("listen") != nil && flags.Changed("listen") {
		cfg.Listen, _ = flags.GetString("listen")
	}

	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid config", err)
	}
	opts.config = cfg
	slog.Debug("config loaded",
		"database", cfg.Database,
		"slot", cfg.Slot,
		"catalog", cfg.Catalog,
		"tick", cfg.TickInterval,
		"autosave", cfg.AutosaveInterval)
	return nil
}

// setupLogging installs the process logger. Diagnostics always go to
// stderr so JSON output on stdout stays parseable.
func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
