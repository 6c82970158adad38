package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/upgrades/internal/catalog"
	"github.com/roach88/upgrades/internal/engine"
	"github.com/roach88/upgrades/internal/format"
)

// ActionResult is the JSON payload of the one-shot game commands.
type ActionResult struct {
	Action         string  `json:"action"`
	Target         string  `json:"target,omitempty"`
	OfflineSeconds float64 `json:"offline_seconds,omitempty"`
	View           any     `json:"view"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show balances, rates and prices",
		Long: `Load the save slot, credit the time since the last save and show the
game state. Prices marked with * are affordable now.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIntent(rootOpts, cmd, "status", "", engine.Snapshot{})
		},
	}
}

// NewGatherCommand creates the gather command.
func NewGatherCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "gather <resource> [amount]",
		Short: "Gather a resource by hand",
		Long: `Gather a resource by hand. The amount defaults to one.

Example:
  upgrades gather wood
  upgrades gather stone 25`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount := 1.0
			if len(args) == 2 {
				v, err := strconv.ParseFloat(args[1], 64)
				if err != nil {
					return WrapExitError(ExitCommandError, "invalid amount", err)
				}
				amount = v
			}
			in := engine.Gather{Resource: catalog.ResourceKind(args[0]), Amount: amount}
			return runIntent(rootOpts, cmd, "gather", args[0], in)
		},
	}
}

// NewBuyCommand creates the buy command.
func NewBuyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "buy <producer>",
		Short:         "Buy one producer",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIntent(rootOpts, cmd, "buy", args[0],
				engine.BuyProducer{Producer: catalog.ProducerKind(args[0])})
		},
	}
}

// NewUpgradeCommand creates the upgrade command.
func NewUpgradeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "upgrade <upgrade>",
		Short:         "Buy the next level of an upgrade",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIntent(rootOpts, cmd, "upgrade", args[0],
				engine.BuyUpgrade{Upgrade: catalog.UpgradeKind(args[0])})
		},
	}
}

// NewResearchCommand creates the research command.
func NewResearchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "research <technology>",
		Short:         "Research a technology",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIntent(rootOpts, cmd, "research", args[0],
				engine.Research{Technology: catalog.TechnologyKind(args[0])})
		},
	}
}

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Start over and wipe the save slot",
		Long: `Discard all progress and wipe the save slot, history included.
Nothing happens without --confirm.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIntent(rootOpts, cmd, "reset", "", engine.Reset{Confirmed: confirm})
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "really discard all progress")
	return cmd
}

// runIntent opens the game, applies one intent and reports the result.
func runIntent(opts *RootOptions, cmd *cobra.Command, action, target string, in engine.Intent) error {
	formatter := newFormatter(opts, cmd)

	return withGame(cmd.Context(), opts, func(g *game) error {
		if g.loaded.OfflineSeconds > 0 {
			formatter.VerboseLog("Credited %s of offline production", format.Seconds(g.loaded.OfflineSeconds))
		}

		res, err := g.engine.Do(cmd.Context(), in)
		if err != nil {
			return reject(formatter, action, target, err)
		}

		payload := ActionResult{
			Action:         action,
			Target:         target,
			OfflineSeconds: g.loaded.OfflineSeconds,
			View:           res.View,
		}
		var text string
		switch action {
		case "status":
			text = renderView(res.View, opts.Clock.Now())
		case "reset":
			text = "Progress reset.\n"
		default:
			text = fmt.Sprintf("%s %s: ok\n%s\n", action, target, renderBalances(res.View))
		}
		return formatter.SessionSuccess(g.engine.Session(), payload, text)
	})
}

// reject reports a refused intent and turns it into an exit error.
func reject(formatter *OutputFormatter, action, target string, err error) error {
	code := engine.CodeOf(err)
	if outErr := formatter.Error(code, err.Error(), nil); outErr != nil {
		return outErr
	}
	exit := ExitFailure
	if !engine.IsRuleError(err) && code != string(engine.ErrCodeNotConfirmed) {
		exit = ExitCommandError
	}
	return WrapExitError(exit, fmt.Sprintf("%s %s rejected", action, target), err)
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the current save blob",
		Long: `Write the current state as a save blob, the same bytes the save slot
stores. The blob goes to stdout unless --output is set.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGame(cmd.Context(), rootOpts, func(g *game) error {
				res, err := g.engine.Do(cmd.Context(), engine.Export{})
				if err != nil {
					return reject(newFormatter(rootOpts, cmd), "export", "", err)
				}
				if output == "" || output == "-" {
					_, err := cmd.OutOrStdout().Write(append(res.Blob, '\n'))
					return err
				}
				if err := os.WriteFile(output, res.Blob, 0o644); err != nil {
					return WrapExitError(ExitCommandError, "failed to write export", err)
				}
				return newFormatter(rootOpts, cmd).Success(
					map[string]any{"path": output, "bytes": len(res.Blob)},
					fmt.Sprintf("Exported %d bytes to %s\n", len(res.Blob), output))
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default stdout)")
	return cmd
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the game with a save blob",
		Long: `Replace the current game with an exported save blob and write it to the
save slot. Use - to read the blob from stdin. Kinds the catalog no longer
declares are dropped and listed.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				blob []byte
				err  error
			)
			if args[0] == "-" {
				blob, err = io.ReadAll(cmd.InOrStdin())
			} else {
				blob, err = os.ReadFile(args[0])
			}
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read save blob", err)
			}

			formatter := newFormatter(rootOpts, cmd)
			return withGame(cmd.Context(), rootOpts, func(g *game) error {
				res, err := g.engine.Do(cmd.Context(), engine.Import{Blob: trimNewline(blob)})
				if err != nil {
					return reject(formatter, "import", args[0], err)
				}
				text := "Save imported.\n"
				if len(res.Report.Dropped) > 0 {
					text = fmt.Sprintf("Save imported, dropped unknown kinds: %v\n", res.Report.Dropped)
				}
				return formatter.SessionSuccess(g.engine.Session(), map[string]any{
					"dropped": res.Report.Dropped,
					"view":    res.View,
				}, text)
			})
		},
	}
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
