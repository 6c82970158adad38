package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/upgrades/internal/format"
	"github.com/roach88/upgrades/internal/store"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the saves kept for the slot",
		Long: `List the saves kept for the configured slot, newest first. With --all,
list every non-empty slot in the database instead.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(rootOpts, all, cmd)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "list slots instead of saves")
	return cmd
}

func runHistory(opts *RootOptions, all bool, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	cfg := opts.config

	st, err := store.Open(cfg.Database, store.WithHistory(cfg.History))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if all {
		slots, err := st.Slots(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list slots", err)
		}
		text := "No saves.\n"
		if len(slots) > 0 {
			text = strings.Join(slots, "\n") + "\n"
		}
		return formatter.Success(map[string]any{"slots": slots}, text)
	}

	records, err := st.Slot(cfg.Slot, "").History(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read history", err)
	}
	if records == nil {
		records = []store.SaveRecord{}
	}

	var b strings.Builder
	if len(records) == 0 {
		fmt.Fprintf(&b, "Slot %s is empty.\n", cfg.Slot)
	} else {
		tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SEQ\tSAVED AT\tSIZE\tSESSION\tDIGEST")
		for _, r := range records {
			fmt.Fprintf(tw, "%d\t%s\t%s B\t%s\t%s\n",
				r.Seq, format.Timestamp(r.SavedAt), format.Grouped(float64(r.Size)), r.Session, r.Digest[:12])
		}
		tw.Flush()
	}
	return formatter.Success(map[string]any{"slot": cfg.Slot, "saves": records}, b.String())
}
