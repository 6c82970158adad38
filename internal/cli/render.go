package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/roach88/upgrades/internal/catalog"
	"github.com/roach88/upgrades/internal/economy"
	"github.com/roach88/upgrades/internal/format"
)

// renderView renders the status screen.
func renderView(v economy.View, now time.Time) string {
	var b strings.Builder

	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RESOURCE\tAMOUNT\tRATE")
	for _, r := range v.Resources {
		if !r.Unlocked {
			fmt.Fprintf(tw, "%s\t(locked)\t\n", r.Kind)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Kind, format.Number(r.Amount), format.Rate(r.Rate))
	}
	tw.Flush()

	b.WriteString("\n")
	tw = tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCER\tOWNED\tNEXT COST")
	for _, p := range v.Producers {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", p.Kind, p.Owned, renderCost(p.Cost, p.Affordable))
	}
	tw.Flush()

	b.WriteString("\n")
	tw = tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "UPGRADE\tLEVEL\tNEXT COST")
	for _, u := range v.Upgrades {
		level := fmt.Sprint(u.Level)
		if u.MaxLevel > 0 {
			level = fmt.Sprintf("%d/%d", u.Level, u.MaxLevel)
		}
		cost := renderCost(u.Cost, u.Affordable)
		if u.MaxLevel > 0 && u.Level >= u.MaxLevel {
			cost = "max"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", u.Kind, level, cost)
	}
	tw.Flush()

	b.WriteString("\n")
	tw = tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TECHNOLOGY\tSTATUS\tCOST")
	for _, t := range v.Technologies {
		if t.Researched {
			fmt.Fprintf(tw, "%s\tresearched\t\n", t.Kind)
			continue
		}
		fmt.Fprintf(tw, "%s\t-\t%s\n", t.Kind, renderCost(t.Cost, t.Affordable))
	}
	tw.Flush()

	fmt.Fprintf(&b, "\nGlobal multiplier x%s, %s gathers, %s simulated\n",
		formatFactor(v.Multipliers.Global),
		format.Grouped(float64(v.Stats.TotalGathers)),
		format.Seconds(v.Stats.SimulatedSeconds))
	if v.LastSave.IsZero() {
		b.WriteString("Last save: never\n")
	} else {
		fmt.Fprintf(&b, "Last save: %s (%s ago)\n",
			format.Timestamp(v.LastSave), format.Duration(now.Sub(v.LastSave)))
	}
	return b.String()
}

func renderCost(c catalog.CostMap, affordable bool) string {
	parts := make([]string, 0, len(c))
	for _, kind := range c.SortedKinds() {
		parts = append(parts, fmt.Sprintf("%s %s", format.Number(c[kind]), kind))
	}
	s := strings.Join(parts, ", ")
	if affordable {
		s += " *"
	}
	return s
}

func formatFactor(f float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", f), "0"), ".")
}

// renderBalances is the one-line summary printed after an action.
func renderBalances(v economy.View) string {
	var parts []string
	for _, r := range v.Resources {
		if r.Unlocked {
			parts = append(parts, fmt.Sprintf("%s %s", r.Kind, format.Number(r.Amount)))
		}
	}
	return strings.Join(parts, " | ")
}
