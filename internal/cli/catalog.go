package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/upgrades/internal/catalog"
)

// CatalogEntry is one row of the catalog listing.
type CatalogEntry struct {
	Section string          `json:"section"`
	Kind    string          `json:"kind"`
	Detail  string          `json:"detail"`
	Cost    catalog.CostMap `json:"cost,omitempty"`
}

// CatalogInfo is the JSON payload of the catalog command.
type CatalogInfo struct {
	Name    string         `json:"name"`
	Summary string         `json:"summary"`
	Entries []CatalogEntry `json:"entries"`
}

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog [file.cue]",
		Short: "Validate and print a catalog",
		Long: `Compile a CUE catalog, check every invariant and print its contents.
Without an argument the configured catalog is used, or the built-in one.

Example:
  upgrades catalog
  upgrades catalog ./testdata/catalogs/tiny.cue --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rootOpts.config.Catalog
			if len(args) == 1 {
				path = args[0]
			}
			return runCatalog(rootOpts, path, cmd)
		},
	}
}

func runCatalog(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	c, err := loadCatalog(path)
	if err != nil {
		var invalid *catalog.InvalidCatalogError
		var compile *catalog.CompileError
		switch {
		case errors.As(err, &invalid):
			_ = formatter.Error("INVALID_CATALOG", fmt.Sprintf("catalog %q has %d problem(s)", invalid.Name, len(invalid.Errors)), invalid.Errors)
			if opts.Format != "json" {
				for _, v := range invalid.Errors {
					fmt.Fprintf(formatter.Writer, "  %s\n", v.Error())
				}
			}
			return WrapExitError(ExitFailure, "invalid catalog", err)
		case errors.As(err, &compile):
			_ = formatter.Error("COMPILE_ERROR", compile.Error(), nil)
			return WrapExitError(ExitFailure, "catalog does not compile", err)
		default:
			return WrapExitError(ExitCommandError, "failed to load catalog", err)
		}
	}

	info := describeCatalog(c)
	return formatter.Success(info, renderCatalog(info))
}

func describeCatalog(c *catalog.Catalog) CatalogInfo {
	info := CatalogInfo{Name: c.Name, Summary: c.Summary()}
	add := func(section, kind, detail string, cost catalog.CostMap) {
		info.Entries = append(info.Entries, CatalogEntry{Section: section, Kind: kind, Detail: detail, Cost: cost})
	}

	for _, r := range c.Resources {
		detail := "always available"
		if tech, ok := c.Gate(r.Kind); ok {
			detail = fmt.Sprintf("tier %s, unlocked by %s", r.Tier, tech)
		}
		add("resource", string(r.Kind), detail, nil)
	}
	for _, p := range c.Producers {
		add("producer", string(p.Kind),
			fmt.Sprintf("%g %s/s, cost x%g", p.Output, p.Target, p.Growth), p.Cost)
	}
	for _, u := range c.Upgrades {
		detail := fmt.Sprintf("%s, cost x%g", describeEffect(u.Effect), u.Growth)
		if u.MaxLevel > 0 {
			detail += fmt.Sprintf(", max level %d", u.MaxLevel)
		}
		add("upgrade", string(u.Kind), detail, u.Cost)
	}
	for _, t := range c.Technologies {
		add("technology", string(t.Kind), describeEffect(t.Effect), t.Cost)
	}
	return info
}

func describeEffect(e catalog.Effect) string {
	switch e := e.(type) {
	case catalog.ResourceMultiplier:
		return fmt.Sprintf("%s x%g", e.Resource, e.Factor)
	case catalog.GlobalMultiplier:
		return fmt.Sprintf("all production x%g", e.Factor)
	case catalog.TierUnlock:
		return fmt.Sprintf("unlocks tier %s", e.Tier)
	case catalog.CostReduction:
		target := "all producers"
		if len(e.Producers) > 0 {
			names := make([]string, len(e.Producers))
			for i, p := range e.Producers {
				names[i] = string(p)
			}
			target = strings.Join(names, ", ")
		}
		return fmt.Sprintf("cost growth x%g for %s", e.Factor, target)
	default:
		return "no effect"
	}
}

func renderCatalog(info CatalogInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Catalog %s is valid.\n\n", info.Summary)

	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SECTION\tKIND\tDETAIL\tCOST")
	for _, e := range info.Entries {
		cost := ""
		if len(e.Cost) > 0 {
			cost = renderCost(e.Cost, false)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Section, e.Kind, e.Detail, cost)
	}
	tw.Flush()
	return b.String()
}
