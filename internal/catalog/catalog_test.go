package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "default", c.Name)
	assert.Equal(t,
		[]ResourceKind{"wood", "stone", "iron", "gold", "copper", "crystal"},
		c.ResourceKinds(), "resources keep declaration order")
	require.Len(t, c.Producers, 6)
	require.Len(t, c.Upgrades, 7)
	require.Len(t, c.Technologies, 6)

	wc := c.Producers[0]
	assert.Equal(t, ProducerKind("woodCutter"), wc.Kind)
	assert.Equal(t, ResourceKind("wood"), wc.Target)
	assert.Equal(t, 0.5, wc.Output)
	assert.Equal(t, 1.15, wc.Growth)
	assert.Equal(t, CostMap{"wood": 10}, wc.Cost)

	i, ok := c.TechnologyIndex("massProduction")
	require.True(t, ok)
	assert.Equal(t, GlobalMultiplier{Factor: 1.25}, c.Technologies[i].Effect)

	i, ok = c.TechnologyIndex("advancedMachines")
	require.True(t, ok)
	assert.Equal(t, CostReduction{Factor: 0.95}, c.Technologies[i].Effect)

	i, ok = c.UpgradeIndex("productionMultiplier")
	require.True(t, ok)
	assert.Equal(t, 1.3, c.Upgrades[i].Growth)
	assert.Equal(t, 0, c.Upgrades[i].MaxLevel)
}

func TestDefaultCatalogGates(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	_, gated := c.Gate("wood")
	assert.False(t, gated, "untiered resources have no gate")

	tech, gated := c.Gate("iron")
	require.True(t, gated)
	assert.Equal(t, TechnologyKind("ironMining"), tech)

	tech, gated = c.Gate("crystal")
	require.True(t, gated)
	assert.Equal(t, TechnologyKind("crystalHarvesting"), tech)

	_, gated = c.Gate("unobtainium")
	assert.False(t, gated)
}

func TestCompileMinimal(t *testing.T) {
	c, err := Compile("tiny.cue", []byte(`
		resources: {
			ore: {}
			gem: tier: "deep"
		}
		producers: drill: {target: "ore", output: 2, growth: 1.5, cost: ore: 3}
		technologies: delve: {cost: ore: 10, effect: {kind: "tier_unlock", tier: "deep"}}
	`))
	require.NoError(t, err)

	assert.Equal(t, "tiny", c.Name, "name defaults to the file name")
	assert.Empty(t, c.Upgrades)
	assert.Equal(t, 2.0, c.Producers[0].Output)
	assert.Equal(t, CostMap{"ore": 3}, c.Producers[0].Cost)
}

func TestCompileCostReductionProducers(t *testing.T) {
	c, err := Compile("cr.cue", []byte(`
		resources: ore: {}
		producers: {
			drill: {target: "ore", output: 1, growth: 1.5, cost: ore: 3}
			pick:  {target: "ore", output: 1, growth: 1.5, cost: ore: 3}
		}
		technologies: lube: {cost: ore: 10, effect: {kind: "cost_reduction", factor: 0.9, producers: ["drill"]}}
	`))
	require.NoError(t, err)

	cr, ok := c.Technologies[0].Effect.(CostReduction)
	require.True(t, ok)
	assert.True(t, cr.Applies("drill"))
	assert.False(t, cr.Applies("pick"))
}

func TestCompileSchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{
			name: "growth not above one",
			src: `
				resources: ore: {}
				producers: drill: {target: "ore", output: 1, growth: 1, cost: ore: 3}`,
		},
		{
			name: "zero cost",
			src: `
				resources: ore: {}
				producers: drill: {target: "ore", output: 1, growth: 1.1, cost: ore: 0}`,
		},
		{
			name: "unknown field",
			src: `
				resources: ore: {}
				producers: drill: {target: "ore", output: 1, growth: 1.1, cost: ore: 1, colour: "red"}`,
		},
		{
			name: "tier unlock on an upgrade",
			src: `
				resources: ore: {}
				upgrades: u: {growth: 1.1, cost: ore: 1, effect: {kind: "tier_unlock", tier: "x"}}`,
		},
		{
			name: "syntax error",
			src:  `resources: {`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile("bad.cue", []byte(tt.src))
			require.Error(t, err)
			var compileErr *CompileError
			assert.True(t, errors.As(err, &compileErr), "got %T: %v", err, err)
		})
	}
}

func TestCompileInvariantViolations(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{
			name: "unknown producer target",
			src: `
				resources: ore: {}
				producers: drill: {target: "gem", output: 1, growth: 1.1, cost: ore: 3}`,
			code: ErrUnknownResource,
		},
		{
			name: "cost in unknown resource",
			src: `
				resources: ore: {}
				producers: drill: {target: "ore", output: 1, growth: 1.1, cost: gem: 3}`,
			code: ErrUnknownResource,
		},
		{
			name: "tier without gate",
			src: `
				resources: {ore: {}, gem: tier: "deep"}`,
			code: ErrUngatedTier,
		},
		{
			name: "two gates for one tier",
			src: `
				resources: {ore: {}, gem: tier: "deep"}
				technologies: {
					a: {cost: ore: 1, effect: {kind: "tier_unlock", tier: "deep"}}
					b: {cost: ore: 1, effect: {kind: "tier_unlock", tier: "deep"}}
				}`,
			code: ErrDuplicateGate,
		},
		{
			name: "reduction flattens curve",
			src: `
				resources: ore: {}
				producers: drill: {target: "ore", output: 1, growth: 1.05, cost: ore: 3}
				technologies: cheap: {cost: ore: 1, effect: {kind: "cost_reduction", factor: 0.9}}`,
			code: ErrNonIncreasingCurve,
		},
		{
			name: "reduction names unknown producer",
			src: `
				resources: ore: {}
				technologies: cheap: {cost: ore: 1, effect: {kind: "cost_reduction", factor: 0.9, producers: ["ghost"]}}`,
			code: ErrUnknownProducer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile("bad.cue", []byte(tt.src))
			require.Error(t, err)

			var invalid *InvalidCatalogError
			require.True(t, errors.As(err, &invalid), "got %T: %v", err, err)
			codes := make([]string, len(invalid.Errors))
			for i, v := range invalid.Errors {
				codes[i] = v.Code
			}
			assert.Contains(t, codes, tt.code)
		})
	}
}

func TestNewCollectsAllErrors(t *testing.T) {
	_, err := New("broken",
		nil,
		[]Producer{{Kind: "p", Target: "x", Growth: 0.5}},
		nil, nil)
	require.Error(t, err)

	var invalid *InvalidCatalogError
	require.True(t, errors.As(err, &invalid))
	assert.GreaterOrEqual(t, len(invalid.Errors), 4, "no resources, unknown target, bad growth, empty cost")
	assert.Contains(t, err.Error(), `catalog "broken" is invalid`)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "forest.cue")
	require.NoError(t, os.WriteFile(path, []byte(`
		name: "forest"
		resources: leaf: {}
		producers: tree: {target: "leaf", output: 1, growth: 1.2, cost: leaf: 5}
	`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "forest: 1 resources, 1 producers, 0 upgrades, 0 technologies", c.Summary())

	_, err = Load(filepath.Join(dir, "missing.cue"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCostMapSortedKinds(t *testing.T) {
	c := CostMap{"stone": 1, "wood": 2, "iron": 3}
	assert.Equal(t, []ResourceKind{"iron", "stone", "wood"}, c.SortedKinds())

	clone := c.Clone()
	clone["wood"] = 99
	assert.Equal(t, 2.0, c["wood"])
}
