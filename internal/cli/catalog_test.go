package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogDefault(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "catalog")
	assert.Contains(t, out, "Catalog default: 6 resources, 6 producers, 7 upgrades, 6 technologies is valid.")
	assert.Contains(t, out, "tier iron, unlocked by ironMining")
	assert.Contains(t, out, "0.5 wood/s, cost x1.15")
	assert.Contains(t, out, "cost growth x0.95 for all producers")
}

func TestCatalogFileJSON(t *testing.T) {
	env := newTestEnv(t)

	var resp struct {
		Status string      `json:"status"`
		Data   CatalogInfo `json:"data"`
	}
	decodeJSON(t, env.mustRun(t, "--format", "json", "catalog", "../../testdata/catalogs/tiny.cue"), &resp)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "tiny", resp.Data.Name)

	sections := map[string]int{}
	for _, e := range resp.Data.Entries {
		sections[e.Section]++
	}
	assert.Equal(t, map[string]int{"resource": 2, "producer": 2, "upgrade": 1, "technology": 2}, sections)
}

func TestCatalogFromConfigFlag(t *testing.T) {
	env := newTestEnv(t)
	out := env.mustRun(t, "--catalog", "../../testdata/catalogs/tiny.cue", "catalog")
	assert.Contains(t, out, "Catalog tiny:")
	assert.Contains(t, out, "max level 1")
}

func TestCatalogInvalid(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(env.dir, "broken.cue")
	require.NoError(t, os.WriteFile(path, []byte(`
resources: ore: {}
producers: drill: {target: "mithril", output: 1, growth: 1.5, cost: ore: 10}
`), 0o644))

	out, err := env.run(t, "catalog", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [INVALID_CATALOG]")
	assert.Contains(t, out, "E203")
}

func TestCatalogDoesNotCompile(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(env.dir, "flat.cue")
	require.NoError(t, os.WriteFile(path, []byte(`
resources: ore: {}
producers: drill: {target: "ore", output: 1, growth: 0.5, cost: ore: 10}
`), 0o644))

	out, err := env.run(t, "catalog", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [COMPILE_ERROR]")
}

func TestCatalogMissingFile(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "catalog", filepath.Join(env.dir, "nope.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
