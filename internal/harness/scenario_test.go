package harness

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScenario(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: small
description: parses every step kind
start: 2024-01-02T03:04:05Z
offline_credit: false
steps:
  - gather: {resource: wood}
  - buy: woodCutter
  - upgrade: woodEfficiency
  - research: ironMining
    expect: {error: INSUFFICIENT_FUNDS}
  - advance: 1m30s
  - reset: true
  - reload: true
assertions:
  - {type: balance, resource: wood, at_least: 1}
`))
	require.NoError(t, err)

	assert.Equal(t, "small", s.Name)
	require.NotNil(t, s.Start)
	assert.True(t, s.Start.Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
	require.NotNil(t, s.OfflineCredit)
	assert.False(t, *s.OfflineCredit)
	require.Len(t, s.Steps, 7)
	assert.Equal(t, "wood", s.Steps[0].Gather.Resource)
	assert.Equal(t, "INSUFFICIENT_FUNDS", s.Steps[3].Expect.Error)
	assert.Equal(t, "1m30s", s.Steps[4].Advance)
	assert.True(t, s.Steps[6].Reload)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown field", "name: x\ndescription: y\nstep: []", "field step not found"},
		{"no name", "description: y\nsteps: [{buy: a}]", "name is required"},
		{"no description", "name: x\nsteps: [{buy: a}]", "description is required"},
		{"no steps", "name: x\ndescription: y", "steps list is required"},
		{"two actions", "name: x\ndescription: y\nsteps: [{buy: a, research: b}]", "exactly one action"},
		{"no action", "name: x\ndescription: y\nsteps: [{expect: {error: X}}]", "exactly one action"},
		{"gather without resource", "name: x\ndescription: y\nsteps: [{gather: {amount: 2}}]", "gather requires resource"},
		{"bad duration", "name: x\ndescription: y\nsteps: [{advance: later}]", "advance"},
		{"negative duration", "name: x\ndescription: y\nsteps: [{advance: -1s}]", "must not be negative"},
		{"unknown assertion", "name: x\ndescription: y\nsteps: [{buy: a}]\nassertions: [{type: vibes}]", "unknown assertion type"},
		{"balance without bound", "name: x\ndescription: y\nsteps: [{buy: a}]\nassertions: [{type: balance, resource: wood}]", "equals or at_least"},
		{"cost with both", "name: x\ndescription: y\nsteps: [{buy: a}]\nassertions: [{type: cost, producer: a, upgrade: b, cost: {wood: 1}}]", "exactly one of producer or upgrade"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_ResolvesCatalogPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: s
description: relative catalog
catalog: cats/tiny.cue
steps: [{advance: 1s}]
`), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cats", "tiny.cue"), s.Catalog)

	_, err = LoadScenario(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
