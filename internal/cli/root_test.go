package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/upgrades/internal/testutil"
)

var epoch = time.Date(2025, 12, 15, 7, 30, 0, 0, time.UTC)

// testEnv runs commands against one temp database and a shared fake clock.
type testEnv struct {
	dir   string
	db    string
	clock *testutil.FakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	return &testEnv{dir: dir, db: filepath.Join(dir, "game.db"), clock: testutil.NewFakeClock(epoch)}
}

// run executes one command line and returns stdout.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(&RootOptions{Clock: e.clock})
	out, diag := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(diag)
	cmd.SetArgs(append([]string{"--db", e.db}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err, "upgrades %v\n%s", args, out)
	return out
}

func decodeJSON(t *testing.T, out string, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(out), v), "output: %s", out)
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "upgrades", cmd.Use)
	assert.Contains(t, cmd.Long, "idle game")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"play", "status", "gather", "buy", "upgrade", "research",
		"reset", "export", "import", "history", "catalog", "scenario"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"config", "db", "slot", "catalog"} {
		flag := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, "", flag.DefValue)
	}
}

func TestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	tests := []struct {
		command string
		flag    string
	}{
		{"play", "listen"},
		{"reset", "confirm"},
		{"export", "output"},
		{"history", "all"},
		{"scenario", "update"},
		{"scenario", "filter"},
	}
	for _, tt := range tests {
		t.Run(tt.command+"/"+tt.flag, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{tt.command})
			require.NoError(t, err)
			assert.NotNil(t, sub.Flags().Lookup(tt.flag))
		})
	}
}

func TestInvalidFormat(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "--format", "yaml", "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestConfigFile(t *testing.T) {
	env := newTestEnv(t)

	path := filepath.Join(env.dir, "upgrades.yaml")
	require.NoError(t, os.WriteFile(path, []byte("slot: alt\noffline_credit: false\n"), 0o644))

	env.mustRun(t, "--config", path, "gather", "wood", "3")

	out := env.mustRun(t, "--format", "json", "history", "--all")
	var resp struct {
		Data struct {
			Slots []string `json:"slots"`
		} `json:"data"`
	}
	decodeJSON(t, out, &resp)
	assert.Equal(t, []string{"alt"}, resp.Data.Slots)

	// --slot wins over the file
	env.mustRun(t, "--config", path, "--slot", "other", "gather", "wood")
	out = env.mustRun(t, "--format", "json", "history", "--all")
	decodeJSON(t, out, &resp)
	assert.Equal(t, []string{"alt", "other"}, resp.Data.Slots)
}

func TestConfigErrors(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "--config", filepath.Join(env.dir, "missing.yaml"), "status")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	bad := filepath.Join(env.dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("tick_interval: 1ms\n"), 0o644))
	_, err = env.run(t, "--config", bad, "status")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid config")

	_, err = env.run(t, "--slot", "", "status")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
