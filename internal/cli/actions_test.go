package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/upgrades/internal/economy"
)

type actionResponse struct {
	Status string `json:"status"`
	Data   struct {
		Action         string       `json:"action"`
		Target         string       `json:"target"`
		OfflineSeconds float64      `json:"offline_seconds"`
		View           economy.View `json:"view"`
	} `json:"data"`
	Error *CLIError `json:"error"`
	Session string  `json:"session"`
}

func (e *testEnv) status(t *testing.T) actionResponse {
	t.Helper()
	var resp actionResponse
	decodeJSON(t, e.mustRun(t, "--format", "json", "status"), &resp)
	return resp
}

func balance(v economy.View, kind string) float64 {
	for _, r := range v.Resources {
		if string(r.Kind) == kind {
			return r.Amount
		}
	}
	return -1
}

func TestGatherBuyAndOfflineCredit(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "gather", "wood", "10")
	assert.Contains(t, out, "gather wood: ok")
	assert.Contains(t, out, "wood 10")

	resp := env.status(t)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "status", resp.Data.Action)
	assert.NotEmpty(t, resp.Session)
	assert.Equal(t, 10.0, balance(resp.Data.View, "wood"))
	assert.Zero(t, resp.Data.OfflineSeconds)

	env.mustRun(t, "buy", "woodCutter")

	env.clock.Advance(20 * time.Second)
	resp = env.status(t)
	assert.Equal(t, 20.0, resp.Data.OfflineSeconds)
	assert.Equal(t, 10.0, balance(resp.Data.View, "wood"))
	assert.Equal(t, int64(1), resp.Data.View.Stats.TotalGathers)
}

func TestOfflineCreditDisabled(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(env.dir, "upgrades.yaml")
	require.NoError(t, os.WriteFile(path, []byte("offline_credit: false\n"), 0o644))

	env.mustRun(t, "--config", path, "gather", "wood", "10")
	env.mustRun(t, "--config", path, "buy", "woodCutter")
	env.clock.Advance(time.Minute)

	var resp actionResponse
	decodeJSON(t, env.mustRun(t, "--config", path, "--format", "json", "status"), &resp)
	assert.Zero(t, resp.Data.OfflineSeconds)
	assert.Equal(t, 0.0, balance(resp.Data.View, "wood"))
}

func TestStatusText(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "gather", "stone", "1234")

	out := env.mustRun(t, "status")
	assert.Contains(t, out, "RESOURCE")
	assert.Contains(t, out, "1.23K")
	assert.Contains(t, out, "(locked)")
	assert.Contains(t, out, "woodEfficiency")
	assert.Contains(t, out, "Global multiplier x1")
	assert.Contains(t, out, "Last save: "+epoch.Format(time.DateTime))
}

func TestRejectedActions(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		code     string
		exitCode int
	}{
		{"unaffordable producer", []string{"buy", "woodCutter"}, "INSUFFICIENT_FUNDS", ExitFailure},
		{"unknown producer", []string{"buy", "golem"}, "UNKNOWN_KIND", ExitFailure},
		{"unknown resource", []string{"gather", "mithril"}, "UNKNOWN_KIND", ExitFailure},
		{"infinite gather", []string{"gather", "wood", "Inf"}, "INVALID_AMOUNT", ExitFailure},
		{"unaffordable research", []string{"research", "ironMining"}, "INSUFFICIENT_FUNDS", ExitFailure},
		{"unaffordable upgrade", []string{"upgrade", "woodEfficiency"}, "INSUFFICIENT_FUNDS", ExitFailure},
		{"unconfirmed reset", []string{"reset"}, "RESET_NOT_CONFIRMED", ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			out, err := env.run(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.exitCode, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tt.code+"]")

			out, err = env.run(t, append([]string{"--format", "json"}, tt.args...)...)
			require.Error(t, err)
			var resp actionResponse
			decodeJSON(t, out, &resp)
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestGatherBadAmount(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "gather", "wood", "lots")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestResearchAndUpgrade(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "gather", "wood", "100")
	env.mustRun(t, "gather", "stone", "100")

	assert.Contains(t, env.mustRun(t, "research", "ironMining"), "research ironMining: ok")
	assert.Contains(t, env.mustRun(t, "upgrade", "woodEfficiency"), "upgrade woodEfficiency: ok")

	v := env.status(t).Data.View
	assert.Equal(t, 75.0, balance(v, "wood"))
	assert.Equal(t, 25.0, balance(v, "stone"))
	for _, r := range v.Resources {
		if r.Kind == "iron" {
			assert.True(t, r.Unlocked)
		}
	}
}

func TestExportResetImport(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "gather", "wood", "42")

	blobPath := filepath.Join(env.dir, "save.json")
	out := env.mustRun(t, "export", "-o", blobPath)
	assert.Contains(t, out, "Exported")
	blob, err := os.ReadFile(blobPath)
	require.NoError(t, err)
	assert.Contains(t, string(blob), `"format":1`)

	stdout := env.mustRun(t, "export")
	assert.Equal(t, string(blob)+"\n", stdout)

	assert.Contains(t, env.mustRun(t, "reset", "--confirm"), "Progress reset.")
	assert.Equal(t, 0.0, balance(env.status(t).Data.View, "wood"))

	assert.Contains(t, env.mustRun(t, "import", blobPath), "Save imported.")
	assert.Equal(t, 42.0, balance(env.status(t).Data.View, "wood"))
}

func TestImportCorrupt(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "gather", "wood", "5")

	bad := filepath.Join(env.dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"format":1,"checksum":"nope","state":{}}`), 0o644))

	out, err := env.run(t, "import", bad)
	require.Error(t, err)
	assert.Contains(t, out, "Error [CORRUPT_SAVE]")
	assert.Equal(t, 5.0, balance(env.status(t).Data.View, "wood"))

	_, err = env.run(t, "import", filepath.Join(env.dir, "missing.json"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestHistory(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "history")
	assert.Contains(t, out, "Slot main is empty.")

	env.mustRun(t, "gather", "wood")
	env.mustRun(t, "gather", "wood")

	out = env.mustRun(t, "history")
	assert.Contains(t, out, "SEQ")
	assert.Contains(t, out, epoch.Format(time.DateTime))

	var resp struct {
		Data struct {
			Slot  string `json:"slot"`
			Saves []struct {
				Seq     int64  `json:"seq"`
				Session string `json:"session"`
			} `json:"saves"`
		} `json:"data"`
	}
	decodeJSON(t, env.mustRun(t, "--format", "json", "history"), &resp)
	assert.Equal(t, "main", resp.Data.Slot)
	require.Len(t, resp.Data.Saves, 2)
	assert.Equal(t, int64(2), resp.Data.Saves[0].Seq)
	assert.NotEqual(t, resp.Data.Saves[0].Session, resp.Data.Saves[1].Session)
}
