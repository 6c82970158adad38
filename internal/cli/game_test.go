package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/upgrades/internal/config"
	"github.com/roach88/upgrades/internal/store"
	"github.com/roach88/upgrades/internal/testutil"
)

func TestGameClose_AfterContextCancel(t *testing.T) {
	cfg := config.Default()
	cfg.Database = filepath.Join(t.TempDir(), "game.db")
	opts := &RootOptions{Clock: testutil.NewFakeClock(epoch), config: cfg}

	ctx, cancel := context.WithCancel(context.Background())
	g, err := openGame(ctx, opts)
	require.NoError(t, err)

	cancel()
	<-g.engine.Done()
	require.NoError(t, g.close(), "cancellation is a clean shutdown")

	st, err := store.Open(cfg.Database)
	require.NoError(t, err)
	defer st.Close()
	_, found, err := st.Slot(cfg.Slot, "check").Read(context.Background())
	require.NoError(t, err)
	assert.True(t, found, "final save written on cancellation")
}
