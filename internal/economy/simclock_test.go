package economy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func producing(t *testing.T) *State {
	t.Helper()
	s := New(smallCatalog(t), epoch)
	require.NoError(t, s.Gather("wood", 20))
	require.NoError(t, s.BuyProducer("cutter"))
	require.NoError(t, s.Research("teamwork"))
	return s
}

func TestAdvanceZeroDeltaIsNoop(t *testing.T) {
	s := producing(t)
	before := s.Ledger().Amounts()

	assert.Equal(t, 0.0, s.Advance(epoch))
	assert.Equal(t, 0.0, s.Advance(epoch))
	assert.Equal(t, before, s.Ledger().Amounts())
	assert.Equal(t, 0.0, s.Stats().SimulatedSeconds)
}

func TestAdvanceClockStepsBack(t *testing.T) {
	s := producing(t)
	s.Advance(epoch.Add(time.Hour))
	before := s.Balance("wood")

	assert.Equal(t, 0.0, s.Advance(epoch.Add(10*time.Second)))
	assert.Equal(t, before, s.Balance("wood"))
	assert.Equal(t, epoch.Add(10*time.Second), s.LastTick())

	// production resumes from the new stamp instead of waiting out the hour
	assert.Equal(t, 10.0, s.Advance(epoch.Add(20*time.Second)))
	assert.InDelta(t, before+0.625*10, s.Balance("wood"), 1e-9)
	assert.Equal(t, 3610.0, s.Stats().SimulatedSeconds)
}

func TestAdvanceFutureSaveResumesProduction(t *testing.T) {
	s := producing(t)
	s.Rebase(epoch.Add(24 * time.Hour))

	assert.Equal(t, 0.0, s.Advance(epoch))
	assert.Equal(t, 4.0, s.Advance(epoch.Add(4*time.Second)))
	assert.InDelta(t, 5+0.625*4, s.Balance("wood"), 1e-9)
}

func TestAdvanceIsAdditive(t *testing.T) {
	once := producing(t)
	twice := producing(t)

	once.Advance(epoch.Add(10 * time.Second))
	twice.Advance(epoch.Add(4 * time.Second))
	twice.Advance(epoch.Add(10 * time.Second))

	assert.Equal(t, once.Ledger().Amounts(), twice.Ledger().Amounts())
	assert.Equal(t, once.Stats(), twice.Stats())
	// 5 wood left after purchases, plus 0.5 * 1.25 per second for 10s.
	assert.Equal(t, 5+6.25, once.Balance("wood"))
}

func TestAdvanceIrregularCadence(t *testing.T) {
	s := producing(t)
	steps := []time.Duration{
		100 * time.Millisecond,
		250 * time.Millisecond,
		3 * time.Second,
		3*time.Second + 1*time.Millisecond,
		7 * time.Second,
	}
	for _, d := range steps {
		s.Advance(epoch.Add(d))
	}
	assert.InDelta(t, 5+0.625*7, s.Balance("wood"), 1e-9)
	assert.InDelta(t, 7.0, s.Stats().SimulatedSeconds, 1e-9)
}

func TestAdvanceLargeGapIsNotCapped(t *testing.T) {
	s := producing(t)
	week := 7 * 24 * time.Hour
	applied := s.Advance(epoch.Add(week))

	assert.Equal(t, week.Seconds(), applied)
	assert.Equal(t, 5+0.625*week.Seconds(), s.Balance("wood"))
}

func TestRebaseSkipsAccrual(t *testing.T) {
	s := producing(t)
	s.Rebase(epoch.Add(time.Hour))
	s.Advance(epoch.Add(time.Hour))
	assert.Equal(t, 5.0, s.Balance("wood"))
}
