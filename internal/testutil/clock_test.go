package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2025, 12, 15, 7, 30, 0, 0, time.UTC)

func TestFakeClock_NowOnlyMovesOnAdvance(t *testing.T) {
	c := NewFakeClock(start)
	assert.Equal(t, start, c.Now())
	assert.Equal(t, start, c.Now())

	c.Advance(1500 * time.Millisecond)
	assert.Equal(t, start.Add(1500*time.Millisecond), c.Now())
}

func TestFakeClock_TickerFiresAtBoundaries(t *testing.T) {
	c := NewFakeClock(start)
	tk := c.NewTicker(time.Second)
	defer tk.Stop()

	c.Advance(999 * time.Millisecond)
	select {
	case <-tk.C():
		t.Fatal("ticker fired before its period elapsed")
	default:
	}

	c.Advance(time.Millisecond)
	select {
	case at := <-tk.C():
		assert.Equal(t, start.Add(time.Second), at)
	default:
		t.Fatal("ticker did not fire at its boundary")
	}
}

func TestFakeClock_TickerDropsBacklog(t *testing.T) {
	c := NewFakeClock(start)
	tk := c.NewTicker(time.Second)
	defer tk.Stop()

	c.Advance(5 * time.Second)

	at := <-tk.C()
	assert.Equal(t, start.Add(time.Second), at, "first pending tick is kept")
	select {
	case <-tk.C():
		t.Fatal("backlog should have been dropped")
	default:
	}

	// The schedule is not shifted by dropped ticks.
	c.Advance(time.Second)
	assert.Equal(t, start.Add(6*time.Second), <-tk.C())
}

func TestFakeClock_StopRemovesTicker(t *testing.T) {
	c := NewFakeClock(start)
	a := c.NewTicker(time.Second)
	b := c.NewTicker(time.Minute)
	require.Equal(t, 2, c.Tickers())

	a.Stop()
	assert.Equal(t, 1, c.Tickers())
	a.Stop()
	assert.Equal(t, 1, c.Tickers(), "Stop is idempotent")

	c.Advance(2 * time.Second)
	select {
	case <-a.C():
		t.Fatal("stopped ticker fired")
	default:
	}

	b.Stop()
	assert.Equal(t, 0, c.Tickers())
}

func TestFakeClock_NonPositivePeriodPanics(t *testing.T) {
	c := NewFakeClock(start)
	assert.Panics(t, func() { c.NewTicker(0) })
}
