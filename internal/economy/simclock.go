package economy

import "time"

// Advance credits production for the time elapsed since the last tick and
// returns the number of seconds applied.
//
// The tick always moves to now. A now at or before the last tick applies
// nothing, so production resumes from the new stamp after a clock steps
// back. Any gap is applied in one step without a cap.
func (s *State) Advance(now time.Time) float64 {
	delta := max(0, now.Sub(s.lastTick).Seconds())
	s.lastTick = now
	if delta == 0 {
		return 0
	}

	for i, r := range s.cat.Resources {
		if s.rates[i] == 0 || !s.IsUnlocked(r.Kind) {
			continue
		}
		s.ledger.amounts[i] += s.rates[i] * delta
	}
	s.stats.SimulatedSeconds += delta
	return delta
}

// Rebase moves the tick anchor to now without crediting anything.
// Loading a save without offline credit uses this.
func (s *State) Rebase(now time.Time) {
	s.lastTick = now
}
