package quota

import (
	"time"
)

// DailyFreeLimit is the hard cap on generations per calendar day for
// non-premium users. Premium users are unbounded.
const DailyFreeLimit = 3

// State is the generation quota for one user as stored on the profile:
// a counter that is only meaningful relative to its date. There is no
// midnight reset job; callers apply Rollover at read time instead.
type State struct {
	Date  *time.Time
	Count int
}

// SameDay compares two instants at date-only granularity in server-local time.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Rollover reinterprets the stored state against the current wall clock.
// A state dated on any other day counts as zero, regardless of the stored
// counter. A stale date on a profile that never generates again is harmless.
func (s State) Rollover(now time.Time) State {
	if s.Date != nil && SameDay(*s.Date, now) {
		return s
	}
	d := now
	return State{Date: &d, Count: 0}
}

// Allow reports whether one more generation is admitted. Call on a
// rolled-over state.
func (s State) Allow(isPremium bool) bool {
	if isPremium {
		return true
	}
	return s.Count < DailyFreeLimit
}

// Remaining is how many generations are left today, or -1 for premium
// users. Call on a rolled-over state.
func (s State) Remaining(isPremium bool) int {
	if isPremium {
		return -1
	}
	r := DailyFreeLimit - s.Count
	if r < 0 {
		return 0
	}
	return r
}

// Next is the state after a successful generation. Call on a rolled-over
// state; the pipeline persists exactly one Next per successful invocation.
func (s State) Next(now time.Time) State {
	d := now
	return State{Date: &d, Count: s.Count + 1}
}
