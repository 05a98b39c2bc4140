package core

import "time"

// Interval is a non-blocking periodic gate for use inside a component's Loop.
// Ready reports true at most once per period; the component does its periodic
// work only on a true return and falls through otherwise, keeping the tick
// free of sleeps.
type Interval struct {
	period time.Duration
	last   time.Time
	// now is swappable for deterministic tests.
	now func() time.Time
}

// NewInterval creates an interval gate. The first Ready call after creation
// reports true immediately.
func NewInterval(period time.Duration) *Interval {
	return &Interval{period: period, now: time.Now}
}

// Ready reports whether a full period has elapsed since the last true return,
// and if so arms the next period.
func (i *Interval) Ready() bool {
	n := i.now()
	if !i.last.IsZero() && n.Sub(i.last) < i.period {
		return false
	}
	i.last = n
	return true
}

// Reset rewinds the gate so the next Ready call reports true.
func (i *Interval) Reset() {
	i.last = time.Time{}
}

// SetPeriod changes the period without disturbing the current cycle.
func (i *Interval) SetPeriod(period time.Duration) {
	if period > 0 {
		i.period = period
	}
}
