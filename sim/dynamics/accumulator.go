package dynamics

import "time"

// Accumulator keeps the trapezoid integral ((old+new)/2)·Δ of a variable so a
// mean can be reported without retaining the trajectory.
type Accumulator struct {
	area float64 // unit·hours
	span time.Duration
}

// Add records one step from old to new over elapsed.
func (a *Accumulator) Add(old, new float64, elapsed time.Duration) {
	if elapsed <= 0 {
		return
	}
	a.area += (old + new) / 2 * elapsed.Hours()
	a.span += elapsed
}

// Integral returns the accumulated area in unit·hours.
func (a *Accumulator) Integral() float64 { return a.area }

// Span returns the total integrated time.
func (a *Accumulator) Span() time.Duration { return a.span }

// Mean returns the time-weighted mean, or 0 before any step.
func (a *Accumulator) Mean() float64 {
	if a.span == 0 {
		return 0
	}
	return a.area / a.span.Hours()
}

// Reset clears the accumulator.
func (a *Accumulator) Reset() {
	a.area = 0
	a.span = 0
}
