package trace

import (
	"math"
	"time"
)

// Range is the extent of one sampled variable.
type Range struct {
	Min, Max float64
}

// Summary condenses a trajectory.
type Summary struct {
	// TimeInState maps model id to the time spent in each state.
	TimeInState map[string]map[string]time.Duration
	Ranges      map[string]Range
	Samples     int
	Transitions int
}

// Summarize computes the summary of the trajectory up to end.
// Safe for a nil recorder.
func Summarize(r *Recorder, end time.Duration) *Summary {
	s := &Summary{
		TimeInState: make(map[string]map[string]time.Duration),
		Ranges:      make(map[string]Range),
	}
	if r == nil {
		return s
	}
	s.Samples = len(r.samples)
	s.Transitions = len(r.transitions)

	open := make(map[string]Transition)
	for _, tr := range r.transitions {
		if prev, ok := open[tr.Model]; ok {
			s.add(prev, tr.Time)
		}
		open[tr.Model] = tr
	}
	for _, prev := range open {
		s.add(prev, end)
	}
	for _, name := range r.VariableNames() {
		series := r.Series(name)
		if len(series) == 0 {
			continue
		}
		rg := Range{Min: math.Inf(1), Max: math.Inf(-1)}
		for _, v := range series {
			rg.Min = math.Min(rg.Min, v)
			rg.Max = math.Max(rg.Max, v)
		}
		s.Ranges[name] = rg
	}
	return s
}

func (s *Summary) add(tr Transition, until time.Duration) {
	if until <= tr.Time {
		return
	}
	m, ok := s.TimeInState[tr.Model]
	if !ok {
		m = make(map[string]time.Duration)
		s.TimeInState[tr.Model] = m
	}
	m[tr.State] += until - tr.Time
}
