// Package trace records the trajectory of a run: discrete state changes of
// every model exposing one, and periodic samples of the root's exported
// variables.
package trace

import (
	"sort"
	"time"

	"github.com/hioa-sim/hioa-sim/sim"
	"github.com/hioa-sim/hioa-sim/sim/coupled"
)

// Level controls what is recorded.
type Level string

const (
	// LevelNone disables recording.
	LevelNone Level = "none"
	// LevelStates records discrete state changes only.
	LevelStates Level = "states"
	// LevelFull records state changes and variable samples.
	LevelFull Level = "full"
)

var validLevels = map[Level]bool{
	LevelNone:   true,
	LevelStates: true,
	LevelFull:   true,
	"":          true, // empty defaults to none
}

// IsValidLevel returns true if the given level string is a recognized level.
func IsValidLevel(level string) bool {
	return validLevels[Level(level)]
}

// Config controls recording.
type Config struct {
	Level Level
	// Interval is the minimum simulated time between samples; zero samples
	// after every step.
	Interval time.Duration
}

// Recorder is an engine observer.
type Recorder struct {
	cfg       Config
	reporters []sim.StateReporter
	variables []sim.VariableReader

	last        map[string]string
	nextSample  time.Duration
	transitions []Transition
	samples     []Sample
}

// NewRecorder records root and its submodels.
func NewRecorder(root sim.Model, cfg Config) *Recorder {
	r := &Recorder{
		cfg:       cfg,
		reporters: coupled.StateReporters(root),
		last:      make(map[string]string),
	}
	for _, spec := range root.ExportedVariables() {
		if v, ok := root.ExportedVariable(spec.Name); ok {
			r.variables = append(r.variables, v)
		}
	}
	return r
}

// OnStart records the initial states and a first sample.
func (r *Recorder) OnStart(t time.Duration) {
	r.last = make(map[string]string)
	r.transitions = nil
	r.samples = nil
	r.nextSample = t
	r.observe(t)
}

// OnStep records state changes and, when due, a sample.
func (r *Recorder) OnStep(info sim.StepInfo) {
	r.observe(info.Time)
}

func (r *Recorder) observe(t time.Duration) {
	if r.cfg.Level == LevelNone || r.cfg.Level == "" {
		return
	}
	for _, sr := range r.reporters {
		state := sr.DiscreteState()
		if prev, seen := r.last[sr.ID()]; seen && prev == state {
			continue
		}
		r.last[sr.ID()] = state
		r.transitions = append(r.transitions, Transition{Time: t, Model: sr.ID(), State: state})
	}
	if r.cfg.Level != LevelFull || t < r.nextSample || len(r.variables) == 0 {
		return
	}
	s := Sample{Time: t, Values: make(map[string]float64, len(r.variables))}
	for _, v := range r.variables {
		if v.Initialized() {
			s.Values[v.Name()] = v.EvaluateAt(t)
		}
	}
	// several steps share an instant; keep the latest
	if n := len(r.samples); n > 0 && r.samples[n-1].Time == t {
		r.samples[n-1] = s
	} else {
		r.samples = append(r.samples, s)
	}
	r.nextSample = t + r.cfg.Interval
}

// Transitions returns the recorded state changes in time order.
func (r *Recorder) Transitions() []Transition { return r.transitions }

// TransitionsOf returns the state changes of one model.
func (r *Recorder) TransitionsOf(model string) []Transition {
	var out []Transition
	for _, tr := range r.transitions {
		if tr.Model == model {
			out = append(out, tr)
		}
	}
	return out
}

// Samples returns the recorded samples.
func (r *Recorder) Samples() []Sample { return r.samples }

// Series returns the sampled values of one variable.
func (r *Recorder) Series(name string) []float64 {
	var out []float64
	for _, s := range r.samples {
		if v, ok := s.Values[name]; ok {
			out = append(out, v)
		}
	}
	return out
}

// VariableNames returns the sampled variable names, sorted.
func (r *Recorder) VariableNames() []string {
	names := make([]string, 0, len(r.variables))
	for _, v := range r.variables {
		names = append(names, v.Name())
	}
	sort.Strings(names)
	return names
}
