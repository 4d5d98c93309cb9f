// Package testutil provides shared test infrastructure for the equipment
// models: float assertions and a helper that drives an assembly through the
// engine while recording its trajectory.
package testutil

import (
	"math"
	"testing"
	"time"

	"github.com/hioa-sim/hioa-sim/sim"
	"github.com/hioa-sim/hioa-sim/sim/engine"
	"github.com/hioa-sim/hioa-sim/sim/trace"
)

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// Run drives root from zero to end, injecting events first, and returns the
// recorded trajectory. Any error fails the test.
func Run(t *testing.T, root sim.Model, end time.Duration, events ...sim.Event) (*trace.Recorder, engine.Result) {
	t.Helper()
	rec, res, err := TryRun(root, end, events...)
	if err != nil {
		t.Fatalf("run %s: %v", root.ID(), err)
	}
	return rec, res
}

// TryRun is Run returning the error instead of failing.
func TryRun(root sim.Model, end time.Duration, events ...sim.Event) (*trace.Recorder, engine.Result, error) {
	rec := trace.NewRecorder(root, trace.Config{Level: trace.LevelFull})
	eng, err := engine.New(root, engine.Config{End: end}, engine.WithObserver(rec))
	if err != nil {
		return nil, engine.Result{}, err
	}
	for _, e := range events {
		if err := eng.Inject(e); err != nil {
			return nil, engine.Result{}, err
		}
	}
	res, err := eng.Run()
	return rec, res, err
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }
