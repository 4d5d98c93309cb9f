// Package engine drives a root model: it owns the queue of externally
// injected events, runs fixpoint variable initialization, and executes
// transitions in time order until the end time, optionally paced to the wall
// clock by an acceleration factor.
package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/hioa-sim/hioa-sim/sim"
)

// maxStepsPerInstant bounds the transitions executed without time advancing.
const maxStepsPerInstant = 1 << 16

// maxFixpointRounds bounds the variable initialization loop.
const maxFixpointRounds = 1024

// Config holds the run window and pacing.
type Config struct {
	Start time.Duration
	End   time.Duration
	// AccelerationFactor paces simulated time against the wall clock: one
	// wall second covers AccelerationFactor simulated seconds. Zero runs
	// as fast as possible.
	AccelerationFactor float64
}

// Validate checks the run window.
func (c Config) Validate() error {
	if c.End < c.Start {
		return fmt.Errorf("%w: end %s before start %s", sim.ErrInvalidConfig, c.End, c.Start)
	}
	if c.AccelerationFactor < 0 {
		return fmt.Errorf("%w: negative acceleration factor %g", sim.ErrInvalidConfig, c.AccelerationFactor)
	}
	return nil
}

// Result summarizes a completed run.
type Result struct {
	RunID  uuid.UUID
	End    time.Duration // time of the last transition, or of the failed one
	Steps  int
	Report sim.Report
}

// Engine executes one root model. It is single-threaded: every model
// callback runs on the goroutine that called Run.
type Engine struct {
	cfg       Config
	root      sim.Model
	clock     clock.Clock
	observers []sim.Observer
	inbox     <-chan sim.Event

	queue       sim.EventQueue
	tl          time.Duration
	initialized bool
	runID       uuid.UUID
	wallStart   time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock sets the wall clock used for pacing.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithObserver registers an observer notified after every root transition.
func WithObserver(o sim.Observer) Option {
	return func(e *Engine) { e.observers = append(e.observers, o) }
}

// WithInbox lets a live controller inject events from another goroutine
// while a paced run waits for the wall clock. Events are stamped with the
// current simulated time.
func WithInbox(ch <-chan sim.Event) Option {
	return func(e *Engine) { e.inbox = ch }
}

// New creates an engine for root.
func New(root sim.Model, cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:   cfg,
		root:  root,
		clock: clock.RealClock{},
		tl:    cfg.Start,
		runID: uuid.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// RunID identifies this run in logs and reports.
func (e *Engine) RunID() uuid.UUID { return e.runID }

// Now returns the time of the last executed transition.
func (e *Engine) Now() time.Duration { return e.tl }

// Root returns the driven model.
func (e *Engine) Root() sim.Model { return e.root }

// Inject schedules an external event for the root model. The kind must be
// imported by the root and the event must not lie in the past.
func (e *Engine) Inject(ev sim.Event) error {
	if !sim.ContainsKind(e.root.Imports(), ev.Kind) {
		return fmt.Errorf("%w: %s does not import %s", sim.ErrDanglingRoute, e.root.ID(), ev.Kind)
	}
	if ev.Time < e.tl {
		return fmt.Errorf("%w: event %s precedes current time %s", sim.ErrInvalidConfig, ev, e.tl)
	}
	e.queue.Schedule(ev)
	logrus.Debugf("[%s] injected %s", e.root.ID(), ev)
	return nil
}

// Initialize resets the root model and runs the variable fixpoint until every
// exported variable is initialized. Run calls it when needed.
func (e *Engine) Initialize() error {
	e.root.Initialize(e.cfg.Start)
	e.tl = e.cfg.Start
	for round := 0; ; round++ {
		just, pending := e.root.FixpointInitializeVariables()
		logrus.Debugf("[%s] fixpoint round %d: %d initialized, %d pending", e.root.ID(), round, just, pending)
		if pending == 0 {
			break
		}
		if just == 0 || round >= maxFixpointRounds {
			return fmt.Errorf("%w: %s has %d variables pending", sim.ErrFixpointStalled, e.root.ID(), pending)
		}
	}
	e.initialized = true
	return nil
}

// Run executes transitions until the next one would fall after the end time.
func (e *Engine) Run() (Result, error) {
	if !e.initialized {
		if err := e.Initialize(); err != nil {
			return Result{}, err
		}
	}
	logrus.Infof("[%s] run %s from %s to %s", e.root.ID(), e.runID, e.cfg.Start, e.cfg.End)
	for _, o := range e.observers {
		if s, ok := o.(sim.StartObserver); ok {
			s.OnStart(e.tl)
		}
	}
	e.wallStart = e.clock.Now()

	steps := 0
	sameInstant := 0
	last := e.tl
	for {
		next, internal := e.next()
		if next == sim.Infinity || next > e.cfg.End {
			break
		}
		if e.cfg.AccelerationFactor > 0 {
			if woke := e.pace(next); woke {
				continue
			}
		}
		if err := e.step(next, internal); err != nil {
			logrus.Errorf("[%s] run %s aborted at %s: %v", e.root.ID(), e.runID, next, err)
			return Result{RunID: e.runID, End: next, Steps: steps, Report: e.root.FinalReport()}, err
		}
		steps++
		if next == last {
			sameInstant++
			if sameInstant > maxStepsPerInstant {
				return Result{RunID: e.runID, End: e.tl, Steps: steps}, fmt.Errorf("%w: %s at %s", sim.ErrLivelock, e.root.ID(), next)
			}
		} else {
			sameInstant = 0
			last = next
		}
	}
	logrus.Infof("[%s] run %s ended at %s after %d steps", e.root.ID(), e.runID, e.tl, steps)
	res := Result{RunID: e.runID, End: e.tl, Steps: steps}
	e.finalize()
	res.Report = e.root.FinalReport()
	return res, nil
}

// finalize carries the root's accumulated statistics from its last
// transition to the end time. An unbounded run is reported as is.
func (e *Engine) finalize() {
	f, ok := e.root.(sim.Finalizer)
	if !ok || e.cfg.End == sim.Infinity || e.cfg.End <= e.tl {
		return
	}
	logrus.Debugf("[%s] finalizing statistics over %s", e.root.ID(), e.cfg.End-e.tl)
	f.Finalize(e.cfg.End - e.tl)
}

// next returns the time of the next transition and whether it is internal.
// An internal transition precedes external events at the same instant.
func (e *Engine) next() (time.Duration, bool) {
	tn := sim.AddTime(e.tl, e.root.TimeAdvance())
	te := sim.Infinity
	if ev, ok := e.queue.Peek(); ok {
		te = ev.Time
	}
	if tn <= te {
		return tn, true
	}
	return te, false
}

func (e *Engine) step(t time.Duration, internal bool) error {
	if internal {
		outputs := e.root.Output()
		if err := e.root.InternalTransition(t - e.tl); err != nil {
			return err
		}
		e.tl = t
		e.notify(sim.StepInfo{Time: t, Internal: true, Outputs: outputs})
		return nil
	}
	ev, _ := e.queue.PopNext()
	logrus.Debugf("[%s] deliver %s", e.root.ID(), ev)
	if err := e.root.ExternalTransition(t-e.tl, ev); err != nil {
		return err
	}
	e.tl = t
	e.notify(sim.StepInfo{Time: t, Event: &ev})
	return nil
}

func (e *Engine) notify(info sim.StepInfo) {
	for _, o := range e.observers {
		o.OnStep(info)
	}
}

// wallTime maps a simulated instant to its paced wall-clock deadline.
func (e *Engine) wallTime(t time.Duration) time.Time {
	return e.wallStart.Add(time.Duration(float64(t-e.cfg.Start) / e.cfg.AccelerationFactor))
}

// simTime maps a wall-clock instant back to simulated time.
func (e *Engine) simTime(w time.Time) time.Duration {
	return e.cfg.Start + time.Duration(float64(w.Sub(e.wallStart))*e.cfg.AccelerationFactor)
}

// pace waits until the wall clock reaches the deadline of t. It reports true
// when a live event arrived first and was scheduled instead.
func (e *Engine) pace(t time.Duration) bool {
	d := e.wallTime(t).Sub(e.clock.Now())
	if d <= 0 {
		return false
	}
	if e.inbox == nil {
		e.clock.Sleep(d)
		return false
	}
	select {
	case <-e.clock.After(d):
		return false
	case ev := <-e.inbox:
		at := e.simTime(e.clock.Now())
		if at < e.tl {
			at = e.tl
		}
		if at > t {
			at = t
		}
		if err := e.Inject(ev.At(at)); err != nil {
			logrus.Warnf("[%s] dropped live event %s: %v", e.root.ID(), ev, err)
		}
		return true
	}
}
