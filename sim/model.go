package sim

import (
	"fmt"
	"time"
)

// Model is the discrete-event execution contract shared by atomic and
// coupled models. A driver calls Initialize once, FixpointInitializeVariables
// until nothing is pending, then repeatedly TimeAdvance, Output,
// InternalTransition and ExternalTransition, and finally FinalReport.
// A driver never re-enters a model while one of its callbacks runs.
type Model interface {
	ID() string

	// Imports lists the event kinds ExternalTransition accepts.
	Imports() []EventKind
	// Exports lists the event kinds Output may emit.
	Exports() []EventKind

	ImportedVariables() []VariableSpec
	ExportedVariables() []VariableSpec
	ExportedVariable(name string) (*Variable, bool)
	// BindImport attaches the source of an imported variable.
	BindImport(name string, source VariableReader) error

	Initialize(start time.Duration)
	// FixpointInitializeVariables initializes the variables whose sources are
	// ready and reports how many were initialized by this call and how many remain.
	FixpointInitializeVariables() (justInitialized, pending int)

	TimeAdvance() time.Duration
	// Output is called immediately before InternalTransition when the time
	// advance elapses.
	Output() []Event
	InternalTransition(elapsed time.Duration) error
	// ExternalTransition delivers exactly one event.
	ExternalTransition(elapsed time.Duration, e Event) error

	FinalReport() Report
}

// Finalizer is implemented by models whose statistics accumulate between
// transitions. Finalize carries them elapsed past their last transition
// without changing their discrete state, so FinalReport covers the whole run.
type Finalizer interface {
	Finalize(elapsed time.Duration)
}

// StateReporter is implemented by models exposing a discrete state.
type StateReporter interface {
	ID() string
	DiscreteState() string
}

// AtomicBase carries the bookkeeping shared by atomic models: identity,
// declared interface, variable bindings and the model clock.
type AtomicBase struct {
	id       string
	imports  []EventKind
	exports  []EventKind
	imported []VariableSpec
	exported []*Variable
	bound    map[string]VariableReader
	now      time.Duration
}

// NewAtomicBase declares an atomic model interface.
func NewAtomicBase(id string, imports, exports []EventKind, imported []VariableSpec, exported ...*Variable) AtomicBase {
	return AtomicBase{
		id:       id,
		imports:  imports,
		exports:  exports,
		imported: imported,
		exported: exported,
		bound:    make(map[string]VariableReader),
	}
}

func (b *AtomicBase) ID() string { return b.id }

func (b *AtomicBase) Imports() []EventKind { return b.imports }

func (b *AtomicBase) Exports() []EventKind { return b.exports }

func (b *AtomicBase) ImportedVariables() []VariableSpec { return b.imported }

func (b *AtomicBase) ExportedVariables() []VariableSpec {
	specs := make([]VariableSpec, len(b.exported))
	for i, v := range b.exported {
		specs[i] = v.Spec()
	}
	return specs
}

func (b *AtomicBase) ExportedVariable(name string) (*Variable, bool) {
	for _, v := range b.exported {
		if v.Name() == name {
			return v, true
		}
	}
	return nil, false
}

func (b *AtomicBase) BindImport(name string, source VariableReader) error {
	for _, spec := range b.imported {
		if spec.Name != name {
			continue
		}
		if spec.Quantity != source.Quantity() {
			return fmt.Errorf("%w: %s imports %s, source provides %s", ErrTypeMismatch, b.id, spec, source.Quantity())
		}
		b.bound[name] = source
		return nil
	}
	return fmt.Errorf("%w: %s does not import %q", ErrUnknownVariable, b.id, name)
}

// Import returns the bound source of an imported variable, or nil.
func (b *AtomicBase) Import(name string) VariableReader {
	return b.bound[name]
}

// Accepts reports whether kind is imported by the model.
func (b *AtomicBase) Accepts(kind EventKind) bool {
	return containsKind(b.imports, kind)
}

// Now returns the model clock: the time of its last transition.
func (b *AtomicBase) Now() time.Duration { return b.now }

// InitializeBase resets the clock and marks exported variables uninitialized.
func (b *AtomicBase) InitializeBase(start time.Duration) {
	b.now = start
	for _, v := range b.exported {
		v.Reset()
	}
}

// Advance moves the model clock forward by elapsed and returns the new time.
func (b *AtomicBase) Advance(elapsed time.Duration) time.Duration {
	b.now += elapsed
	return b.now
}

// Violation builds the fatal error for an event illegal in state.
func (b *AtomicBase) Violation(state fmt.Stringer, e Event, reason string) error {
	return &PreconditionError{Model: b.id, State: state.String(), Event: e, Reason: reason}
}

func containsKind(kinds []EventKind, k EventKind) bool {
	for _, c := range kinds {
		if c == k {
			return true
		}
	}
	return false
}

// ContainsKind reports whether kinds contains k.
func ContainsKind(kinds []EventKind, k EventKind) bool {
	return containsKind(kinds, k)
}

// TransitionTable lists, per event kind, the discrete states it is legal in.
type TransitionTable[S comparable] map[EventKind][]S

// Allows reports whether kind is legal in state s.
func (t TransitionTable[S]) Allows(kind EventKind, s S) bool {
	for _, legal := range t[kind] {
		if legal == s {
			return true
		}
	}
	return false
}

// Injector accepts events from a controller outside the model tree.
type Injector interface {
	Inject(e Event) error
}
