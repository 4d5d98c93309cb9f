package sim

import (
	"errors"
	"fmt"
)

// Domain errors for model construction and execution.
var (
	// ErrPreconditionViolation indicates an event delivered in a discrete state
	// where it is illegal. Fatal to the run.
	ErrPreconditionViolation = errors.New("sim: precondition violation")

	// ErrDanglingRoute indicates an event route whose endpoints do not export or
	// import the routed kind.
	ErrDanglingRoute = errors.New("sim: dangling event route")

	// ErrTypeMismatch indicates a variable binding whose ends disagree on quantity.
	ErrTypeMismatch = errors.New("sim: variable type mismatch")

	// ErrUnknownVariable indicates a binding naming a variable that is not declared.
	ErrUnknownVariable = errors.New("sim: unknown variable")

	// ErrUnboundVariable indicates an imported variable left without a source.
	ErrUnboundVariable = errors.New("sim: unbound imported variable")

	// ErrFixpointStalled indicates variable initialization made no progress.
	ErrFixpointStalled = errors.New("sim: fixpoint initialization stalled")

	// ErrPayload indicates an event carrying a payload of the wrong type.
	ErrPayload = errors.New("sim: unexpected event payload")

	// ErrInvalidConfig indicates a configuration value outside its valid range.
	ErrInvalidConfig = errors.New("sim: invalid configuration")

	// ErrLivelock indicates a model repeatedly requesting zero time advance.
	ErrLivelock = errors.New("sim: zero time advance loop")
)

// PreconditionError names the model, discrete state and event of an illegal transition.
type PreconditionError struct {
	Model  string
	State  string
	Event  Event
	Reason string
}

func (e *PreconditionError) Error() string {
	msg := fmt.Sprintf("%s: model %s cannot accept %s in state %s", ErrPreconditionViolation, e.Model, e.Event, e.State)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *PreconditionError) Unwrap() error {
	return ErrPreconditionViolation
}
