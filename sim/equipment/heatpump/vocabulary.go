// Package heatpump models a reversible heat pump: an electricity model
// holding the discrete state and power draw, and a temperature model
// integrating the indoor temperature against the outdoor one.
package heatpump

import (
	"fmt"
	"time"

	"github.com/hioa-sim/hioa-sim/sim"
	"github.com/hioa-sim/hioa-sim/sim/scenario"
)

// Vocabulary holds the heat pump event kinds.
var Vocabulary = sim.NewVocabulary("heatpump")

// Switch-on settles first, stops precede starts, switch-off is applied last.
var (
	SwitchOn     = Vocabulary.Declare("SwitchOn", 0)
	StopHeating  = Vocabulary.Declare("StopHeating", 1)
	StopCooling  = Vocabulary.Declare("StopCooling", 1)
	StartHeating = Vocabulary.Declare("StartHeating", 2)
	StartCooling = Vocabulary.Declare("StartCooling", 2)
	SetPower     = Vocabulary.Declare("SetPower", 3)
	SwitchOff    = Vocabulary.Declare("SwitchOff", 4)
)

// NewSetPower builds a SetPower event for the given level in watts.
func NewSetPower(at time.Duration, watts float64) sim.Event {
	return sim.NewEvent(SetPower, at, watts)
}

// EventFromSpec decodes a scenario event of this vocabulary.
func EventFromSpec(spec scenario.EventSpec) (sim.Event, error) {
	kind, ok := Vocabulary.Lookup(spec.Kind)
	if !ok {
		return sim.Event{}, fmt.Errorf("%w: heatpump has no event %q", sim.ErrInvalidConfig, spec.Kind)
	}
	if kind == SetPower {
		p, err := scenario.RequirePower(spec)
		if err != nil {
			return sim.Event{}, err
		}
		return NewSetPower(spec.At, p), nil
	}
	return sim.NewEvent(kind, spec.At, nil), nil
}

// State is the discrete operating state.
type State int

const (
	Off State = iota
	On
	Heating
	Cooling
)

func (s State) String() string {
	switch s {
	case Off:
		return "Off"
	case On:
		return "On"
	case Heating:
		return "Heating"
	case Cooling:
		return "Cooling"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var transitions = sim.TransitionTable[State]{
	SwitchOn:     {Off},
	SwitchOff:    {On, Heating, Cooling},
	StartHeating: {On},
	StopHeating:  {Heating},
	StartCooling: {On},
	StopCooling:  {Cooling},
	SetPower:     {On, Heating, Cooling},
}

// next returns the state reached by kind from s. The caller has checked the
// transition table.
func next(s State, kind sim.EventKind) State {
	switch kind {
	case SwitchOn, StopHeating, StopCooling:
		return On
	case SwitchOff:
		return Off
	case StartHeating:
		return Heating
	case StartCooling:
		return Cooling
	}
	return s
}
