// Package oven models an electric oven with cooking modes, a target
// temperature and a programmable delayed start.
package oven

import (
	"fmt"
	"strings"
	"time"

	"github.com/hioa-sim/hioa-sim/sim"
	"github.com/hioa-sim/hioa-sim/sim/scenario"
)

// Vocabulary holds the oven event kinds.
var Vocabulary = sim.NewVocabulary("oven")

var (
	SwitchOn             = Vocabulary.Declare("SwitchOn", 0)
	DoNotHeat            = Vocabulary.Declare("DoNotHeat", 1)
	CancelDelayedStart   = Vocabulary.Declare("CancelDelayedStart", 2)
	Heat                 = Vocabulary.Declare("Heat", 3)
	SetDelayedStart      = Vocabulary.Declare("SetDelayedStart", 4)
	SetMode              = Vocabulary.Declare("SetMode", 5)
	SetTargetTemperature = Vocabulary.Declare("SetTargetTemperature", 6)
	SwitchOff            = Vocabulary.Declare("SwitchOff", 7)
)

// Mode is the cooking mode. Every mode but Custom imposes a preset target.
type Mode int

const (
	Custom Mode = iota
	Defrost
	Grill
	Convection
	Bake
)

var modeNames = []string{"CUSTOM", "DEFROST", "GRILL", "CONVECTION", "BAKE"}

func (m Mode) String() string {
	if m >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts a mode name in any case.
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if strings.EqualFold(s, name) {
			return Mode(i), nil
		}
	}
	return Custom, fmt.Errorf("%w: unknown oven mode %q", sim.ErrInvalidConfig, s)
}

// NewSetMode builds a SetMode event.
func NewSetMode(at time.Duration, mode Mode) sim.Event {
	return sim.NewEvent(SetMode, at, mode)
}

// NewSetTargetTemperature builds a SetTargetTemperature event in °C.
func NewSetTargetTemperature(at time.Duration, celsius float64) sim.Event {
	return sim.NewEvent(SetTargetTemperature, at, celsius)
}

// NewSetDelayedStart builds a SetDelayedStart event firing after delay.
func NewSetDelayedStart(at, delay time.Duration) sim.Event {
	return sim.NewEvent(SetDelayedStart, at, delay)
}

// EventFromSpec decodes a scenario event of this vocabulary.
func EventFromSpec(spec scenario.EventSpec) (sim.Event, error) {
	kind, ok := Vocabulary.Lookup(spec.Kind)
	if !ok {
		return sim.Event{}, fmt.Errorf("%w: oven has no event %q", sim.ErrInvalidConfig, spec.Kind)
	}
	switch kind {
	case SetMode:
		mode, err := ParseMode(spec.Mode)
		if err != nil {
			return sim.Event{}, err
		}
		return NewSetMode(spec.At, mode), nil
	case SetTargetTemperature:
		celsius, err := scenario.RequireTemperature(spec)
		if err != nil {
			return sim.Event{}, err
		}
		return NewSetTargetTemperature(spec.At, celsius), nil
	case SetDelayedStart:
		if spec.Delay <= 0 {
			return sim.Event{}, fmt.Errorf("%w: SetDelayedStart requires a positive delay", sim.ErrPayload)
		}
		return NewSetDelayedStart(spec.At, spec.Delay), nil
	}
	return sim.NewEvent(kind, spec.At, nil), nil
}

// State is the discrete operating state.
type State int

const (
	Off State = iota
	On
	Waiting
	Heating
)

func (s State) String() string {
	switch s {
	case Off:
		return "Off"
	case On:
		return "On"
	case Waiting:
		return "Waiting"
	case Heating:
		return "Heating"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var transitions = sim.TransitionTable[State]{
	SwitchOn:             {Off},
	SwitchOff:            {On, Waiting, Heating},
	Heat:                 {On, Waiting},
	DoNotHeat:            {Heating},
	SetDelayedStart:      {On},
	CancelDelayedStart:   {Waiting},
	SetMode:              {On, Waiting, Heating},
	SetTargetTemperature: {On, Waiting, Heating},
}

// control is the discrete part shared by the electricity and temperature
// models; both apply the same events to it.
type control struct {
	state  State
	mode   Mode
	target float64
}

func (c *control) reset(cfg Config) {
	c.state = Off
	c.mode = Custom
	c.target = cfg.DefaultTarget
}

// apply checks e against the transition table and its payload, then updates c.
func (c *control) apply(b *sim.AtomicBase, cfg Config, e sim.Event) error {
	if !transitions.Allows(e.Kind, c.state) {
		return b.Violation(c.state, e, "")
	}
	switch e.Kind {
	case SwitchOn, DoNotHeat, CancelDelayedStart:
		c.state = On
	case SwitchOff:
		c.state = Off
	case Heat:
		c.state = Heating
	case SetDelayedStart:
		delay, err := sim.PayloadAs[time.Duration](e)
		if err != nil {
			return err
		}
		if delay <= 0 {
			return b.Violation(c.state, e, "delay must be positive")
		}
		c.state = Waiting
	case SetMode:
		mode, err := sim.PayloadAs[Mode](e)
		if err != nil {
			return err
		}
		c.mode = mode
		if mode != Custom {
			c.target = cfg.Preset(mode)
		}
	case SetTargetTemperature:
		celsius, err := sim.PayloadAs[float64](e)
		if err != nil {
			return err
		}
		if celsius < cfg.MinTarget || celsius > cfg.MaxTarget {
			return b.Violation(c.state, e, fmt.Sprintf("target %g°C outside [%g, %g]", celsius, cfg.MinTarget, cfg.MaxTarget))
		}
		c.mode = Custom
		c.target = celsius
	}
	return nil
}
