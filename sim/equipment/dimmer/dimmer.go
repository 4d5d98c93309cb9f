// Package dimmer models a dimmable lamp: a single electricity model whose
// power is set continuously between zero and its maximum while on.
package dimmer

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hioa-sim/hioa-sim/sim"
	"github.com/hioa-sim/hioa-sim/sim/dynamics"
	"github.com/hioa-sim/hioa-sim/sim/scenario"
)

// Vocabulary holds the dimmer lamp event kinds.
var Vocabulary = sim.NewVocabulary("dimmer")

var (
	SwitchOn  = Vocabulary.Declare("SwitchOn", 0)
	SetPower  = Vocabulary.Declare("SetPower", 1)
	SwitchOff = Vocabulary.Declare("SwitchOff", 2)
)

// Identifiers and exported variable names.
const (
	ModelID       = "dimmer-lamp"
	GeneratorID   = "dimmer-generator"
	UnitTestID    = "dimmer-unit-test"
	IntegrationID = "dimmer"
	PowerVariable = "LampPower"
)

// NewSetPower builds a SetPower event for the given level in watts.
func NewSetPower(at time.Duration, watts float64) sim.Event {
	return sim.NewEvent(SetPower, at, watts)
}

// EventFromSpec decodes a scenario event of this vocabulary.
func EventFromSpec(spec scenario.EventSpec) (sim.Event, error) {
	kind, ok := Vocabulary.Lookup(spec.Kind)
	if !ok {
		return sim.Event{}, fmt.Errorf("%w: dimmer has no event %q", sim.ErrInvalidConfig, spec.Kind)
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
)

func (s State) String() string {
	if s == On {
		return "On"
	}
	return "Off"
}

var transitions = sim.TransitionTable[State]{
	SwitchOn:  {Off},
	SetPower:  {On},
	SwitchOff: {On},
}

// Config holds the lamp constants.
type Config struct {
	MaxPower     float64 `yaml:"max_power"`     // W
	InitialPower float64 `yaml:"initial_power"` // W applied by SwitchOn
}

// DefaultConfig returns a 100 W lamp switching on at full power.
func DefaultConfig() Config {
	return Config{MaxPower: 100, InitialPower: 100}
}

// Validate checks parameter ranges.
func (c Config) Validate() error {
	if c.MaxPower <= 0 {
		return fmt.Errorf("%w: dimmer max_power must be positive, got %g", sim.ErrInvalidConfig, c.MaxPower)
	}
	if c.InitialPower < 0 || c.InitialPower > c.MaxPower {
		return fmt.Errorf("%w: dimmer initial_power must be in [0, %g], got %g", sim.ErrInvalidConfig, c.MaxPower, c.InitialPower)
	}
	return nil
}

// Lamp is the electricity model of the dimmer lamp.
type Lamp struct {
	sim.AtomicBase
	cfg    Config
	state  State
	power  *sim.Variable
	energy dynamics.Accumulator
}

// NewLamp creates the lamp model.
func NewLamp(cfg Config) *Lamp {
	power := sim.NewVariable(PowerVariable, sim.Power)
	return &Lamp{
		AtomicBase: sim.NewAtomicBase(ModelID, Vocabulary.Kinds(), nil, nil, power),
		cfg:        cfg,
		power:      power,
	}
}

func (l *Lamp) State() State { return l.state }

// DiscreteState implements sim.StateReporter.
func (l *Lamp) DiscreteState() string { return l.state.String() }

// CurrentPower returns the power drawn, in watts.
func (l *Lamp) CurrentPower() float64 { return l.power.Value() }

func (l *Lamp) Initialize(start time.Duration) {
	l.InitializeBase(start)
	l.state = Off
	l.energy.Reset()
}

func (l *Lamp) FixpointInitializeVariables() (int, int) {
	if l.power.Initialized() {
		return 0, 0
	}
	l.power.Set(0, 0, l.Now())
	return 1, 0
}

func (l *Lamp) TimeAdvance() time.Duration { return sim.Infinity }

func (l *Lamp) Output() []sim.Event { return nil }

func (l *Lamp) advance(elapsed time.Duration) time.Duration {
	p := l.power.Value()
	l.energy.Add(p, p, elapsed)
	return l.Advance(elapsed)
}

func (l *Lamp) InternalTransition(elapsed time.Duration) error {
	t := l.advance(elapsed)
	l.power.Set(l.power.Value(), 0, t)
	return nil
}

func (l *Lamp) ExternalTransition(elapsed time.Duration, e sim.Event) error {
	t := l.advance(elapsed)
	if !transitions.Allows(e.Kind, l.state) {
		return l.Violation(l.state, e, "")
	}
	level := l.power.Value()
	switch e.Kind {
	case SwitchOn:
		l.state = On
		level = l.cfg.InitialPower
	case SwitchOff:
		l.state = Off
		level = 0
	case SetPower:
		watts, err := sim.PayloadAs[float64](e)
		if err != nil {
			return err
		}
		if watts < 0 || watts > l.cfg.MaxPower {
			return l.Violation(l.state, e, fmt.Sprintf("power %g W outside [0, %g]", watts, l.cfg.MaxPower))
		}
		level = watts
	}
	l.power.Set(level, 0, t)
	logrus.Debugf("[%s] %s: %s at %g W", l.ID(), e, l.state, level)
	return nil
}

// Finalize implements sim.Finalizer.
func (l *Lamp) Finalize(elapsed time.Duration) {
	t := l.advance(elapsed)
	l.power.Set(l.power.Value(), 0, t)
}

func (l *Lamp) FinalReport() sim.Report {
	return sim.Report{
		ModelID: l.ID(),
		Stats: []sim.Stat{
			{Name: "energy", Value: l.energy.Integral() / 1000, Unit: "kWh"},
			{Name: "mean_power", Value: l.energy.Mean(), Unit: "W"},
		},
	}
}
