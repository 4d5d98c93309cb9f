// Package fan models a three-speed fan. Switching on starts at low speed.
package fan

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hioa-sim/hioa-sim/sim"
	"github.com/hioa-sim/hioa-sim/sim/dynamics"
	"github.com/hioa-sim/hioa-sim/sim/scenario"
)

// Vocabulary holds the fan event kinds.
var Vocabulary = sim.NewVocabulary("fan")

var (
	SwitchOn  = Vocabulary.Declare("SwitchOn", 0)
	SetHigh   = Vocabulary.Declare("SetHigh", 1)
	SetMedium = Vocabulary.Declare("SetMedium", 2)
	SetLow    = Vocabulary.Declare("SetLow", 3)
	SwitchOff = Vocabulary.Declare("SwitchOff", 4)
)

// Identifiers and exported variable names.
const (
	ModelID       = "fan"
	GeneratorID   = "fan-generator"
	UnitTestID    = "fan-unit-test"
	IntegrationID = "fan-assembly"
	PowerVariable = "FanPower"
)

// EventFromSpec decodes a scenario event of this vocabulary.
func EventFromSpec(spec scenario.EventSpec) (sim.Event, error) {
	kind, ok := Vocabulary.Lookup(spec.Kind)
	if !ok {
		return sim.Event{}, fmt.Errorf("%w: fan has no event %q", sim.ErrInvalidConfig, spec.Kind)
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

// Speed is the fan speed while on.
type Speed int

const (
	Low Speed = iota
	Medium
	High
)

func (s Speed) String() string {
	switch s {
	case Low:
		return "LOW"
	case Medium:
		return "MEDIUM"
	case High:
		return "HIGH"
	}
	return fmt.Sprintf("Speed(%d)", int(s))
}

var transitions = sim.TransitionTable[State]{
	SwitchOn:  {Off},
	SetHigh:   {On},
	SetMedium: {On},
	SetLow:    {On},
	SwitchOff: {On},
}

// Config holds the power drawn at each speed.
type Config struct {
	LowPower    float64 `yaml:"low_power"`
	MediumPower float64 `yaml:"medium_power"`
	HighPower   float64 `yaml:"high_power"`
}

// DefaultConfig returns a 60 W pedestal fan.
func DefaultConfig() Config {
	return Config{LowPower: 20, MediumPower: 40, HighPower: 60}
}

// Validate checks that power grows with speed.
func (c Config) Validate() error {
	if c.LowPower < 0 || c.LowPower > c.MediumPower || c.MediumPower > c.HighPower {
		return fmt.Errorf("%w: fan powers must satisfy 0 <= low <= medium <= high, got %g/%g/%g",
			sim.ErrInvalidConfig, c.LowPower, c.MediumPower, c.HighPower)
	}
	return nil
}

func (c Config) power(s Speed) float64 {
	switch s {
	case Medium:
		return c.MediumPower
	case High:
		return c.HighPower
	}
	return c.LowPower
}

// Fan is the electricity model of the fan.
type Fan struct {
	sim.AtomicBase
	cfg    Config
	state  State
	speed  Speed
	power  *sim.Variable
	energy dynamics.Accumulator
	onTime time.Duration
}

// NewFan creates the fan model.
func NewFan(cfg Config) *Fan {
	power := sim.NewVariable(PowerVariable, sim.Power)
	return &Fan{
		AtomicBase: sim.NewAtomicBase(ModelID, Vocabulary.Kinds(), nil, nil, power),
		cfg:        cfg,
		power:      power,
	}
}

func (f *Fan) State() State { return f.state }

func (f *Fan) Speed() Speed { return f.speed }

// DiscreteState implements sim.StateReporter; the speed is part of the state while on.
func (f *Fan) DiscreteState() string {
	if f.state == Off {
		return f.state.String()
	}
	return f.state.String() + "/" + f.speed.String()
}

// CurrentPower returns the power drawn, in watts.
func (f *Fan) CurrentPower() float64 {
	if f.state == Off {
		return 0
	}
	return f.cfg.power(f.speed)
}

func (f *Fan) Initialize(start time.Duration) {
	f.InitializeBase(start)
	f.state = Off
	f.speed = Low
	f.energy.Reset()
	f.onTime = 0
}

func (f *Fan) FixpointInitializeVariables() (int, int) {
	if f.power.Initialized() {
		return 0, 0
	}
	f.power.Set(f.CurrentPower(), 0, f.Now())
	return 1, 0
}

func (f *Fan) TimeAdvance() time.Duration { return sim.Infinity }

func (f *Fan) Output() []sim.Event { return nil }

func (f *Fan) advance(elapsed time.Duration) time.Duration {
	p := f.power.Value()
	f.energy.Add(p, p, elapsed)
	if f.state == On {
		f.onTime += elapsed
	}
	return f.Advance(elapsed)
}

func (f *Fan) InternalTransition(elapsed time.Duration) error {
	t := f.advance(elapsed)
	f.power.Set(f.CurrentPower(), 0, t)
	return nil
}

func (f *Fan) ExternalTransition(elapsed time.Duration, e sim.Event) error {
	t := f.advance(elapsed)
	if !transitions.Allows(e.Kind, f.state) {
		return f.Violation(f.state, e, "")
	}
	switch e.Kind {
	case SwitchOn:
		f.state, f.speed = On, Low
	case SwitchOff:
		f.state = Off
	case SetLow:
		f.speed = Low
	case SetMedium:
		f.speed = Medium
	case SetHigh:
		f.speed = High
	}
	f.power.Set(f.CurrentPower(), 0, t)
	logrus.Debugf("[%s] %s: %s", f.ID(), e, f.DiscreteState())
	return nil
}

// Finalize implements sim.Finalizer.
func (f *Fan) Finalize(elapsed time.Duration) {
	t := f.advance(elapsed)
	f.power.Set(f.CurrentPower(), 0, t)
}

func (f *Fan) FinalReport() sim.Report {
	return sim.Report{
		ModelID: f.ID(),
		Stats: []sim.Stat{
			{Name: "energy", Value: f.energy.Integral() / 1000, Unit: "kWh"},
			{Name: "time_on", Value: f.onTime.Hours(), Unit: "h"},
		},
	}
}
