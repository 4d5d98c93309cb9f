package heatpump

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hioa-sim/hioa-sim/sim"
	"github.com/hioa-sim/hioa-sim/sim/dynamics"
)

// Identifiers and exported variable names.
const (
	ElectricityModelID = "heatpump-electricity"
	TemperatureModelID = "heatpump-temperature"
	GeneratorID        = "heatpump-generator"

	PowerVariable  = "HeatPumpPower"
	IndoorVariable = "IndoorTemperature"
)

// ElectricityModel owns the discrete state and the power draw. Every accepted
// event is re-broadcast to the temperature model at the same instant.
type ElectricityModel struct {
	sim.AtomicBase
	cfg    Config
	state  State
	level  float64 // last SetPower value, W
	power  *sim.Variable
	energy dynamics.Accumulator

	rebroadcast []sim.Event
}

// NewElectricityModel creates the electricity model.
func NewElectricityModel(cfg Config) *ElectricityModel {
	power := sim.NewVariable(PowerVariable, sim.Power)
	kinds := Vocabulary.Kinds()
	return &ElectricityModel{
		AtomicBase: sim.NewAtomicBase(ElectricityModelID, kinds, kinds, nil, power),
		cfg:        cfg,
		power:      power,
	}
}

// State returns the discrete state.
func (m *ElectricityModel) State() State { return m.state }

// DiscreteState implements sim.StateReporter.
func (m *ElectricityModel) DiscreteState() string { return m.state.String() }

// CurrentPower returns the power drawn in the current state, in watts.
func (m *ElectricityModel) CurrentPower() float64 {
	switch m.state {
	case On:
		return m.cfg.StandbyPower
	case Heating, Cooling:
		return m.level
	}
	return 0
}

func (m *ElectricityModel) Initialize(start time.Duration) {
	m.InitializeBase(start)
	m.state = Off
	m.level = m.cfg.MaxPower
	m.energy.Reset()
	m.rebroadcast = nil
}

func (m *ElectricityModel) FixpointInitializeVariables() (int, int) {
	if m.power.Initialized() {
		return 0, 0
	}
	m.power.Set(m.CurrentPower(), 0, m.Now())
	return 1, 0
}

func (m *ElectricityModel) TimeAdvance() time.Duration {
	if len(m.rebroadcast) > 0 {
		return 0
	}
	return sim.Infinity
}

func (m *ElectricityModel) Output() []sim.Event {
	return append([]sim.Event(nil), m.rebroadcast...)
}

// advance accumulates energy at the constant power held since the last transition.
func (m *ElectricityModel) advance(elapsed time.Duration) time.Duration {
	p := m.power.Value()
	m.energy.Add(p, p, elapsed)
	t := m.Advance(elapsed)
	m.power.Set(p, 0, t)
	return t
}

func (m *ElectricityModel) InternalTransition(elapsed time.Duration) error {
	m.advance(elapsed)
	m.rebroadcast = nil
	return nil
}

func (m *ElectricityModel) ExternalTransition(elapsed time.Duration, e sim.Event) error {
	t := m.advance(elapsed)
	if !transitions.Allows(e.Kind, m.state) {
		return m.Violation(m.state, e, "")
	}
	if e.Kind == SetPower {
		watts, err := sim.PayloadAs[float64](e)
		if err != nil {
			return err
		}
		if watts < 0 || watts > m.cfg.MaxPower {
			return m.Violation(m.state, e, fmt.Sprintf("power %g W outside [0, %g]", watts, m.cfg.MaxPower))
		}
		m.level = watts
	}
	from := m.state
	m.state = next(m.state, e.Kind)
	m.power.Set(m.CurrentPower(), 0, t)
	m.rebroadcast = append(m.rebroadcast, e.At(t))
	logrus.Debugf("[%s] %s: %s -> %s, %g W", m.ID(), e, from, m.state, m.power.Value())
	return nil
}

// Finalize implements sim.Finalizer.
func (m *ElectricityModel) Finalize(elapsed time.Duration) { m.advance(elapsed) }

func (m *ElectricityModel) FinalReport() sim.Report {
	return sim.Report{
		ModelID: m.ID(),
		Stats: []sim.Stat{
			{Name: "energy", Value: m.energy.Integral() / 1000, Unit: "kWh"},
			{Name: "mean_power", Value: m.energy.Mean(), Unit: "W"},
		},
	}
}
