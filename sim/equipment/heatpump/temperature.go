package heatpump

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hioa-sim/hioa-sim/sim"
	"github.com/hioa-sim/hioa-sim/sim/dynamics"
	"github.com/hioa-sim/hioa-sim/sim/equipment/outdoor"
)

// TemperatureModel integrates the indoor temperature with a fixed step. It
// mirrors the discrete state from the events re-broadcast by the
// electricity model and reads the power and outdoor temperature as imports.
type TemperatureModel struct {
	sim.AtomicBase
	cfg     Config
	params  dynamics.HeatPumpParams
	state   State
	indoor  *sim.Variable
	mean    dynamics.Accumulator
	lo, hi  float64
	changed bool
}

// NewTemperatureModel creates the temperature model.
func NewTemperatureModel(cfg Config) *TemperatureModel {
	indoor := sim.NewVariable(IndoorVariable, sim.Temperature)
	imported := []sim.VariableSpec{
		{Name: PowerVariable, Quantity: sim.Power},
		{Name: outdoor.Variable, Quantity: sim.Temperature},
	}
	return &TemperatureModel{
		AtomicBase: sim.NewAtomicBase(TemperatureModelID, Vocabulary.Kinds(), nil, imported, indoor),
		cfg:        cfg,
		params:     cfg.params(),
		indoor:     indoor,
	}
}

// DiscreteState implements sim.StateReporter.
func (m *TemperatureModel) DiscreteState() string { return m.state.String() }

// Indoor returns the exported indoor temperature.
func (m *TemperatureModel) Indoor() *sim.Variable { return m.indoor }

func (m *TemperatureModel) Initialize(start time.Duration) {
	m.InitializeBase(start)
	m.state = Off
	m.mean.Reset()
	m.lo, m.hi = math.Inf(1), math.Inf(-1)
	m.changed = false
}

func (m *TemperatureModel) FixpointInitializeVariables() (int, int) {
	if m.indoor.Initialized() {
		return 0, 0
	}
	power, out := m.Import(PowerVariable), m.Import(outdoor.Variable)
	if power == nil || out == nil || !power.Initialized() || !out.Initialized() {
		return 0, 1
	}
	t := m.Now()
	start := out.EvaluateAt(t)
	if m.cfg.InitialIndoor != nil {
		start = *m.cfg.InitialIndoor
	}
	m.indoor.Set(start, m.derivative(start, t), t)
	m.track(start)
	return 1, 0
}

func (m *TemperatureModel) drive() dynamics.Drive {
	switch m.state {
	case Heating:
		return dynamics.Heating
	case Cooling:
		return dynamics.Cooling
	}
	return dynamics.Idle
}

// derivative is the indoor temperature slope per hour at t.
func (m *TemperatureModel) derivative(inside float64, t time.Duration) float64 {
	power := m.Import(PowerVariable).EvaluateAt(t)
	outside := m.Import(outdoor.Variable).EvaluateAt(t)
	return dynamics.HeatPumpActive(m.drive(), power, inside, outside, m.params) +
		dynamics.PassiveLoss(outside, inside, m.cfg.Insulation)
}

func (m *TemperatureModel) track(v float64) {
	m.lo = math.Min(m.lo, v)
	m.hi = math.Max(m.hi, v)
}

// integrate performs one Euler step over elapsed and recomputes the slope.
func (m *TemperatureModel) integrate(elapsed time.Duration) time.Duration {
	old := m.indoor.Value()
	updated := dynamics.EulerStep(old, m.indoor.Derivative(), elapsed)
	t := m.Advance(elapsed)
	m.mean.Add(old, updated, elapsed)
	m.track(updated)
	m.indoor.Set(updated, m.derivative(updated, t), t)
	return t
}

func (m *TemperatureModel) TimeAdvance() time.Duration {
	if m.changed {
		return 0
	}
	return m.cfg.Step
}

func (m *TemperatureModel) Output() []sim.Event { return nil }

func (m *TemperatureModel) InternalTransition(elapsed time.Duration) error {
	m.integrate(elapsed)
	m.changed = false
	return nil
}

func (m *TemperatureModel) ExternalTransition(elapsed time.Duration, e sim.Event) error {
	t := m.integrate(elapsed)
	if !transitions.Allows(e.Kind, m.state) {
		return m.Violation(m.state, e, "")
	}
	m.state = next(m.state, e.Kind)
	m.indoor.Set(m.indoor.Value(), m.derivative(m.indoor.Value(), t), t)
	m.changed = true
	logrus.Debugf("[%s] %s: %s at %.2f°C", m.ID(), e, m.state, m.indoor.Value())
	return nil
}

// Finalize implements sim.Finalizer with one partial Euler step.
func (m *TemperatureModel) Finalize(elapsed time.Duration) { m.integrate(elapsed) }

func (m *TemperatureModel) FinalReport() sim.Report {
	return sim.Report{
		ModelID: m.ID(),
		Stats: []sim.Stat{
			{Name: "mean_indoor_temperature", Value: m.mean.Mean(), Unit: "°C"},
			{Name: "min_indoor_temperature", Value: m.lo, Unit: "°C"},
			{Name: "max_indoor_temperature", Value: m.hi, Unit: "°C"},
			{Name: "final_indoor_temperature", Value: m.indoor.Value(), Unit: "°C"},
		},
	}
}
