package oven

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hioa-sim/hioa-sim/sim"
	"github.com/hioa-sim/hioa-sim/sim/dynamics"
)

// TemperatureModel integrates the cavity temperature. While heating it is
// driven toward the target; it always loses heat to the room.
type TemperatureModel struct {
	sim.AtomicBase
	cfg     Config
	ctl     control
	cavity  *sim.Variable
	mean    dynamics.Accumulator
	peak    float64
	changed bool
}

// NewTemperatureModel creates the temperature model.
func NewTemperatureModel(cfg Config) *TemperatureModel {
	cavity := sim.NewVariable(TemperatureVariable, sim.Temperature)
	imported := []sim.VariableSpec{{Name: PowerVariable, Quantity: sim.Power}}
	return &TemperatureModel{
		AtomicBase: sim.NewAtomicBase(TemperatureModelID, Vocabulary.Kinds(), nil, imported, cavity),
		cfg:        cfg,
		cavity:     cavity,
	}
}

// DiscreteState implements sim.StateReporter.
func (m *TemperatureModel) DiscreteState() string { return m.ctl.state.String() }

// Cavity returns the exported oven temperature.
func (m *TemperatureModel) Cavity() *sim.Variable { return m.cavity }

// Target returns the target temperature in °C.
func (m *TemperatureModel) Target() float64 { return m.ctl.target }

func (m *TemperatureModel) Mode() Mode { return m.ctl.mode }

func (m *TemperatureModel) Initialize(start time.Duration) {
	m.InitializeBase(start)
	m.ctl.reset(m.cfg)
	m.mean.Reset()
	m.peak = math.Inf(-1)
	m.changed = false
}

func (m *TemperatureModel) FixpointInitializeVariables() (int, int) {
	if m.cavity.Initialized() {
		return 0, 0
	}
	power := m.Import(PowerVariable)
	if power == nil || !power.Initialized() {
		return 0, 1
	}
	t := m.Now()
	m.cavity.Set(m.cfg.Room, m.derivative(m.cfg.Room, t), t)
	m.peak = m.cfg.Room
	return 1, 0
}

func (m *TemperatureModel) derivative(current float64, t time.Duration) float64 {
	d := dynamics.PassiveLoss(m.cfg.Room, current, m.cfg.Insulation)
	if m.ctl.state == Heating {
		power := m.Import(PowerVariable).EvaluateAt(t)
		d += dynamics.TargetDrive(m.ctl.target, current, power, m.cfg.MaxPower, m.cfg.MinPower, m.cfg.HeatingTau)
	}
	return d
}

func (m *TemperatureModel) integrate(elapsed time.Duration) time.Duration {
	old := m.cavity.Value()
	updated := dynamics.EulerStep(old, m.cavity.Derivative(), elapsed)
	t := m.Advance(elapsed)
	m.mean.Add(old, updated, elapsed)
	m.peak = math.Max(m.peak, updated)
	m.cavity.Set(updated, m.derivative(updated, t), t)
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
	if err := m.ctl.apply(&m.AtomicBase, m.cfg, e); err != nil {
		return err
	}
	m.cavity.Set(m.cavity.Value(), m.derivative(m.cavity.Value(), t), t)
	m.changed = true
	logrus.Debugf("[%s] %s: %s toward %g°C at %.1f°C", m.ID(), e, m.ctl.state, m.ctl.target, m.cavity.Value())
	return nil
}

func (m *TemperatureModel) Finalize(elapsed time.Duration) { m.integrate(elapsed) }

func (m *TemperatureModel) FinalReport() sim.Report {
	return sim.Report{
		ModelID: m.ID(),
		Stats: []sim.Stat{
			{Name: "mean_oven_temperature", Value: m.mean.Mean(), Unit: "°C"},
			{Name: "max_oven_temperature", Value: m.peak, Unit: "°C"},
			{Name: "final_oven_temperature", Value: m.cavity.Value(), Unit: "°C"},
		},
	}
}
