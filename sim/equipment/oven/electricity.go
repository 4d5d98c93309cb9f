package oven

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hioa-sim/hioa-sim/sim"
	"github.com/hioa-sim/hioa-sim/sim/dynamics"
)

// Identifiers and exported variable names.
const (
	ElectricityModelID = "oven-electricity"
	TemperatureModelID = "oven-temperature"
	GeneratorID        = "oven-generator"

	PowerVariable       = "OvenPower"
	TemperatureVariable = "OvenTemperature"
)

// ElectricityModel owns the oven control state, its power draw and the
// delayed-start timer. Accepted events are re-broadcast to the temperature
// model; when the timer elapses it emits Heat itself.
type ElectricityModel struct {
	sim.AtomicBase
	cfg    Config
	ctl    control
	heatAt time.Duration
	power  *sim.Variable
	energy dynamics.Accumulator
	fired  int

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

func (m *ElectricityModel) State() State { return m.ctl.state }

func (m *ElectricityModel) Mode() Mode { return m.ctl.mode }

// Target returns the target temperature in °C.
func (m *ElectricityModel) Target() float64 { return m.ctl.target }

// DiscreteState implements sim.StateReporter.
func (m *ElectricityModel) DiscreteState() string { return m.ctl.state.String() }

// CurrentPower returns the power drawn in the current state and mode, in watts.
func (m *ElectricityModel) CurrentPower() float64 {
	switch m.ctl.state {
	case On, Waiting:
		return m.cfg.StandbyPower
	case Heating:
		if m.ctl.mode == Defrost {
			return m.cfg.MaxPower * m.cfg.DefrostPowerRatio
		}
		return m.cfg.MaxPower
	}
	return 0
}

func (m *ElectricityModel) Initialize(start time.Duration) {
	m.InitializeBase(start)
	m.ctl.reset(m.cfg)
	m.heatAt = sim.Infinity
	m.energy.Reset()
	m.fired = 0
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
	if m.ctl.state == Waiting {
		if d := m.heatAt - m.Now(); d > 0 {
			return d
		}
		return 0
	}
	return sim.Infinity
}

func (m *ElectricityModel) Output() []sim.Event {
	if len(m.rebroadcast) > 0 {
		return append([]sim.Event(nil), m.rebroadcast...)
	}
	if m.ctl.state == Waiting {
		return []sim.Event{sim.NewEvent(Heat, m.heatAt, nil)}
	}
	return nil
}

func (m *ElectricityModel) advance(elapsed time.Duration) time.Duration {
	p := m.power.Value()
	m.energy.Add(p, p, elapsed)
	t := m.Advance(elapsed)
	m.power.Set(p, 0, t)
	return t
}

func (m *ElectricityModel) InternalTransition(elapsed time.Duration) error {
	t := m.advance(elapsed)
	if len(m.rebroadcast) > 0 {
		m.rebroadcast = nil
		return nil
	}
	if m.ctl.state == Waiting && t >= m.heatAt {
		m.ctl.state = Heating
		m.heatAt = sim.Infinity
		m.fired++
		m.power.Set(m.CurrentPower(), 0, t)
		logrus.Debugf("[%s] delayed start elapsed at %s", m.ID(), t)
	}
	return nil
}

func (m *ElectricityModel) ExternalTransition(elapsed time.Duration, e sim.Event) error {
	t := m.advance(elapsed)
	from := m.ctl.state
	if err := m.ctl.apply(&m.AtomicBase, m.cfg, e); err != nil {
		return err
	}
	switch e.Kind {
	case SetDelayedStart:
		delay, _ := sim.PayloadAs[time.Duration](e)
		m.heatAt = t + delay
	case CancelDelayedStart, Heat, SwitchOff:
		m.heatAt = sim.Infinity
	}
	m.power.Set(m.CurrentPower(), 0, t)
	m.rebroadcast = append(m.rebroadcast, e.At(t))
	logrus.Debugf("[%s] %s: %s -> %s, mode %s, target %g°C", m.ID(), e, from, m.ctl.state, m.ctl.mode, m.ctl.target)
	return nil
}

// Finalize implements sim.Finalizer. A pending delayed start past the end
// never fires.
func (m *ElectricityModel) Finalize(elapsed time.Duration) { m.advance(elapsed) }

func (m *ElectricityModel) FinalReport() sim.Report {
	return sim.Report{
		ModelID: m.ID(),
		Stats: []sim.Stat{
			{Name: "energy", Value: m.energy.Integral() / 1000, Unit: "kWh"},
			{Name: "mean_power", Value: m.energy.Mean(), Unit: "W"},
			{Name: "delayed_starts_fired", Value: float64(m.fired)},
		},
	}
}
