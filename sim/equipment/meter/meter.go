// Package meter models the house electric meter: it imports the power of
// every appliance and exports their sum.
package meter

import (
	"fmt"
	"math"
	"time"

	"github.com/hioa-sim/hioa-sim/sim"
	"github.com/hioa-sim/hioa-sim/sim/dynamics"
)

// ModelID is the default identifier of the meter.
const ModelID = "meter"

// Variable is the name of the exported total power.
const Variable = "HousePower"

// Config holds the meter sampling period.
type Config struct {
	Step time.Duration `yaml:"step"`
}

// DefaultConfig samples once a minute.
func DefaultConfig() Config {
	return Config{Step: time.Minute}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Step <= 0 {
		return fmt.Errorf("%w: meter step must be positive, got %s", sim.ErrInvalidConfig, c.Step)
	}
	return nil
}

// Meter sums its imported power variables every step. Its total can only be
// initialized once every input is.
type Meter struct {
	sim.AtomicBase
	cfg    Config
	inputs []string
	total  *sim.Variable
	energy dynamics.Accumulator
	peak   float64
}

// NewMeter creates a meter importing the named power variables.
func NewMeter(id string, cfg Config, inputs ...string) *Meter {
	total := sim.NewVariable(Variable, sim.Power)
	imported := make([]sim.VariableSpec, len(inputs))
	for i, name := range inputs {
		imported[i] = sim.VariableSpec{Name: name, Quantity: sim.Power}
	}
	return &Meter{
		AtomicBase: sim.NewAtomicBase(id, nil, nil, imported, total),
		cfg:        cfg,
		inputs:     inputs,
		total:      total,
	}
}

// Total returns the exported total power.
func (m *Meter) Total() *sim.Variable { return m.total }

func (m *Meter) Initialize(start time.Duration) {
	m.InitializeBase(start)
	m.energy.Reset()
	m.peak = 0
}

func (m *Meter) sum(t time.Duration) (float64, bool) {
	total := 0.0
	for _, name := range m.inputs {
		v := m.Import(name)
		if v == nil || !v.Initialized() {
			return 0, false
		}
		total += v.EvaluateAt(t)
	}
	return total, true
}

func (m *Meter) FixpointInitializeVariables() (int, int) {
	if m.total.Initialized() {
		return 0, 0
	}
	total, ok := m.sum(m.Now())
	if !ok {
		return 0, 1
	}
	m.total.Set(total, 0, m.Now())
	m.peak = total
	return 1, 0
}

func (m *Meter) TimeAdvance() time.Duration { return m.cfg.Step }

func (m *Meter) Output() []sim.Event { return nil }

func (m *Meter) InternalTransition(elapsed time.Duration) error {
	m.sample(elapsed)
	return nil
}

// Finalize implements sim.Finalizer with a last, shorter sample.
func (m *Meter) Finalize(elapsed time.Duration) { m.sample(elapsed) }

func (m *Meter) sample(elapsed time.Duration) {
	old := m.total.Value()
	t := m.Advance(elapsed)
	total, _ := m.sum(t)
	m.energy.Add(old, total, elapsed)
	m.peak = math.Max(m.peak, total)
	m.total.Set(total, 0, t)
}

func (m *Meter) ExternalTransition(elapsed time.Duration, e sim.Event) error {
	return fmt.Errorf("%w: %s imports no events, got %s", sim.ErrDanglingRoute, m.ID(), e)
}

func (m *Meter) FinalReport() sim.Report {
	return sim.Report{
		ModelID: m.ID(),
		Stats: []sim.Stat{
			{Name: "energy", Value: m.energy.Integral() / 1000, Unit: "kWh"},
			{Name: "mean_power", Value: m.energy.Mean(), Unit: "W"},
			{Name: "peak_power", Value: m.peak, Unit: "W"},
		},
	}
}
