// Package outdoor models the external air temperature as a daily sinusoid.
package outdoor

import (
	"fmt"
	"math"
	"time"

	"github.com/hioa-sim/hioa-sim/sim"
)

// Variable is the name of the exported outdoor temperature.
const Variable = "OutdoorTemperature"

// ModelID is the default identifier of the outdoor model.
const ModelID = "outdoor"

const day = 24 * time.Hour

// Config describes the daily temperature cycle.
type Config struct {
	Mean      float64       `yaml:"mean"`      // °C
	Amplitude float64       `yaml:"amplitude"` // °C, half the daily swing
	Peak      time.Duration `yaml:"peak"`      // time of day of the maximum
	Step      time.Duration `yaml:"step"`
}

// DefaultConfig is a mild winter day peaking mid-afternoon.
func DefaultConfig() Config {
	return Config{Mean: 5, Amplitude: 4, Peak: 15 * time.Hour, Step: 10 * time.Minute}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Amplitude < 0 {
		return fmt.Errorf("%w: outdoor amplitude must be non-negative, got %g", sim.ErrInvalidConfig, c.Amplitude)
	}
	if c.Amplitude > 0 && c.Step <= 0 {
		return fmt.Errorf("%w: outdoor step must be positive, got %s", sim.ErrInvalidConfig, c.Step)
	}
	return nil
}

// At returns the temperature and its derivative per hour at t.
func (c Config) At(t time.Duration) (value, derivative float64) {
	omega := 2 * math.Pi / day.Hours()
	phase := omega * (t - c.Peak).Hours()
	return c.Mean + c.Amplitude*math.Cos(phase), -c.Amplitude * omega * math.Sin(phase)
}

// Model exports the outdoor temperature, resampled every step so importers
// extrapolate with the current slope.
type Model struct {
	sim.AtomicBase
	cfg         Config
	temperature *sim.Variable
	lo, hi      float64
}

// NewModel creates an outdoor model.
func NewModel(id string, cfg Config) *Model {
	v := sim.NewVariable(Variable, sim.Temperature)
	return &Model{
		AtomicBase:  sim.NewAtomicBase(id, nil, nil, nil, v),
		cfg:         cfg,
		temperature: v,
	}
}

func (m *Model) Initialize(start time.Duration) {
	m.InitializeBase(start)
	m.lo, m.hi = math.Inf(1), math.Inf(-1)
}

func (m *Model) sample(t time.Duration) {
	v, d := m.cfg.At(t)
	m.temperature.Set(v, d, t)
	m.lo = math.Min(m.lo, v)
	m.hi = math.Max(m.hi, v)
}

func (m *Model) FixpointInitializeVariables() (int, int) {
	if m.temperature.Initialized() {
		return 0, 0
	}
	m.sample(m.Now())
	return 1, 0
}

func (m *Model) TimeAdvance() time.Duration {
	if m.cfg.Amplitude == 0 {
		return sim.Infinity
	}
	return m.cfg.Step
}

func (m *Model) Output() []sim.Event { return nil }

func (m *Model) InternalTransition(elapsed time.Duration) error {
	m.sample(m.Advance(elapsed))
	return nil
}

func (m *Model) Finalize(elapsed time.Duration) { m.sample(m.Advance(elapsed)) }

func (m *Model) ExternalTransition(elapsed time.Duration, e sim.Event) error {
	return fmt.Errorf("%w: %s imports no events, got %s", sim.ErrDanglingRoute, m.ID(), e)
}

func (m *Model) FinalReport() sim.Report {
	return sim.Report{
		ModelID: m.ID(),
		Stats: []sim.Stat{
			{Name: "min_temperature", Value: m.lo, Unit: "°C"},
			{Name: "max_temperature", Value: m.hi, Unit: "°C"},
		},
	}
}
