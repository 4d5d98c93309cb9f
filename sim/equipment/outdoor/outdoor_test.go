package outdoor

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hioa-sim/hioa-sim/sim"
)

func TestConfig_At_PeaksAtPeakTime(t *testing.T) {
	cfg := DefaultConfig()

	peak, slope := cfg.At(cfg.Peak)
	trough, _ := cfg.At(cfg.Peak + 12*time.Hour)
	rising, risingSlope := cfg.At(cfg.Peak - 6*time.Hour)

	assert.InDelta(t, 9, peak, 1e-9)
	assert.InDelta(t, 0, slope, 1e-9)
	assert.InDelta(t, 1, trough, 1e-9)
	assert.InDelta(t, 5, rising, 1e-9)
	assert.InDelta(t, 4*2*3.141592653589793/24, risingSlope, 1e-9)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.NoError(t, Config{Mean: 10}.Validate(), "constant temperature needs no step")
	assert.True(t, errors.Is(Config{Amplitude: -1}.Validate(), sim.ErrInvalidConfig))
	assert.True(t, errors.Is(Config{Amplitude: 1}.Validate(), sim.ErrInvalidConfig))
}

func TestModel_ResamplesEveryStep(t *testing.T) {
	// GIVEN an initialized outdoor model
	cfg := DefaultConfig()
	m := NewModel(ModelID, cfg)
	m.Initialize(0)
	j, p := m.FixpointInitializeVariables()
	require.Equal(t, 1, j)
	require.Zero(t, p)
	v, ok := m.ExportedVariable(Variable)
	require.True(t, ok)

	// WHEN one step elapses
	require.Equal(t, cfg.Step, m.TimeAdvance())
	require.NoError(t, m.InternalTransition(cfg.Step))

	// THEN the variable is exact at the new sample time
	want, _ := cfg.At(cfg.Step)
	assert.Equal(t, want, v.EvaluateAt(cfg.Step))
	assert.Equal(t, cfg.Step, v.Time())
	lo, _ := m.FinalReport().Stat("min_temperature")
	hi, _ := m.FinalReport().Stat("max_temperature")
	assert.LessOrEqual(t, lo, hi)
}

func TestModel_ConstantTemperature_NeverSteps(t *testing.T) {
	m := NewModel("flat", Config{Mean: 12})
	m.Initialize(0)
	m.FixpointInitializeVariables()

	assert.Equal(t, sim.Infinity, m.TimeAdvance())
	v, _ := m.ExportedVariable(Variable)
	assert.Equal(t, 12.0, v.EvaluateAt(10*time.Hour))
	assert.True(t, errors.Is(m.ExternalTransition(0, sim.Event{}), sim.ErrDanglingRoute))
}
