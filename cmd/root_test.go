package cmd

import (
	"bytes"
	"errors"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hioa-sim/hioa-sim/sim"
	"github.com/hioa-sim/hioa-sim/sim/equipment/fan"
	"github.com/hioa-sim/hioa-sim/sim/equipment/heatpump"
	"github.com/hioa-sim/hioa-sim/sim/scenario"
)

func runWith(t *testing.T, scenarioYAML string, opts runOptions) (string, error) {
	t.Helper()
	opts.scenarioPath = writeFile(t, "scenario.yaml", scenarioYAML)
	if opts.traceLevel == "" {
		opts.traceLevel = "states"
	}
	var out bytes.Buffer
	err := runScenario(opts, &out)
	return out.String(), err
}

const lampScenario = `
equipment: dimmer
end: 2h
events:
  - at: 10m
    kind: SwitchOn
  - at: 1h
    kind: SetPower
    power: 40
`

func TestRunScenario_UnitTestAssembly_PrintsReportAndSummary(t *testing.T) {
	// GIVEN a lamp scenario driven by the generator
	// WHEN run
	out, err := runWith(t, lampScenario, runOptions{})

	// THEN the report and the time spent in each lamp state are printed
	require.NoError(t, err)
	assert.Contains(t, out, "dimmer (unit-test)")
	assert.Contains(t, out, "=== dimmer-lamp ===")
	assert.Contains(t, out, "energy")
	assert.Contains(t, out, "Trajectory: ")
	assert.Contains(t, out, "On               1h50m0s")
}

func TestRunScenario_IntegrationWithPlot(t *testing.T) {
	out, err := runWith(t, lampScenario, runOptions{assembly: string(scenario.Integration), plot: true})

	require.NoError(t, err)
	assert.Contains(t, out, "dimmer (integration)")
	assert.Contains(t, out, "LampPower")
}

func TestRunScenario_OvenDelayedStart(t *testing.T) {
	scenarioYAML := `
equipment: oven
assembly: integration
end: 1h
events:
  - at: 1m
    kind: SwitchOn
  - at: 2m
    kind: SetMode
    mode: bake
  - at: 3m
    kind: SetDelayedStart
    delay: 10m
`
	out, err := runWith(t, scenarioYAML, runOptions{traceLevel: "full", plot: true})

	require.NoError(t, err)
	assert.Contains(t, out, "delayed_starts_fired")
	assert.Contains(t, out, "Heating")
	assert.Contains(t, out, "OvenTemperature")
}

func TestRunScenario_House_QualifiedKinds(t *testing.T) {
	scenarioYAML := `
equipment: house
end: 3h
events:
  - at: 0s
    kind: heatpump.SwitchOn
  - at: 0s
    kind: heatpump.StartHeating
  - at: 30m
    kind: fan.SwitchOn
  - at: 1h
    kind: dimmer.SwitchOn
`
	for _, asm := range []string{string(scenario.UnitTest), string(scenario.Integration)} {
		t.Run(asm, func(t *testing.T) {
			out, err := runWith(t, scenarioYAML, runOptions{assembly: asm})

			require.NoError(t, err)
			assert.Contains(t, out, "=== meter ===")
			assert.Contains(t, out, "=== "+heatpump.TemperatureModelID+" ===")
			assert.Contains(t, out, fan.ModelID)
		})
	}
}

func TestRunScenario_PreconditionViolation_AbortsRun(t *testing.T) {
	scenarioYAML := `
equipment: fan
end: 1h
events:
  - at: 5m
    kind: SetHigh
`
	out, err := runWith(t, scenarioYAML, runOptions{})

	assert.True(t, errors.Is(err, sim.ErrPreconditionViolation), "got %v", err)
	assert.Contains(t, out, "ended at 5m0s")
}

func TestRunScenario_InvalidInputs(t *testing.T) {
	tests := []struct {
		name     string
		scenario string
		opts     runOptions
	}{
		{"unknown equipment", "equipment: toaster\nend: 1h\n", runOptions{}},
		{"unknown kind", "equipment: fan\nend: 1h\nevents:\n  - at: 1m\n    kind: Spin\n", runOptions{}},
		{"unqualified house kind", "equipment: house\nend: 1h\nevents:\n  - at: 1m\n    kind: SwitchOn\n", runOptions{}},
		{"unknown house equipment", "equipment: house\nend: 1h\nevents:\n  - at: 1m\n    kind: toaster.SwitchOn\n", runOptions{}},
		{"unknown trace level", "equipment: fan\nend: 1h\n", runOptions{traceLevel: "verbose"}},
		{"unknown assembly override", "equipment: fan\nend: 1h\n", runOptions{assembly: "bench"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runWith(t, tt.scenario, tt.opts)
			assert.True(t, errors.Is(err, sim.ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestRunScenario_MissingScenarioFlag(t *testing.T) {
	err := runScenario(runOptions{traceLevel: "states"}, &bytes.Buffer{})

	assert.True(t, errors.Is(err, sim.ErrInvalidConfig))
}

func TestPrintVocabularies(t *testing.T) {
	var out bytes.Buffer

	require.NoError(t, printVocabularies(&out, "fan"))

	assert.Contains(t, out.String(), "=== fan ===")
	assert.Regexp(t, `SwitchOn\s+rank 0`, out.String())
	assert.Regexp(t, `SwitchOff\s+rank 4`, out.String())
	assert.Error(t, printVocabularies(&out, "toaster"))
}

func TestPrintVocabularies_HouseListsEveryAppliance(t *testing.T) {
	var out bytes.Buffer

	require.NoError(t, printVocabularies(&out, "house"))

	for _, name := range []string{"heatpump", "oven", "dimmer", "fan"} {
		assert.Contains(t, out.String(), "=== "+name+" ===")
	}
}

func TestAddRunFlags_ParsesIntoOptions(t *testing.T) {
	var o runOptions
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	addRunFlags(fs, &o)

	require.NoError(t, fs.Parse([]string{"--scenario", "s.yaml", "--plot", "--acceleration", "3600", "--sample-interval", "5m"}))

	assert.Equal(t, "s.yaml", o.scenarioPath)
	assert.True(t, o.plot)
	assert.Equal(t, 3600.0, o.acceleration)
	assert.Equal(t, "5m0s", o.interval.String())
	assert.Equal(t, "states", o.traceLevel)
	assert.Equal(t, "warn", o.logLevel)
}
