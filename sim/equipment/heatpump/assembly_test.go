package heatpump

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hioa-sim/hioa-sim/sim"
	"github.com/hioa-sim/hioa-sim/sim/internal/testutil"
)

func fullCycle() []sim.Event {
	maxPower := DefaultConfig().MaxPower
	at := func(m int) time.Duration { return time.Duration(m) * 10 * time.Minute }
	return []sim.Event{
		sim.NewEvent(SwitchOn, at(1), nil),
		NewSetPower(at(2), maxPower),
		sim.NewEvent(StartHeating, at(3), nil),
		NewSetPower(at(6), 50),
		sim.NewEvent(StopHeating, at(9), nil),
		sim.NewEvent(StartCooling, at(10), nil),
		NewSetPower(at(11), maxPower),
		sim.NewEvent(StopCooling, at(14), nil),
		sim.NewEvent(SwitchOff, at(15), nil),
	}
}

func electricityOf(t *testing.T, root interface {
	Model(string) (sim.Model, bool)
}) *ElectricityModel {
	t.Helper()
	m, ok := root.Model(ElectricityModelID)
	require.True(t, ok)
	return m.(*ElectricityModel)
}

func TestUnitTestAssembly_FullCycle_EndsOff(t *testing.T) {
	// GIVEN the unit-test assembly fed the full heating/cooling cycle
	asm, err := UnitTestAssembly(DefaultConfig(), fullCycle())
	require.NoError(t, err)

	// WHEN run for three hours
	rec, res := testutil.Run(t, asm, 3*time.Hour)

	// THEN the heat pump ends Off and visited every state in order
	assert.Equal(t, Off, electricityOf(t, asm).State())
	var states []string
	for _, tr := range rec.TransitionsOf(ElectricityModelID) {
		states = append(states, tr.State)
	}
	assert.Equal(t, []string{"Off", "On", "Heating", "On", "Cooling", "On", "Off"}, states)

	gen, ok := res.Report.Find(GeneratorID)
	require.True(t, ok)
	emitted, _ := gen.Stat("events_emitted")
	assert.Equal(t, 9.0, emitted)
}

func TestUnitTestAssembly_SteadyHeating_EnergyCoversWholeRun(t *testing.T) {
	// GIVEN heating at 1 kW from the start and no later event
	asm, err := UnitTestAssembly(DefaultConfig(), []sim.Event{
		sim.NewEvent(SwitchOn, 0, nil),
		NewSetPower(0, 1000),
		sim.NewEvent(StartHeating, 0, nil),
	})
	require.NoError(t, err)

	// WHEN run for one hour
	_, res := testutil.Run(t, asm, time.Hour)

	// THEN the report integrates the power up to the end of the run
	elec, ok := res.Report.Find(ElectricityModelID)
	require.True(t, ok)
	energy, _ := elec.Stat("energy")
	mean, _ := elec.Stat("mean_power")
	testutil.AssertFloat64Equal(t, "energy", 1.0, energy, 1e-9)
	testutil.AssertFloat64Equal(t, "mean_power", 1000, mean, 1e-9)
	assert.Equal(t, time.Hour, electricityOf(t, asm).Now())
}

func TestUnitTestAssembly_SimultaneousEvents_OrderIndependent(t *testing.T) {
	// GIVEN the same simultaneous events in every input order
	at := 5 * time.Minute
	base := []sim.Event{
		sim.NewEvent(SwitchOn, at, nil),
		sim.NewEvent(StartHeating, at, nil),
		NewSetPower(at, 800),
	}
	orders := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}

	for _, order := range orders {
		events := make([]sim.Event, len(order))
		for i, j := range order {
			events[i] = base[j]
		}
		asm, err := UnitTestAssembly(DefaultConfig(), events)
		require.NoError(t, err)

		// WHEN run
		testutil.Run(t, asm, time.Hour)

		// THEN the outcome is the priority-ordered one
		m := electricityOf(t, asm)
		assert.Equal(t, Heating, m.State(), "order %v", order)
		assert.Equal(t, 800.0, m.CurrentPower(), "order %v", order)
	}
}

func TestUnitTestAssembly_StopBeforeStart_AtSameInstant(t *testing.T) {
	// GIVEN heating, then StartCooling listed before StopHeating at one instant
	events := []sim.Event{
		sim.NewEvent(SwitchOn, time.Minute, nil),
		sim.NewEvent(StartHeating, 2*time.Minute, nil),
		sim.NewEvent(StartCooling, 3*time.Minute, nil),
		sim.NewEvent(StopHeating, 3*time.Minute, nil),
	}
	asm, err := UnitTestAssembly(DefaultConfig(), events)
	require.NoError(t, err)

	testutil.Run(t, asm, time.Hour)

	// THEN the stop is applied first and the switch to cooling is legal
	assert.Equal(t, Cooling, electricityOf(t, asm).State())
}

func TestUnitTestAssembly_IllegalEvent_AbortsRun(t *testing.T) {
	asm, err := UnitTestAssembly(DefaultConfig(), []sim.Event{sim.NewEvent(StopCooling, time.Minute, nil)})
	require.NoError(t, err)

	_, res, err := testutil.TryRun(asm, time.Hour)

	require.Error(t, err)
	var pe *sim.PreconditionError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "Off", pe.State)
	assert.Equal(t, StopCooling, pe.Event.Kind)
	assert.Equal(t, time.Minute, res.End)
}

func TestAssemblies_UnitTestAndIntegration_SameTrajectory(t *testing.T) {
	// GIVEN the same event stream for both wirings
	cfg := DefaultConfig()
	unit, err := UnitTestAssembly(cfg, fullCycle())
	require.NoError(t, err)
	bench, err := IntegrationBench(cfg)
	require.NoError(t, err)

	// WHEN one is driven by its generator and the other by injection
	urec, _ := testutil.Run(t, unit, 3*time.Hour)
	irec, _ := testutil.Run(t, bench, 3*time.Hour, fullCycle()...)

	// THEN discrete trajectories are identical and temperatures agree
	for _, id := range []string{ElectricityModelID, TemperatureModelID} {
		if diff := cmp.Diff(urec.TransitionsOf(id), irec.TransitionsOf(id)); diff != "" {
			t.Errorf("%s trajectory mismatch (-unit +integration):\n%s", id, diff)
		}
	}
	approx := cmpopts.EquateApprox(0, 1e-9)
	if diff := cmp.Diff(urec.Series(IndoorVariable), irec.Series(IndoorVariable), approx); diff != "" {
		t.Errorf("indoor temperature mismatch (-unit +integration):\n%s", diff)
	}
	if diff := cmp.Diff(urec.Series(PowerVariable), irec.Series(PowerVariable)); diff != "" {
		t.Errorf("power mismatch (-unit +integration):\n%s", diff)
	}
}

func TestIntegrationAssembly_WithoutOutdoor_IsNotRunnable(t *testing.T) {
	// GIVEN the integration assembly alone, its outdoor import unbound
	asm, err := IntegrationAssembly(DefaultConfig())
	require.NoError(t, err)

	// WHEN run
	_, _, err = testutil.TryRun(asm, time.Hour)

	// THEN variable initialization cannot complete
	assert.True(t, errors.Is(err, sim.ErrFixpointStalled))
}

func TestIntegrationAssembly_ReexportsVariables(t *testing.T) {
	asm, err := IntegrationAssembly(DefaultConfig())
	require.NoError(t, err)

	names := map[string]sim.Quantity{}
	for _, s := range asm.ExportedVariables() {
		names[s.Name] = s.Quantity
	}
	assert.Equal(t, map[string]sim.Quantity{IndoorVariable: sim.Temperature, PowerVariable: sim.Power}, names)
	assert.ElementsMatch(t, Vocabulary.Kinds(), asm.Imports())
}

type recordingInjector struct{ events []sim.Event }

func (r *recordingInjector) Inject(e sim.Event) error {
	r.events = append(r.events, e)
	return nil
}

func TestCommands_TranslateOneToOne(t *testing.T) {
	inj := &recordingInjector{}
	now := 42 * time.Second
	c := NewCommands(inj, func() time.Duration { return now })

	require.NoError(t, c.SwitchOn())
	require.NoError(t, c.SetPower(900))
	require.NoError(t, c.StartHeating())
	require.NoError(t, c.StopHeating())
	require.NoError(t, c.StartCooling())
	require.NoError(t, c.StopCooling())
	require.NoError(t, c.SwitchOff())

	require.Len(t, inj.events, 7)
	assert.Equal(t, []sim.EventKind{SwitchOn, SetPower, StartHeating, StopHeating, StartCooling, StopCooling, SwitchOff},
		[]sim.EventKind{inj.events[0].Kind, inj.events[1].Kind, inj.events[2].Kind, inj.events[3].Kind, inj.events[4].Kind, inj.events[5].Kind, inj.events[6].Kind})
	assert.Equal(t, 900.0, inj.events[1].Payload)
	for _, e := range inj.events {
		assert.Equal(t, now, e.Time)
	}
}
