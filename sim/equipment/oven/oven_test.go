package oven

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hioa-sim/hioa-sim/sim"
	"github.com/hioa-sim/hioa-sim/sim/engine"
	"github.com/hioa-sim/hioa-sim/sim/internal/testutil"
	"github.com/hioa-sim/hioa-sim/sim/scenario"
)

func newElectricity(t *testing.T) *ElectricityModel {
	t.Helper()
	m := NewElectricityModel(DefaultConfig())
	m.Initialize(0)
	_, pending := m.FixpointInitializeVariables()
	require.Equal(t, 0, pending)
	return m
}

func deliver(t *testing.T, m *ElectricityModel, elapsed time.Duration, e sim.Event) {
	t.Helper()
	require.NoError(t, m.ExternalTransition(elapsed, e))
	require.Equal(t, time.Duration(0), m.TimeAdvance())
	out := m.Output()
	require.Len(t, out, 1)
	assert.Equal(t, e.Kind, out[0].Kind, "re-broadcast of the delivered event")
	require.NoError(t, m.InternalTransition(0))
}

func TestHasPriorityOver_OvenRules(t *testing.T) {
	ev := func(k sim.EventKind) sim.Event { return sim.NewEvent(k, 0, nil) }
	assert.True(t, ev(SwitchOn).HasPriorityOver(ev(DoNotHeat)))
	assert.True(t, ev(DoNotHeat).HasPriorityOver(ev(Heat)))
	assert.True(t, ev(CancelDelayedStart).HasPriorityOver(ev(SetDelayedStart)))
	for _, k := range Vocabulary.Kinds() {
		if k != SwitchOff {
			assert.True(t, ev(k).HasPriorityOver(ev(SwitchOff)), "%s before SwitchOff", k)
		}
	}
}

func TestControl_SetModeDefrost_OverridesCustomTarget(t *testing.T) {
	// GIVEN an oven heating to a custom 50°C
	m := newElectricity(t)
	deliver(t, m, time.Minute, sim.NewEvent(SwitchOn, 0, nil))
	deliver(t, m, time.Minute, NewSetTargetTemperature(0, 50))
	deliver(t, m, time.Minute, sim.NewEvent(Heat, 0, nil))
	assert.Equal(t, 50.0, m.Target())
	deliver(t, m, time.Minute, sim.NewEvent(DoNotHeat, 0, nil))

	// WHEN the mode is set to DEFROST
	deliver(t, m, time.Minute, NewSetMode(0, Defrost))

	// THEN the target is the DEFROST preset
	assert.Equal(t, Defrost, m.Mode())
	assert.Equal(t, 40.0, m.Target())
	assert.Equal(t, On, m.State())
}

func TestControl_SetTargetTemperature_ReturnsToCustom(t *testing.T) {
	m := newElectricity(t)
	deliver(t, m, time.Minute, sim.NewEvent(SwitchOn, 0, nil))
	deliver(t, m, time.Minute, NewSetMode(0, Grill))
	assert.Equal(t, 220.0, m.Target())

	deliver(t, m, time.Minute, NewSetTargetTemperature(0, 150))

	assert.Equal(t, Custom, m.Mode())
	assert.Equal(t, 150.0, m.Target())
}

func TestControl_SetTargetOutOfRange_IsPreconditionViolation(t *testing.T) {
	m := newElectricity(t)
	deliver(t, m, time.Minute, sim.NewEvent(SwitchOn, 0, nil))

	err := m.ExternalTransition(time.Minute, NewSetTargetTemperature(0, 900))

	var pe *sim.PreconditionError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "On", pe.State)
}

func TestElectricityModel_DelayedStart_EmitsHeatOnce(t *testing.T) {
	// GIVEN an oven programmed to start in 30 minutes
	m := newElectricity(t)
	deliver(t, m, time.Minute, sim.NewEvent(SwitchOn, 0, nil))
	deliver(t, m, time.Minute, NewSetDelayedStart(0, 30*time.Minute))
	assert.Equal(t, Waiting, m.State())

	// WHEN the delay elapses
	require.Equal(t, 30*time.Minute, m.TimeAdvance())
	out := m.Output()
	require.NoError(t, m.InternalTransition(30*time.Minute))

	// THEN exactly one Heat is emitted at the programmed time and the oven heats
	require.Len(t, out, 1)
	assert.Equal(t, Heat, out[0].Kind)
	assert.Equal(t, 32*time.Minute, out[0].Time)
	assert.Equal(t, Heating, m.State())
	assert.Equal(t, sim.Infinity, m.TimeAdvance())
	assert.Empty(t, m.Output())
	assert.Equal(t, DefaultConfig().MaxPower, m.CurrentPower())
}

func TestElectricityModel_CancelBeforeDelay_EmitsNothing(t *testing.T) {
	m := newElectricity(t)
	deliver(t, m, time.Minute, sim.NewEvent(SwitchOn, 0, nil))
	deliver(t, m, time.Minute, NewSetDelayedStart(0, 30*time.Minute))

	deliver(t, m, 29*time.Minute, sim.NewEvent(CancelDelayedStart, 0, nil))

	assert.Equal(t, On, m.State())
	assert.Equal(t, sim.Infinity, m.TimeAdvance())
	assert.Empty(t, m.Output())
	fired, _ := m.FinalReport().Stat("delayed_starts_fired")
	assert.Equal(t, 0.0, fired)
}

func TestElectricityModel_ZeroDelay_IsPreconditionViolation(t *testing.T) {
	m := newElectricity(t)
	deliver(t, m, time.Minute, sim.NewEvent(SwitchOn, 0, nil))

	err := m.ExternalTransition(time.Minute, NewSetDelayedStart(0, 0))

	assert.True(t, errors.Is(err, sim.ErrPreconditionViolation))
}

// heatCounter counts Heat events emitted at the root boundary.
type heatCounter struct{ times []time.Duration }

func (h *heatCounter) OnStep(info sim.StepInfo) {
	for _, e := range info.Outputs {
		if e.Kind == Heat {
			h.times = append(h.times, e.Time)
		}
	}
}

func runIntegration(t *testing.T, end time.Duration, events ...sim.Event) (*heatCounter, engine.Result, error) {
	t.Helper()
	asm, err := IntegrationAssembly(DefaultConfig())
	require.NoError(t, err)
	counter := &heatCounter{}
	eng, err := engine.New(asm, engine.Config{End: end}, engine.WithObserver(counter))
	require.NoError(t, err)
	for _, e := range events {
		require.NoError(t, eng.Inject(e))
	}
	res, err := eng.Run()
	return counter, res, err
}

func TestIntegrationAssembly_DelayedStart_ReexportsOneHeat(t *testing.T) {
	counter, _, err := runIntegration(t, 2*time.Hour,
		sim.NewEvent(SwitchOn, time.Minute, nil),
		NewSetDelayedStart(2*time.Minute, 30*time.Minute),
	)

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{32 * time.Minute}, counter.times)
}

func TestIntegrationAssembly_CancelStrictlyBeforeDelay_NoHeat(t *testing.T) {
	counter, res, err := runIntegration(t, 2*time.Hour,
		sim.NewEvent(SwitchOn, time.Minute, nil),
		NewSetDelayedStart(2*time.Minute, 30*time.Minute),
		sim.NewEvent(CancelDelayedStart, 32*time.Minute-time.Second, nil),
	)

	require.NoError(t, err)
	assert.Empty(t, counter.times)
	elec, ok := res.Report.Find(ElectricityModelID)
	require.True(t, ok)
	fired, _ := elec.Stat("delayed_starts_fired")
	assert.Equal(t, 0.0, fired)
}

func TestIntegrationAssembly_CancelAtDelay_ArrivesAfterHeat(t *testing.T) {
	// GIVEN a cancel at exactly the programmed start time
	counter, _, err := runIntegration(t, 2*time.Hour,
		sim.NewEvent(SwitchOn, time.Minute, nil),
		NewSetDelayedStart(2*time.Minute, 30*time.Minute),
		sim.NewEvent(CancelDelayedStart, 32*time.Minute, nil),
	)

	// THEN the start fires first and the cancel finds the oven heating
	assert.Equal(t, []time.Duration{32 * time.Minute}, counter.times)
	var pe *sim.PreconditionError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "Heating", pe.State)
}

func TestUnitTestAssembly_Bake_ConvergesToEquilibrium(t *testing.T) {
	// GIVEN an oven baking for two hours
	events := []sim.Event{
		sim.NewEvent(SwitchOn, 0, nil),
		NewSetMode(0, Bake),
		sim.NewEvent(Heat, 0, nil),
	}
	asm, err := UnitTestAssembly(DefaultConfig(), events)
	require.NoError(t, err)

	rec, _ := testutil.Run(t, asm, 2*time.Hour)

	// THEN the cavity settles where the drive balances the loss: (8·200+20)/9
	series := rec.Series(TemperatureVariable)
	require.NotEmpty(t, series)
	assert.InDelta(t, 180.0, series[len(series)-1], 0.5)
	temp, _ := asm.Model(TemperatureModelID)
	assert.Equal(t, "Heating", temp.(*TemperatureModel).DiscreteState())
}

func TestAssemblies_UnitTestAndIntegration_SameTrajectory(t *testing.T) {
	events := func() []sim.Event {
		return []sim.Event{
			sim.NewEvent(SwitchOn, time.Minute, nil),
			NewSetTargetTemperature(2*time.Minute, 50),
			sim.NewEvent(Heat, 3*time.Minute, nil),
			sim.NewEvent(DoNotHeat, 20*time.Minute, nil),
			NewSetMode(21*time.Minute, Defrost),
			NewSetDelayedStart(22*time.Minute, 15*time.Minute),
			sim.NewEvent(SwitchOff, 90*time.Minute, nil),
		}
	}
	unit, err := UnitTestAssembly(DefaultConfig(), events())
	require.NoError(t, err)
	integ, err := IntegrationAssembly(DefaultConfig())
	require.NoError(t, err)

	urec, _ := testutil.Run(t, unit, 2*time.Hour)
	irec, _ := testutil.Run(t, integ, 2*time.Hour, events()...)

	for _, id := range []string{ElectricityModelID, TemperatureModelID} {
		if diff := cmp.Diff(urec.TransitionsOf(id), irec.TransitionsOf(id)); diff != "" {
			t.Errorf("%s trajectory mismatch (-unit +integration):\n%s", id, diff)
		}
	}
	var states []string
	for _, tr := range urec.TransitionsOf(ElectricityModelID) {
		states = append(states, tr.State)
	}
	assert.Equal(t, []string{"Off", "On", "Heating", "On", "Waiting", "Heating", "Off"}, states)
}

func TestEventFromSpec_DecodesPayloads(t *testing.T) {
	e, err := EventFromSpec(scenario.EventSpec{Kind: "SetMode", Mode: "defrost"})
	require.NoError(t, err)
	assert.Equal(t, Defrost, e.Payload)

	e, err = EventFromSpec(scenario.EventSpec{Kind: "SetDelayedStart", Delay: time.Hour})
	require.NoError(t, err)
	assert.Equal(t, time.Hour, e.Payload)

	_, err = EventFromSpec(scenario.EventSpec{Kind: "SetDelayedStart"})
	assert.True(t, errors.Is(err, sim.ErrPayload))

	_, err = EventFromSpec(scenario.EventSpec{Kind: "SetMode", Mode: "sous-vide"})
	assert.True(t, errors.Is(err, sim.ErrInvalidConfig))

	e, err = EventFromSpec(scenario.EventSpec{Kind: "SetTargetTemperature", Temperature: testutil.Ptr(90.0)})
	require.NoError(t, err)
	assert.Equal(t, 90.0, e.Payload)
}

type recordingInjector struct{ events []sim.Event }

func (r *recordingInjector) Inject(e sim.Event) error {
	r.events = append(r.events, e)
	return nil
}

func TestCommands_TranslateOneToOne(t *testing.T) {
	// GIVEN a command facade stamping events at 5m
	inj := &recordingInjector{}
	c := NewCommands(inj, func() time.Duration { return 5 * time.Minute })

	// WHEN every command is called once
	require.NoError(t, c.SwitchOn())
	require.NoError(t, c.SetMode(Grill))
	require.NoError(t, c.SetTargetTemperature(190))
	require.NoError(t, c.SetDelayedStart(20*time.Minute))
	require.NoError(t, c.CancelDelayedStart())
	require.NoError(t, c.Heat())
	require.NoError(t, c.DoNotHeat())
	require.NoError(t, c.SwitchOff())

	// THEN each call injects exactly one event of the matching kind
	var kinds []sim.EventKind
	for _, e := range inj.events {
		kinds = append(kinds, e.Kind)
		assert.Equal(t, 5*time.Minute, e.Time)
	}
	assert.Equal(t, []sim.EventKind{SwitchOn, SetMode, SetTargetTemperature, SetDelayedStart, CancelDelayedStart, Heat, DoNotHeat, SwitchOff}, kinds)
	assert.Equal(t, Grill, inj.events[1].Payload)
	assert.Equal(t, 190.0, inj.events[2].Payload)
	assert.Equal(t, 20*time.Minute, inj.events[3].Payload)
}
