package sim

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariable_EvaluateAt_ExactAtTimestamp(t *testing.T) {
	// GIVEN a variable set with a large derivative at an awkward timestamp
	v := NewVariable("T", Temperature)
	ts := 37*time.Minute + 13*time.Millisecond
	v.Set(21.123456789, 1e6, ts)

	// THEN evaluation at the timestamp returns the stored value bit for bit
	assert.Equal(t, 21.123456789, v.EvaluateAt(ts))
}

func TestVariable_EvaluateAt_LinearExtrapolation(t *testing.T) {
	v := NewVariable("T", Temperature)
	v.Set(10, 2, time.Hour) // 2 °C per hour

	assert.InDelta(t, 11, v.EvaluateAt(90*time.Minute), 1e-12)
	assert.InDelta(t, 16, v.EvaluateAt(4*time.Hour), 1e-12)
}

func TestVariable_Reset_Uninitializes(t *testing.T) {
	v := NewVariable("P", Power)
	v.Set(1, 0, 0)
	require.True(t, v.Initialized())

	v.Reset()

	assert.False(t, v.Initialized())
	assert.Equal(t, VariableSpec{Name: "P", Quantity: Power}, v.Spec())
}

func TestAddTime_SaturatesAtInfinity(t *testing.T) {
	assert.Equal(t, 2*time.Second, AddTime(time.Second, time.Second))
	assert.Equal(t, Infinity, AddTime(time.Second, Infinity))
	assert.Equal(t, Infinity, AddTime(Infinity, 0))
	assert.Equal(t, Infinity, AddTime(Infinity-time.Second, time.Hour))
}

type switchState int

func (s switchState) String() string { return [...]string{"Off", "On"}[s] }

func TestAtomicBase_BindImport_ChecksDeclarationAndQuantity(t *testing.T) {
	b := NewAtomicBase("m", nil, nil, []VariableSpec{{Name: "Power", Quantity: Power}})

	require.NoError(t, b.BindImport("Power", NewVariable("Power", Power)))
	assert.NotNil(t, b.Import("Power"))

	err := b.BindImport("Power", NewVariable("Power", Temperature))
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	err = b.BindImport("Other", NewVariable("Other", Power))
	assert.True(t, errors.Is(err, ErrUnknownVariable))
}

func TestAtomicBase_InitializeBase_ResetsExportsAndClock(t *testing.T) {
	out := NewVariable("Out", Power)
	b := NewAtomicBase("m", nil, nil, nil, out)
	out.Set(5, 0, time.Minute)
	b.Advance(time.Hour)

	b.InitializeBase(time.Minute)

	assert.False(t, out.Initialized())
	assert.Equal(t, time.Minute, b.Now())
	assert.Equal(t, []VariableSpec{{Name: "Out", Quantity: Power}}, b.ExportedVariables())
	v, ok := b.ExportedVariable("Out")
	assert.True(t, ok)
	assert.Same(t, out, v)
}

func TestAtomicBase_Violation_IsPreconditionError(t *testing.T) {
	_, on, _, _, _ := testVocabulary()
	b := NewAtomicBase("lamp", []EventKind{on}, nil, nil)

	err := b.Violation(switchState(1), NewEvent(on, time.Minute, nil), "already on")

	assert.True(t, errors.Is(err, ErrPreconditionViolation))
	var pe *PreconditionError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "lamp", pe.Model)
	assert.Equal(t, "On", pe.State)
	assert.Contains(t, err.Error(), "test.On@1m0s")
	assert.Contains(t, err.Error(), "already on")
	assert.True(t, b.Accepts(on))
}

func TestTransitionTable_Allows(t *testing.T) {
	_, on, _, _, off := testVocabulary()
	table := TransitionTable[switchState]{
		on:  {0},
		off: {1},
	}

	assert.True(t, table.Allows(on, 0))
	assert.False(t, table.Allows(on, 1))
	assert.True(t, table.Allows(off, 1))
	assert.False(t, table.Allows(EventKind{Name: "unknown"}, 0))
}

func TestReport_FindAndPrint(t *testing.T) {
	r := Report{
		ModelID: "root",
		Children: []Report{
			{ModelID: "leaf", Stats: []Stat{{Name: "energy", Value: 1.5, Unit: "kWh"}}},
		},
	}

	leaf, ok := r.Find("leaf")
	require.True(t, ok)
	v, ok := leaf.Stat("energy")
	assert.True(t, ok)
	assert.Equal(t, 1.5, v)
	_, ok = r.Find("missing")
	assert.False(t, ok)

	var sb strings.Builder
	r.Print(&sb)
	assert.Contains(t, sb.String(), "=== root ===")
	assert.Contains(t, sb.String(), "  === leaf ===")
	assert.Contains(t, sb.String(), "1.5000 kWh")
}
