package sim

import (
	"fmt"
	"time"
)

// Quantity is the physical type of a continuous variable. Bindings must
// agree on it at both ends.
type Quantity string

const (
	Temperature Quantity = "temperature" // °C
	Power       Quantity = "power"       // W
)

// VariableSpec declares an imported or exported variable.
type VariableSpec struct {
	Name     string
	Quantity Quantity
}

func (s VariableSpec) String() string {
	return fmt.Sprintf("%s(%s)", s.Name, s.Quantity)
}

// VariableReader is the read-only, time-evaluated view held by importers.
type VariableReader interface {
	Name() string
	Quantity() Quantity
	Initialized() bool
	EvaluateAt(t time.Duration) float64
}

// Variable is a time-stamped value with a derivative per hour. It is
// mutated only by its owning model, at transition boundaries.
type Variable struct {
	spec        VariableSpec
	value       float64
	derivative  float64
	time        time.Duration
	initialized bool
}

// NewVariable creates an uninitialized variable.
func NewVariable(name string, q Quantity) *Variable {
	return &Variable{spec: VariableSpec{Name: name, Quantity: q}}
}

func (v *Variable) Name() string       { return v.spec.Name }
func (v *Variable) Quantity() Quantity { return v.spec.Quantity }
func (v *Variable) Spec() VariableSpec { return v.spec }
func (v *Variable) Initialized() bool  { return v.initialized }
func (v *Variable) Value() float64     { return v.value }
func (v *Variable) Derivative() float64 {
	return v.derivative
}

// Time returns the timestamp of the last update.
func (v *Variable) Time() time.Duration { return v.time }

// Set records a new value and derivative at time t and marks the variable initialized.
func (v *Variable) Set(value, derivative float64, t time.Duration) {
	v.value = value
	v.derivative = derivative
	v.time = t
	v.initialized = true
}

// Reset marks the variable uninitialized.
func (v *Variable) Reset() {
	v.value, v.derivative, v.time = 0, 0, 0
	v.initialized = false
}

// EvaluateAt extrapolates linearly from the last update:
// value + derivative·(t − timestamp), with the elapsed time in hours.
func (v *Variable) EvaluateAt(t time.Duration) float64 {
	if t == v.time {
		return v.value
	}
	return v.value + v.derivative*(t-v.time).Hours()
}
