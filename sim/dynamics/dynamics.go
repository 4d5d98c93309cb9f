// Package dynamics holds the explicit Euler integration and the thermal
// derivative terms shared by the equipment models.
package dynamics

import (
	"math"
	"time"
)

// Kelvin offset used by the coefficient of performance.
const Kelvin = 273.15

// Drive selects the active term of a heat pump derivative.
type Drive int

const (
	Idle Drive = iota
	Heating
	Cooling
)

// EulerStep advances value by derivative (per hour) over elapsed.
func EulerStep(value, derivative float64, elapsed time.Duration) float64 {
	return value + derivative*elapsed.Hours()
}

// PassiveLoss is the ambient exchange term (ambient − current)/τ, per hour.
func PassiveLoss(ambient, current float64, tau time.Duration) float64 {
	if tau <= 0 {
		return 0
	}
	return (ambient - current) / tau.Hours()
}

// HeatPumpParams are the constants of the heat pump active term.
type HeatPumpParams struct {
	MaxPower     float64 // W
	MinPower     float64 // W, below which the active term is zero
	TransferRate float64 // °C per hour per unit of COP at full power
	MaxCOP       float64
	MinDelta     float64 // K, below which the COP is clamped to MaxCOP
}

// COP returns the coefficient of performance from the ratio of the inside to
// the outside absolute temperature, r/|r−1|, clamped to [1, maxCOP]. When the
// differential is below minDelta the ratio is not used and maxCOP is returned.
func COP(inside, outside, maxCOP, minDelta float64) float64 {
	in, out := inside+Kelvin, outside+Kelvin
	if math.Abs(in-out) < minDelta || out <= 0 {
		return maxCOP
	}
	r := in / out
	cop := r / math.Abs(r-1)
	return math.Max(1, math.Min(cop, maxCOP))
}

// HeatPumpActive is the driving term of the indoor temperature derivative.
// Heating and cooling differ only in sign.
func HeatPumpActive(drive Drive, power, inside, outside float64, p HeatPumpParams) float64 {
	if drive == Idle || power < p.MinPower || p.MaxPower <= 0 {
		return 0
	}
	term := (power / p.MaxPower) * COP(inside, outside, p.MaxCOP, p.MinDelta) * p.TransferRate
	if drive == Cooling {
		return -term
	}
	return term
}

// TargetDrive pulls current toward target with time constant tau, scaled by
// the power fraction. Zero below minPower.
func TargetDrive(target, current, power, maxPower, minPower float64, tau time.Duration) float64 {
	if power < minPower || maxPower <= 0 || tau <= 0 {
		return 0
	}
	return (target - current) * (power / maxPower) / tau.Hours()
}
