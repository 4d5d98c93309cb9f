package heatpump

import (
	"fmt"
	"time"

	"github.com/hioa-sim/hioa-sim/sim"
	"github.com/hioa-sim/hioa-sim/sim/dynamics"
	"github.com/hioa-sim/hioa-sim/sim/equipment/outdoor"
)

// Config holds the heat pump constants. Passed explicitly to every model.
type Config struct {
	MaxPower     float64       `yaml:"max_power"`     // W
	MinPower     float64       `yaml:"min_power"`     // W, active term is zero below
	StandbyPower float64       `yaml:"standby_power"` // W drawn while On
	TransferRate float64       `yaml:"transfer_rate"` // °C/h per unit of COP at full power
	MaxCOP       float64       `yaml:"max_cop"`
	MinDelta     float64       `yaml:"min_delta"` // K
	Insulation   time.Duration `yaml:"insulation"`
	Step         time.Duration `yaml:"step"`
	// InitialIndoor overrides the indoor temperature at start; by default
	// the house starts at the outdoor temperature.
	InitialIndoor *float64       `yaml:"initial_indoor"`
	Outdoor       outdoor.Config `yaml:"outdoor"`
}

// DefaultConfig returns a 2 kW air-to-air heat pump.
func DefaultConfig() Config {
	initial := 19.0
	return Config{
		MaxPower:      2000,
		MinPower:      10,
		StandbyPower:  5,
		TransferRate:  0.5,
		MaxCOP:        6,
		MinDelta:      0.5,
		Insulation:    12 * time.Hour,
		Step:          time.Minute,
		InitialIndoor: &initial,
		Outdoor:       outdoor.DefaultConfig(),
	}
}

// Validate checks parameter ranges.
func (c Config) Validate() error {
	if c.MaxPower <= 0 {
		return fmt.Errorf("%w: heatpump max_power must be positive, got %g", sim.ErrInvalidConfig, c.MaxPower)
	}
	if c.MinPower < 0 || c.MinPower > c.MaxPower {
		return fmt.Errorf("%w: heatpump min_power must be in [0, %g], got %g", sim.ErrInvalidConfig, c.MaxPower, c.MinPower)
	}
	if c.StandbyPower < 0 {
		return fmt.Errorf("%w: heatpump standby_power must be non-negative, got %g", sim.ErrInvalidConfig, c.StandbyPower)
	}
	if c.MaxCOP < 1 {
		return fmt.Errorf("%w: heatpump max_cop must be at least 1, got %g", sim.ErrInvalidConfig, c.MaxCOP)
	}
	if c.Insulation <= 0 || c.Step <= 0 {
		return fmt.Errorf("%w: heatpump insulation and step must be positive", sim.ErrInvalidConfig)
	}
	return c.Outdoor.Validate()
}

func (c Config) params() dynamics.HeatPumpParams {
	return dynamics.HeatPumpParams{
		MaxPower:     c.MaxPower,
		MinPower:     c.MinPower,
		TransferRate: c.TransferRate,
		MaxCOP:       c.MaxCOP,
		MinDelta:     c.MinDelta,
	}
}
