package oven

import (
	"fmt"
	"time"

	"github.com/hioa-sim/hioa-sim/sim"
)

// Config holds the oven constants.
type Config struct {
	MaxPower          float64       `yaml:"max_power"`     // W
	MinPower          float64       `yaml:"min_power"`     // W, drive is zero below
	StandbyPower      float64       `yaml:"standby_power"` // W while On or Waiting
	DefrostPowerRatio float64       `yaml:"defrost_power_ratio"`
	HeatingTau        time.Duration `yaml:"heating_tau"`
	Insulation        time.Duration `yaml:"insulation"`
	Room              float64       `yaml:"room"` // °C
	DefaultTarget     float64       `yaml:"default_target"`
	MinTarget         float64       `yaml:"min_target"`
	MaxTarget         float64       `yaml:"max_target"`
	// Presets maps mode names to their imposed target temperature.
	Presets map[string]float64 `yaml:"presets"`
	Step    time.Duration      `yaml:"step"`
}

// DefaultConfig returns a 2.5 kW domestic oven.
func DefaultConfig() Config {
	return Config{
		MaxPower:          2500,
		MinPower:          10,
		StandbyPower:      2,
		DefrostPowerRatio: 0.4,
		HeatingTau:        15 * time.Minute,
		Insulation:        2 * time.Hour,
		Room:              20,
		DefaultTarget:     180,
		MinTarget:         30,
		MaxTarget:         300,
		Presets: map[string]float64{
			Defrost.String():    40,
			Grill.String():      220,
			Convection.String(): 180,
			Bake.String():       200,
		},
		Step: 30 * time.Second,
	}
}

// Preset returns the target imposed by mode.
func (c Config) Preset(mode Mode) float64 {
	if v, ok := c.Presets[mode.String()]; ok {
		return v
	}
	return c.DefaultTarget
}

// Validate checks parameter ranges.
func (c Config) Validate() error {
	if c.MaxPower <= 0 {
		return fmt.Errorf("%w: oven max_power must be positive, got %g", sim.ErrInvalidConfig, c.MaxPower)
	}
	if c.DefrostPowerRatio <= 0 || c.DefrostPowerRatio > 1 {
		return fmt.Errorf("%w: oven defrost_power_ratio must be in (0, 1], got %g", sim.ErrInvalidConfig, c.DefrostPowerRatio)
	}
	if c.HeatingTau <= 0 || c.Insulation <= 0 || c.Step <= 0 {
		return fmt.Errorf("%w: oven heating_tau, insulation and step must be positive", sim.ErrInvalidConfig)
	}
	if c.MinTarget > c.MaxTarget {
		return fmt.Errorf("%w: oven min_target %g above max_target %g", sim.ErrInvalidConfig, c.MinTarget, c.MaxTarget)
	}
	for name, v := range c.Presets {
		if _, err := ParseMode(name); err != nil {
			return err
		}
		if v < c.MinTarget || v > c.MaxTarget {
			return fmt.Errorf("%w: oven preset %s=%g outside [%g, %g]", sim.ErrInvalidConfig, name, v, c.MinTarget, c.MaxTarget)
		}
	}
	return nil
}
