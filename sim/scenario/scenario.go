// Package scenario loads YAML scenario files and provides the synthetic
// event generator used by unit-test assemblies.
package scenario

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hioa-sim/hioa-sim/sim"
)

// EventSpec is one scheduled event as written in a scenario file. Only the
// payload field relevant to Kind is read.
type EventSpec struct {
	At          time.Duration `yaml:"at"`
	Kind        string        `yaml:"kind"`
	Power       *float64      `yaml:"power,omitempty"`
	Temperature *float64      `yaml:"temperature,omitempty"`
	Mode        string        `yaml:"mode,omitempty"`
	Delay       time.Duration `yaml:"delay,omitempty"`
}

// Assembly selects how the equipment is driven.
type Assembly string

const (
	// UnitTest drives the equipment from the synthetic generator.
	UnitTest Assembly = "unit-test"
	// Integration re-exports the equipment events so they are injected from outside.
	Integration Assembly = "integration"
)

// Scenario describes one run.
type Scenario struct {
	Equipment    string        `yaml:"equipment"`
	Assembly     Assembly      `yaml:"assembly"`
	Start        time.Duration `yaml:"start"`
	End          time.Duration `yaml:"end"`
	Acceleration float64       `yaml:"acceleration"`
	Events       []EventSpec   `yaml:"events"`
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes a scenario strictly: unknown keys are rejected.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if s.Assembly == "" {
		s.Assembly = UnitTest
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	sort.SliceStable(s.Events, func(i, j int) bool { return s.Events[i].At < s.Events[j].At })
	return &s, nil
}

// Validate checks the run window and event times.
func (s *Scenario) Validate() error {
	if s.Equipment == "" {
		return fmt.Errorf("%w: scenario without equipment", sim.ErrInvalidConfig)
	}
	if s.Assembly != UnitTest && s.Assembly != Integration {
		return fmt.Errorf("%w: unknown assembly %q", sim.ErrInvalidConfig, s.Assembly)
	}
	if s.End <= s.Start {
		return fmt.Errorf("%w: end %s must be after start %s", sim.ErrInvalidConfig, s.End, s.Start)
	}
	if s.Acceleration < 0 {
		return fmt.Errorf("%w: acceleration must be non-negative, got %g", sim.ErrInvalidConfig, s.Acceleration)
	}
	for i, e := range s.Events {
		if e.Kind == "" {
			return fmt.Errorf("%w: event %d has no kind", sim.ErrInvalidConfig, i)
		}
		if e.At < s.Start || e.At > s.End {
			return fmt.Errorf("%w: event %d (%s) at %s outside [%s, %s]", sim.ErrInvalidConfig, i, e.Kind, e.At, s.Start, s.End)
		}
	}
	return nil
}

// Decoder turns an EventSpec into an event of one vocabulary.
type Decoder func(EventSpec) (sim.Event, error)

// Decode decodes every event of the scenario.
func (s *Scenario) Decode(decode Decoder) ([]sim.Event, error) {
	return DecodeAll(s.Events, decode)
}

// DecodeAll decodes specs in order.
func DecodeAll(specs []EventSpec, decode Decoder) ([]sim.Event, error) {
	events := make([]sim.Event, 0, len(specs))
	for i, spec := range specs {
		e, err := decode(spec)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		events = append(events, e)
	}
	return events, nil
}

// RequirePower returns the power payload of spec.
func RequirePower(spec EventSpec) (float64, error) {
	if spec.Power == nil {
		return 0, fmt.Errorf("%w: %s requires power", sim.ErrPayload, spec.Kind)
	}
	return *spec.Power, nil
}

// RequireTemperature returns the temperature payload of spec.
func RequireTemperature(spec EventSpec) (float64, error) {
	if spec.Temperature == nil {
		return 0, fmt.Errorf("%w: %s requires temperature", sim.ErrPayload, spec.Kind)
	}
	return *spec.Temperature, nil
}
