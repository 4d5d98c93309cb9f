// Package house assembles every appliance integration assembly, the
// outdoor temperature and the electric meter into one coupled model that a
// home controller drives by injecting appliance events.
package house

import (
	"github.com/hioa-sim/hioa-sim/sim"
	"github.com/hioa-sim/hioa-sim/sim/coupled"
	"github.com/hioa-sim/hioa-sim/sim/equipment/dimmer"
	"github.com/hioa-sim/hioa-sim/sim/equipment/fan"
	"github.com/hioa-sim/hioa-sim/sim/equipment/heatpump"
	"github.com/hioa-sim/hioa-sim/sim/equipment/meter"
	"github.com/hioa-sim/hioa-sim/sim/equipment/outdoor"
	"github.com/hioa-sim/hioa-sim/sim/equipment/oven"
)

// ID identifies the house assembly.
const ID = "house"

// Config gathers the configuration of every appliance.
type Config struct {
	HeatPump heatpump.Config `yaml:"heatpump"`
	Oven     oven.Config     `yaml:"oven"`
	Dimmer   dimmer.Config   `yaml:"dimmer"`
	Fan      fan.Config      `yaml:"fan"`
	Outdoor  outdoor.Config  `yaml:"outdoor"`
	Meter    meter.Config    `yaml:"meter"`
}

// DefaultConfig returns the default of every appliance.
func DefaultConfig() Config {
	return Config{
		HeatPump: heatpump.DefaultConfig(),
		Oven:     oven.DefaultConfig(),
		Dimmer:   dimmer.DefaultConfig(),
		Fan:      fan.DefaultConfig(),
		Outdoor:  outdoor.DefaultConfig(),
		Meter:    meter.DefaultConfig(),
	}
}

// Validate checks the appliance configurations.
func (c Config) Validate() error {
	for _, v := range []interface{ Validate() error }{c.HeatPump, c.Oven, c.Dimmer, c.Fan, c.Outdoor, c.Meter} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

type appliance struct {
	id         string
	vocabulary *sim.Vocabulary
	power      string
}

var appliances = []appliance{
	{heatpump.IntegrationID, heatpump.Vocabulary, heatpump.PowerVariable},
	{oven.IntegrationID, oven.Vocabulary, oven.PowerVariable},
	{dimmer.IntegrationID, dimmer.Vocabulary, dimmer.PowerVariable},
	{fan.IntegrationID, fan.Vocabulary, fan.PowerVariable},
}

// Assembly builds the house.
func Assembly(cfg Config) (*coupled.Coupled, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	hp, err := heatpump.IntegrationAssembly(cfg.HeatPump)
	if err != nil {
		return nil, err
	}
	ov, err := oven.IntegrationAssembly(cfg.Oven)
	if err != nil {
		return nil, err
	}
	lamp, err := dimmer.IntegrationAssembly(cfg.Dimmer)
	if err != nil {
		return nil, err
	}
	fn, err := fan.IntegrationAssembly(cfg.Fan)
	if err != nil {
		return nil, err
	}

	var (
		imports  []coupled.BoundaryImport
		bindings []coupled.Binding
		powers   []string
	)
	for _, a := range appliances {
		for _, k := range a.vocabulary.Kinds() {
			imports = append(imports, coupled.BoundaryImport{Kind: k, To: []string{a.id}})
		}
		bindings = append(bindings, coupled.Binding{
			Name: a.power,
			From: a.id,
			To:   []coupled.Target{{Name: a.power, Model: meter.ModelID}},
		})
		powers = append(powers, a.power)
	}
	bindings = append(bindings, coupled.Binding{
		Name: outdoor.Variable,
		From: outdoor.ModelID,
		To:   []coupled.Target{{Name: outdoor.Variable, Model: heatpump.IntegrationID}},
	})

	return coupled.New(coupled.Spec{
		ID: ID,
		Models: []sim.Model{
			hp, ov, lamp, fn,
			outdoor.NewModel(outdoor.ModelID, cfg.Outdoor),
			meter.NewMeter(meter.ModelID, cfg.Meter, powers...),
		},
		Bindings:  bindings,
		Imports:   imports,
		Reexports: []coupled.EventReexport{{Kind: oven.Heat, From: oven.IntegrationID}},
		VariableReexports: []coupled.VariableReexport{
			{Name: meter.Variable, From: meter.ModelID, As: meter.Variable},
			{Name: heatpump.IndoorVariable, From: heatpump.IntegrationID, As: heatpump.IndoorVariable},
			{Name: oven.TemperatureVariable, From: oven.IntegrationID, As: oven.TemperatureVariable},
			{Name: outdoor.Variable, From: outdoor.ModelID, As: outdoor.Variable},
		},
	})
}

// Vocabularies lists the vocabularies the house imports.
func Vocabularies() []*sim.Vocabulary {
	out := make([]*sim.Vocabulary, len(appliances))
	for i, a := range appliances {
		out[i] = a.vocabulary
	}
	return out
}
