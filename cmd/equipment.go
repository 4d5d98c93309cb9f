package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hioa-sim/hioa-sim/sim"
	"github.com/hioa-sim/hioa-sim/sim/coupled"
	"github.com/hioa-sim/hioa-sim/sim/equipment/dimmer"
	"github.com/hioa-sim/hioa-sim/sim/equipment/fan"
	"github.com/hioa-sim/hioa-sim/sim/equipment/heatpump"
	"github.com/hioa-sim/hioa-sim/sim/equipment/house"
	"github.com/hioa-sim/hioa-sim/sim/equipment/oven"
	"github.com/hioa-sim/hioa-sim/sim/scenario"
)

// equipment knows how to decode the scenario events of one equipment and
// build its two assemblies.
type equipment struct {
	vocabularies []*sim.Vocabulary
	decode       scenario.Decoder
	unitTest     func(cfg house.Config, events []sim.Event) (sim.Model, error)
	integration  func(cfg house.Config) (sim.Model, error)
}

var registry = map[string]equipment{
	"heatpump": {
		vocabularies: []*sim.Vocabulary{heatpump.Vocabulary},
		decode:       heatpump.EventFromSpec,
		unitTest: func(cfg house.Config, events []sim.Event) (sim.Model, error) {
			return heatpump.UnitTestAssembly(cfg.HeatPump, events)
		},
		// the bare integration assembly imports the outdoor temperature
		integration: func(cfg house.Config) (sim.Model, error) { return heatpump.IntegrationBench(cfg.HeatPump) },
	},
	"oven": {
		vocabularies: []*sim.Vocabulary{oven.Vocabulary},
		decode:       oven.EventFromSpec,
		unitTest: func(cfg house.Config, events []sim.Event) (sim.Model, error) {
			return oven.UnitTestAssembly(cfg.Oven, events)
		},
		integration: func(cfg house.Config) (sim.Model, error) { return oven.IntegrationAssembly(cfg.Oven) },
	},
	"dimmer": {
		vocabularies: []*sim.Vocabulary{dimmer.Vocabulary},
		decode:       dimmer.EventFromSpec,
		unitTest: func(cfg house.Config, events []sim.Event) (sim.Model, error) {
			return dimmer.UnitTestAssembly(cfg.Dimmer, events)
		},
		integration: func(cfg house.Config) (sim.Model, error) { return dimmer.IntegrationAssembly(cfg.Dimmer) },
	},
	"fan": {
		vocabularies: []*sim.Vocabulary{fan.Vocabulary},
		decode:       fan.EventFromSpec,
		unitTest: func(cfg house.Config, events []sim.Event) (sim.Model, error) {
			return fan.UnitTestAssembly(cfg.Fan, events)
		},
		integration: func(cfg house.Config) (sim.Model, error) { return fan.IntegrationAssembly(cfg.Fan) },
	},
	"house": {
		vocabularies: house.Vocabularies(),
		decode:       decodeHouseEvent,
		unitTest: func(cfg house.Config, events []sim.Event) (sim.Model, error) {
			h, err := house.Assembly(cfg)
			if err != nil {
				return nil, err
			}
			return driven(h, events)
		},
		integration: func(cfg house.Config) (sim.Model, error) { return house.Assembly(cfg) },
	},
}

// houseDecoders maps a vocabulary name to its decoder; house scenarios
// qualify kinds as "<vocabulary>.<kind>".
var houseDecoders = map[string]scenario.Decoder{
	heatpump.Vocabulary.Name(): heatpump.EventFromSpec,
	oven.Vocabulary.Name():     oven.EventFromSpec,
	dimmer.Vocabulary.Name():   dimmer.EventFromSpec,
	fan.Vocabulary.Name():      fan.EventFromSpec,
}

func decodeHouseEvent(spec scenario.EventSpec) (sim.Event, error) {
	vocab, kind, ok := strings.Cut(spec.Kind, ".")
	if !ok {
		return sim.Event{}, fmt.Errorf("%w: house event %q must be written <equipment>.<kind>", sim.ErrInvalidConfig, spec.Kind)
	}
	decode, ok := houseDecoders[vocab]
	if !ok {
		return sim.Event{}, fmt.Errorf("%w: house has no equipment %q", sim.ErrInvalidConfig, vocab)
	}
	spec.Kind = kind
	return decode(spec)
}

const drivenGeneratorID = "scenario-generator"

// driven wraps an integration assembly with a generator routed to every kind
// it imports, which turns it into a unit-test assembly.
func driven(m sim.Model, events []sim.Event) (sim.Model, error) {
	gen := scenario.NewGenerator(drivenGeneratorID, events).WithExports(m.Imports())
	var routes []coupled.Route
	for _, k := range m.Imports() {
		routes = append(routes, coupled.Route{Kind: k, From: drivenGeneratorID, To: []string{m.ID()}})
	}
	var reexports []coupled.VariableReexport
	for _, v := range m.ExportedVariables() {
		reexports = append(reexports, coupled.VariableReexport{Name: v.Name, From: m.ID(), As: v.Name})
	}
	return coupled.New(coupled.Spec{
		ID:                m.ID() + "-unit-test",
		Models:            []sim.Model{gen, m},
		Routes:            routes,
		VariableReexports: reexports,
	})
}

func equipmentNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupEquipment(name string) (equipment, error) {
	eq, ok := registry[name]
	if !ok {
		return equipment{}, fmt.Errorf("%w: unknown equipment %q (valid: %s)", sim.ErrInvalidConfig, name, strings.Join(equipmentNames(), ", "))
	}
	return eq, nil
}
