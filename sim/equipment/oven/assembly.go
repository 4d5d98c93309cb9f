package oven

import (
	"time"

	"github.com/hioa-sim/hioa-sim/sim"
	"github.com/hioa-sim/hioa-sim/sim/coupled"
	"github.com/hioa-sim/hioa-sim/sim/scenario"
)

// Assembly identifiers.
const (
	UnitTestID    = "oven-unit-test"
	IntegrationID = "oven"
)

func baseSpec(id string, cfg Config) coupled.Spec {
	var routes []coupled.Route
	for _, k := range Vocabulary.Kinds() {
		routes = append(routes, coupled.Route{Kind: k, From: ElectricityModelID, To: []string{TemperatureModelID}})
	}
	return coupled.Spec{
		ID:     id,
		Models: []sim.Model{NewElectricityModel(cfg), NewTemperatureModel(cfg)},
		Routes: routes,
		Bindings: []coupled.Binding{{
			Name: PowerVariable,
			From: ElectricityModelID,
			To:   []coupled.Target{{Name: PowerVariable, Model: TemperatureModelID}},
		}},
		VariableReexports: []coupled.VariableReexport{
			{Name: TemperatureVariable, From: TemperatureModelID, As: TemperatureVariable},
			{Name: PowerVariable, From: ElectricityModelID, As: PowerVariable},
		},
	}
}

// UnitTestAssembly drives the oven from a synthetic generator.
func UnitTestAssembly(cfg Config, events []sim.Event) (*coupled.Coupled, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	spec := baseSpec(UnitTestID, cfg)
	gen := scenario.NewGenerator(GeneratorID, events).WithExports(Vocabulary.Kinds())
	spec.Models = append([]sim.Model{gen}, spec.Models...)
	for _, k := range Vocabulary.Kinds() {
		spec.Routes = append(spec.Routes, coupled.Route{Kind: k, From: GeneratorID, To: []string{ElectricityModelID}})
	}
	return coupled.New(spec)
}

// IntegrationAssembly imports the oven events at its boundary and
// re-exports the Heat event so a controller sees delayed starts fire.
func IntegrationAssembly(cfg Config) (*coupled.Coupled, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	spec := baseSpec(IntegrationID, cfg)
	for _, k := range Vocabulary.Kinds() {
		spec.Imports = append(spec.Imports, coupled.BoundaryImport{Kind: k, To: []string{ElectricityModelID}})
	}
	spec.Reexports = []coupled.EventReexport{{Kind: Heat, From: ElectricityModelID}}
	return coupled.New(spec)
}

// Commands translates controller calls one to one into injected events.
type Commands struct {
	inj sim.Injector
	now func() time.Duration
}

// NewCommands creates a command facade; now stamps each event.
func NewCommands(inj sim.Injector, now func() time.Duration) *Commands {
	return &Commands{inj: inj, now: now}
}

func (c *Commands) send(kind sim.EventKind) error {
	return c.inj.Inject(sim.NewEvent(kind, c.now(), nil))
}

func (c *Commands) SwitchOn() error           { return c.send(SwitchOn) }
func (c *Commands) SwitchOff() error          { return c.send(SwitchOff) }
func (c *Commands) Heat() error               { return c.send(Heat) }
func (c *Commands) DoNotHeat() error          { return c.send(DoNotHeat) }
func (c *Commands) CancelDelayedStart() error { return c.send(CancelDelayedStart) }

func (c *Commands) SetMode(mode Mode) error {
	return c.inj.Inject(NewSetMode(c.now(), mode))
}

func (c *Commands) SetTargetTemperature(celsius float64) error {
	return c.inj.Inject(NewSetTargetTemperature(c.now(), celsius))
}

func (c *Commands) SetDelayedStart(delay time.Duration) error {
	return c.inj.Inject(NewSetDelayedStart(c.now(), delay))
}
