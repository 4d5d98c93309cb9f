package dimmer

import (
	"time"

	"github.com/hioa-sim/hioa-sim/sim"
	"github.com/hioa-sim/hioa-sim/sim/coupled"
	"github.com/hioa-sim/hioa-sim/sim/scenario"
)

var reexports = []coupled.VariableReexport{{Name: PowerVariable, From: ModelID, As: PowerVariable}}

// UnitTestAssembly drives the lamp from a synthetic generator.
func UnitTestAssembly(cfg Config, events []sim.Event) (*coupled.Coupled, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	gen := scenario.NewGenerator(GeneratorID, events).WithExports(Vocabulary.Kinds())
	var routes []coupled.Route
	for _, k := range Vocabulary.Kinds() {
		routes = append(routes, coupled.Route{Kind: k, From: GeneratorID, To: []string{ModelID}})
	}
	return coupled.New(coupled.Spec{
		ID:                UnitTestID,
		Models:            []sim.Model{gen, NewLamp(cfg)},
		Routes:            routes,
		VariableReexports: reexports,
	})
}

// IntegrationAssembly imports the lamp events at its boundary.
func IntegrationAssembly(cfg Config) (*coupled.Coupled, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var imports []coupled.BoundaryImport
	for _, k := range Vocabulary.Kinds() {
		imports = append(imports, coupled.BoundaryImport{Kind: k, To: []string{ModelID}})
	}
	return coupled.New(coupled.Spec{
		ID:                IntegrationID,
		Models:            []sim.Model{NewLamp(cfg)},
		Imports:           imports,
		VariableReexports: reexports,
	})
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

func (c *Commands) SwitchOn() error  { return c.inj.Inject(sim.NewEvent(SwitchOn, c.now(), nil)) }
func (c *Commands) SwitchOff() error { return c.inj.Inject(sim.NewEvent(SwitchOff, c.now(), nil)) }

// SetPower sets the lamp power in watts.
func (c *Commands) SetPower(watts float64) error {
	return c.inj.Inject(NewSetPower(c.now(), watts))
}
