package fan

import (
	"time"

	"github.com/hioa-sim/hioa-sim/sim"
	"github.com/hioa-sim/hioa-sim/sim/coupled"
	"github.com/hioa-sim/hioa-sim/sim/scenario"
)

var reexports = []coupled.VariableReexport{{Name: PowerVariable, From: ModelID, As: PowerVariable}}

// UnitTestAssembly drives the fan from a synthetic generator.
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
		Models:            []sim.Model{gen, NewFan(cfg)},
		Routes:            routes,
		VariableReexports: reexports,
	})
}

// IntegrationAssembly imports the fan events at its boundary.
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
		Models:            []sim.Model{NewFan(cfg)},
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

func (c *Commands) send(kind sim.EventKind) error {
	return c.inj.Inject(sim.NewEvent(kind, c.now(), nil))
}

func (c *Commands) SwitchOn() error  { return c.send(SwitchOn) }
func (c *Commands) SwitchOff() error { return c.send(SwitchOff) }
func (c *Commands) SetLow() error    { return c.send(SetLow) }
func (c *Commands) SetMedium() error { return c.send(SetMedium) }
func (c *Commands) SetHigh() error   { return c.send(SetHigh) }
