package heatpump

import (
	"time"

	"github.com/hioa-sim/hioa-sim/sim"
	"github.com/hioa-sim/hioa-sim/sim/coupled"
	"github.com/hioa-sim/hioa-sim/sim/equipment/outdoor"
	"github.com/hioa-sim/hioa-sim/sim/scenario"
)

// Assembly identifiers.
const (
	UnitTestID    = "heatpump-unit-test"
	IntegrationID = "heatpump"
	BenchID       = "heatpump-bench"
)

func rebroadcastRoutes() []coupled.Route {
	var routes []coupled.Route
	for _, k := range Vocabulary.Kinds() {
		routes = append(routes, coupled.Route{Kind: k, From: ElectricityModelID, To: []string{TemperatureModelID}})
	}
	return routes
}

func powerBinding() coupled.Binding {
	return coupled.Binding{
		Name: PowerVariable,
		From: ElectricityModelID,
		To:   []coupled.Target{{Name: PowerVariable, Model: TemperatureModelID}},
	}
}

func variableReexports() []coupled.VariableReexport {
	return []coupled.VariableReexport{
		{Name: IndoorVariable, From: TemperatureModelID, As: IndoorVariable},
		{Name: PowerVariable, From: ElectricityModelID, As: PowerVariable},
	}
}

// UnitTestAssembly drives the heat pump from a synthetic generator emitting
// events, with its own outdoor model.
func UnitTestAssembly(cfg Config, events []sim.Event) (*coupled.Coupled, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	gen := scenario.NewGenerator(GeneratorID, events).WithExports(Vocabulary.Kinds())
	routes := rebroadcastRoutes()
	for _, k := range Vocabulary.Kinds() {
		routes = append(routes, coupled.Route{Kind: k, From: GeneratorID, To: []string{ElectricityModelID}})
	}
	return coupled.New(coupled.Spec{
		ID: UnitTestID,
		Models: []sim.Model{
			gen,
			NewElectricityModel(cfg),
			NewTemperatureModel(cfg),
			outdoor.NewModel(outdoor.ModelID, cfg.Outdoor),
		},
		Routes: routes,
		Bindings: []coupled.Binding{
			powerBinding(),
			{Name: outdoor.Variable, From: outdoor.ModelID, To: []coupled.Target{{Name: outdoor.Variable, Model: TemperatureModelID}}},
		},
		VariableReexports: variableReexports(),
	})
}

// IntegrationAssembly imports the heat pump events at its boundary so a
// live controller drives them, and imports the outdoor temperature from
// the enclosing house.
func IntegrationAssembly(cfg Config) (*coupled.Coupled, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var imports []coupled.BoundaryImport
	for _, k := range Vocabulary.Kinds() {
		imports = append(imports, coupled.BoundaryImport{Kind: k, To: []string{ElectricityModelID}})
	}
	return coupled.New(coupled.Spec{
		ID:       IntegrationID,
		Models:   []sim.Model{NewElectricityModel(cfg), NewTemperatureModel(cfg)},
		Routes:   rebroadcastRoutes(),
		Bindings: []coupled.Binding{powerBinding()},
		Imports:  imports,
		VariableImports: []coupled.VariableImport{{
			Spec: sim.VariableSpec{Name: outdoor.Variable, Quantity: sim.Temperature},
			To:   []coupled.Target{{Name: outdoor.Variable, Model: TemperatureModelID}},
		}},
		VariableReexports: variableReexports(),
	})
}

// IntegrationBench closes the integration assembly with an outdoor model so
// it can be driven standalone by injected events.
func IntegrationBench(cfg Config) (*coupled.Coupled, error) {
	hp, err := IntegrationAssembly(cfg)
	if err != nil {
		return nil, err
	}
	var imports []coupled.BoundaryImport
	for _, k := range Vocabulary.Kinds() {
		imports = append(imports, coupled.BoundaryImport{Kind: k, To: []string{IntegrationID}})
	}
	return coupled.New(coupled.Spec{
		ID:     BenchID,
		Models: []sim.Model{hp, outdoor.NewModel(outdoor.ModelID, cfg.Outdoor)},
		Bindings: []coupled.Binding{
			{Name: outdoor.Variable, From: outdoor.ModelID, To: []coupled.Target{{Name: outdoor.Variable, Model: IntegrationID}}},
		},
		Imports: imports,
		VariableReexports: []coupled.VariableReexport{
			{Name: IndoorVariable, From: IntegrationID, As: IndoorVariable},
			{Name: PowerVariable, From: IntegrationID, As: PowerVariable},
		},
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

func (c *Commands) SwitchOn() error     { return c.send(SwitchOn) }
func (c *Commands) SwitchOff() error    { return c.send(SwitchOff) }
func (c *Commands) StartHeating() error { return c.send(StartHeating) }
func (c *Commands) StopHeating() error  { return c.send(StopHeating) }
func (c *Commands) StartCooling() error { return c.send(StartCooling) }
func (c *Commands) StopCooling() error  { return c.send(StopCooling) }

// SetPower sets the power level in watts.
func (c *Commands) SetPower(watts float64) error {
	return c.inj.Inject(NewSetPower(c.now(), watts))
}
