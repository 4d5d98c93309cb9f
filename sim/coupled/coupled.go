// Package coupled composes models into a coupled model wired by event routes
// and variable bindings. A coupled model satisfies sim.Model, so it can be
// nested inside another coupled model or driven directly by the engine.
package coupled

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hioa-sim/hioa-sim/sim"
)

// Route sends every event of Kind emitted by From to the models in To, in order.
type Route struct {
	Kind sim.EventKind
	From string
	To   []string
}

// Target names an imported variable of a submodel.
type Target struct {
	Name  string
	Model string
}

// Binding connects the exported variable Name of From to imported variables.
type Binding struct {
	Name string
	From string
	To   []Target
}

// BoundaryImport forwards events of Kind received by the coupled model to submodels.
type BoundaryImport struct {
	Kind sim.EventKind
	To   []string
}

// EventReexport exposes events of Kind emitted by From at the coupled boundary.
type EventReexport struct {
	Kind sim.EventKind
	From string
}

// VariableImport forwards a variable bound to the coupled model to submodels.
type VariableImport struct {
	Spec sim.VariableSpec
	To   []Target
}

// VariableReexport exposes the exported variable Name of From under As.
type VariableReexport struct {
	Name string
	From string
	As   string
}

// Spec declares a coupled model. It is validated once by New and never
// changes afterwards.
type Spec struct {
	ID                string
	Models            []sim.Model
	Routes            []Route
	Bindings          []Binding
	Imports           []BoundaryImport
	Reexports         []EventReexport
	VariableImports   []VariableImport
	VariableReexports []VariableReexport
}

type child struct {
	model sim.Model
	tl    time.Duration // time of last transition
	tn    time.Duration // time of next internal transition
}

// Coupled is a coupled model built from a validated Spec.
type Coupled struct {
	spec     Spec
	children []*child
	index    map[string]int
	tl       time.Duration
	seq      uint64

	// outputs of imminent children, computed by Output and consumed by InternalTransition
	pending    map[int][]sim.Event
	pendingFor time.Duration
	hasPending bool
}

// New validates spec and binds its variables.
func New(spec Spec) (*Coupled, error) {
	c := &Coupled{spec: spec, index: make(map[string]int)}
	if spec.ID == "" {
		return nil, fmt.Errorf("%w: coupled model without id", sim.ErrInvalidConfig)
	}
	for i, m := range spec.Models {
		if _, dup := c.index[m.ID()]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate submodel %q", sim.ErrInvalidConfig, spec.ID, m.ID())
		}
		c.index[m.ID()] = i
		c.children = append(c.children, &child{model: m})
	}
	if err := c.validateEvents(); err != nil {
		return nil, err
	}
	if err := c.bindVariables(); err != nil {
		return nil, err
	}
	logrus.Debugf("coupled %s: %d submodels, %d routes, %d bindings", spec.ID, len(spec.Models), len(spec.Routes), len(spec.Bindings))
	return c, nil
}

// MustNew is New for statically declared assemblies; it panics on configuration errors.
func MustNew(spec Spec) *Coupled {
	c, err := New(spec)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Coupled) lookup(id string) (sim.Model, error) {
	i, ok := c.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s: no submodel %q", sim.ErrDanglingRoute, c.spec.ID, id)
	}
	return c.children[i].model, nil
}

func (c *Coupled) checkSinks(kind sim.EventKind, to []string) error {
	if len(to) == 0 {
		return fmt.Errorf("%w: %s: %s has no destination", sim.ErrDanglingRoute, c.spec.ID, kind)
	}
	for _, id := range to {
		dst, err := c.lookup(id)
		if err != nil {
			return err
		}
		if !sim.ContainsKind(dst.Imports(), kind) {
			return fmt.Errorf("%w: %s: %s does not import %s", sim.ErrDanglingRoute, c.spec.ID, id, kind)
		}
	}
	return nil
}

func (c *Coupled) validateEvents() error {
	for _, r := range c.spec.Routes {
		src, err := c.lookup(r.From)
		if err != nil {
			return err
		}
		if !sim.ContainsKind(src.Exports(), r.Kind) {
			return fmt.Errorf("%w: %s: %s does not export %s", sim.ErrDanglingRoute, c.spec.ID, r.From, r.Kind)
		}
		if err := c.checkSinks(r.Kind, r.To); err != nil {
			return err
		}
	}
	for _, in := range c.spec.Imports {
		if err := c.checkSinks(in.Kind, in.To); err != nil {
			return err
		}
	}
	for _, re := range c.spec.Reexports {
		src, err := c.lookup(re.From)
		if err != nil {
			return err
		}
		if !sim.ContainsKind(src.Exports(), re.Kind) {
			return fmt.Errorf("%w: %s: %s does not export %s", sim.ErrDanglingRoute, c.spec.ID, re.From, re.Kind)
		}
	}
	return nil
}

func importSpec(m sim.Model, name string) (sim.VariableSpec, bool) {
	for _, s := range m.ImportedVariables() {
		if s.Name == name {
			return s, true
		}
	}
	return sim.VariableSpec{}, false
}

func (c *Coupled) bindVariables() error {
	bound := make(map[Target]bool)
	for _, b := range c.spec.Bindings {
		src, err := c.lookup(b.From)
		if err != nil {
			return err
		}
		v, ok := src.ExportedVariable(b.Name)
		if !ok {
			return fmt.Errorf("%w: %s: %s does not export %q", sim.ErrUnknownVariable, c.spec.ID, b.From, b.Name)
		}
		for _, t := range b.To {
			dst, err := c.lookup(t.Model)
			if err != nil {
				return err
			}
			spec, ok := importSpec(dst, t.Name)
			if !ok {
				return fmt.Errorf("%w: %s: %s does not import %q", sim.ErrUnknownVariable, c.spec.ID, t.Model, t.Name)
			}
			if spec.Quantity != v.Quantity() {
				return fmt.Errorf("%w: %s: %s.%s is %s, %s.%s is %s", sim.ErrTypeMismatch, c.spec.ID,
					b.From, b.Name, v.Quantity(), t.Model, t.Name, spec.Quantity)
			}
			if err := dst.BindImport(t.Name, v); err != nil {
				return err
			}
			bound[t] = true
		}
	}
	for _, vi := range c.spec.VariableImports {
		for _, t := range vi.To {
			dst, err := c.lookup(t.Model)
			if err != nil {
				return err
			}
			spec, ok := importSpec(dst, t.Name)
			if !ok {
				return fmt.Errorf("%w: %s: %s does not import %q", sim.ErrUnknownVariable, c.spec.ID, t.Model, t.Name)
			}
			if spec.Quantity != vi.Spec.Quantity {
				return fmt.Errorf("%w: %s: boundary %s feeds %s.%s of %s", sim.ErrTypeMismatch, c.spec.ID,
					vi.Spec, t.Model, t.Name, spec.Quantity)
			}
			bound[t] = true
		}
	}
	for _, ch := range c.children {
		for _, s := range ch.model.ImportedVariables() {
			if !bound[Target{Name: s.Name, Model: ch.model.ID()}] {
				return fmt.Errorf("%w: %s: %s.%s", sim.ErrUnboundVariable, c.spec.ID, ch.model.ID(), s.Name)
			}
		}
	}
	for _, re := range c.spec.VariableReexports {
		src, err := c.lookup(re.From)
		if err != nil {
			return err
		}
		if _, ok := src.ExportedVariable(re.Name); !ok {
			return fmt.Errorf("%w: %s: %s does not export %q", sim.ErrUnknownVariable, c.spec.ID, re.From, re.Name)
		}
	}
	return nil
}

func (c *Coupled) ID() string { return c.spec.ID }

// Models returns the submodels in declaration order.
func (c *Coupled) Models() []sim.Model { return c.spec.Models }

// Model returns the submodel with the given id.
func (c *Coupled) Model(id string) (sim.Model, bool) {
	i, ok := c.index[id]
	if !ok {
		return nil, false
	}
	return c.children[i].model, true
}

func (c *Coupled) Imports() []sim.EventKind {
	kinds := make([]sim.EventKind, 0, len(c.spec.Imports))
	for _, in := range c.spec.Imports {
		if !sim.ContainsKind(kinds, in.Kind) {
			kinds = append(kinds, in.Kind)
		}
	}
	return kinds
}

func (c *Coupled) Exports() []sim.EventKind {
	kinds := make([]sim.EventKind, 0, len(c.spec.Reexports))
	for _, re := range c.spec.Reexports {
		if !sim.ContainsKind(kinds, re.Kind) {
			kinds = append(kinds, re.Kind)
		}
	}
	return kinds
}

func (c *Coupled) ImportedVariables() []sim.VariableSpec {
	specs := make([]sim.VariableSpec, len(c.spec.VariableImports))
	for i, vi := range c.spec.VariableImports {
		specs[i] = vi.Spec
	}
	return specs
}

func (c *Coupled) ExportedVariables() []sim.VariableSpec {
	specs := make([]sim.VariableSpec, 0, len(c.spec.VariableReexports))
	for _, re := range c.spec.VariableReexports {
		if v, ok := c.ExportedVariable(re.As); ok {
			specs = append(specs, sim.VariableSpec{Name: re.As, Quantity: v.Quantity()})
		}
	}
	return specs
}

func (c *Coupled) ExportedVariable(name string) (*sim.Variable, bool) {
	for _, re := range c.spec.VariableReexports {
		if re.As != name {
			continue
		}
		src, ok := c.Model(re.From)
		if !ok {
			return nil, false
		}
		return src.ExportedVariable(re.Name)
	}
	return nil, false
}

func (c *Coupled) BindImport(name string, source sim.VariableReader) error {
	for _, vi := range c.spec.VariableImports {
		if vi.Spec.Name != name {
			continue
		}
		if vi.Spec.Quantity != source.Quantity() {
			return fmt.Errorf("%w: %s imports %s, source provides %s", sim.ErrTypeMismatch, c.spec.ID, vi.Spec, source.Quantity())
		}
		for _, t := range vi.To {
			dst, _ := c.Model(t.Model)
			if err := dst.BindImport(t.Name, source); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("%w: %s does not import %q", sim.ErrUnknownVariable, c.spec.ID, name)
}

func (c *Coupled) Initialize(start time.Duration) {
	c.tl = start
	c.seq = 0
	c.clearPending()
	for _, ch := range c.children {
		ch.model.Initialize(start)
		ch.tl = start
		ch.tn = sim.AddTime(start, ch.model.TimeAdvance())
	}
}

func (c *Coupled) FixpointInitializeVariables() (justInitialized, pending int) {
	for _, ch := range c.children {
		j, p := ch.model.FixpointInitializeVariables()
		justInitialized += j
		pending += p
	}
	// time advances may depend on freshly initialized variables
	for _, ch := range c.children {
		ch.tn = sim.AddTime(ch.tl, ch.model.TimeAdvance())
	}
	return justInitialized, pending
}

func (c *Coupled) nextTime() time.Duration {
	next := sim.Infinity
	for _, ch := range c.children {
		if ch.tn < next {
			next = ch.tn
		}
	}
	return next
}

func (c *Coupled) TimeAdvance() time.Duration {
	next := c.nextTime()
	if next == sim.Infinity {
		return sim.Infinity
	}
	return next - c.tl
}

func (c *Coupled) clearPending() {
	c.pending = nil
	c.hasPending = false
}

// collect computes the outputs of the children imminent at t, once per step.
func (c *Coupled) collect(t time.Duration) map[int][]sim.Event {
	if c.hasPending && c.pendingFor == t {
		return c.pending
	}
	c.pending = make(map[int][]sim.Event)
	for i, ch := range c.children {
		if ch.tn != t {
			continue
		}
		var out []sim.Event
		for _, e := range ch.model.Output() {
			out = append(out, e.At(t))
		}
		c.pending[i] = out
	}
	c.pendingFor = t
	c.hasPending = true
	return c.pending
}

func (c *Coupled) Output() []sim.Event {
	t := c.nextTime()
	if t == sim.Infinity {
		return nil
	}
	var boundary []sim.Event
	outputs := c.collect(t)
	for i, ch := range c.children {
		for _, e := range outputs[i] {
			for _, re := range c.spec.Reexports {
				if re.Kind == e.Kind && re.From == ch.model.ID() {
					boundary = append(boundary, e)
					break
				}
			}
		}
	}
	return boundary
}

func (c *Coupled) InternalTransition(elapsed time.Duration) error {
	t := c.tl + elapsed
	if next := c.nextTime(); next != t {
		return fmt.Errorf("%w: %s: internal transition at %s, next imminent at %s", sim.ErrInvalidConfig, c.spec.ID, t, next)
	}
	outputs := c.collect(t)
	inbox := make(map[int][]sim.Event)
	for i, ch := range c.children {
		for _, e := range outputs[i] {
			for _, r := range c.spec.Routes {
				if r.Kind != e.Kind || r.From != ch.model.ID() {
					continue
				}
				for _, to := range r.To {
					c.seq++
					dst := c.index[to]
					inbox[dst] = append(inbox[dst], e.WithSeq(c.seq))
				}
			}
		}
	}
	imminent := make(map[int]bool, len(outputs))
	for i := range outputs {
		imminent[i] = true
	}
	c.clearPending()

	for i, ch := range c.children {
		if !imminent[i] && len(inbox[i]) == 0 {
			continue
		}
		if imminent[i] {
			if err := ch.model.InternalTransition(t - ch.tl); err != nil {
				return err
			}
			ch.tl = t
		}
		events := inbox[i]
		sim.SortByPriority(events)
		for _, e := range events {
			logrus.Debugf("%s: route %s -> %s", c.spec.ID, e, ch.model.ID())
			if err := ch.model.ExternalTransition(t-ch.tl, e); err != nil {
				return err
			}
			ch.tl = t
		}
		ch.tn = sim.AddTime(t, ch.model.TimeAdvance())
	}
	c.tl = t
	return nil
}

func (c *Coupled) ExternalTransition(elapsed time.Duration, e sim.Event) error {
	t := c.tl + elapsed
	delivered := false
	for _, in := range c.spec.Imports {
		if in.Kind != e.Kind {
			continue
		}
		for _, to := range in.To {
			ch := c.children[c.index[to]]
			if err := ch.model.ExternalTransition(t-ch.tl, e.At(t)); err != nil {
				return err
			}
			ch.tl = t
			ch.tn = sim.AddTime(t, ch.model.TimeAdvance())
			delivered = true
		}
	}
	if !delivered {
		return fmt.Errorf("%w: %s does not import %s", sim.ErrDanglingRoute, c.spec.ID, e.Kind)
	}
	c.clearPending()
	c.tl = t
	return nil
}

// Finalize brings every child that accumulates statistics to the end time.
func (c *Coupled) Finalize(elapsed time.Duration) {
	t := sim.AddTime(c.tl, elapsed)
	for _, ch := range c.children {
		if t <= ch.tl {
			continue
		}
		if f, ok := ch.model.(sim.Finalizer); ok {
			f.Finalize(t - ch.tl)
		}
		ch.tl = t
		ch.tn = sim.AddTime(t, ch.model.TimeAdvance())
	}
	c.tl = t
}

func (c *Coupled) FinalReport() sim.Report {
	r := sim.Report{ModelID: c.spec.ID}
	for _, ch := range c.children {
		r.Children = append(r.Children, ch.model.FinalReport())
	}
	return r
}

// Walk visits m and, when m is coupled, every nested submodel depth first.
func Walk(m sim.Model, fn func(sim.Model)) {
	fn(m)
	if c, ok := m.(*Coupled); ok {
		for _, sub := range c.Models() {
			Walk(sub, fn)
		}
	}
}

// StateReporters returns every model under m that exposes a discrete state.
func StateReporters(m sim.Model) []sim.StateReporter {
	var out []sim.StateReporter
	Walk(m, func(sub sim.Model) {
		if sr, ok := sub.(sim.StateReporter); ok {
			out = append(out, sr)
		}
	})
	return out
}
