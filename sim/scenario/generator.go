package scenario

import (
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hioa-sim/hioa-sim/sim"
)

// Generator is an atomic model emitting a fixed list of events at their
// scheduled times. All events sharing an instant are emitted by one output;
// the enclosing coupled model delivers them in priority order.
type Generator struct {
	sim.AtomicBase
	events  []sim.Event
	next    int
	emitted int
}

// NewGenerator creates a generator for events. Exports are the distinct
// kinds of events, in first-occurrence order.
func NewGenerator(id string, events []sim.Event) *Generator {
	sorted := make([]sim.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })
	var kinds []sim.EventKind
	for _, e := range sorted {
		if !sim.ContainsKind(kinds, e.Kind) {
			kinds = append(kinds, e.Kind)
		}
	}
	return &Generator{
		AtomicBase: sim.NewAtomicBase(id, nil, kinds, nil),
		events:     sorted,
	}
}

// WithExports widens the exported kinds, so routes can be declared for a
// whole vocabulary even when the event list does not use every kind.
func (g *Generator) WithExports(kinds []sim.EventKind) *Generator {
	all := append([]sim.EventKind(nil), g.Exports()...)
	for _, k := range kinds {
		if !sim.ContainsKind(all, k) {
			all = append(all, k)
		}
	}
	g.AtomicBase = sim.NewAtomicBase(g.ID(), nil, all, nil)
	return g
}

func (g *Generator) Initialize(start time.Duration) {
	g.InitializeBase(start)
	g.next = sort.Search(len(g.events), func(i int) bool { return g.events[i].Time >= start })
	g.emitted = 0
}

func (g *Generator) FixpointInitializeVariables() (int, int) { return 0, 0 }

func (g *Generator) TimeAdvance() time.Duration {
	if g.next >= len(g.events) {
		return sim.Infinity
	}
	if d := g.events[g.next].Time - g.Now(); d > 0 {
		return d
	}
	return 0
}

// due returns the index one past the events sharing the next instant.
func (g *Generator) due() int {
	end := g.next
	for end < len(g.events) && g.events[end].Time == g.events[g.next].Time {
		end++
	}
	return end
}

func (g *Generator) Output() []sim.Event {
	if g.next >= len(g.events) {
		return nil
	}
	out := make([]sim.Event, 0, g.due()-g.next)
	out = append(out, g.events[g.next:g.due()]...)
	return out
}

func (g *Generator) InternalTransition(elapsed time.Duration) error {
	now := g.Advance(elapsed)
	end := g.due()
	logrus.Debugf("[%s] emitted %d events at %s", g.ID(), end-g.next, now)
	g.emitted += end - g.next
	g.next = end
	return nil
}

func (g *Generator) ExternalTransition(elapsed time.Duration, e sim.Event) error {
	return fmt.Errorf("%w: generator %s imports no events, got %s", sim.ErrDanglingRoute, g.ID(), e)
}

func (g *Generator) FinalReport() sim.Report {
	return sim.Report{
		ModelID: g.ID(),
		Stats: []sim.Stat{
			{Name: "events_emitted", Value: float64(g.emitted)},
			{Name: "events_remaining", Value: float64(len(g.events) - g.next)},
		},
	}
}
