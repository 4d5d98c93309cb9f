// Package metrics exposes run progress as Prometheus metrics fed by the
// engine observer hook.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hioa-sim/hioa-sim/sim"
)

// Collector counts transitions and events and tracks the root variables.
type Collector struct {
	transitions *prometheus.CounterVec
	events      *prometheus.CounterVec
	outputs     prometheus.Counter
	simTime     prometheus.Gauge
	variables   *prometheus.GaugeVec

	root sim.Model
}

// NewCollector registers the collector metrics on reg.
func NewCollector(reg prometheus.Registerer, root sim.Model) (*Collector, error) {
	c := &Collector{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hioa_transitions_total",
			Help: "Root transitions executed, by type.",
		}, []string{"type"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hioa_events_total",
			Help: "External events delivered to the root model, by kind.",
		}, []string{"kind"}),
		outputs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hioa_outputs_total",
			Help: "Events emitted at the root boundary.",
		}),
		simTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hioa_simulated_time_seconds",
			Help: "Simulated time of the last transition.",
		}),
		variables: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hioa_variable_value",
			Help: "Current value of the root exported variables.",
		}, []string{"variable"}),
		root: root,
	}
	for _, col := range []prometheus.Collector{c.transitions, c.events, c.outputs, c.simTime, c.variables} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// OnStep implements sim.Observer.
func (c *Collector) OnStep(info sim.StepInfo) {
	if info.Internal {
		c.transitions.WithLabelValues("internal").Inc()
	} else {
		c.transitions.WithLabelValues("external").Inc()
	}
	if info.Event != nil {
		c.events.WithLabelValues(info.Event.Kind.String()).Inc()
	}
	c.outputs.Add(float64(len(info.Outputs)))
	c.simTime.Set(info.Time.Seconds())
	for _, spec := range c.root.ExportedVariables() {
		if v, ok := c.root.ExportedVariable(spec.Name); ok && v.Initialized() {
			c.variables.WithLabelValues(spec.Name).Set(v.EvaluateAt(info.Time))
		}
	}
}
