// Package sim provides the shared simulation protocol for the household
// equipment models.
//
// # Reading Guide
//
// Start with these three files to understand the protocol:
//   - event.go: event kinds, vocabularies and the same-instant priority order
//   - variable.go: continuous variables with linear extrapolation between updates
//   - model.go: the atomic model callback protocol (initialize, time advance,
//     internal/external transitions, output, final report)
//
// # Architecture
//
// The sim package defines the protocol types; implementations live in
// sub-packages:
//   - sim/dynamics/: Euler integration, trapezoid accumulators, thermal terms
//   - sim/coupled/: coupled models wired by event routes and variable bindings
//   - sim/engine/: root driver, external event injection and real-time pacing
//   - sim/equipment/...: heat pump, oven, dimmer lamp, fan, outdoor temperature, meter
//   - sim/scenario/: YAML scenarios and the synthetic event generator
//   - sim/trace/: trajectory recording
//   - sim/metrics/: Prometheus collectors fed by the engine
//
// # Time
//
// Simulated time is a time.Duration measured from an arbitrary origin.
// Derivatives of continuous variables are expressed per hour.
package sim
