package trace

import "time"

// Transition is one discrete state change.
type Transition struct {
	Time  time.Duration
	Model string
	State string
}

// Sample holds the exported variables evaluated at one instant.
type Sample struct {
	Time   time.Duration
	Values map[string]float64
}
