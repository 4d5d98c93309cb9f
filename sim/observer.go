package sim

import "time"

// StepInfo describes one transition of the root model.
type StepInfo struct {
	Time     time.Duration
	Internal bool
	Event    *Event  // delivered event, nil for internal transitions
	Outputs  []Event // boundary outputs emitted before an internal transition
}

// Observer is notified after every root transition.
type Observer interface {
	OnStep(info StepInfo)
}

// StartObserver is implemented by observers that need the initial state,
// once variables are initialized and before the first transition.
type StartObserver interface {
	OnStart(t time.Duration)
}
