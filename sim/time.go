package sim

import (
	"math"
	"time"
)

// Infinity is the time advance of a model that changes only on external events.
const Infinity = time.Duration(math.MaxInt64)

// AddTime adds d to t, saturating at Infinity.
func AddTime(t, d time.Duration) time.Duration {
	if t == Infinity || d == Infinity || t > Infinity-d {
		return Infinity
	}
	return t + d
}
