// Package clock abstracts wall-clock reads so expiry logic can be driven by
// a deterministic time source in tests.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// New returns a Clock backed by time.Now.
func New() Clock {
	return systemClock{}
}
