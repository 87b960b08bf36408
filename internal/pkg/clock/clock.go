package clock

import "time"

// Clocker abstracts the wall clock so time-dependent logic can be tested
// with a fixed or scripted time source.
type Clocker interface {
	Now() time.Time
}

// SystemClock reads the current system time.
type SystemClock struct{}

// New returns a SystemClock.
func New() *SystemClock {
	return &SystemClock{}
}

// Now returns time.Now.
func (c *SystemClock) Now() time.Time {
	return time.Now()
}
