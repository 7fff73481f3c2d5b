// Package clock provides an abstraction for time operations to improve testability.
// Instead of calling time.Now() directly, code can use the Clock interface which
// can be mocked in tests to control time-dependent behavior.
package clock

import "time"

// Clock is an interface for time operations.
// This allows code to be tested with mock clocks.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the actual system time.
type RealClock struct{}

// Now returns the current time from the system clock.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Ensure RealClock implements Clock.
var _ Clock = RealClock{}

// Today returns the current day at UTC midnight according to c.
// Calendar date math uses day precision throughout, so callers normalize
// through this helper instead of truncating ad hoc.
func Today(c Clock) time.Time {
	now := c.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Fixed implements Clock with a constant time. Useful in tests and for
// reproducing a run's date window.
type Fixed struct {
	// T is the time Now always returns.
	T time.Time
}

// Now returns the fixed time.
func (f Fixed) Now() time.Time {
	return f.T
}

// Ensure Fixed implements Clock.
var _ Clock = Fixed{}
