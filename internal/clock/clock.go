// Package clock abstracts the time source so the attendance engine can run
// against a frozen instant in tests and in the development sandbox.
package clock

import "time"

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// System reads the real wall clock.
type System struct{}

// Now returns the current local time.
func (System) Now() time.Time { return time.Now() }

// Fixed always reports the same instant.
type Fixed struct {
	at time.Time
}

// NewFixed pins the clock to the given instant.
func NewFixed(at time.Time) Fixed { return Fixed{at: at} }

// Now returns the pinned instant.
func (f Fixed) Now() time.Time { return f.at }

// FromConfig returns a frozen clock when frozenAt is a valid RFC3339
// timestamp, otherwise the system clock.
func FromConfig(frozenAt string) Clock {
	if frozenAt == "" {
		return System{}
	}
	at, err := time.ParseInLocation(time.RFC3339, frozenAt, time.Local)
	if err != nil {
		return System{}
	}
	return NewFixed(at)
}
