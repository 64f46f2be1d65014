package usecase

import "time"

// SystemClock is the production Clock, reading the wall clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock is a Clock pinned to a single instant, for tests.
type FixedClock struct {
	Instant time.Time
}

// Now returns the pinned instant.
func (c FixedClock) Now() time.Time {
	return c.Instant
}
