package service

import "time"

// Clock abstracts the wall clock. Every piece of "is this overdue" or
// "when was this closed" logic reads time through a Clock so tests
// can pin or shift the current instant; nothing in the engines calls
// time.Now directly.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock, reporting UTC wall time.
type SystemClock struct{}

// Now returns the current time in UTC.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always reports the same instant. Intended for tests.
type FixedClock struct{ T time.Time }

// Now returns the pinned instant.
func (c FixedClock) Now() time.Time { return c.T }
