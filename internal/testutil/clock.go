// Package testutil provides deterministic helpers for tests.
package testutil

import (
	"sync"
	"time"
)

// ManualClock is a thread-safe clock that only advances when told.
//
// Suites measure test durations through an injected now-function; swapping
// in a ManualClock makes recorded durations exact, so scheduling tests can
// assert on estimates instead of sleeping.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a clock frozen at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the current frozen instant.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
