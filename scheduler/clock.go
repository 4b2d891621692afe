// Package scheduler multiplexes named animation tasks onto one
// frame-synchronized loop. Tasks are paused by flag, never torn down, so
// their state survives a pause/resume cycle.
package scheduler

import (
	"sync"
	"time"
)

// Clock abstracts the frame loop's time source so tests can drive frames
// deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock with monotonic readings.
type SystemClock struct{}

// NewSystemClock creates a monotonic system clock.
func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

// Now returns the current time.
func (c *SystemClock) Now() time.Time {
	return time.Now()
}

// ManualClock is a controllable time source for tests.
type ManualClock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewManualClock creates a manual clock starting at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the current mocked time.
func (c *ManualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set jumps the clock to t.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
