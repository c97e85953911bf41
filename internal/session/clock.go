package session

import (
	"sync"
	"time"
)

// PausableClock is simulation time: it follows a real time source but does
// not advance while paused, so effect timers and shot cooldowns only count
// time spent playing.
type PausableClock struct {
	mu sync.RWMutex

	source      func() time.Time
	paused      bool
	pausedAt    time.Time
	totalPaused time.Duration
}

// NewPausableClock creates a running clock. A nil source means time.Now.
func NewPausableClock(source func() time.Time) *PausableClock {
	if source == nil {
		source = time.Now
	}
	return &PausableClock{source: source}
}

// Now returns game time
func (c *PausableClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.paused {
		return c.pausedAt.Add(-c.totalPaused)
	}
	return c.source().Add(-c.totalPaused)
}

// Pause freezes game time. Pausing twice is a no-op.
func (c *PausableClock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.paused {
		return
	}
	c.paused = true
	c.pausedAt = c.source()
}

// Resume continues from the moment of the pause
func (c *PausableClock) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.paused {
		return
	}
	c.totalPaused += c.source().Sub(c.pausedAt)
	c.paused = false
	c.pausedAt = time.Time{}
}

// IsPaused reports the current pause state
func (c *PausableClock) IsPaused() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.paused
}

// TotalPaused returns how long the clock has spent paused, including a pause in progress
func (c *PausableClock) TotalPaused() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.totalPaused
	if c.paused {
		total += c.source().Sub(c.pausedAt)
	}
	return total
}
