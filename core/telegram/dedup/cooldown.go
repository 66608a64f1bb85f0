package dedup

import (
	"sync"
	"time"
)

// Cooldown admits one event per user within a short window.
type Cooldown struct {
	window time.Duration
	now    Clock
	mu     sync.Mutex
	last   map[string]time.Time
}

// NewCooldown returns a cooldown with the given window.
func NewCooldown(window time.Duration, now Clock) *Cooldown {
	if now == nil {
		now = time.Now
	}
	return &Cooldown{window: window, now: now, last: make(map[string]time.Time)}
}

// Allow reports whether userID may proceed and, if so, restarts its window.
func (c *Cooldown) Allow(userID string) bool {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if at, ok := c.last[userID]; ok && now.Sub(at) < c.window {
		return false
	}
	c.last[userID] = now
	return true
}

// Sweep forgets users whose window has passed.
func (c *Cooldown) Sweep() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for id, at := range c.last {
		if now.Sub(at) >= c.window {
			delete(c.last, id)
			n++
		}
	}
	return n
}
