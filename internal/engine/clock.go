package engine

import (
	"sync"
	"time"
)

// TurnClock is a generation counter with an optional deadline. Every Start or Cancel
// invalidates the previous generation; a generation can be claimed at most once.
type TurnClock struct {
	mu       sync.Mutex
	gen      uint64
	armed    bool
	deadline time.Time
	timer    *time.Timer
	now      func() time.Time
}

func NewTurnClock() *TurnClock {
	return &TurnClock{now: time.Now}
}

// Start opens a new generation. With d > 0 and a callback, onTimeout runs after d with
// the generation it was armed for. Otherwise the generation has no deadline.
func (c *TurnClock) Start(d time.Duration, onTimeout func(gen uint64)) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	c.gen++
	gen := c.gen
	if d <= 0 || onTimeout == nil {
		c.armed = false
		c.deadline = time.Time{}
		return gen
	}
	c.armed = true
	c.deadline = c.now().Add(d)
	c.timer = time.AfterFunc(d, func() { onTimeout(gen) })
	return gen
}

func (c *TurnClock) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.gen++
	c.armed = false
	c.deadline = time.Time{}
}

// Claim consumes gen if it is still the armed generation.
func (c *TurnClock) Claim(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.armed || gen != c.gen {
		return false
	}
	c.stopLocked()
	c.armed = false
	c.gen++
	return true
}

func (c *TurnClock) Due(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armed && !now.Before(c.deadline)
}

func (c *TurnClock) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

func (c *TurnClock) Armed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armed
}

// Remaining is the time left on the armed deadline, zero when nothing is armed.
func (c *TurnClock) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.armed {
		return 0
	}
	left := c.deadline.Sub(c.now())
	if left < 0 {
		return 0
	}
	return left
}

func (c *TurnClock) stopLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
