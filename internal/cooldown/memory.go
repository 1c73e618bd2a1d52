// Package cooldown rate-limits session starts per participant and game kind.
package cooldown

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-local cooldown store.
type Memory struct {
	mu      sync.Mutex
	until   map[string]time.Time
	now     func() time.Time
	sweepAt time.Time
}

func NewMemory() *Memory {
	return &Memory{until: map[string]time.Time{}, now: time.Now}
}

// Acquire starts a cooldown for key unless one is already running.
func (m *Memory) Acquire(_ context.Context, key string, ttl time.Duration) (bool, time.Duration, error) {
	if ttl <= 0 {
		return true, 0, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.sweepLocked(now)
	if until, ok := m.until[key]; ok && now.Before(until) {
		return false, until.Sub(now), nil
	}
	m.until[key] = now.Add(ttl)
	return true, 0, nil
}

// sweepLocked drops expired keys at most once a minute.
func (m *Memory) sweepLocked(now time.Time) {
	if now.Before(m.sweepAt) {
		return
	}
	m.sweepAt = now.Add(time.Minute)
	for k, until := range m.until {
		if !now.Before(until) {
			delete(m.until, k)
		}
	}
}
