package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// StartJanitor prunes finished sessions and resolved invites older than the retention
// window until ctx is done.
func (c *Coordinator) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := c.Prune(c.now()); n > 0 {
					log.Debug().Int("pruned", n).Msg("janitor pruned sessions")
				}
			}
		}
	}()
}

// Prune removes everything that finished before now minus the retention window. Lobbies
// still forming after their window are started or closed first.
func (c *Coordinator) Prune(now time.Time) int {
	cutoff := now.Add(-c.retention)

	c.mu.Lock()
	sessions := make([]*Session, 0, len(c.sessions))
	for _, s := range c.sessions {
		sessions = append(sessions, s)
	}
	invites := make([]*Invite, 0, len(c.invites))
	for _, inv := range c.invites {
		invites = append(invites, inv)
	}
	c.mu.Unlock()

	lobbyCutoff := now.Add(-c.lobbyTimeout)
	for _, s := range sessions {
		if s.formingBefore(lobbyCutoff) {
			c.expireLobby(s)
		}
	}

	var staleSessions []*Session
	for _, s := range sessions {
		if s.endedBefore(cutoff) {
			staleSessions = append(staleSessions, s)
		}
	}
	var staleInvites []string
	for _, inv := range invites {
		if inv.resolvedBefore(cutoff) {
			staleInvites = append(staleInvites, inv.id)
		}
	}

	c.mu.Lock()
	for _, s := range staleSessions {
		delete(c.sessions, s.id)
	}
	for _, id := range staleInvites {
		delete(c.invites, id)
	}
	c.mu.Unlock()

	if f, ok := c.presenter.(Forgetter); ok {
		for _, s := range staleSessions {
			s.mu.Lock()
			handle := s.handle
			s.mu.Unlock()
			if handle != "" {
				f.Forget(handle)
			}
		}
	}
	return len(staleSessions) + len(staleInvites)
}
