package engine

import (
	"context"

	"github.com/rs/zerolog/log"
)

// OpenLobby creates a forming session hosted by host.
func (c *Coordinator) OpenLobby(ctx context.Context, kind string, host Participant, opts SessionOptions) (Snapshot, error) {
	rules, opts, err := c.prepare(kind, opts)
	if err != nil {
		return Snapshot{}, err
	}
	if !rules.Limits().Lobby {
		return Snapshot{}, ErrNotLobbyGame
	}
	if !host.Valid() || host.Automated {
		return Snapshot{}, ErrInvalidParticipant
	}
	if err := c.ensureFree(host); err != nil {
		return Snapshot{}, err
	}
	if err := c.acquireCooldown(ctx, rules, host); err != nil {
		return Snapshot{}, err
	}
	return c.openLobby(ctx, rules, []Participant{host}, opts)
}

func (c *Coordinator) JoinLobby(ctx context.Context, sessionID string, p Participant) (Applied, error) {
	return c.SubmitAction(ctx, sessionID, p, Action{Kind: ActionJoin})
}

func (c *Coordinator) StartLobby(ctx context.Context, sessionID string, host Participant) (Applied, error) {
	return c.SubmitAction(ctx, sessionID, host, Action{Kind: ActionStart})
}

func (c *Coordinator) Leave(ctx context.Context, sessionID string, p Participant) (Applied, error) {
	return c.SubmitAction(ctx, sessionID, p, Action{Kind: ActionLeave})
}

func (c *Coordinator) openLobby(ctx context.Context, rules Ruleset, players []Participant, opts SessionOptions) (Snapshot, error) {
	s := newSession(c.newID(), rules, players, opts, c.newRand(), c.now())
	c.mu.Lock()
	c.sessions[s.id] = s
	c.mu.Unlock()

	s.mu.Lock()
	s.lobbyClock.Start(c.lobbyTimeout, func(gen uint64) { c.lobbyTimeoutFired(s, gen) })
	renderErr := c.renderLocked(ctx, s)
	if renderErr != nil {
		c.dispatcher.Abort(s, ReasonPresentationFailure)
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	log.Info().Str("session_id", s.id).Str("kind", rules.Kind()).Str("host", players[0].ID).Msg("lobby opened")
	if renderErr != nil {
		c.finish(s)
		return snap, &CollaboratorError{Op: "render", Err: renderErr}
	}
	return snap, nil
}

// lobbyTimeoutFired starts a lobby that reached its minimum and closes one that did not.
func (c *Coordinator) lobbyTimeoutFired(s *Session, gen uint64) {
	s.mu.Lock()
	if s.state != StateForming || !s.lobbyClock.Claim(gen) {
		s.mu.Unlock()
		return
	}
	c.closeLobbyLocked(s)
}

// expireLobby resolves a forming session that outlived its lobby window without the
// timer firing.
func (c *Coordinator) expireLobby(s *Session) {
	s.mu.Lock()
	if s.state != StateForming {
		s.mu.Unlock()
		return
	}
	s.lobbyClock.Cancel()
	c.closeLobbyLocked(s)
}

// closeLobbyLocked resolves a forming session whose lobby window is over. It releases
// s.mu before the lifecycle callbacks run.
func (c *Coordinator) closeLobbyLocked(s *Session) {
	if len(s.players) >= s.limits.MinPlayers {
		if err := c.dispatcher.Activate(s); err != nil {
			log.Warn().Err(err).Str("session_id", s.id).Msg("lobby auto-start failed")
			c.dispatcher.Abort(s, ReasonInsufficientPlayers)
		}
	} else {
		c.dispatcher.Abort(s, ReasonInsufficientPlayers)
	}
	c.publishLocked(context.Background(), s)
	started := !s.startedAt.IsZero()
	ended := s.state == StateOver
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if started {
		log.Info().Str("session_id", s.id).Int("players", len(snap.Players)).Msg("lobby auto-started")
		c.started(snap)
	} else {
		log.Info().Str("session_id", s.id).Msg("lobby closed with too few players")
	}
	if ended {
		c.finish(s)
	}
}
