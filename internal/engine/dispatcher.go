package engine

import (
	"errors"
	"fmt"
	"time"
)

// Dispatcher applies actions to sessions. Every method expects the session lock held.
type Dispatcher struct {
	registry *Registry
	now      func() time.Time

	// Hooks are invoked with the session lock held and must not block on it.
	onTurnTimeout func(s *Session, gen uint64)
	onTimeLimit   func(s *Session, gen uint64)
	onBotTurn     func(s *Session, gen uint64)
}

func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry, now: time.Now}
}

func (d *Dispatcher) Apply(s *Session, actor Participant, a Action) (Applied, error) {
	switch a.Kind {
	case ActionJoin:
		return d.join(s, actor)
	case ActionStart:
		return d.start(s, actor)
	case ActionLeave:
		return d.leave(s, actor)
	case ActionMove, ActionForfeit:
	default:
		return Applied{}, ErrInvalidAction
	}

	if s.state != StateActive {
		return Applied{}, ErrNotActive
	}
	if a.Turn != 0 && a.Turn != s.clock.Generation() {
		return Applied{}, ErrStaleTurn
	}
	if s.clock.Due(d.now()) && s.clock.Claim(s.clock.Generation()) {
		out := d.timeout(s)
		return Applied{TurnEnded: true, SessionEnded: true, Outcome: out}, ErrStaleTurn
	}
	seat := s.seatOf(actor.ID)
	if seat < 0 {
		return Applied{}, ErrNotParticipant
	}
	if a.Kind == ActionForfeit {
		s.addNote(fmt.Sprintf("%s forfeits", s.players[seat].DisplayName()))
		out := d.end(s, d.lossOutcome(s, seat, ReasonForfeit))
		return Applied{TurnEnded: true, SessionEnded: true, Outcome: out}, nil
	}
	if seat != s.turn {
		return Applied{}, ErrNotYourTurn
	}
	if err := s.game.Validate(seat, a.Move); err != nil {
		var ruleErr *RuleError
		if !errors.As(err, &ruleErr) {
			err = &RuleError{Reason: err.Error()}
		}
		return Applied{}, err
	}

	res := s.game.Apply(seat, a.Move)
	s.turns++
	s.addNote(res.Note)
	if res.Over {
		out := d.end(s, d.resultOutcome(s, res))
		return Applied{TurnEnded: true, SessionEnded: true, Outcome: out, Note: res.Note}, nil
	}
	if res.KeepTurn && s.eligible(seat) {
		return Applied{Note: res.Note}, nil
	}
	applied := d.advance(s, res.SkipNext)
	applied.Note = res.Note
	return applied, nil
}

// Activate moves a forming session to active: registers everyone, builds the game and
// starts the first turn.
func (d *Dispatcher) Activate(s *Session) error {
	if s.state != StateForming {
		return ErrNotForming
	}
	if err := d.registry.Register(s.id, s.players); err != nil {
		return err
	}
	game, err := s.rules.NewGame(append([]Participant(nil), s.players...), s.variant, s.rng)
	if err != nil {
		d.registry.Unregister(s.id)
		return err
	}
	s.game = game
	s.state = StateActive
	s.startedAt = d.now()
	s.lobbyClock.Cancel()
	if tl, ok := game.(TimeLimited); ok && tl.TimeLimit() > 0 {
		s.gameClock.Start(tl.TimeLimit(), func(gen uint64) {
			if d.onTimeLimit != nil {
				d.onTimeLimit(s, gen)
			}
		})
	}
	s.turn = 0
	if _, ok := d.conclude(s); ok {
		return nil
	}
	if !s.eligible(0) {
		d.advance(s, false)
		return nil
	}
	d.beginTurn(s)
	return nil
}

// Timeout ends the session against the player holding the turn. The caller must have
// claimed the turn generation.
func (d *Dispatcher) Timeout(s *Session) *Outcome {
	return d.timeout(s)
}

// TimeLimit ends a time limited game with the game's own verdict.
func (d *Dispatcher) TimeLimit(s *Session) *Outcome {
	tl, ok := s.game.(TimeLimited)
	if !ok {
		return d.end(s, Outcome{Kind: OutcomeDraw, Reason: ReasonTimeLimit})
	}
	res := tl.OnTimeLimit()
	res.Over = true
	res.Reason = ReasonTimeLimit
	s.addNote(res.Note)
	return d.end(s, d.resultOutcome(s, res))
}

// Abort ends the session without a winner.
func (d *Dispatcher) Abort(s *Session, reason Reason) *Outcome {
	return d.end(s, aborted(reason))
}

func (d *Dispatcher) timeout(s *Session) *Outcome {
	s.addNote(fmt.Sprintf("%s ran out of time", s.players[s.turn].DisplayName()))
	return d.end(s, d.lossOutcome(s, s.turn, ReasonTimeout))
}

func (d *Dispatcher) join(s *Session, actor Participant) (Applied, error) {
	if s.state != StateForming {
		return Applied{}, ErrNotForming
	}
	if !actor.Valid() {
		return Applied{}, ErrInvalidParticipant
	}
	if s.seatOf(actor.ID) >= 0 {
		return Applied{}, ErrAlreadyJoined
	}
	if actor.Automated && !s.limits.AllowBots {
		return Applied{}, ErrBotsNotAllowed
	}
	if len(s.players) >= s.limits.MaxPlayers {
		return Applied{}, ErrLobbyFull
	}
	if current, ok := d.registry.SessionFor(actor.ID); ok {
		return Applied{}, &AlreadyInSessionError{ParticipantID: actor.ID, SessionID: current}
	}
	s.players = append(s.players, actor)
	note := fmt.Sprintf("%s joined", actor.DisplayName())
	s.addNote(note)
	return Applied{Note: note}, nil
}

func (d *Dispatcher) start(s *Session, actor Participant) (Applied, error) {
	if s.state != StateForming {
		return Applied{}, ErrNotForming
	}
	if len(s.players) == 0 || s.players[0].ID != actor.ID {
		return Applied{}, ErrNotHost
	}
	if len(s.players) < s.limits.MinPlayers {
		return Applied{}, ErrNotEnoughPlayers
	}
	if err := d.Activate(s); err != nil {
		return Applied{}, err
	}
	applied := Applied{TurnEnded: true, Note: "game started"}
	if s.state == StateOver {
		applied.SessionEnded = true
		applied.Outcome = s.outcome
	}
	return applied, nil
}

func (d *Dispatcher) leave(s *Session, actor Participant) (Applied, error) {
	seat := s.seatOf(actor.ID)
	if seat < 0 {
		return Applied{}, ErrNotParticipant
	}
	note := fmt.Sprintf("%s left", actor.DisplayName())

	switch s.state {
	case StateForming:
		s.players = removeParticipant(s.players, seat)
		s.addNote(note)
		if len(s.players) < s.limits.MinPlayers {
			out := d.end(s, aborted(ReasonInsufficientPlayers))
			return Applied{SessionEnded: true, Outcome: out, Note: note}, nil
		}
		return Applied{Note: note}, nil
	case StateActive:
	default:
		return Applied{}, ErrNotActive
	}

	leaver := s.players[seat]
	wasTurn := seat == s.turn
	d.registry.Release(s.id, leaver.ID)
	s.departed = append(s.departed, leaver)
	s.game.RemoveSeat(seat)
	s.players = removeParticipant(s.players, seat)
	s.addNote(note)
	if seat < s.turn {
		s.turn--
	}

	if out, ok := d.conclude(s); ok {
		return Applied{TurnEnded: true, SessionEnded: true, Outcome: out, Note: note}, nil
	}
	eligible := s.eligibleSeats()
	switch len(eligible) {
	case 0:
		out := d.end(s, aborted(ReasonInsufficientPlayers))
		return Applied{TurnEnded: true, SessionEnded: true, Outcome: out, Note: note}, nil
	case 1:
		out := d.end(s, Outcome{
			Kind:   OutcomeWinner,
			Reason: ReasonLastStanding,
			Winner: participantPtr(s.players[eligible[0]]),
			Loser:  participantPtr(leaver),
		})
		return Applied{TurnEnded: true, SessionEnded: true, Outcome: out, Note: note}, nil
	}

	if !wasTurn {
		return Applied{Note: note}, nil
	}
	// The seat that followed the leaver now occupies its index.
	s.turn = seat - 1
	applied := d.advance(s, false)
	applied.Note = note
	return applied, nil
}

func (d *Dispatcher) advance(s *Session, skipNext bool) Applied {
	eligible := s.eligibleSeats()
	if len(eligible) <= 1 {
		var out *Outcome
		if len(eligible) == 1 {
			out = d.end(s, Outcome{
				Kind:   OutcomeWinner,
				Reason: ReasonLastStanding,
				Winner: participantPtr(s.players[eligible[0]]),
			})
		} else {
			out = d.end(s, aborted(ReasonInsufficientPlayers))
		}
		return Applied{TurnEnded: true, SessionEnded: true, Outcome: out}
	}
	next := s.nextEligible(s.turn)
	if skipNext {
		s.addNote(fmt.Sprintf("%s loses a turn", s.players[next].DisplayName()))
		next = s.nextEligible(next)
	}
	s.turn = next
	d.beginTurn(s)
	return Applied{TurnEnded: true}
}

// conclude ends the session when the game settles its own result.
func (d *Dispatcher) conclude(s *Session) (*Outcome, bool) {
	c, ok := s.game.(Concluder)
	if !ok {
		return nil, false
	}
	res, done := c.Conclude()
	if !done {
		return nil, false
	}
	s.addNote(res.Note)
	return d.end(s, d.resultOutcome(s, res)), true
}

func (d *Dispatcher) beginTurn(s *Session) {
	if s.players[s.turn].Automated {
		gen := s.clock.Start(0, nil)
		if d.onBotTurn != nil {
			d.onBotTurn(s, gen)
		}
		return
	}
	s.clock.Start(s.limits.TurnTimeout, func(gen uint64) {
		if d.onTurnTimeout != nil {
			d.onTurnTimeout(s, gen)
		}
	})
}

func (d *Dispatcher) end(s *Session, out Outcome) *Outcome {
	if s.state == StateOver {
		return s.outcome
	}
	s.clock.Cancel()
	s.gameClock.Cancel()
	s.lobbyClock.Cancel()
	if out.Standings == nil && out.Kind != OutcomeAborted {
		out.Standings = d.standings(s, out.Loser)
	}
	s.state = StateOver
	s.outcome = &out
	s.endedAt = d.now()
	d.registry.Unregister(s.id)
	return s.outcome
}

// lossOutcome ends the game against seat; the best ranked other seat wins.
func (d *Dispatcher) lossOutcome(s *Session, seat int, reason Reason) Outcome {
	loser := s.players[seat]
	winner := -1
	if r, ok := s.game.(Ranker); ok {
		for _, candidate := range r.Standings() {
			if candidate != seat && candidate >= 0 && candidate < len(s.players) {
				winner = candidate
				break
			}
		}
	}
	if winner < 0 {
		for step := 1; step < len(s.players); step++ {
			candidate := (seat + step) % len(s.players)
			if s.eligible(candidate) {
				winner = candidate
				break
			}
		}
	}
	if winner < 0 {
		return Outcome{Kind: OutcomeAborted, Reason: reason, Loser: participantPtr(loser)}
	}
	return Outcome{
		Kind:   OutcomeWinner,
		Reason: reason,
		Winner: participantPtr(s.players[winner]),
		Loser:  participantPtr(loser),
	}
}

func (d *Dispatcher) resultOutcome(s *Session, res Result) Outcome {
	if res.Winner < 0 || res.Winner >= len(s.players) {
		reason := res.Reason
		if reason == "" || reason == ReasonWin {
			reason = ReasonDraw
		}
		return Outcome{Kind: OutcomeDraw, Reason: reason}
	}
	reason := res.Reason
	if reason == "" || reason == ReasonDraw {
		reason = ReasonWin
	}
	out := Outcome{Kind: OutcomeWinner, Reason: reason, Winner: participantPtr(s.players[res.Winner])}
	if res.Loser >= 0 && res.Loser < len(s.players) {
		out.Loser = participantPtr(s.players[res.Loser])
	}
	return out
}

// standings lists the players best first, the loser (if any) last.
func (d *Dispatcher) standings(s *Session, loser *Participant) []Participant {
	r, ok := s.game.(Ranker)
	if !ok {
		return nil
	}
	var out []Participant
	var last *Participant
	for _, seat := range r.Standings() {
		if seat < 0 || seat >= len(s.players) {
			continue
		}
		p := s.players[seat]
		if loser != nil && p.ID == loser.ID {
			last = participantPtr(p)
			continue
		}
		out = append(out, p)
	}
	if last != nil {
		out = append(out, *last)
	}
	return out
}
