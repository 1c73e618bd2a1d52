package engine

import (
	"math/rand"
	"sync"
	"time"
)

const maxNotes = 8

type SessionOptions struct {
	Variant string `json:"variant,omitempty"`
	// Scope is the guild or channel the session is played in.
	Scope string `json:"scope,omitempty"`
}

// Session is one game from lobby to result. All fields are guarded by mu.
type Session struct {
	mu sync.Mutex

	id      string
	rules   Ruleset
	limits  Limits
	variant string
	scope   string

	players  []Participant
	departed []Participant
	turn     int
	turns    int
	state    State
	outcome  *Outcome
	game     Game
	rng      *rand.Rand
	handle   string
	notes    []string

	clock      *TurnClock
	gameClock  *TurnClock
	lobbyClock *TurnClock

	createdAt time.Time
	startedAt time.Time
	endedAt   time.Time

	finishOnce sync.Once
}

type Snapshot struct {
	SessionID       string        `json:"session_id"`
	Kind            string        `json:"kind"`
	Variant         string        `json:"variant,omitempty"`
	Scope           string        `json:"scope,omitempty"`
	State           State         `json:"state"`
	Players         []Participant `json:"players"`
	Turn            int           `json:"turn"`
	Current         *Participant  `json:"current,omitempty"`
	TurnToken       uint64        `json:"turn_token"`
	TurnRemainingMS int64         `json:"turn_remaining_ms"`
	GameRemainingMS int64         `json:"game_remaining_ms,omitempty"`
	Turns           int           `json:"turns"`
	Outcome         *Outcome      `json:"outcome,omitempty"`
	View            any           `json:"view,omitempty"`
	Board           string        `json:"board,omitempty"`
	Notes           []string      `json:"notes,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	StartedAt       time.Time     `json:"started_at"`
	EndedAt         time.Time     `json:"ended_at"`
}

func (s Snapshot) Host() (Participant, bool) {
	if len(s.Players) == 0 {
		return Participant{}, false
	}
	return s.Players[0], true
}

func newSession(id string, rules Ruleset, players []Participant, opts SessionOptions, rng *rand.Rand, now time.Time) *Session {
	return &Session{
		id:         id,
		rules:      rules,
		limits:     rules.Limits(),
		variant:    opts.Variant,
		scope:      opts.Scope,
		players:    append([]Participant(nil), players...),
		turn:       0,
		state:      StateForming,
		rng:        rng,
		clock:      NewTurnClock(),
		gameClock:  NewTurnClock(),
		lobbyClock: NewTurnClock(),
		createdAt:  now,
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Kind() string {
	return s.rules.Kind()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID: s.id,
		Kind:      s.rules.Kind(),
		Variant:   s.variant,
		Scope:     s.scope,
		State:     s.state,
		Players:   append([]Participant(nil), s.players...),
		Turn:      s.turn,
		TurnToken: s.clock.Generation(),
		Turns:     s.turns,
		Notes:     append([]string(nil), s.notes...),
		CreatedAt: s.createdAt,
		StartedAt: s.startedAt,
		EndedAt:   s.endedAt,
	}
	if s.state == StateActive && s.turn >= 0 && s.turn < len(s.players) {
		snap.Current = participantPtr(s.players[s.turn])
		snap.TurnRemainingMS = s.clock.Remaining().Milliseconds()
		snap.GameRemainingMS = s.gameClock.Remaining().Milliseconds()
	}
	if s.outcome != nil {
		out := *s.outcome
		out.Standings = append([]Participant(nil), out.Standings...)
		snap.Outcome = &out
	}
	if s.game != nil {
		snap.View = s.game.View(s.turn)
		if d, ok := s.game.(Describer); ok {
			snap.Board = d.Describe(s.turn)
		}
	}
	return snap
}

func (s *Session) record() Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := Record{
		SessionID:    s.id,
		Kind:         s.rules.Kind(),
		Variant:      s.variant,
		Scope:        s.scope,
		Participants: append(append([]Participant(nil), s.players...), s.departed...),
		Turns:        s.turns,
		StartedAt:    s.startedAt,
		EndedAt:      s.endedAt,
	}
	if s.outcome != nil {
		rec.Outcome = *s.outcome
	}
	if t, ok := s.game.(Tallier); ok {
		rec.Tallies = t.Tallies()
	}
	return rec
}

func (s *Session) seatOf(participantID string) int {
	for i, p := range s.players {
		if p.ID == participantID {
			return i
		}
	}
	return -1
}

func (s *Session) eligible(seat int) bool {
	if seat < 0 || seat >= len(s.players) {
		return false
	}
	if s.game == nil {
		return true
	}
	return !s.game.Eliminated(seat)
}

func (s *Session) eligibleSeats() []int {
	var seats []int
	for i := range s.players {
		if s.eligible(i) {
			seats = append(seats, i)
		}
	}
	return seats
}

// nextEligible returns the first eligible seat after from, wrapping around, or -1.
func (s *Session) nextEligible(from int) int {
	n := len(s.players)
	for step := 1; step <= n; step++ {
		seat := ((from+step)%n + n) % n
		if s.eligible(seat) {
			return seat
		}
	}
	return -1
}

func (s *Session) addNote(note string) {
	if note == "" {
		return
	}
	s.notes = append(s.notes, note)
	if len(s.notes) > maxNotes {
		s.notes = s.notes[len(s.notes)-maxNotes:]
	}
}

// formingBefore reports a lobby created before cutoff that is still waiting for players.
func (s *Session) formingBefore(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateForming && s.createdAt.Before(cutoff)
}

func (s *Session) endedBefore(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateOver && s.endedAt.Before(cutoff)
}

func removeParticipant(players []Participant, seat int) []Participant {
	out := make([]Participant, 0, len(players)-1)
	out = append(out, players[:seat]...)
	return append(out, players[seat+1:]...)
}
