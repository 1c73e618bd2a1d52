package engine

import "time"

type State string

const (
	StateForming State = "forming"
	StateActive  State = "active"
	StateOver    State = "over"
)

type OutcomeKind string

const (
	OutcomeWinner  OutcomeKind = "winner"
	OutcomeDraw    OutcomeKind = "draw"
	OutcomeAborted OutcomeKind = "aborted"
)

type Reason string

const (
	ReasonWin                 Reason = "win"
	ReasonDraw                Reason = "draw"
	ReasonTimeout             Reason = "timeout"
	ReasonForfeit             Reason = "forfeit"
	ReasonTimeLimit           Reason = "time_limit"
	ReasonLastStanding        Reason = "last_standing"
	ReasonInsufficientPlayers Reason = "insufficient_players"
	ReasonPresentationFailure Reason = "presentation_failure"
	ReasonAdmin               Reason = "admin_abort"
)

type Outcome struct {
	Kind      OutcomeKind   `json:"kind"`
	Reason    Reason        `json:"reason"`
	Winner    *Participant  `json:"winner,omitempty"`
	Loser     *Participant  `json:"loser,omitempty"`
	Standings []Participant `json:"standings,omitempty"`
}

func aborted(reason Reason) Outcome {
	return Outcome{Kind: OutcomeAborted, Reason: reason}
}

// Record is the final, immutable account of a session handed to the Recorder.
type Record struct {
	SessionID    string
	Kind         string
	Variant      string
	Scope        string
	Participants []Participant
	Outcome      Outcome
	Turns        int
	StartedAt    time.Time
	EndedAt      time.Time
	Tallies      map[string]Tally
}

func (r Record) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.EndedAt.Before(r.StartedAt) {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

func (r Record) Participant(id string) (Participant, bool) {
	for _, p := range r.Participants {
		if p.ID == id {
			return p, true
		}
	}
	return Participant{}, false
}
