package engine

import (
	"math/rand"
	"time"
)

// NoSeat marks an unset winner or loser in a Result.
const NoSeat = -1

type Limits struct {
	MinPlayers    int
	MaxPlayers    int
	TurnTimeout   time.Duration
	StartCooldown time.Duration
	AllowBots     bool
	// Lobby kinds are opened with OpenLobby and started by their host.
	Lobby bool
}

// Ruleset builds games of one kind and exposes its bot tiers.
type Ruleset interface {
	Kind() string
	Limits() Limits
	// Variants lists accepted variants, the first being the default. Nil means none.
	Variants() []string
	NewGame(players []Participant, variant string, rng *rand.Rand) (Game, error)
	// Agent returns the bot for tier, or nil when bots cannot play this kind.
	Agent(tier string) Agent
}

// Game is the payload of an active session. Seats index the session's current players;
// the engine calls every method with the session lock held.
type Game interface {
	Validate(seat int, m Move) error
	Apply(seat int, m Move) Result
	Eliminated(seat int) bool
	// RemoveSeat drops a departed player; seats after it shift down by one.
	RemoveSeat(seat int)
	// View returns a copy of the public state as seen while turn is to act.
	View(turn int) any
}

// Describer renders a plain text board for chat presenters.
type Describer interface {
	Describe(turn int) string
}

// Ranker orders seats best first.
type Ranker interface {
	Standings() []int
}

// TimeLimited games end after a total time limit regardless of turns.
type TimeLimited interface {
	TimeLimit() time.Duration
	OnTimeLimit() Result
}

// Concluder lets a game settle its own result after seats drop out or at deal time.
type Concluder interface {
	Conclude() (Result, bool)
}

// Tallier reports per-participant counters for the stats recorder.
type Tallier interface {
	Tallies() map[string]Tally
}

type Tally map[string]int64

type Result struct {
	Note     string
	KeepTurn bool
	// SkipNext passes over the next eligible seat once.
	SkipNext bool
	Over     bool
	Winner   int
	Loser    int
	Reason   Reason
}

func Continue(note string) Result {
	return Result{Note: note, Winner: NoSeat, Loser: NoSeat}
}

func Win(winner, loser int, note string) Result {
	return Result{Note: note, Over: true, Winner: winner, Loser: loser, Reason: ReasonWin}
}

func Draw(note string) Result {
	return Result{Note: note, Over: true, Winner: NoSeat, Loser: NoSeat, Reason: ReasonDraw}
}

// Agent picks a move for seat. It must not mutate g.
type Agent interface {
	Decide(g Game, seat int, rng *rand.Rand) Action
}

type AgentFunc func(g Game, seat int, rng *rand.Rand) Action

func (f AgentFunc) Decide(g Game, seat int, rng *rand.Rand) Action {
	return f(g, seat, rng)
}
