package store

import "time"

// StatLine is one participant's contribution from one finished session.
type StatLine struct {
	Scope       string
	Kind        string
	Variant     string
	UserID      string
	DisplayName string

	Win       bool
	Loss      bool
	Draw      bool
	Escaped   bool
	Kidnapper bool

	Turns    int
	Duration time.Duration
	Stars    int

	// Placement is 1-based; zero means the game has no placements.
	Placement int

	// RecordBest lets Duration and Turns compete for best_time_ms / best_turns.
	RecordBest bool
}

// GameStats is the accumulated row for (scope, kind, variant, user).
type GameStats struct {
	Scope          string    `json:"scope"`
	Kind           string    `json:"kind"`
	Variant        string    `json:"variant"`
	UserID         string    `json:"user_id"`
	DisplayName    string    `json:"display_name"`
	GamesPlayed    int64     `json:"games_played"`
	Wins           int64     `json:"wins"`
	Losses         int64     `json:"losses"`
	Draws          int64     `json:"draws"`
	Escapes        int64     `json:"escapes"`
	KidnapperCount int64     `json:"kidnapper_count"`
	TotalTurns     int64     `json:"total_turns"`
	TotalTimeMS    int64     `json:"total_time_ms"`
	BestTimeMS     *int64    `json:"best_time_ms,omitempty"`
	BestTurns      *int64    `json:"best_turns,omitempty"`
	StarCards      int64     `json:"star_cards"`
	BestPlacement  *int64    `json:"best_placement,omitempty"`
	PlacementSum   int64     `json:"placement_sum"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// LeaderboardOrder selects one of the fixed ranking orders.
type LeaderboardOrder int

const (
	OrderWins LeaderboardOrder = iota
	OrderWinsStars
	OrderEscapes
)

type LeaderboardQuery struct {
	Scope   string
	Kind    string
	Variant string
	Order   LeaderboardOrder
	Limit   int
}

type LeaderboardEntry struct {
	Rank int `json:"rank"`
	GameStats
}

type Account struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Balance     int64     `json:"balance"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type LedgerEntry struct {
	ID        string
	UserID    string
	Type      string
	Amount    int64
	RefType   string
	RefID     string
	CreatedAt time.Time
}

// SessionResult is the archived outcome of one session.
type SessionResult struct {
	SessionID    string    `json:"session_id"`
	Scope        string    `json:"scope"`
	Kind         string    `json:"kind"`
	Variant      string    `json:"variant"`
	OutcomeKind  string    `json:"outcome_kind"`
	Reason       string    `json:"reason"`
	WinnerID     string    `json:"winner_id,omitempty"`
	LoserID      string    `json:"loser_id,omitempty"`
	Participants []string  `json:"participants"`
	Turns        int       `json:"turns"`
	StartedAt    time.Time `json:"started_at"`
	EndedAt      time.Time `json:"ended_at"`
}

// OrderClause returns the ORDER BY body for o. Both drivers share it.
func OrderClause(o LeaderboardOrder) string {
	switch o {
	case OrderWinsStars:
		return "wins DESC, star_cards DESC, games_played ASC, user_id ASC"
	case OrderEscapes:
		return "escapes DESC, kidnapper_count ASC, games_played ASC, user_id ASC"
	default:
		return "wins DESC, losses ASC, games_played ASC, user_id ASC"
	}
}

func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return 10
	}
	if limit > 100 {
		return 100
	}
	return limit
}

// Bests returns the nullable best-of columns carried by a line.
func (l StatLine) Bests() (timeMS, turns, placement *int64) {
	if l.RecordBest {
		ms := l.Duration.Milliseconds()
		t := int64(l.Turns)
		timeMS, turns = &ms, &t
	}
	if l.Placement > 0 {
		p := int64(l.Placement)
		placement = &p
	}
	return timeMS, turns, placement
}
