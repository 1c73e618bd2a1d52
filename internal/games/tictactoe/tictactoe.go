package tictactoe

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"hexa-arcade/internal/engine"
)

const (
	Kind     = "tictactoe"
	MoveMark = "mark"
	Cells    = 9
)

const (
	empty = iota
	markX
	markO
)

var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

var (
	center  = []int{4}
	corners = []int{0, 2, 6, 8}
	edges   = []int{1, 3, 5, 7}
)

type Rules struct {
	TurnTimeout time.Duration
}

func NewRules(turnTimeout time.Duration) *Rules {
	return &Rules{TurnTimeout: turnTimeout}
}

func (r *Rules) Kind() string { return Kind }

func (r *Rules) Limits() engine.Limits {
	return engine.Limits{MinPlayers: 2, MaxPlayers: 2, TurnTimeout: r.TurnTimeout, AllowBots: true}
}

func (r *Rules) Variants() []string { return nil }

func (r *Rules) NewGame(players []engine.Participant, _ string, _ *rand.Rand) (engine.Game, error) {
	if len(players) != 2 {
		return nil, engine.ErrNotEnoughPlayers
	}
	return &Game{}, nil
}

func (r *Rules) Agent(tier string) engine.Agent {
	switch tier {
	case engine.TierMain:
		return engine.AgentFunc(decideMain)
	case engine.TierSimple, "":
		return engine.AgentFunc(decideSimple)
	default:
		return nil
	}
}

// Game is a 3x3 board; seat 0 plays X.
type Game struct {
	board [Cells]int
	moves int
}

type View struct {
	Board [Cells]string `json:"board"`
	Moves int           `json:"moves"`
}

func (g *Game) Validate(_ int, m engine.Move) error {
	if m.Type != MoveMark {
		return engine.Rule("unknown_move")
	}
	if m.Index < 0 || m.Index >= Cells {
		return engine.Rule("cell_out_of_range")
	}
	if g.board[m.Index] != empty {
		return engine.Rule("cell_taken")
	}
	return nil
}

func (g *Game) Apply(seat int, m engine.Move) engine.Result {
	mark := markX + seat
	g.board[m.Index] = mark
	g.moves++
	note := fmt.Sprintf("%s takes %d", symbol(mark), m.Index+1)
	if winning(g.board, mark) {
		return engine.Win(seat, 1-seat, note)
	}
	if g.moves == Cells {
		return engine.Draw(note + ", board full")
	}
	return engine.Continue(note)
}

func (g *Game) Eliminated(int) bool { return false }

func (g *Game) RemoveSeat(int) {}

func (g *Game) View(int) any {
	v := View{Moves: g.moves}
	for i, c := range g.board {
		v.Board[i] = symbol(c)
	}
	return v
}

func (g *Game) Describe(int) string {
	var b strings.Builder
	for row := 0; row < 3; row++ {
		if row > 0 {
			b.WriteString("\n")
		}
		for col := 0; col < 3; col++ {
			i := row*3 + col
			if g.board[i] == empty {
				fmt.Fprintf(&b, "%d", i+1)
			} else {
				b.WriteString(symbol(g.board[i]))
			}
		}
	}
	return b.String()
}

// Free reports whether cell is unmarked.
func (g *Game) Free(cell int) bool {
	return cell >= 0 && cell < Cells && g.board[cell] == empty
}

func symbol(mark int) string {
	switch mark {
	case markX:
		return "X"
	case markO:
		return "O"
	default:
		return "."
	}
}

func winning(board [Cells]int, mark int) bool {
	for _, l := range lines {
		if board[l[0]] == mark && board[l[1]] == mark && board[l[2]] == mark {
			return true
		}
	}
	return false
}
