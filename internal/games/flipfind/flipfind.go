// Package flipfind is a two player memory game: flip two cards per turn, keep the turn
// on a match, and grab the star card on the larger boards.
package flipfind

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"hexa-arcade/internal/engine"
)

const (
	Kind     = "flipfind"
	MoveFlip = "flip"
	starFace = "⭐"
)

const (
	Easy    = "easy"
	Medium  = "medium"
	Hard    = "hard"
	Extreme = "extreme"
)

type difficulty struct {
	grid      int
	timeLimit time.Duration
	star      bool
}

var difficulties = map[string]difficulty{
	Easy:    {grid: 4},
	Medium:  {grid: 4, timeLimit: 90 * time.Second},
	Hard:    {grid: 5, star: true},
	Extreme: {grid: 5, timeLimit: 120 * time.Second, star: true},
}

var faces = []string{
	"🐶", "🐱", "🐭", "🐹", "🐰", "🦊", "🐻", "🐼", "🐨", "🐯",
	"🦁", "🐮", "🐷", "🐸", "🐵", "🐔", "🦄", "🐙", "🦉", "🦋",
}

// Tally keys reported per participant.
const (
	TallyPairs = "pairs"
	TallyStars = "stars"
	TallyTurns = "turns"
)

type Rules struct {
	TurnTimeout time.Duration
}

func NewRules(turnTimeout time.Duration) *Rules {
	return &Rules{TurnTimeout: turnTimeout}
}

func (r *Rules) Kind() string { return Kind }

func (r *Rules) Limits() engine.Limits {
	return engine.Limits{MinPlayers: 2, MaxPlayers: 2, TurnTimeout: r.TurnTimeout}
}

func (r *Rules) Variants() []string {
	return []string{Easy, Medium, Hard, Extreme}
}

func (r *Rules) NewGame(players []engine.Participant, variant string, rng *rand.Rand) (engine.Game, error) {
	if len(players) != 2 {
		return nil, engine.ErrNotEnoughPlayers
	}
	if variant == "" {
		variant = Easy
	}
	d, ok := difficulties[variant]
	if !ok {
		return nil, engine.ErrUnknownVariant
	}
	return newGame(players, variant, d, rng), nil
}

func (r *Rules) Agent(string) engine.Agent { return nil }

type card struct {
	face    string
	star    bool
	matched bool
	claimed bool
}

type Game struct {
	difficulty string
	timeLimit  time.Duration
	grid       int
	cards      []card
	ids        []string
	scores     []int
	stars      []int
	first      int
	shown      [2]int
	turns      int
}

type View struct {
	Difficulty string   `json:"difficulty"`
	Grid       int      `json:"grid"`
	Cells      []string `json:"cells"`
	Scores     []int    `json:"scores"`
	Stars      []int    `json:"stars"`
	Turns      int      `json:"turns"`
}

func newGame(players []engine.Participant, variant string, d difficulty, rng *rand.Rand) *Game {
	total := d.grid * d.grid
	pairs := total / 2
	deck := make([]card, 0, total)
	picked := rng.Perm(len(faces))[:pairs]
	for _, i := range picked {
		deck = append(deck, card{face: faces[i]}, card{face: faces[i]})
	}
	if d.star {
		deck = append(deck, card{face: starFace, star: true})
	}
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })

	g := &Game{
		difficulty: variant,
		timeLimit:  d.timeLimit,
		grid:       d.grid,
		cards:      deck,
		scores:     make([]int, len(players)),
		stars:      make([]int, len(players)),
		first:      -1,
		shown:      [2]int{-1, -1},
	}
	for _, p := range players {
		g.ids = append(g.ids, p.ID)
	}
	return g
}

func (g *Game) Difficulty() string { return g.difficulty }

func (g *Game) Validate(_ int, m engine.Move) error {
	if m.Type != MoveFlip {
		return engine.Rule("unknown_move")
	}
	if m.Index < 0 || m.Index >= len(g.cards) {
		return engine.Rule("card_out_of_range")
	}
	c := g.cards[m.Index]
	if c.matched || c.claimed {
		return engine.Rule("card_already_taken")
	}
	if m.Index == g.first {
		return engine.Rule("card_already_flipped")
	}
	return nil
}

func (g *Game) Apply(seat int, m engine.Move) engine.Result {
	g.shown = [2]int{-1, -1}
	c := &g.cards[m.Index]

	if c.star {
		c.claimed = true
		g.stars[seat]++
		g.first = -1
		note := "found the star card, turn ends"
		if g.done() {
			return g.verdict(note)
		}
		return engine.Continue(note)
	}
	if g.first < 0 {
		g.first = m.Index
		res := engine.Continue(fmt.Sprintf("flipped %s", c.face))
		res.KeepTurn = true
		return res
	}

	g.turns++
	prev := &g.cards[g.first]
	first := g.first
	g.first = -1
	if prev.face == c.face {
		prev.matched = true
		c.matched = true
		g.scores[seat]++
		note := fmt.Sprintf("match %s", c.face)
		if g.done() {
			return g.verdict(note)
		}
		res := engine.Continue(note + ", go again")
		res.KeepTurn = true
		return res
	}
	g.shown = [2]int{first, m.Index}
	return engine.Continue(fmt.Sprintf("no match (%s, %s)", prev.face, c.face))
}

func (g *Game) done() bool {
	for _, c := range g.cards {
		if !c.matched && !c.claimed {
			return false
		}
	}
	return true
}

func (g *Game) verdict(note string) engine.Result {
	order := g.Standings()
	if len(order) < 2 {
		return engine.Win(order[0], engine.NoSeat, note)
	}
	best, second := order[0], order[1]
	if g.scores[best] == g.scores[second] {
		return engine.Draw(note)
	}
	return engine.Win(best, second, note)
}

func (g *Game) TimeLimit() time.Duration { return g.timeLimit }

func (g *Game) OnTimeLimit() engine.Result {
	return g.verdict("time is up")
}

// Standings orders seats by pairs found.
func (g *Game) Standings() []int {
	if len(g.scores) < 2 {
		return []int{0}
	}
	if g.scores[1] > g.scores[0] {
		return []int{1, 0}
	}
	return []int{0, 1}
}

func (g *Game) Eliminated(int) bool { return false }

func (g *Game) RemoveSeat(seat int) {
	if seat < 0 || seat >= len(g.ids) {
		return
	}
	g.ids = append(g.ids[:seat], g.ids[seat+1:]...)
	g.scores = append(g.scores[:seat], g.scores[seat+1:]...)
	g.stars = append(g.stars[:seat], g.stars[seat+1:]...)
}

func (g *Game) Tallies() map[string]engine.Tally {
	out := make(map[string]engine.Tally, len(g.ids))
	for i, id := range g.ids {
		out[id] = engine.Tally{
			TallyPairs: int64(g.scores[i]),
			TallyStars: int64(g.stars[i]),
			TallyTurns: int64(g.turns),
		}
	}
	return out
}

func (g *Game) View(int) any {
	v := View{
		Difficulty: g.difficulty,
		Grid:       g.grid,
		Cells:      make([]string, len(g.cards)),
		Scores:     append([]int(nil), g.scores...),
		Stars:      append([]int(nil), g.stars...),
		Turns:      g.turns,
	}
	for i, c := range g.cards {
		switch {
		case c.matched || c.claimed || i == g.first || i == g.shown[0] || i == g.shown[1]:
			v.Cells[i] = c.face
		default:
			v.Cells[i] = "?"
		}
	}
	return v
}

func (g *Game) Describe(turn int) string {
	v := g.View(turn).(View)
	var b strings.Builder
	for row := 0; row < g.grid; row++ {
		if row > 0 {
			b.WriteString("\n")
		}
		b.WriteString(strings.Join(v.Cells[row*g.grid:(row+1)*g.grid], " "))
	}
	fmt.Fprintf(&b, "\npairs %d-%d", g.scores[0], g.scores[len(g.scores)-1])
	return b.String()
}
