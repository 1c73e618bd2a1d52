package flipfind

import (
	"errors"
	"math/rand"
	"testing"

	"hexa-arcade/internal/engine"
)

var players = []engine.Participant{{ID: "u-1", Name: "Ann"}, {ID: "u-2", Name: "Ben"}}

func newTestGame(t *testing.T, variant string) *Game {
	t.Helper()
	g, err := NewRules(0).NewGame(players, variant, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	return g.(*Game)
}

// pairOf returns the index of the other card with the same face as i.
func pairOf(g *Game, i int) int {
	for j, c := range g.cards {
		if j != i && c.face == g.cards[i].face {
			return j
		}
	}
	return -1
}

func mismatchOf(g *Game, i int) int {
	for j, c := range g.cards {
		if j != i && !c.star && !c.matched && c.face != g.cards[i].face {
			return j
		}
	}
	return -1
}

func starIndex(g *Game) int {
	for i, c := range g.cards {
		if c.star {
			return i
		}
	}
	return -1
}

func flip(t *testing.T, g *Game, seat, idx int) engine.Result {
	t.Helper()
	m := engine.Move{Type: MoveFlip, Index: idx}
	if err := g.Validate(seat, m); err != nil {
		t.Fatalf("flip %d: %v", idx, err)
	}
	return g.Apply(seat, m)
}

func TestBoardSizes(t *testing.T) {
	cases := map[string]int{Easy: 16, Medium: 16, Hard: 25, Extreme: 25}
	for variant, want := range cases {
		g := newTestGame(t, variant)
		if len(g.cards) != want {
			t.Fatalf("%s: %d cards, want %d", variant, len(g.cards), want)
		}
		hasStar := starIndex(g) >= 0
		if hasStar != (want == 25) {
			t.Fatalf("%s: star card present = %v", variant, hasStar)
		}
	}
	if newTestGame(t, Medium).TimeLimit() == 0 || newTestGame(t, Easy).TimeLimit() != 0 {
		t.Fatal("time limits do not follow difficulty")
	}
	if _, err := NewRules(0).NewGame(players, "nightmare", rand.New(rand.NewSource(1))); !errors.Is(err, engine.ErrUnknownVariant) {
		t.Fatalf("expected ErrUnknownVariant, got %v", err)
	}
}

func TestMatchKeepsTurnAndMismatchPasses(t *testing.T) {
	g := newTestGame(t, Easy)
	res := flip(t, g, 0, 0)
	if !res.KeepTurn {
		t.Fatal("first flip should keep the turn")
	}
	if err := g.Validate(0, engine.Move{Type: MoveFlip, Index: 0}); err == nil {
		t.Fatal("flipping the same card twice was accepted")
	}
	res = flip(t, g, 0, pairOf(g, 0))
	if !res.KeepTurn || res.Over || g.scores[0] != 1 {
		t.Fatalf("match should score and keep turn: %+v scores=%v", res, g.scores)
	}

	a := 1
	for g.cards[a].matched {
		a++
	}
	flip(t, g, 0, a)
	b := mismatchOf(g, a)
	res = flip(t, g, 0, b)
	if res.KeepTurn || res.Over {
		t.Fatalf("mismatch should pass the turn: %+v", res)
	}
	v := g.View(1).(View)
	if v.Cells[a] == "?" || v.Cells[b] == "?" {
		t.Fatal("mismatched pair should stay visible until the next flip")
	}
	if g.turns != 2 {
		t.Fatalf("turns = %d, want 2", g.turns)
	}
}

func TestStarCardEndsTurn(t *testing.T) {
	g := newTestGame(t, Hard)
	star := starIndex(g)
	res := flip(t, g, 1, star)
	if res.KeepTurn || res.Over || g.stars[1] != 1 {
		t.Fatalf("star should end the turn and count: %+v", res)
	}
	var ruleErr *engine.RuleError
	if err := g.Validate(0, engine.Move{Type: MoveFlip, Index: star}); !errors.As(err, &ruleErr) {
		t.Fatalf("claimed star should be rejected, got %v", err)
	}
	if tallies := g.Tallies(); tallies["u-2"][TallyStars] != 1 {
		t.Fatalf("tallies = %+v", tallies)
	}
}

func TestClearingBoardDecidesWinner(t *testing.T) {
	g := newTestGame(t, Easy)
	var res engine.Result
	for i := range g.cards {
		if g.cards[i].matched {
			continue
		}
		flip(t, g, 0, i)
		res = flip(t, g, 0, pairOf(g, i))
	}
	if !res.Over || res.Winner != 0 || g.scores[0] != 8 {
		t.Fatalf("expected seat 0 to win: %+v scores=%v", res, g.scores)
	}
}

func TestTimeLimitTieIsDraw(t *testing.T) {
	g := newTestGame(t, Medium)
	res := g.OnTimeLimit()
	if !res.Over || res.Reason != engine.ReasonDraw {
		t.Fatalf("expected draw on equal scores: %+v", res)
	}
	g.scores[1] = 2
	res = g.OnTimeLimit()
	if res.Winner != 1 {
		t.Fatalf("expected seat 1 to win on time: %+v", res)
	}
}

func TestNoBots(t *testing.T) {
	r := NewRules(0)
	if r.Agent(engine.TierSimple) != nil || r.Limits().AllowBots {
		t.Fatal("flipfind must not offer bots")
	}
}
