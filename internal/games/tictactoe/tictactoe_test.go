package tictactoe

import (
	"context"
	"errors"
	"testing"
	"time"

	"hexa-arcade/internal/engine"
)

func play(t *testing.T, g *Game, seat, cell int) engine.Result {
	t.Helper()
	m := engine.Move{Type: MoveMark, Index: cell}
	if err := g.Validate(seat, m); err != nil {
		t.Fatalf("seat %d cell %d: %v", seat, cell, err)
	}
	return g.Apply(seat, m)
}

func TestRowWins(t *testing.T) {
	g := &Game{}
	play(t, g, 0, 0)
	play(t, g, 1, 3)
	play(t, g, 0, 1)
	play(t, g, 1, 4)
	res := play(t, g, 0, 2)
	if !res.Over || res.Winner != 0 || res.Loser != 1 {
		t.Fatalf("expected X to win: %+v", res)
	}
}

func TestFullBoardIsDraw(t *testing.T) {
	g := &Game{}
	// X O X / X O O / O X X
	order := []int{0, 1, 2, 4, 3, 5, 7, 6, 8}
	var res engine.Result
	for i, cell := range order {
		res = play(t, g, i%2, cell)
		if res.Over && i < len(order)-1 {
			t.Fatalf("game ended early at move %d: %+v", i, res)
		}
	}
	if !res.Over || res.Reason != engine.ReasonDraw {
		t.Fatalf("expected draw: %+v", res)
	}
}

func TestValidateRejectsTakenAndOutOfRange(t *testing.T) {
	g := &Game{}
	play(t, g, 0, 4)
	var ruleErr *engine.RuleError
	if err := g.Validate(1, engine.Move{Type: MoveMark, Index: 4}); !errors.As(err, &ruleErr) || ruleErr.Reason != "cell_taken" {
		t.Fatalf("expected cell_taken, got %v", err)
	}
	if err := g.Validate(1, engine.Move{Type: MoveMark, Index: 9}); !errors.As(err, &ruleErr) || ruleErr.Reason != "cell_out_of_range" {
		t.Fatalf("expected cell_out_of_range, got %v", err)
	}
	if got := g.Describe(0); got != "123\n4X6\n789" {
		t.Fatalf("describe = %q", got)
	}
}

func TestSimpleBotOrder(t *testing.T) {
	g := &Game{}
	agent := NewRules(0).Agent(engine.TierSimple)
	if a := agent.Decide(g, 1, nil); a.Move.Index != 4 {
		t.Fatalf("first pick = %d, want center", a.Move.Index)
	}
	play(t, g, 0, 4)
	play(t, g, 1, 0)
	if a := agent.Decide(g, 0, nil); a.Move.Index != 2 {
		t.Fatalf("pick = %d, want corner 2", a.Move.Index)
	}
}

func TestMainBotWinsThenBlocks(t *testing.T) {
	agent := NewRules(0).Agent(engine.TierMain)

	g := &Game{}
	play(t, g, 0, 0)
	play(t, g, 1, 4)
	play(t, g, 0, 1)
	if a := agent.Decide(g, 1, nil); a.Move.Index != 2 {
		t.Fatalf("bot should block at 2, got %d", a.Move.Index)
	}
	play(t, g, 1, 3)
	play(t, g, 0, 8)
	if a := agent.Decide(g, 1, nil); a.Move.Index != 5 {
		t.Fatalf("bot should win at 5, got %d", a.Move.Index)
	}
}

func TestBotGameRunsToCompletion(t *testing.T) {
	rules := NewRules(time.Hour)
	rec := &captureRecorder{done: make(chan engine.Record, 1)}
	c := engine.NewCoordinator([]engine.Ruleset{rules}, engine.Options{Recorder: rec})
	human := engine.Participant{ID: "u-1", Name: "Ann"}
	bot := engine.Participant{ID: "bot-1", Name: "Arcade", Tier: engine.TierMain}
	snap, err := c.CreateAgainstBot(context.Background(), Kind, human, bot, engine.SessionOptions{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	agent := rules.Agent(engine.TierSimple)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		cur, err := c.Snapshot(snap.SessionID)
		if err != nil {
			t.Fatalf("snapshot: %v", err)
		}
		if cur.State == engine.StateOver {
			break
		}
		if cur.Current == nil || cur.Current.ID != human.ID {
			time.Sleep(2 * time.Millisecond)
			continue
		}
		board := cur.View.(View)
		g := &Game{moves: board.Moves}
		for i, s := range board.Board {
			switch s {
			case "X":
				g.board[i] = markX
			case "O":
				g.board[i] = markO
			}
		}
		a := agent.Decide(g, 0, nil)
		a.Turn = cur.TurnToken
		if _, err := c.SubmitAction(context.Background(), snap.SessionID, human, a); err != nil {
			t.Fatalf("human move: %v", err)
		}
	}
	select {
	case r := <-rec.done:
		if r.Outcome.Kind == engine.OutcomeAborted {
			t.Fatalf("unexpected abort: %+v", r.Outcome)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("game never finished")
	}
}

type captureRecorder struct {
	done chan engine.Record
}

func (r *captureRecorder) RecordOutcome(_ context.Context, rec engine.Record) error {
	r.done <- rec
	return nil
}
