package main

import (
	"math/rand"
	"testing"

	"hexa-arcade/internal/engine"
	"hexa-arcade/internal/games/duel"
	"hexa-arcade/internal/games/tictactoe"
)

func TestDecideTicTacToePicksFreeCell(t *testing.T) {
	snap := engine.Snapshot{Kind: tictactoe.Kind, View: map[string]any{
		"board": []string{"X", "O", "X", "O", "X", "O", "O", ".", "X"},
	}}
	move, ok := decide(rand.New(rand.NewSource(1)), snap)
	if !ok || move.Type != tictactoe.MoveMark || move.Index != 7 {
		t.Fatalf("unexpected move %+v ok=%v", move, ok)
	}
}

func TestDecideDuelAndUnknown(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	move, ok := decide(rnd, engine.Snapshot{Kind: duel.Kind})
	if !ok || (move.Type != duel.MovePunch && move.Type != duel.MoveKick && move.Type != duel.MoveDefend) {
		t.Fatalf("unexpected duel move %+v", move)
	}
	if _, ok := decide(rnd, engine.Snapshot{Kind: "jack"}); ok {
		t.Fatal("expected no move for unsupported kind")
	}
}
