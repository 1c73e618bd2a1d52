package tictactoe

import (
	"math/rand"

	"hexa-arcade/internal/engine"
)

func decideSimple(g engine.Game, _ int, _ *rand.Rand) engine.Action {
	game, ok := g.(*Game)
	if !ok {
		return engine.Action{Kind: engine.ActionForfeit}
	}
	return mark(firstFree(game, center, corners, edges))
}

func decideMain(g engine.Game, seat int, _ *rand.Rand) engine.Action {
	game, ok := g.(*Game)
	if !ok {
		return engine.Action{Kind: engine.ActionForfeit}
	}
	own := markX + seat
	if cell := completing(game, own); cell >= 0 {
		return mark(cell)
	}
	if cell := completing(game, markX+(1-seat)); cell >= 0 {
		return mark(cell)
	}
	return mark(firstFree(game, center, corners, edges))
}

// completing returns a free cell that gives mark three in a row, or -1.
func completing(g *Game, mark int) int {
	for cell := 0; cell < Cells; cell++ {
		if !g.Free(cell) {
			continue
		}
		board := g.board
		board[cell] = mark
		if winning(board, mark) {
			return cell
		}
	}
	return -1
}

func firstFree(g *Game, groups ...[]int) int {
	for _, group := range groups {
		for _, cell := range group {
			if g.Free(cell) {
				return cell
			}
		}
	}
	return -1
}

func mark(cell int) engine.Action {
	return engine.MoveAction(MoveMark, cell)
}
