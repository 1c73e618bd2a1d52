package jack

import (
	"math/rand"

	"hexa-arcade/internal/engine"
)

func decideRandom(g engine.Game, seat int, rng *rand.Rand) engine.Action {
	game, ok := g.(*Game)
	if !ok {
		return engine.Action{Kind: engine.ActionForfeit}
	}
	targets := game.Holding(seat)
	if len(targets) == 0 {
		return engine.Action{Kind: engine.ActionForfeit}
	}
	return engine.MoveAction(MoveDraw, targets[rng.Intn(len(targets))])
}
