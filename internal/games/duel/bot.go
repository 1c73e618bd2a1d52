package duel

import (
	"math/rand"

	"hexa-arcade/internal/engine"
)

type simpleAgent struct{}

func (simpleAgent) Decide(g engine.Game, seat int, rng *rand.Rand) engine.Action {
	game, ok := g.(*Game)
	if !ok {
		return engine.Action{Kind: engine.ActionForfeit}
	}
	me := game.Fighter(seat)
	if game.CanHeal(seat) && me.HP < 50 && rng.Float64() < 0.7 {
		return engine.MoveAction(MoveHeal, 0)
	}
	switch roll := rng.Float64(); {
	case roll < 0.5:
		return engine.MoveAction(MovePunch, 0)
	case roll < 0.8:
		return engine.MoveAction(MoveKick, 0)
	default:
		return engine.MoveAction(MoveDefend, 0)
	}
}

// mainAgent plays more carefully; its critical hit boost comes from the participant tier.
type mainAgent struct{}

func (mainAgent) Decide(g engine.Game, seat int, rng *rand.Rand) engine.Action {
	game, ok := g.(*Game)
	if !ok {
		return engine.Action{Kind: engine.ActionForfeit}
	}
	me := game.Fighter(seat)
	switch {
	case me.HP < 20 && game.CanHeal(seat):
		return engine.MoveAction(MoveHeal, 0)
	case me.Defense < 1 && me.HP > 50:
		return engine.MoveAction(MoveDefend, 0)
	case rng.Float64() < 0.6:
		return engine.MoveAction(MovePunch, 0)
	default:
		return engine.MoveAction(MoveKick, 0)
	}
}
