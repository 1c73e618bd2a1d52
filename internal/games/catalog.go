// Package games wires the bundled rulesets from configuration.
package games

import (
	"hexa-arcade/internal/config"
	"hexa-arcade/internal/engine"
	"hexa-arcade/internal/games/duel"
	"hexa-arcade/internal/games/flipfind"
	"hexa-arcade/internal/games/jack"
	"hexa-arcade/internal/games/tictactoe"
)

func Rulesets(cfg config.GameConfig) []engine.Ruleset {
	return []engine.Ruleset{
		duel.NewRules(cfg.DuelTurnTimeout, cfg.DuelStartCooldown),
		tictactoe.NewRules(cfg.TicTacToeTurnTimeout),
		flipfind.NewRules(cfg.FlipFindTurnTimeout),
		jack.NewRules(cfg.JackTurnTimeout, cfg.JackPairChance),
	}
}
