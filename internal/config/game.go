package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// GameConfig holds engine deadlines and per-game tuning.
type GameConfig struct {
	InviteTimeout    time.Duration `env:"INVITE_TIMEOUT" envDefault:"60s"`
	LobbyTimeout     time.Duration `env:"LOBBY_TIMEOUT" envDefault:"120s"`
	BotThinkDelay    time.Duration `env:"BOT_THINK_DELAY" envDefault:"1s"`
	SessionRetention time.Duration `env:"SESSION_RETENTION" envDefault:"10m"`

	DuelTurnTimeout      time.Duration `env:"DUEL_TURN_TIMEOUT" envDefault:"20s"`
	DuelStartCooldown    time.Duration `env:"DUEL_START_COOLDOWN" envDefault:"30s"`
	TicTacToeTurnTimeout time.Duration `env:"TICTACTOE_TURN_TIMEOUT" envDefault:"15s"`
	FlipFindTurnTimeout  time.Duration `env:"FLIPFIND_TURN_TIMEOUT" envDefault:"30s"`
	JackTurnTimeout      time.Duration `env:"JACK_TURN_TIMEOUT" envDefault:"30s"`
	JackPairChance       float64       `env:"JACK_PAIR_CHANCE" envDefault:"0.4"`
}

func LoadGame() (GameConfig, error) {
	var cfg GameConfig
	err := env.Parse(&cfg)
	return cfg, err
}
