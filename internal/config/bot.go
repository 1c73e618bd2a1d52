package config

import "github.com/caarlos0/env/v11"

// BotConfig drives cmd/dumb-bot, a websocket client seated in one session.
type BotConfig struct {
	WSURL           string `env:"WS_URL" envDefault:"ws://localhost:8080/api/sessions"`
	SessionID       string `env:"SESSION_ID"`
	ParticipantID   string `env:"PARTICIPANT_ID" envDefault:"dumb-bot"`
	ParticipantName string `env:"PARTICIPANT_NAME" envDefault:"Dumb Bot"`
}

func LoadBot() (BotConfig, error) {
	var cfg BotConfig
	err := env.Parse(&cfg)
	return cfg, err
}
