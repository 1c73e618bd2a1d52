package config

import (
	"errors"
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
)

type ServerConfig struct {
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	AdminAPIKey string `env:"ADMIN_API_KEY"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`
	PostgresDSN string `env:"POSTGRES_DSN"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"arcade.db"`

	RedisURL string `env:"REDIS_URL"`

	DiscordWebhookURL string `env:"DISCORD_WEBHOOK_URL"`
	PushTimeoutMS     int    `env:"PUSH_TIMEOUT_MS" envDefault:"5000"`

	WinRewardCoins int64 `env:"WIN_REWARD_COINS" envDefault:"25"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			return cfg, errors.New("POSTGRES_DSN is required when STORE_DRIVER=postgres")
		}
	case StoreDriverSQLite:
		if strings.TrimSpace(cfg.SQLitePath) == "" {
			return cfg, errors.New("SQLITE_PATH is required when STORE_DRIVER=sqlite")
		}
	default:
		return cfg, errors.New("STORE_DRIVER must be postgres or sqlite")
	}
	return cfg, nil
}
