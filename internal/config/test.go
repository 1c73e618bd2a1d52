package config

import "github.com/caarlos0/env/v11"

// TestConfig gates store tests that need a live Postgres.
type TestConfig struct {
	TestPostgresDSN string `env:"TEST_POSTGRES_DSN,required,notEmpty"`
}

func LoadTest() (TestConfig, error) {
	var cfg TestConfig
	err := env.Parse(&cfg)
	return cfg, err
}

// TestRedisConfig gates cooldown tests that need a live Redis.
type TestRedisConfig struct {
	TestRedisURL string `env:"TEST_REDIS_URL,required,notEmpty"`
}

func LoadTestRedis() (TestRedisConfig, error) {
	var cfg TestRedisConfig
	err := env.Parse(&cfg)
	return cfg, err
}
