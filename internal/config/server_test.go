package config

import "testing"

func TestLoadServerDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://localhost:5432/arcade?sslmode=disable")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.StoreDriver != StoreDriverPostgres {
		t.Fatalf("StoreDriver = %q, want postgres", cfg.StoreDriver)
	}
	if cfg.WinRewardCoins != 25 {
		t.Fatalf("WinRewardCoins = %d, want 25", cfg.WinRewardCoins)
	}
	if cfg.PushTimeoutMS != 5000 {
		t.Fatalf("PushTimeoutMS = %d, want 5000", cfg.PushTimeoutMS)
	}
}

func TestLoadServerRequiresPostgresDSN(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")

	_, err := LoadServer()
	if err == nil {
		t.Fatal("LoadServer() expected error, got nil")
	}
}

func TestLoadServerSQLiteNeedsNoDSN(t *testing.T) {
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("SQLITE_PATH", "/tmp/arcade-test.db")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.StoreDriver != StoreDriverSQLite {
		t.Fatalf("StoreDriver = %q, want sqlite", cfg.StoreDriver)
	}
	if cfg.SQLitePath != "/tmp/arcade-test.db" {
		t.Fatalf("SQLitePath = %q", cfg.SQLitePath)
	}
}

func TestLoadServerRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mysql")

	if _, err := LoadServer(); err == nil {
		t.Fatal("LoadServer() expected error for unknown driver")
	}
}

func TestLoadServerParseTypes(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://localhost:5432/arcade?sslmode=disable")
	t.Setenv("WIN_REWARD_COINS", "40")
	t.Setenv("REDIS_URL", "redis://localhost:6379/1")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.WinRewardCoins != 40 {
		t.Fatalf("WinRewardCoins = %d, want 40", cfg.WinRewardCoins)
	}
	if cfg.RedisURL != "redis://localhost:6379/1" {
		t.Fatalf("RedisURL = %q", cfg.RedisURL)
	}
}
