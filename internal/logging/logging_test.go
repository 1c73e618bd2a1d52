package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hexa-arcade/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestInitWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arcade.log")
	Init(config.LogConfig{Level: "debug", File: path, MaxMB: 1})
	t.Cleanup(func() { Init(config.LogConfig{Level: "info"}) })

	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Fatalf("global level = %v, want debug", zerolog.GlobalLevel())
	}
	log.Info().Str("session_id", "s1").Msg("session created")

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(b), `"session_id":"s1"`) {
		t.Fatalf("log file missing entry: %s", b)
	}
}

func TestInitBadLevelFallsBackToInfo(t *testing.T) {
	Init(config.LogConfig{Level: "loud"})
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Fatalf("global level = %v, want info", zerolog.GlobalLevel())
	}
	if Writer() != os.Stdout {
		t.Fatal("Writer() should be stdout without LOG_FILE")
	}
}
