package config

import "testing"

func TestLoadBotDefaults(t *testing.T) {
	cfg, err := LoadBot()
	if err != nil {
		t.Fatalf("LoadBot() error = %v", err)
	}
	if cfg.WSURL != "ws://localhost:8080/api/sessions" {
		t.Fatalf("WSURL = %q, want ws://localhost:8080/api/sessions", cfg.WSURL)
	}
	if cfg.ParticipantID != "dumb-bot" {
		t.Fatalf("ParticipantID = %q, want dumb-bot", cfg.ParticipantID)
	}
}

func TestLoadBotOverrides(t *testing.T) {
	t.Setenv("WS_URL", "ws://127.0.0.1:9000/api/sessions")
	t.Setenv("SESSION_ID", "01HZX")
	t.Setenv("PARTICIPANT_ID", "bot-a")

	cfg, err := LoadBot()
	if err != nil {
		t.Fatalf("LoadBot() error = %v", err)
	}
	if cfg.WSURL != "ws://127.0.0.1:9000/api/sessions" {
		t.Fatalf("WSURL = %q", cfg.WSURL)
	}
	if cfg.SessionID != "01HZX" || cfg.ParticipantID != "bot-a" {
		t.Fatalf("unexpected bot config: %+v", cfg)
	}
}
