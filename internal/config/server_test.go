package config

import "testing"

func TestLoadServerDefaults(t *testing.T) {
	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.TurnSeconds != 30 {
		t.Fatalf("TurnSeconds = %d, want 30", cfg.TurnSeconds)
	}
	if cfg.RoomIdleMinutes != 10 {
		t.Fatalf("RoomIdleMinutes = %d, want 10", cfg.RoomIdleMinutes)
	}
	if cfg.PostgresDSN != "" {
		t.Fatalf("PostgresDSN = %q, want empty for memory store", cfg.PostgresDSN)
	}
}

func TestLoadServerParseTypes(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("TURN_SECONDS", "45")
	t.Setenv("AI_MOVE_DELAY_MS", "100")
	t.Setenv("AI_SEED", "7")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.HTTPAddr != ":9999" || cfg.TurnSeconds != 45 || cfg.AIMoveDelayMS != 100 || cfg.AISeed != 7 {
		t.Fatalf("unexpected server config: %+v", cfg)
	}
}
