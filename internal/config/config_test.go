package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 8080 || cfg.TickRateHz != 60 || cfg.HitRadius != 25 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.TickInterval() != time.Second/60 {
		t.Fatalf("tick interval = %v", cfg.TickInterval())
	}
	opts := cfg.Engine(nil)
	if opts.Gravity.Y != -100 || opts.DefaultSize.X != 50 {
		t.Fatalf("engine options = %+v", opts)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")
	t.Setenv("HIT_RADIUS", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 9090 || cfg.HitRadius != 10 {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if lvl, _ := cfg.SlogLevel(); lvl != slog.LevelDebug {
		t.Fatalf("level = %v", lvl)
	}
	origins := cfg.Origins()
	if len(origins) != 2 || origins[0] != "http://a.test" || origins[1] != "http://b.test" {
		t.Fatalf("origins = %v", origins)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	for key, val := range map[string]string{
		"TICK_RATE_HZ": "0",
		"HIT_RADIUS":   "-1",
		"LOG_LEVEL":    "chatty",
		"PORT":         "not-a-number",
	} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", key, val)
			}
		})
	}
}
