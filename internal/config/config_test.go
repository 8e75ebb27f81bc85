package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadCreatesTemplate(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "config.toml")); err != nil {
		t.Fatalf("template not written: %v", err)
	}

	if cfg.Recommender.Paths != 9000 {
		t.Errorf("Recommender.Paths = %d, want 9000", cfg.Recommender.Paths)
	}
	if cfg.Recommender.EVWeight != 0.65 || cfg.Recommender.POPWeight != 0.35 {
		t.Errorf("weights = %v/%v, want 0.65/0.35", cfg.Recommender.EVWeight, cfg.Recommender.POPWeight)
	}
	if cfg.ImpliedVol.ExpandSteps != 20 || cfg.ImpliedVol.ExpandFactor != 1.5 {
		t.Errorf("unexpected implied vol expansion %+v", cfg.ImpliedVol)
	}
	if cfg.Server.Addr != ":8000" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Market.Symbol != "SPY" || cfg.Market.StartPrice != 480 {
		t.Errorf("unexpected market config %+v", cfg.Market)
	}
	if cfg.Store.Path != filepath.Join(dir, "cockpit.db") {
		t.Errorf("Store.Path = %q", cfg.Store.Path)
	}
}

func TestLoadReadsFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[recommender]
paths = 500
seed = 42

[server]
addr = "127.0.0.1:9090"
mode = "debug"

[market]
symbol = "QQQ"
tick_interval = "250ms"
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Recommender.Paths != 500 || cfg.Recommender.Seed != 42 {
		t.Errorf("unexpected recommender config %+v", cfg.Recommender)
	}
	if cfg.Server.Addr != "127.0.0.1:9090" || cfg.Server.Mode != "debug" {
		t.Errorf("unexpected server config %+v", cfg.Server)
	}
	if cfg.Market.Symbol != "QQQ" || cfg.Market.TickInterval != 250*time.Millisecond {
		t.Errorf("unexpected market config %+v", cfg.Market)
	}
	// Keys absent from the file keep their defaults.
	if cfg.ImpliedVol.MaxIter != 200 {
		t.Errorf("ImpliedVol.MaxIter = %d, want 200", cfg.ImpliedVol.MaxIter)
	}
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PORT", "7000")
	t.Setenv("OPTIONS_COCKPIT_DB_PATH", "/tmp/override.db")
	t.Setenv("OPTIONS_COCKPIT_SEED", "99")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":7000" {
		t.Errorf("Server.Addr = %q, want :7000", cfg.Server.Addr)
	}
	if cfg.Store.Path != "/tmp/override.db" {
		t.Errorf("Store.Path = %q", cfg.Store.Path)
	}
	if cfg.Recommender.Seed != 99 {
		t.Errorf("Recommender.Seed = %d", cfg.Recommender.Seed)
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	base, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"inverted bracket", func(c *Config) { c.ImpliedVol.VolHigh = c.ImpliedVol.VolLow }},
		{"zero tolerance", func(c *Config) { c.ImpliedVol.Tolerance = 0 }},
		{"expand factor", func(c *Config) { c.ImpliedVol.ExpandFactor = 1 }},
		{"zero paths", func(c *Config) { c.Recommender.Paths = 0 }},
		{"negative weight", func(c *Config) { c.Recommender.EVWeight = -1 }},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"bad mode", func(c *Config) { c.Server.Mode = "prod" }},
		{"start price", func(c *Config) { c.Market.StartPrice = 0 }},
		{"tick interval", func(c *Config) { c.Market.TickInterval = 0 }},
	}

	if err := base.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
