package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.DBPath != "contextrank.db" {
		t.Fatalf("db path = %q", cfg.DBPath)
	}
	if !cfg.SmartRanking || cfg.K != 10 || cfg.Alpha != 0.7 || cfg.EMAPreset != "medium" {
		t.Fatalf("ranking defaults = %+v", cfg)
	}
	if cfg.Limit != 10 || cfg.HistoryCap != 50 {
		t.Fatalf("limit/cap defaults = %d/%d", cfg.Limit, cfg.HistoryCap)
	}
	if cfg.SimilarityDecay != 0.5 || cfg.FacetTimeoutMs != 250 {
		t.Fatalf("tuning defaults = %v/%d", cfg.SimilarityDecay, cfg.FacetTimeoutMs)
	}
	if cfg.Log.Level != "info" || !cfg.Log.Console {
		t.Fatalf("log defaults = %+v", cfg.Log)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "k: 5\nalpha: 0.9\nema_preset: high\nsmart_ranking: false\nlog:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.K != 5 || cfg.Alpha != 0.9 || cfg.EMAPreset != "high" || cfg.SmartRanking {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("log level = %q", cfg.Log.Level)
	}
	// Untouched keys keep their defaults.
	if cfg.Limit != 10 {
		t.Fatalf("limit = %d, want default 10", cfg.Limit)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("missing config file accepted")
	}
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	base := func() Config {
		return Config{
			DBPath:          "x.db",
			K:               10,
			Alpha:           0.7,
			EMAPreset:       "medium",
			Limit:           10,
			HistoryCap:      50,
			SimilarityDecay: 0.5,
			FacetTimeoutMs:  250,
			Log:             LogConfig{Level: "info"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero k", func(c *Config) { c.K = 0 }, "K"},
		{"negative k", func(c *Config) { c.K = -3 }, "K"},
		{"alpha above one", func(c *Config) { c.Alpha = 1.2 }, "Alpha"},
		{"alpha negative", func(c *Config) { c.Alpha = -0.1 }, "Alpha"},
		{"unknown preset", func(c *Config) { c.EMAPreset = "turbo" }, "EMAPreset"},
		{"zero limit", func(c *Config) { c.Limit = 0 }, "Limit"},
		{"zero history cap", func(c *Config) { c.HistoryCap = 0 }, "HistoryCap"},
		{"zero decay", func(c *Config) { c.SimilarityDecay = 0 }, "SimilarityDecay"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "Level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := Validate(&cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Fatalf("error %q does not name field %s", err, tt.field)
			}
		})
	}

	valid := base()
	if err := Validate(&valid); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}
