package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Selector != "#the-cube" {
		t.Fatalf("expected default selector, got %q", cfg.Selector)
	}
	if cfg.Perspective != 1100 {
		t.Fatalf("expected perspective 1100, got %v", cfg.Perspective)
	}
	if filepath.Base(cfg.DBPath) != "cubespin.db" {
		t.Fatalf("unexpected db path %q", cfg.DBPath)
	}
	if cfg.BatchSize != 64 || cfg.FlushInterval != 500*time.Millisecond {
		t.Fatalf("unexpected batching %d/%s", cfg.BatchSize, cfg.FlushInterval)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CUBESPIN_SELECTOR", "#other")
	t.Setenv("CUBESPIN_PERSPECTIVE", "800")
	t.Setenv("CUBESPIN_FLUSH_INTERVAL", "2s")
	t.Setenv("CUBESPIN_TOUCH", "true")
	t.Setenv("CUBESPIN_BACKEND", "tcell")
	t.Setenv("CUBESPIN_LISTEN", "127.0.0.1:7000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Selector != "#other" || cfg.Perspective != 800 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.FlushInterval != 2*time.Second || !cfg.Touch || cfg.Backend != "tcell" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.ListenAddr != "127.0.0.1:7000" {
		t.Fatalf("expected listen override, got %q", cfg.ListenAddr)
	}
	// untouched fields keep their defaults
	if cfg.BatchSize != 64 {
		t.Fatalf("expected default batch size, got %d", cfg.BatchSize)
	}
}

func TestLoadParseError(t *testing.T) {
	t.Setenv("CUBESPIN_BATCH_SIZE", "lots")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"perspective": func(c *Config) { c.Perspective = 0 },
		"batch":       func(c *Config) { c.BatchSize = -1 },
		"flush":       func(c *Config) { c.FlushInterval = 0 },
		"backend":     func(c *Config) { c.Backend = "opengl" },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
	if err := Default().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestEnsureDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "cubespin.db")
	if err := EnsureDir(path); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	if info, err := os.Stat(filepath.Dir(path)); err != nil || !info.IsDir() {
		t.Fatalf("directory not created: %v", err)
	}
}
