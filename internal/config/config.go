// Package config holds the runtime settings shared by the cubespin
// commands: built-in defaults, overridden by CUBESPIN_* environment
// variables, overridden in turn by command-line flags in each main.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full runtime configuration.
type Config struct {
	// Selector names the element the cube renders into.
	Selector string `env:"CUBESPIN_SELECTOR"`
	// Perspective is the viewer distance in pixels.
	Perspective float64 `env:"CUBESPIN_PERSPECTIVE"`

	DBPath string `env:"CUBESPIN_DB_PATH"`

	// ListenAddr is the control socket path or TCP address. Empty
	// disables the control socket.
	ListenAddr     string        `env:"CUBESPIN_LISTEN"`
	MetricsAddr    string        `env:"CUBESPIN_METRICS_ADDR"`
	CommandTimeout time.Duration `env:"CUBESPIN_COMMAND_TIMEOUT"`

	BatchSize     int           `env:"CUBESPIN_BATCH_SIZE"`
	FlushInterval time.Duration `env:"CUBESPIN_FLUSH_INTERVAL"`

	// Touch makes the host touch-capable: touches focus and defocus,
	// pointer entry is ignored.
	Touch bool `env:"CUBESPIN_TOUCH"`
	// Backend selects the TUI renderer: "bubbletea" or "tcell".
	Backend string `env:"CUBESPIN_BACKEND"`
	LogFile string `env:"CUBESPIN_LOG_FILE"`
}

// Default returns the built-in defaults.
func Default() Config {
	listenAddr := "127.0.0.1:9876"
	if runtime.GOOS != "windows" {
		listenAddr = "/tmp/cubespin.sock"
	}

	homeDir, _ := os.UserHomeDir()
	dir := filepath.Join(homeDir, ".cubespin")

	return Config{
		Selector:       "#the-cube",
		Perspective:    1100,
		DBPath:         filepath.Join(dir, "cubespin.db"),
		ListenAddr:     listenAddr,
		MetricsAddr:    "127.0.0.1:9877",
		CommandTimeout: 5 * time.Second,
		BatchSize:      64,
		FlushInterval:  500 * time.Millisecond,
		Backend:        "bubbletea",
		LogFile:        filepath.Join(dir, "cubespin.log"),
	}
}

// Load returns Default overridden by the environment.
func Load() (Config, error) {
	cfg := Default()
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings the components cannot run with.
func (c Config) Validate() error {
	if c.Perspective <= 0 {
		return fmt.Errorf("perspective must be positive, got %v", c.Perspective)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("flush interval must be positive, got %s", c.FlushInterval)
	}
	switch c.Backend {
	case "bubbletea", "tcell":
	default:
		return fmt.Errorf("unknown backend %q (want bubbletea or tcell)", c.Backend)
	}
	return nil
}

// EnsureDir creates the directory holding path.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return nil
}
