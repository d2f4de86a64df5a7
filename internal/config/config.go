package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all configurable paths, endpoints and sync timings.
type Config struct {
	// Paths
	BaseDir      string `json:"base_dir" env:"POSER_BASE_DIR"`
	CatalogXML   string `json:"catalog_xml" env:"POSER_CATALOG_XML"`
	AnimationDir string `json:"animation_dir" env:"POSER_ANIMATION_DIR"`
	DatabasePath string `json:"database_path" env:"POSER_DATABASE_PATH"`
	ExportDir    string `json:"export_dir" env:"POSER_EXPORT_DIR"`

	// Network
	RelayURL    string `json:"relay_url" env:"POSER_RELAY_URL"`
	ListenAddr  string `json:"listen_addr" env:"POSER_LISTEN_ADDR"`
	CharacterID string `json:"character_id" env:"POSER_CHARACTER_ID"`

	Env      string `json:"env" env:"POSER_ENV"`
	LogLevel string `json:"log_level" env:"POSER_LOG_LEVEL"`

	// Sync timings
	DebounceWindow   Duration `json:"debounce_window" env:"POSER_DEBOUNCE_WINDOW"`
	SendInterval     Duration `json:"send_interval" env:"POSER_SEND_INTERVAL"`
	RetryInterval    Duration `json:"retry_interval" env:"POSER_RETRY_INTERVAL"`
	RetryLimit       int      `json:"retry_limit" env:"POSER_RETRY_LIMIT"`
	PresenceInterval Duration `json:"presence_interval" env:"POSER_PRESENCE_INTERVAL"`

	Workers int `json:"workers" env:"POSER_WORKERS"`
}

// Duration is a time.Duration written as "300ms" in JSON and the environment.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// FromEnvironment loads path when it exists, then applies a .env file from
// the working directory and POSER_* variables on top.
func FromEnvironment(path string) (Config, error) {
	var cfg Config
	if path != "" {
		loaded, err := Load(path)
		switch {
		case err == nil:
			cfg = loaded
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, err
		}
	}

	// Missing .env is fine
	_ = godotenv.Load()

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	return cfg, nil
}

// Flags holds CLI flag values that override file and environment settings.
type Flags struct {
	BaseDir     string
	DBPath      string
	RelayURL    string
	ListenAddr  string
	CharacterID string
	LogLevel    string
	Workers     int
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file and environment
	if flags.BaseDir != "" {
		c.BaseDir = flags.BaseDir
	}
	if flags.DBPath != "" {
		c.DatabasePath = flags.DBPath
	}
	if flags.RelayURL != "" {
		c.RelayURL = flags.RelayURL
	}
	if flags.ListenAddr != "" {
		c.ListenAddr = flags.ListenAddr
	}
	if flags.CharacterID != "" {
		c.CharacterID = flags.CharacterID
	}
	if flags.LogLevel != "" {
		c.LogLevel = flags.LogLevel
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}

	if c.BaseDir == "" {
		c.BaseDir = detectBaseDir()
	}

	// Resolve relative paths against base dir. An empty catalog path means
	// the built-in catalog.
	if c.BaseDir != "" {
		c.CatalogXML = under(c.BaseDir, c.CatalogXML, "")
		c.AnimationDir = under(c.BaseDir, c.AnimationDir, "animations")
		c.DatabasePath = under(c.BaseDir, c.DatabasePath, "poses.db")
		c.ExportDir = under(c.BaseDir, c.ExportDir, "exports")
	}

	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.Env == "" {
		c.Env = "development"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	// Defaults for sync timings
	if c.DebounceWindow.Duration <= 0 {
		c.DebounceWindow.Duration = 300 * time.Millisecond
	}
	if c.SendInterval.Duration <= 0 {
		c.SendInterval.Duration = 2 * time.Second
	}
	if c.RetryInterval.Duration <= 0 {
		c.RetryInterval.Duration = 3 * time.Second
	}
	if c.RetryLimit <= 0 {
		c.RetryLimit = 5
	}
	if c.PresenceInterval.Duration <= 0 {
		c.PresenceInterval.Duration = 5 * time.Second
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

// IsDevelopment reports whether console logging should be used.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// under returns p resolved against base, or base/def when p is empty.
// An empty def leaves an empty p empty.
func under(base, p, def string) string {
	switch {
	case p == "" && def == "":
		return ""
	case p == "":
		return filepath.Join(base, def)
	case filepath.IsAbs(p):
		return p
	}
	return filepath.Join(base, p)
}

func detectBaseDir() string {
	// Try the user config dir first
	if dir, err := os.UserConfigDir(); err == nil {
		base := filepath.Join(dir, "poser-sync")
		if _, err := os.Stat(base); err == nil {
			return base
		}
	}

	// Fall back to the current working directory
	cwd, _ := os.Getwd()
	return cwd
}
