// Package config handles configuration loading from files, defaults, and environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds the application configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Editor  EditorConfig  `toml:"editor"`
	Storage StorageConfig `toml:"storage"`
	UI      UIConfig      `toml:"ui"`
	Log     LogConfig     `toml:"log"`
}

// ServerConfig holds the diary service connection settings.
type ServerConfig struct {
	BaseURL        string `toml:"base_url"`        // e.g., "http://localhost:25252"
	RequestTimeout string `toml:"request_timeout"` // e.g., "10s"
}

// EditorConfig holds autosave settings.
type EditorConfig struct {
	AutosaveDelay string `toml:"autosave_delay"` // debounce delay, e.g., "1s"
	MaxRetries    int    `toml:"max_retries"`    // retries after a failed save
	StatusVisible string `toml:"status_visible"` // how long "saved"/"failed" stays up
}

// StorageConfig holds local database settings.
type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

// UIConfig holds TUI settings.
type UIConfig struct {
	Theme string `toml:"theme"` // "light" or "dark"; used until toggled
}

// LogConfig holds logging settings.
type LogConfig struct {
	Dir   string `toml:"dir"`
	Level string `toml:"level"` // "debug", "info", "warn", "error"
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL:        "http://localhost:25252",
			RequestTimeout: "10s",
		},
		Editor: EditorConfig{
			AutosaveDelay: "1s",
			MaxRetries:    3,
			StatusVisible: "2s",
		},
		Storage: StorageConfig{
			DBPath: defaultDBPath(),
		},
		UI: UIConfig{
			Theme: "light",
		},
		Log: LogConfig{
			Dir:   defaultLogDir(),
			Level: "warn",
		},
	}
}

// defaultDBPath returns the default database path.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "bitacora.db"
	}
	return filepath.Join(home, ".local", "share", "bitacora", "bitacora.db")
}

func defaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "logs"
	}
	return filepath.Join(home, ".local", "state", "bitacora")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "bitacora", "config.toml")
}

// Load loads configuration from the default path, merging with defaults and env vars.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from the specified path.
// It starts with defaults, overlays file config if it exists, then applies env overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	// Try to load from file (not an error if it doesn't exist)
	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	cfg.Storage.DBPath = expandPath(cfg.Storage.DBPath)
	cfg.Log.Dir = expandPath(cfg.Log.Dir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads config from a file if it exists.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, use defaults
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over file config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BITACORA_BASE_URL"); v != "" {
		cfg.Server.BaseURL = v
	}
	if v := os.Getenv("BITACORA_REQUEST_TIMEOUT"); v != "" {
		cfg.Server.RequestTimeout = v
	}

	if v := os.Getenv("BITACORA_AUTOSAVE_DELAY"); v != "" {
		cfg.Editor.AutosaveDelay = v
	}
	if v := os.Getenv("BITACORA_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Editor.MaxRetries = n
		}
	}

	if v := os.Getenv("BITACORA_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}

	if v := os.Getenv("BITACORA_UI_THEME"); v != "" {
		cfg.UI.Theme = v
	}

	if v := os.Getenv("BITACORA_LOG_DIR"); v != "" {
		cfg.Log.Dir = v
	}
	if v := os.Getenv("BITACORA_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base_url must be an http(s) URL, got %q", c.Server.BaseURL)
	}
	if err := validateDuration(c.Server.RequestTimeout, "request_timeout"); err != nil {
		return err
	}
	if err := validateDuration(c.Editor.AutosaveDelay, "autosave_delay"); err != nil {
		return err
	}
	if err := validateDuration(c.Editor.StatusVisible, "status_visible"); err != nil {
		return err
	}
	if c.Editor.MaxRetries < 0 {
		return errors.New("max_retries must not be negative")
	}
	if c.Storage.DBPath == "" {
		return errors.New("db_path must be set")
	}
	if !isValidTheme(c.UI.Theme) {
		return fmt.Errorf("invalid theme: %s", c.UI.Theme)
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	return nil
}

// validateDuration checks that d parses as a positive Go duration.
func validateDuration(d, field string) error {
	parsed, err := time.ParseDuration(d)
	if err != nil {
		return fmt.Errorf("%s must be a duration like \"1s\", got %q", field, d)
	}
	if parsed <= 0 {
		return fmt.Errorf("%s must be positive, got %q", field, d)
	}
	return nil
}

func isValidTheme(name string) bool {
	switch strings.ToLower(name) {
	case "light", "dark":
		return true
	}
	return false
}

// AutosaveDelay returns the parsed debounce delay.
func (c *Config) AutosaveDelay() time.Duration {
	return mustDuration(c.Editor.AutosaveDelay, time.Second)
}

// StatusVisible returns how long a save status stays visible.
func (c *Config) StatusVisible() time.Duration {
	return mustDuration(c.Editor.StatusVisible, 2*time.Second)
}

// RequestTimeout returns the per-request HTTP timeout.
func (c *Config) RequestTimeout() time.Duration {
	return mustDuration(c.Server.RequestTimeout, 10*time.Second)
}

// mustDuration parses d, falling back when the config skipped validation.
func mustDuration(d string, fallback time.Duration) time.Duration {
	parsed, err := time.ParseDuration(d)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
