package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	configDirName  = "confab"
	configFileName = "config.toml"
	envPrefix      = "CONFAB_"
)

// ErrNotConfigured is returned when a required config value is missing.
var ErrNotConfigured = errors.New("confab is not configured")

// Config holds client settings.
type Config struct {
	ServerURL    string  `toml:"server_url"`
	UserID       string  `toml:"user_id"`
	Token        string  `toml:"token,omitempty"`
	SearchPath   string  `toml:"search_path"`
	SearchLimit  int     `toml:"search_limit"`
	DebounceMS   int     `toml:"debounce_ms"`
	SearchRate   float64 `toml:"search_rate"`
	SearchBurst  int     `toml:"search_burst"`
	HistoryLimit int     `toml:"history_limit"`
	DBPath       string  `toml:"db_path,omitempty"`
	LogFile      string  `toml:"log_file,omitempty"`
	LogLevel     string  `toml:"log_level"`
	MetricsAddr  string  `toml:"metrics_addr,omitempty"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		ServerURL:    "http://localhost:8000/api/v1",
		SearchPath:   "/meetings/search",
		SearchLimit:  8,
		DebounceMS:   200,
		SearchRate:   5,
		SearchBurst:  2,
		HistoryLimit: 50,
		LogLevel:     "info",
	}
}

// Debounce returns the suggestion debounce delay.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// Validate checks values the client cannot run without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ServerURL) == "" {
		return fmt.Errorf("%w: server_url is empty", ErrNotConfigured)
	}
	if strings.TrimSpace(c.UserID) == "" {
		return fmt.Errorf("%w: user_id is empty (confab config user_id <id>)", ErrNotConfigured)
	}
	return nil
}

// ConfigDir returns the directory holding confab's config and local state.
func ConfigDir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, configDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", configDirName), nil
}

// ConfigPath returns the default config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// LoadConfig reads the config file at path (default location when empty),
// overlays .env and CONFAB_* environment variables, and fills defaults.
// A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg, err := ReadConfigFile(path)
	if err != nil {
		return cfg, err
	}

	// .env is optional; values already in the environment win.
	_ = godotenv.Load()
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	cfg.fillDefaults()
	return cfg, nil
}

// ReadConfigFile reads only the config file at path (default location when
// empty) over the defaults, without environment overrides. A missing file
// yields the defaults.
func ReadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		var err error
		path, err = ConfigPath()
		if err != nil {
			return cfg, err
		}
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("decode %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, err
	}
	cfg.fillDefaults()
	return cfg, nil
}

// SaveConfig writes cfg as TOML with owner-only permissions.
func SaveConfig(path string, cfg Config) error {
	if path == "" {
		var err error
		path, err = ConfigPath()
		if err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	file, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	fmt.Fprintln(file, "# confab configuration")
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		_ = file.Close()
		return fmt.Errorf("encode config: %w", err)
	}
	if err := file.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (c *Config) fillDefaults() {
	defaults := DefaultConfig()
	if c.ServerURL == "" {
		c.ServerURL = defaults.ServerURL
	}
	if c.SearchPath == "" {
		c.SearchPath = defaults.SearchPath
	}
	if c.SearchLimit <= 0 {
		c.SearchLimit = defaults.SearchLimit
	}
	if c.DebounceMS < 0 {
		c.DebounceMS = defaults.DebounceMS
	}
	if c.SearchRate <= 0 {
		c.SearchRate = defaults.SearchRate
	}
	if c.SearchBurst <= 0 {
		c.SearchBurst = defaults.SearchBurst
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = defaults.HistoryLimit
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
}

type configField struct {
	get func(*Config) string
	set func(*Config, string) error
}

var configFields = map[string]configField{
	"server_url":    stringField(func(c *Config) *string { return &c.ServerURL }),
	"user_id":       stringField(func(c *Config) *string { return &c.UserID }),
	"token":         stringField(func(c *Config) *string { return &c.Token }),
	"search_path":   stringField(func(c *Config) *string { return &c.SearchPath }),
	"search_limit":  intField(func(c *Config) *int { return &c.SearchLimit }),
	"debounce_ms":   intField(func(c *Config) *int { return &c.DebounceMS }),
	"search_rate":   floatField(func(c *Config) *float64 { return &c.SearchRate }),
	"search_burst":  intField(func(c *Config) *int { return &c.SearchBurst }),
	"history_limit": intField(func(c *Config) *int { return &c.HistoryLimit }),
	"db_path":       stringField(func(c *Config) *string { return &c.DBPath }),
	"log_file":      stringField(func(c *Config) *string { return &c.LogFile }),
	"log_level":     stringField(func(c *Config) *string { return &c.LogLevel }),
	"metrics_addr":  stringField(func(c *Config) *string { return &c.MetricsAddr }),
}

// ConfigKeys lists the settable config keys in order.
func ConfigKeys() []string {
	keys := make([]string, 0, len(configFields))
	for key := range configFields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the string form of a config value.
func (c *Config) Get(key string) (string, error) {
	field, ok := configFields[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %s", key)
	}
	return field.get(c), nil
}

// Set parses and assigns a config value.
func (c *Config) Set(key, value string) error {
	field, ok := configFields[key]
	if !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}
	if err := field.set(c, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	for key := range configFields {
		value := getenv(envPrefix + strings.ToUpper(key))
		if value == "" {
			continue
		}
		if err := c.Set(key, value); err != nil {
			return fmt.Errorf("env %s%s: %w", envPrefix, strings.ToUpper(key), err)
		}
	}
	return nil
}

func stringField(ptr func(*Config) *string) configField {
	return configField{
		get: func(c *Config) string { return *ptr(c) },
		set: func(c *Config, v string) error {
			*ptr(c) = strings.TrimSpace(v)
			return nil
		},
	}
}

func intField(ptr func(*Config) *int) configField {
	return configField{
		get: func(c *Config) string { return strconv.Itoa(*ptr(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return err
			}
			*ptr(c) = n
			return nil
		},
	}
}

func floatField(ptr func(*Config) *float64) configField {
	return configField{
		get: func(c *Config) string { return strconv.FormatFloat(*ptr(c), 'f', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return err
			}
			*ptr(c) = f
			return nil
		},
	}
}
