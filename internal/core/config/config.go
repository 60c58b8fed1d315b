// Package config handles configuration loading and validation for cams.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/cams/internal/core/styles"
)

// Lock backends.
const (
	LockBackendMemory = "memory"
	LockBackendRedis  = "redis"
)

// Config holds the application configuration.
type Config struct {
	// Reviewer is attached to log lines written during a review session.
	Reviewer string         `yaml:"reviewer"`
	Theme    string         `yaml:"theme"`
	Review   ReviewConfig   `yaml:"review"`
	Database DatabaseConfig `yaml:"database"`
	Locks    LocksConfig    `yaml:"locks"`
	DataDir  string         `yaml:"-"` // set by caller, not from config file
}

// ReviewConfig tunes the review workflow.
type ReviewConfig struct {
	// Debounce is the quiet period after the last keystroke before a case
	// number is looked up.
	Debounce time.Duration `yaml:"debounce"`
	// LookupTimeout bounds each registry lookup.
	LookupTimeout time.Duration `yaml:"lookup_timeout"`
}

// DatabaseConfig holds sqlite connection settings.
type DatabaseConfig struct {
	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`
	BusyTimeout  int `yaml:"busy_timeout"` // milliseconds
}

// LocksConfig selects where submission locks live.
type LocksConfig struct {
	Backend  string        `yaml:"backend"`   // memory or redis
	RedisURL string        `yaml:"redis_url"` // required for the redis backend
	TTL      time.Duration `yaml:"ttl"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Theme: styles.DefaultTheme,
		Review: ReviewConfig{
			Debounce:      300 * time.Millisecond,
			LookupTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns: 2,
			MaxIdleConns: 2,
			BusyTimeout:  5000,
		},
		Locks: LocksConfig{
			Backend: LockBackendMemory,
			TTL:     30 * time.Second,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Theme == "" {
		c.Theme = defaults.Theme
	}
	if c.Review.LookupTimeout == 0 {
		c.Review.LookupTimeout = defaults.Review.LookupTimeout
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = defaults.Database.BusyTimeout
	}
	if c.Locks.Backend == "" {
		c.Locks.Backend = defaults.Locks.Backend
	}
	if c.Locks.TTL == 0 {
		c.Locks.TTL = defaults.Locks.TTL
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	if _, ok := styles.GetPalette(c.Theme); !ok {
		return fmt.Errorf("theme %q is not one of %v", c.Theme, styles.ThemeNames())
	}

	if c.Review.Debounce < 0 {
		return fmt.Errorf("review.debounce cannot be negative")
	}
	if c.Review.LookupTimeout < 0 {
		return fmt.Errorf("review.lookup_timeout cannot be negative")
	}

	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("database.max_open_conns must be at least 1")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.BusyTimeout < 0 {
		return fmt.Errorf("database.busy_timeout cannot be negative")
	}

	switch c.Locks.Backend {
	case LockBackendMemory:
	case LockBackendRedis:
		if c.Locks.RedisURL == "" {
			return fmt.Errorf("locks.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("locks.backend %q must be %q or %q", c.Locks.Backend, LockBackendMemory, LockBackendRedis)
	}

	if c.Locks.TTL < time.Second {
		return fmt.Errorf("locks.ttl must be at least 1s")
	}

	return nil
}

// DatabasePath returns the path of the sqlite database file.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "cams.db")
}
