package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hay-kot/criterio"
	"github.com/redis/go-redis/v9"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// ValidateDeep performs comprehensive validation of the configuration including
// file accessibility and connection settings. The configPath argument
// specifies the config file location to validate (empty string skips config file check).
// This calls Validate() first for basic structural validation.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		c.validateFileAccess(configPath),
		c.validateLocks(),
		c.validateDatabase(),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if c.Review.Debounce == 0 {
		warnings = append(warnings, ValidationWarning{
			Category: "Review",
			Item:     "debounce",
			Message:  "debounce is disabled; every keystroke issues a registry lookup",
		})
	}
	if c.Review.LookupTimeout > 0 && c.Review.Debounce >= c.Review.LookupTimeout {
		warnings = append(warnings, ValidationWarning{
			Category: "Review",
			Item:     "debounce",
			Message:  "debounce is not shorter than lookup_timeout",
		})
	}
	if c.Locks.Backend == LockBackendMemory {
		warnings = append(warnings, ValidationWarning{
			Category: "Locks",
			Item:     "backend",
			Message:  "memory locks only guard submissions made from this process",
		})
	}
	if c.Reviewer == "" {
		warnings = append(warnings, ValidationWarning{
			Category: "Review",
			Item:     "reviewer",
			Message:  "reviewer is not set; log lines will not name who decided an order",
		})
	}

	return warnings
}

// validateFileAccess checks the config file and data directory.
func (c *Config) validateFileAccess(configPath string) error {
	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
	)
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}

// validateLocks checks the redis URL parses and the TTL outlives a lookup.
func (c *Config) validateLocks() error {
	var errs criterio.FieldErrorsBuilder

	if c.Locks.Backend == LockBackendRedis {
		if _, err := redis.ParseURL(c.Locks.RedisURL); err != nil {
			errs = errs.Append("locks.redis_url", fmt.Errorf("invalid redis url: %w", err))
		}
	}
	if c.Review.LookupTimeout > 0 && c.Locks.TTL < c.Review.LookupTimeout {
		errs = errs.Append("locks.ttl", fmt.Errorf("must be at least review.lookup_timeout (%s)", c.Review.LookupTimeout))
	}

	return errs.ToError()
}

func (c *Config) validateDatabase() error {
	var errs criterio.FieldErrorsBuilder

	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		errs = errs.Append("database.max_idle_conns", fmt.Errorf("cannot exceed max_open_conns (%d)", c.Database.MaxOpenConns))
	}
	if busy := time.Duration(c.Database.BusyTimeout) * time.Millisecond; busy > time.Minute {
		errs = errs.Append("database.busy_timeout", fmt.Errorf("%s is longer than one minute", busy))
	}

	return errs.ToError()
}
