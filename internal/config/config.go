// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and SCORES_ environment variables on top.
package config

import (
	"fmt"
	"runtime"
	"strings"
)

// Store drivers accepted by StoreDriver.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the score store: memory, sqlite or postgres.
	StoreDriver string `koanf:"store_driver"`

	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `koanf:"sqlite_path"`

	// PostgresURL is the connection string used by the postgres driver.
	PostgresURL string `koanf:"postgres_url"`

	// MaxUploadBytes caps request bodies and files read from disk.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// QueueSize bounds the in-memory import queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of import workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the number of import checksums remembered.
	DedupeSize int `koanf:"dedupe_size"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		Addr:           ":9080",
		StoreDriver:    DriverMemory,
		SQLitePath:     "scores.db",
		MaxUploadBytes: 10 << 20,
		QueueSize:      1_000,
		WorkerCount:    runtime.NumCPU(),
		DedupeSize:     10_000,
	}
}

// Validate reports the first invalid field wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MaxUploadBytes <= 0:
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	}

	switch strings.ToLower(c.StoreDriver) {
	case DriverMemory:
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite_path must not be empty", ErrInvalidConfig)
		}
	case DriverPostgres:
		if c.PostgresURL == "" {
			return fmt.Errorf("%w: postgres_url must not be empty", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}
	return nil
}
