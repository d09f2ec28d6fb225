// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New returns a Config populated with defaults.
// - Load layers a .env file, an optional YAML file and LFL_ environment variables on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"time"
)

// Store backends accepted by the store key.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// MetricsEnabled turns Prometheus recording on. /healthz keeps serving
	// the last values when it is off.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Store selects the persistence backend: memory or postgres.
	Store string `koanf:"store"`

	// DatabaseURL is the PostgreSQL DSN used when Store is postgres.
	DatabaseURL string `koanf:"database_url"`

	// RedisAddr enables the statistics cache when set.
	RedisAddr string `koanf:"redis_addr"`
	RedisDB   int    `koanf:"redis_db"`

	// StatsCacheTTLSec bounds how long a cached snapshot is served.
	StatsCacheTTLSec int `koanf:"stats_cache_ttl_sec"`

	// StatsRefreshIntervalSec schedules background statistics refreshes. 0 disables them.
	StatsRefreshIntervalSec int `koanf:"stats_refresh_interval_sec"`

	// JWTSecret signs bearer tokens.
	JWTSecret          string `koanf:"jwt_secret"`
	JWTExpirationHours int    `koanf:"jwt_expiration_hours"`

	// Scoring weights.
	MatchPoints      int `koanf:"match_points"`
	ProficiencyBonus int `koanf:"proficiency_bonus"`
	MaxScore         int `koanf:"max_score"`

	// SeedUsers generates synthetic members at startup (memory store only).
	SeedUsers int `koanf:"seed_users"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		LogFormat:               "text",
		MetricsEnabled:          true,
		Addr:                    ":9080",
		Store:                   StoreMemory,
		RedisDB:                 0,
		StatsCacheTTLSec:        30,
		StatsRefreshIntervalSec: 300,
		JWTSecret:               "lfl-dev-secret",
		JWTExpirationHours:      24,
		MatchPoints:             10,
		ProficiencyBonus:        5,
		MaxScore:                100,
	}
}

// StatsCacheTTL returns StatsCacheTTLSec as a duration.
func (c *Config) StatsCacheTTL() time.Duration {
	return time.Duration(c.StatsCacheTTLSec) * time.Second
}

// StatsRefreshInterval returns StatsRefreshIntervalSec as a duration.
func (c *Config) StatsRefreshInterval() time.Duration {
	return time.Duration(c.StatsRefreshIntervalSec) * time.Second
}

// JWTExpiration returns JWTExpirationHours as a duration.
func (c *Config) JWTExpiration() time.Duration {
	return time.Duration(c.JWTExpirationHours) * time.Hour
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return invalid("addr must not be empty")
	case c.Store != StoreMemory && c.Store != StorePostgres:
		return invalid("store must be %q or %q, got %q", StoreMemory, StorePostgres, c.Store)
	case c.Store == StorePostgres && c.DatabaseURL == "":
		return invalid("database_url is required for the postgres store")
	case c.LogFormat != "text" && c.LogFormat != "json":
		return invalid("log_format must be text or json, got %q", c.LogFormat)
	case c.JWTSecret == "":
		return invalid("jwt_secret must not be empty")
	case c.JWTExpirationHours <= 0:
		return invalid("jwt_expiration_hours must be positive")
	case c.MatchPoints <= 0:
		return invalid("match_points must be positive")
	case c.ProficiencyBonus < 0:
		return invalid("proficiency_bonus must not be negative")
	case c.MaxScore <= 0:
		return invalid("max_score must be positive")
	case c.StatsRefreshIntervalSec < 0:
		return invalid("stats_refresh_interval_sec must not be negative")
	case c.StatsCacheTTLSec < 0:
		return invalid("stats_cache_ttl_sec must not be negative")
	case c.SeedUsers < 0:
		return invalid("seed_users must not be negative")
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...)
}
