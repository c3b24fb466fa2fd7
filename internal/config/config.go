// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

// Package config loads Ratewise configuration from defaults, an optional
// YAML file, a .env file and the process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	History   HistoryConfig   `koanf:"history"`
	Model     ModelConfig     `koanf:"model"`
	Pricing   PricingConfig   `koanf:"pricing"`
	Analytics AnalyticsConfig `koanf:"analytics"`
	Events    EventsConfig    `koanf:"events"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP listener and request-guard settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`

	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitReqs requests per RateLimitWindow per client IP.
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// WriteRateLimitReqs applies to endpoints that mutate history.
	WriteRateLimitReqs int `koanf:"write_rate_limit_reqs"`

	// RetrainMinInterval is the minimum spacing between manual retrain triggers.
	RetrainMinInterval time.Duration `koanf:"retrain_min_interval"`
}

// HistoryConfig selects and tunes the multiplier history backend.
type HistoryConfig struct {
	// Backend is one of memory, duckdb, badger, sqlite, postgres.
	Backend string `koanf:"backend"`

	// Path is the file (duckdb, sqlite) or directory (badger) for embedded backends.
	Path string `koanf:"path"`

	// DSN is the connection string for postgres.
	DSN string `koanf:"dsn"`

	// DuckDB tuning. Threads 0 = runtime.NumCPU().
	Threads   int    `koanf:"threads"`
	MaxMemory string `koanf:"max_memory"`

	// OpenTimeout bounds the exponential backoff used while opening the store.
	OpenTimeout time.Duration `koanf:"open_timeout"`
}

// ModelConfig controls the rate model lifecycle.
type ModelConfig struct {
	Enabled bool   `koanf:"enabled"`
	Dir     string `koanf:"dir"`
	Name    string `koanf:"name"`

	Samples      int     `koanf:"samples"`
	Seed         int64   `koanf:"seed"`
	Estimators   int     `koanf:"estimators"`
	LearningRate float64 `koanf:"learning_rate"`
	MaxDepth     int     `koanf:"max_depth"`
	TestFraction float64 `koanf:"test_fraction"`

	TrainOnStartup  bool          `koanf:"train_on_startup"`
	RetrainInterval time.Duration `koanf:"retrain_interval"`
	KeepVersions    int           `koanf:"keep_versions"`

	BreakerMaxRequests uint32        `koanf:"breaker_max_requests"`
	BreakerInterval    time.Duration `koanf:"breaker_interval"`
	BreakerTimeout     time.Duration `koanf:"breaker_timeout"`
}

// PricingConfig holds resolver defaults.
type PricingConfig struct {
	UseHistoricalFallback bool `koanf:"use_historical_fallback"`
	MaxDays               int  `koanf:"max_days"`
}

// AnalyticsConfig controls revenue analytics.
type AnalyticsConfig struct {
	// CacheType is ttl or lfu.
	CacheType         string        `koanf:"cache_type"`
	CacheTTL          time.Duration `koanf:"cache_ttl"`
	CacheCapacity     int           `koanf:"cache_capacity"`
	DefaultWindowDays int           `koanf:"default_window_days"`
}

// EventsConfig controls the in-process history change bus.
type EventsConfig struct {
	Enabled    bool  `koanf:"enabled"`
	BufferSize int64 `koanf:"buffer_size"`
}

// LoggingConfig mirrors logging.Config for file/env loading.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads an optional .env file into the environment and then builds the
// layered configuration.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return LoadWithKoanf()
}

// Addr returns host:port for the HTTP listener.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// IsProduction reports whether ENVIRONMENT=production.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
