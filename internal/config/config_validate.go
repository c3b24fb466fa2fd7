// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	if err := c.validateModel(); err != nil {
		return err
	}
	if err := c.validatePricing(); err != nil {
		return err
	}
	if err := c.validateAnalytics(); err != nil {
		return err
	}
	return c.validateLogging()
}

const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.RateLimitDisabled {
		return nil
	}
	if c.Server.RateLimitReqs < minRateLimitRequests || c.Server.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Server.WriteRateLimitReqs < minRateLimitRequests || c.Server.WriteRateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("WRITE_RATE_LIMIT must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Server.RateLimitWindow < minRateLimitWindow || c.Server.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

var validBackends = map[string]bool{
	"memory":   true,
	"duckdb":   true,
	"badger":   true,
	"sqlite":   true,
	"postgres": true,
}

func (c *Config) validateHistory() error {
	if !validBackends[c.History.Backend] {
		return fmt.Errorf("HISTORY_BACKEND must be one of: memory, duckdb, badger, sqlite, postgres")
	}
	switch c.History.Backend {
	case "postgres":
		if c.History.DSN == "" {
			return fmt.Errorf("HISTORY_DSN is required when HISTORY_BACKEND=postgres")
		}
	case "duckdb", "badger", "sqlite":
		if c.History.Path == "" {
			return fmt.Errorf("HISTORY_PATH is required when HISTORY_BACKEND=%s", c.History.Backend)
		}
	}
	if c.History.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must be >= 0")
	}
	return nil
}

func (c *Config) validateModel() error {
	if !c.Model.Enabled {
		return nil
	}
	if c.Model.Dir == "" {
		return fmt.Errorf("MODEL_DIR is required when MODEL_ENABLED=true")
	}
	if c.Model.Samples < 10 {
		return fmt.Errorf("MODEL_SAMPLES must be at least 10")
	}
	if c.Model.Estimators < 1 || c.Model.Estimators > 5000 {
		return fmt.Errorf("MODEL_ESTIMATORS must be between 1 and 5000")
	}
	if c.Model.LearningRate <= 0 || c.Model.LearningRate > 1 {
		return fmt.Errorf("MODEL_LEARNING_RATE must be in (0, 1]")
	}
	if c.Model.MaxDepth < 1 || c.Model.MaxDepth > 16 {
		return fmt.Errorf("MODEL_MAX_DEPTH must be between 1 and 16")
	}
	if c.Model.TestFraction <= 0 || c.Model.TestFraction >= 1 {
		return fmt.Errorf("MODEL_TEST_FRACTION must be in (0, 1)")
	}
	if c.Model.RetrainInterval < 0 {
		return fmt.Errorf("MODEL_RETRAIN_INTERVAL must not be negative")
	}
	if c.Model.KeepVersions < 1 {
		return fmt.Errorf("MODEL_KEEP_VERSIONS must be at least 1")
	}
	return nil
}

func (c *Config) validatePricing() error {
	if c.Pricing.MaxDays < 1 || c.Pricing.MaxDays > maxPricingDays {
		return fmt.Errorf("PRICING_MAX_DAYS must be between 1 and %d", maxPricingDays)
	}
	return nil
}

// maxPricingDays is three years of nightly rates.
const maxPricingDays = 1096

func (c *Config) validateAnalytics() error {
	switch c.Analytics.CacheType {
	case "ttl":
	case "lfu":
		if c.Analytics.CacheCapacity < 1 {
			return fmt.Errorf("ANALYTICS_CACHE_CAPACITY must be at least 1 for the lfu cache")
		}
	default:
		return fmt.Errorf("ANALYTICS_CACHE_TYPE must be ttl or lfu")
	}
	if c.Analytics.CacheTTL <= 0 {
		return fmt.Errorf("ANALYTICS_CACHE_TTL must be positive")
	}
	if c.Analytics.DefaultWindowDays < 1 {
		return fmt.Errorf("ANALYTICS_WINDOW_DAYS must be at least 1")
	}
	return nil
}

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "warning": true,
	"error": true, "fatal": true, "panic": true, "disabled": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error, fatal, panic, disabled")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}
	return nil
}
