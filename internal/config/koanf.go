// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/ratewise/config.yaml",
	"/etc/ratewise/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               5001,
			ReadTimeout:        15 * time.Second,
			WriteTimeout:       30 * time.Second,
			ShutdownTimeout:    10 * time.Second,
			Environment:        "development",
			CORSOrigins:        []string{"*"},
			RateLimitReqs:      120,
			RateLimitWindow:    time.Minute,
			RateLimitDisabled:  false,
			WriteRateLimitReqs: 30,
			RetrainMinInterval: 5 * time.Minute,
		},
		History: HistoryConfig{
			Backend:     "duckdb",
			Path:        "/data/ratewise.duckdb",
			DSN:         "",
			Threads:     0,
			MaxMemory:   "512MB",
			OpenTimeout: 30 * time.Second,
		},
		Model: ModelConfig{
			Enabled:            true,
			Dir:                "/data/models",
			Name:               "daily_rate",
			Samples:            10000,
			Seed:               42,
			Estimators:         200,
			LearningRate:       0.1,
			MaxDepth:           6,
			TestFraction:       0.2,
			TrainOnStartup:     true,
			RetrainInterval:    0, // disabled
			KeepVersions:       3,
			BreakerMaxRequests: 3,
			BreakerInterval:    time.Minute,
			BreakerTimeout:     30 * time.Second,
		},
		Pricing: PricingConfig{
			UseHistoricalFallback: true,
			MaxDays:               1096,
		},
		Analytics: AnalyticsConfig{
			CacheType:         "ttl",
			CacheTTL:          2 * time.Minute,
			CacheCapacity:     256,
			DefaultWindowDays: 30,
		},
		Events: EventsConfig{
			Enabled:    true,
			BufferSize: 256,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf builds the configuration from three layers, later layers
// overriding earlier ones: struct defaults, the YAML config file (if any),
// then environment variables. The result is validated before return.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields splits comma-separated env values for slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lowercase environment variable names to koanf paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"environment":           "server.environment",
	"cors_origins":          "server.cors_origins",
	"rate_limit_requests":   "server.rate_limit_reqs",
	"rate_limit_window":     "server.rate_limit_window",
	"disable_rate_limit":    "server.rate_limit_disabled",
	"write_rate_limit":      "server.write_rate_limit_reqs",
	"retrain_min_interval":  "server.retrain_min_interval",

	// History store
	"history_backend":      "history.backend",
	"history_path":         "history.path",
	"history_dsn":          "history.dsn",
	"duckdb_threads":       "history.threads",
	"duckdb_max_memory":    "history.max_memory",
	"history_open_timeout": "history.open_timeout",

	// Model
	"model_enabled":          "model.enabled",
	"model_dir":              "model.dir",
	"model_name":             "model.name",
	"model_samples":          "model.samples",
	"model_seed":             "model.seed",
	"model_estimators":       "model.estimators",
	"model_learning_rate":    "model.learning_rate",
	"model_max_depth":        "model.max_depth",
	"model_test_fraction":    "model.test_fraction",
	"model_train_on_startup": "model.train_on_startup",
	"model_retrain_interval": "model.retrain_interval",
	"model_keep_versions":    "model.keep_versions",
	"model_breaker_timeout":  "model.breaker_timeout",

	// Pricing
	"use_historical_fallback": "pricing.use_historical_fallback",
	"pricing_max_days":        "pricing.max_days",

	// Analytics and events
	"analytics_cache_type":     "analytics.cache_type",
	"analytics_cache_ttl":      "analytics.cache_ttl",
	"analytics_cache_capacity": "analytics.cache_capacity",
	"analytics_window_days":    "analytics.default_window_days",
	"events_enabled":           "events.enabled",
	"events_buffer_size":       "events.buffer_size",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps HTTP_PORT -> server.port and friends. Returning ""
// tells koanf to skip the variable.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
