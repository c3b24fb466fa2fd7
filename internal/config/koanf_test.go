// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()

	if cfg.Server.Port != 5001 {
		t.Errorf("Server.Port = %d, want 5001", cfg.Server.Port)
	}
	if cfg.History.Backend != "duckdb" {
		t.Errorf("History.Backend = %q, want duckdb", cfg.History.Backend)
	}
	if cfg.Model.Samples != 10000 || cfg.Model.Seed != 42 {
		t.Errorf("Model samples/seed = %d/%d, want 10000/42", cfg.Model.Samples, cfg.Model.Seed)
	}
	if cfg.Model.Estimators != 200 || cfg.Model.MaxDepth != 6 || cfg.Model.LearningRate != 0.1 {
		t.Errorf("unexpected boosting defaults: %+v", cfg.Model)
	}
	if !cfg.Pricing.UseHistoricalFallback {
		t.Error("Pricing.UseHistoricalFallback should default to true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env  string
		want string
	}{
		{"HTTP_PORT", "server.port"},
		{"HISTORY_BACKEND", "history.backend"},
		{"MODEL_RETRAIN_INTERVAL", "model.retrain_interval"},
		{"LOG_LEVEL", "logging.level"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Parallel()
			if got := envTransformFunc(tt.env); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("HISTORY_BACKEND", "memory")
	t.Setenv("MODEL_RETRAIN_INTERVAL", "6h")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("USE_HISTORICAL_FALLBACK", "false")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.History.Backend != "memory" {
		t.Errorf("History.Backend = %q, want memory", cfg.History.Backend)
	}
	if cfg.Model.RetrainInterval != 6*time.Hour {
		t.Errorf("Model.RetrainInterval = %v, want 6h", cfg.Model.RetrainInterval)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example" {
		t.Errorf("Server.CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Pricing.UseHistoricalFallback {
		t.Error("Pricing.UseHistoricalFallback should be false")
	}
}

func TestLoadWithKoanf_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 7000
history:
  backend: badger
  path: /tmp/ratewise-history
model:
  estimators: 50
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "7100")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 7100 {
		t.Errorf("env should win over file: port = %d", cfg.Server.Port)
	}
	if cfg.History.Backend != "badger" || cfg.History.Path != "/tmp/ratewise-history" {
		t.Errorf("History = %+v", cfg.History)
	}
	if cfg.Model.Estimators != 50 {
		t.Errorf("Model.Estimators = %d, want 50", cfg.Model.Estimators)
	}
	if cfg.Model.MaxDepth != 6 {
		t.Errorf("defaults should survive partial file: MaxDepth = %d", cfg.Model.MaxDepth)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"bad backend", func(c *Config) { c.History.Backend = "mongo" }, "HISTORY_BACKEND"},
		{"postgres needs dsn", func(c *Config) { c.History.Backend = "postgres" }, "HISTORY_DSN"},
		{"badger needs path", func(c *Config) { c.History.Backend = "badger"; c.History.Path = "" }, "HISTORY_PATH"},
		{"memory needs nothing", func(c *Config) { c.History.Backend = "memory"; c.History.Path = "" }, ""},
		{"learning rate", func(c *Config) { c.Model.LearningRate = 0 }, "MODEL_LEARNING_RATE"},
		{"depth", func(c *Config) { c.Model.MaxDepth = 40 }, "MODEL_MAX_DEPTH"},
		{"disabled model skips checks", func(c *Config) { c.Model.Enabled = false; c.Model.MaxDepth = 0 }, ""},
		{"rate window", func(c *Config) { c.Server.RateLimitWindow = time.Millisecond }, "RATE_LIMIT_WINDOW"},
		{"rate limit disabled", func(c *Config) { c.Server.RateLimitDisabled = true; c.Server.RateLimitReqs = 0 }, ""},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "LOG_LEVEL"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
		{"max days", func(c *Config) { c.Pricing.MaxDays = 0 }, "PRICING_MAX_DAYS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestAddr(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	if got := cfg.Addr(); got != "0.0.0.0:5001" {
		t.Errorf("Addr() = %q", got)
	}
}
