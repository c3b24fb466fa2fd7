// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package app

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/ratewise/internal/cache"
	"github.com/tomtom215/ratewise/internal/catalog"
	"github.com/tomtom215/ratewise/internal/config"
	"github.com/tomtom215/ratewise/internal/logging"
	"github.com/tomtom215/ratewise/internal/model"
	"github.com/tomtom215/ratewise/internal/pricing"
)

func testConfig() *config.Config {
	return &config.Config{
		History: config.HistoryConfig{Backend: "memory", OpenTimeout: time.Second},
		Model: config.ModelConfig{
			Name:     "test_rate",
			Samples:  200,
			Seed:     7,
			MaxDepth: 3,
		},
		Analytics: config.AnalyticsConfig{
			CacheType:         "lfu",
			CacheTTL:          time.Minute,
			CacheCapacity:     8,
			DefaultWindowDays: 30,
		},
		Events: config.EventsConfig{Enabled: true, BufferSize: 16},
	}
}

func TestBuildMemoryBackend(t *testing.T) {
	t.Parallel()

	c, err := Build(context.Background(), testConfig(), logging.Nop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	}()

	if c.Backend() != "memory" {
		t.Errorf("Backend = %q, want memory", c.Backend())
	}
	if c.Breaker != nil {
		t.Error("Breaker should be nil when the model is disabled")
	}
	if c.Bus == nil || c.Consumer == nil {
		t.Fatal("events enabled but bus or consumer missing")
	}

	res := c.Resolver.Resolve(context.Background(), &pricing.Request{
		Room:              catalog.RoomDeluxe,
		Plan:              catalog.PlanCP,
		StartDate:         "2024-06-03",
		BaseRates:         []float64{100},
		CustomMultipliers: []float64{1.5},
	})
	if len(res.Predictions) != 1 {
		t.Fatalf("got %d predictions, want 1", len(res.Predictions))
	}
	day := res.Predictions[0]
	if day.Source != pricing.SourceCustom || day.DynamicRate != 150 {
		t.Errorf("day = %s/%v, want custom/150", day.Source, day.DynamicRate)
	}
}

func TestBuildModelEnabled(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Model.Enabled = true
	cfg.Model.Dir = t.TempDir()
	cfg.Events.Enabled = false

	c, err := Build(context.Background(), cfg, logging.Nop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer c.Close()

	if c.Breaker == nil {
		t.Fatal("Breaker should wrap the engine when the model is enabled")
	}
	if c.Bus != nil || c.Consumer != nil {
		t.Error("events disabled but bus or consumer present")
	}
	if c.Engine.Ready() {
		t.Error("engine should start untrained")
	}

	res := c.Resolver.Resolve(context.Background(), &pricing.Request{
		Room:      catalog.RoomStandard,
		Plan:      catalog.PlanEP,
		StartDate: "2024-06-03",
		BaseRates: []float64{100},
	})
	if got := res.Predictions[0].Source; got != pricing.SourceFactors {
		t.Errorf("untrained model: source = %q, want %q", got, pricing.SourceFactors)
	}
}

func TestBuildUnknownBackend(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.History.Backend = "cassandra"
	if _, err := Build(context.Background(), cfg, logging.Nop()); err == nil {
		t.Fatal("expected an error for an unknown backend")
	}
}

func TestModelConfig(t *testing.T) {
	t.Parallel()

	defaults := model.DefaultConfig()

	tests := []struct {
		name  string
		apply func(*config.ModelConfig)
		check func(t *testing.T, mc model.Config)
	}{
		{
			name:  "zero values keep defaults",
			apply: func(*config.ModelConfig) {},
			check: func(t *testing.T, mc model.Config) {
				if mc.Name != defaults.Name || mc.Synth.Samples != defaults.Synth.Samples {
					t.Errorf("got %s/%d, want defaults", mc.Name, mc.Synth.Samples)
				}
				if mc.Train.GBRT.Estimators != defaults.Train.GBRT.Estimators {
					t.Errorf("Estimators = %d", mc.Train.GBRT.Estimators)
				}
			},
		},
		{
			name: "overrides apply",
			apply: func(m *config.ModelConfig) {
				m.Name = "custom"
				m.Samples = 500
				m.Seed = 9
				m.Estimators = 20
				m.LearningRate = 0.05
				m.MaxDepth = 4
				m.TestFraction = 0.3
				m.KeepVersions = 5
			},
			check: func(t *testing.T, mc model.Config) {
				if mc.Name != "custom" || mc.Synth.Samples != 500 || mc.KeepVersions != 5 {
					t.Errorf("got %+v", mc)
				}
				if mc.Synth.Seed != 9 || mc.Train.Seed != 9 {
					t.Errorf("seeds = %d/%d, want 9", mc.Synth.Seed, mc.Train.Seed)
				}
				g := mc.Train.GBRT
				if g.Estimators != 20 || g.LearningRate != 0.05 || g.MaxDepth != 4 {
					t.Errorf("GBRT = %+v", g)
				}
				if mc.Train.TestFraction != 0.3 {
					t.Errorf("TestFraction = %v", mc.Train.TestFraction)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := &config.Config{}
			tt.apply(&cfg.Model)
			tt.check(t, ModelConfig(cfg))
		})
	}
}

func TestBreakerAndCacheConfig(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Model.BreakerTimeout = 5 * time.Second

	bc := BreakerConfig(cfg)
	def := model.DefaultBreakerConfig()
	if bc.Timeout != 5*time.Second || bc.MaxRequests != def.MaxRequests || bc.Interval != def.Interval {
		t.Errorf("BreakerConfig = %+v", bc)
	}

	cc := CacheConfig(cfg)
	if cc.Type != cache.TypeLFU || cc.Capacity != 8 || cc.TTL != time.Minute {
		t.Errorf("CacheConfig = %+v", cc)
	}
}
