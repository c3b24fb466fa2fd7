// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

// Package app assembles the Ratewise components from a loaded Config. The
// server and the ratectl CLI share it so both price rates the same way.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/tomtom215/ratewise/internal/analytics"
	"github.com/tomtom215/ratewise/internal/cache"
	"github.com/tomtom215/ratewise/internal/calendar"
	"github.com/tomtom215/ratewise/internal/config"
	"github.com/tomtom215/ratewise/internal/events"
	"github.com/tomtom215/ratewise/internal/factors"
	"github.com/tomtom215/ratewise/internal/history"
	"github.com/tomtom215/ratewise/internal/logging"
	"github.com/tomtom215/ratewise/internal/model"
	"github.com/tomtom215/ratewise/internal/pricing"
)

// Components is the wired object graph.
type Components struct {
	Store      history.Store
	Calendar   *calendar.Calendar
	Calculator *factors.Calculator
	Engine     *model.Engine
	Resolver   *pricing.Resolver
	Quoter     *pricing.Quoter
	Analytics  *analytics.Service

	// Breaker guards Engine in the resolver. Nil when the model is disabled.
	Breaker *model.BreakerPredictor

	// Bus and Consumer are nil when events are disabled.
	Bus      *events.Bus
	Consumer *events.Consumer

	backend history.Backend
	cache   cache.Cacher
}

// Backend returns the configured history backend name.
func (c *Components) Backend() string {
	return string(c.backend)
}

// Build opens the history store and wires every component on top of it.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Components, error) {
	opts := HistoryOptions(cfg)
	raw, err := history.Open(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}

	c := &Components{backend: opts.Backend}
	var store history.Store = history.Instrument(raw, opts.Backend)
	if cfg.Events.Enabled {
		c.Bus = events.NewBus(events.BusConfig{Buffer: cfg.Events.BufferSize})
		store = history.WithNotifier(store, events.NewPublisher(c.Bus))
	}
	c.Store = store

	c.Calendar = calendar.NewUS()
	c.Calculator = factors.NewCalculator(c.Calendar, history.NewObservationSource(store), logger)

	c.cache = cache.NewCacher(CacheConfig(cfg))
	c.Analytics = analytics.NewService(store, c.cache, cfg.Analytics.DefaultWindowDays, logger)
	if c.Bus != nil {
		c.Consumer = events.NewConsumer(c.Bus)
		c.Consumer.Handle(c.Analytics.HandleChange)
	}

	var modelStore *model.Store
	if cfg.Model.Enabled && cfg.Model.Dir != "" {
		modelStore, err = model.NewStore(cfg.Model.Dir)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	c.Engine = model.NewEngine(ModelConfig(cfg), c.Calendar, modelStore, logger)

	// A nil *BreakerPredictor must not reach the resolver as a non-nil interface.
	var predictor pricing.Predictor
	if cfg.Model.Enabled {
		c.Breaker = model.NewBreakerPredictor(c.Engine, BreakerConfig(cfg))
		predictor = c.Breaker
	}
	c.Resolver = pricing.NewResolver(c.Calculator, store, predictor, logger)
	c.Quoter = pricing.NewQuoter(c.Calculator)

	return c, nil
}

// Close releases the cache, the bus and the store. It is safe to call once
// after every consumer has stopped.
func (c *Components) Close() error {
	var errs []error
	if c.cache != nil {
		c.cache.Close()
	}
	if c.Bus != nil {
		if err := c.Bus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close event bus: %w", err))
		}
	}
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close history store: %w", err))
		}
	}
	return errors.Join(errs...)
}

// HistoryOptions maps cfg to history.Options.
func HistoryOptions(cfg *config.Config) history.Options {
	return history.Options{
		Backend:     history.Backend(cfg.History.Backend),
		Path:        cfg.History.Path,
		DSN:         cfg.History.DSN,
		Threads:     cfg.History.Threads,
		MaxMemory:   cfg.History.MaxMemory,
		OpenTimeout: cfg.History.OpenTimeout,
	}
}

// ModelConfig maps cfg onto the model defaults. Zero values keep the default.
func ModelConfig(cfg *config.Config) model.Config {
	mc := model.DefaultConfig()
	m := cfg.Model
	if m.Name != "" {
		mc.Name = m.Name
	}
	if m.Samples > 0 {
		mc.Synth.Samples = m.Samples
	}
	mc.Synth.Seed = m.Seed
	mc.Train.Seed = m.Seed
	if m.Estimators > 0 {
		mc.Train.GBRT.Estimators = m.Estimators
	}
	if m.LearningRate > 0 {
		mc.Train.GBRT.LearningRate = m.LearningRate
	}
	if m.MaxDepth > 0 {
		mc.Train.GBRT.MaxDepth = m.MaxDepth
	}
	if m.TestFraction > 0 {
		mc.Train.TestFraction = m.TestFraction
	}
	if m.KeepVersions > 0 {
		mc.KeepVersions = m.KeepVersions
	}
	return mc
}

// BreakerConfig maps cfg to the model circuit breaker settings.
func BreakerConfig(cfg *config.Config) model.BreakerConfig {
	bc := model.DefaultBreakerConfig()
	if cfg.Model.BreakerMaxRequests > 0 {
		bc.MaxRequests = cfg.Model.BreakerMaxRequests
	}
	if cfg.Model.BreakerInterval > 0 {
		bc.Interval = cfg.Model.BreakerInterval
	}
	if cfg.Model.BreakerTimeout > 0 {
		bc.Timeout = cfg.Model.BreakerTimeout
	}
	return bc
}

// CacheConfig maps cfg to the analytics cache settings.
func CacheConfig(cfg *config.Config) cache.Config {
	return cache.Config{
		Name:     "analytics",
		Type:     cache.Type(cfg.Analytics.CacheType),
		TTL:      cfg.Analytics.CacheTTL,
		Capacity: cfg.Analytics.CacheCapacity,
	}
}

// LoggingConfig maps cfg to logging.Config, writing to stderr.
func LoggingConfig(cfg *config.Config) logging.Config {
	return logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	}
}
