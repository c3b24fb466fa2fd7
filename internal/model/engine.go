// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package model

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/ratewise/internal/calendar"
	"github.com/tomtom215/ratewise/internal/factors"
	"github.com/tomtom215/ratewise/internal/metrics"
)

// DefaultName is the artifact name used when Config.Name is empty.
const DefaultName = "daily_rate"

// Config configures an Engine.
type Config struct {
	Name         string
	Synth        SynthConfig
	Train        TrainConfig
	KeepVersions int
}

// DefaultConfig returns 10000 samples seeded with 42 and the default ensemble.
func DefaultConfig() Config {
	return Config{
		Name:  DefaultName,
		Synth: SynthConfig{Samples: 10000, Seed: 42},
		Train: TrainConfig{
			GBRT:         DefaultGBRTConfig(),
			TestFraction: 0.2,
			Seed:         42,
		},
		KeepVersions: 3,
	}
}

// Status is a snapshot of the engine's model and training state.
type Status struct {
	Trained   bool      `json:"trained"`
	Version   int       `json:"version,omitempty"`
	TrainedAt time.Time `json:"trained_at,omitempty"`
	Samples   int       `json:"samples,omitempty"`
	Metrics   Metrics   `json:"metrics"`

	Training  bool   `json:"training"`
	LastError string `json:"last_error,omitempty"`
}

// Engine owns the active model. Training runs are exclusive; a finished run
// replaces the active model atomically while predictions continue against
// the previous one.
type Engine struct {
	cfg    Config
	calc   *factors.Calculator
	store  *Store
	logger zerolog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	current *Artifact
	meta    Metadata

	trainMu   sync.Mutex
	training  atomic.Bool
	lastError atomic.Value // string
}

// NewEngine creates an engine. store may be nil, in which case trained
// models live only in memory.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewEngine(cfg Config, cal *calendar.Calendar, store *Store, logger zerolog.Logger) *Engine {
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	logger = logger.With().Str("component", "model").Logger()
	return &Engine{
		cfg:    cfg,
		calc:   factors.NewCalculator(cal, nil, logger),
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Calendar returns the calendar features are built from.
func (e *Engine) Calendar() *calendar.Calendar {
	return e.calc.Calendar()
}

// Load activates the newest stored artifact.
func (e *Engine) Load() error {
	if e.store == nil {
		return ErrNoArtifact
	}
	art, meta, err := e.store.Load(e.cfg.Name, 0)
	if err != nil {
		return err
	}
	e.swap(art, meta)
	e.logger.Info().
		Int("version", meta.Version).
		Float64("mae", meta.Metrics.MAE).
		Float64("rmse", meta.Metrics.RMSE).
		Msg("loaded stored model")
	return nil
}

// EnsureModel loads the newest stored artifact or, if none loads, trains one.
func (e *Engine) EnsureModel(ctx context.Context) error {
	err := e.Load()
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNoArtifact) {
		e.logger.Warn().Err(err).Msg("stored model unusable, retraining")
	}
	_, err = e.Train(ctx)
	return err
}

// Train synthesizes a dataset, fits a new model, persists it when a store is
// configured and makes it active. It returns ErrTrainingInProgress if another
// run holds the training lock.
func (e *Engine) Train(ctx context.Context) (Metadata, error) {
	if !e.trainMu.TryLock() {
		return Metadata{}, ErrTrainingInProgress
	}
	defer e.trainMu.Unlock()

	e.training.Store(true)
	defer e.training.Store(false)

	start := time.Now()
	meta, err := e.train(ctx)
	metrics.RecordTraining(time.Since(start), meta.Version, meta.Metrics.MAE, meta.Metrics.RMSE, err)
	if err != nil {
		e.lastError.Store(err.Error())
		e.logger.Error().Err(err).Msg("model training failed")
		return Metadata{}, err
	}
	e.lastError.Store("")

	e.logger.Info().
		Int("version", meta.Version).
		Int("samples", meta.Samples).
		Float64("mae", meta.Metrics.MAE).
		Float64("rmse", meta.Metrics.RMSE).
		Int64("duration_ms", meta.TrainingDurationMS).
		Msg("model training complete")
	return meta, nil
}

func (e *Engine) train(ctx context.Context) (Metadata, error) {
	start := time.Now()

	synth := e.cfg.Synth
	if synth.Start.IsZero() {
		synth.Start = e.now()
	}
	ds, err := Synthesize(ctx, e.calc, synth)
	if err != nil {
		return Metadata{}, err
	}

	art, m, err := Fit(ctx, ds, e.cfg.Train)
	if err != nil {
		return Metadata{}, err
	}

	meta := Metadata{
		Name:               e.cfg.Name,
		Version:            e.nextVersion(),
		TrainedAt:          e.now().UTC(),
		Samples:            ds.Len(),
		Metrics:            m,
		TrainingDurationMS: time.Since(start).Milliseconds(),
	}

	if e.store != nil {
		saved, err := e.store.Save(e.cfg.Name, meta.Version, art, meta)
		if err != nil {
			return Metadata{}, err
		}
		meta = saved
		if removed, err := e.store.Prune(e.cfg.Name, e.cfg.KeepVersions); err != nil {
			e.logger.Warn().Err(err).Msg("failed to prune old models")
		} else if removed > 0 {
			e.logger.Debug().Int("removed", removed).Msg("pruned old models")
		}
	}

	e.swap(art, meta)
	return meta, nil
}

func (e *Engine) nextVersion() int {
	e.mu.RLock()
	next := e.meta.Version + 1
	e.mu.RUnlock()

	if e.store != nil {
		if v, ok := e.store.LatestVersion(e.cfg.Name); ok && v >= next {
			next = v + 1
		}
	}
	return next
}

//nolint:gocritic // metadata is copied into the engine
func (e *Engine) swap(art *Artifact, meta Metadata) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.current = art
	e.meta = meta
}

// Predict runs the active model. It returns ErrNotTrained before the first
// model is trained or loaded.
func (e *Engine) Predict(features []float64) (float64, error) {
	e.mu.RLock()
	art := e.current
	e.mu.RUnlock()

	if art == nil {
		return 0, ErrNotTrained
	}
	return art.Predict(features)
}

// Ready reports whether a model is active.
func (e *Engine) Ready() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current != nil
}

// Training reports whether a training run is in progress.
func (e *Engine) Training() bool {
	return e.training.Load()
}

// Status returns a snapshot of the engine state.
func (e *Engine) Status() Status {
	e.mu.RLock()
	s := Status{
		Trained:   e.current != nil,
		Version:   e.meta.Version,
		TrainedAt: e.meta.TrainedAt,
		Samples:   e.meta.Samples,
		Metrics:   e.meta.Metrics,
	}
	e.mu.RUnlock()

	s.Training = e.training.Load()
	if msg, ok := e.lastError.Load().(string); ok {
		s.LastError = msg
	}
	return s
}
