// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/ratewise/internal/model"
)

// defaultTrainTimeout bounds one training run.
const defaultTrainTimeout = 30 * time.Minute

// ModelTrainer is the engine lifecycle the retrain loop drives.
type ModelTrainer interface {
	// EnsureModel loads the newest stored model or trains one.
	EnsureModel(ctx context.Context) error

	// Train fits and activates a new model.
	Train(ctx context.Context) (model.Metadata, error)
}

// RetrainServiceConfig configures RetrainService.
type RetrainServiceConfig struct {
	// EnsureOnStartup loads or trains a model before the loop starts.
	EnsureOnStartup bool

	// Interval between scheduled retrains; 0 disables them.
	Interval time.Duration

	// TrainTimeout bounds each run; 0 means 30 minutes.
	TrainTimeout time.Duration
}

// RetrainService makes sure a model is active and retrains it on a schedule.
// Failed runs are logged and retried at the next tick; the previous model
// stays active meanwhile.
type RetrainService struct {
	trainer ModelTrainer
	config  RetrainServiceConfig
	logger  zerolog.Logger
}

// NewRetrainService creates the service.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewRetrainService(trainer ModelTrainer, cfg RetrainServiceConfig, logger zerolog.Logger) *RetrainService {
	if cfg.TrainTimeout <= 0 {
		cfg.TrainTimeout = defaultTrainTimeout
	}
	return &RetrainService{
		trainer: trainer,
		config:  cfg,
		logger:  logger.With().Str("service", "retrain").Logger(),
	}
}

// Serve implements suture.Service.
func (s *RetrainService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("ensure_on_startup", s.config.EnsureOnStartup).
		Dur("interval", s.config.Interval).
		Msg("retrain service starting")

	if s.config.EnsureOnStartup {
		runCtx, cancel := context.WithTimeout(ctx, s.config.TrainTimeout)
		err := s.trainer.EnsureModel(runCtx)
		cancel()
		if err != nil && ctx.Err() == nil {
			s.logger.Warn().Err(err).Msg("no model available, predictions fall through to factors")
		}
	}

	if s.config.Interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("retrain service shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.retrain(ctx)
		}
	}
}

func (s *RetrainService) retrain(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.config.TrainTimeout)
	defer cancel()

	start := time.Now()
	meta, err := s.trainer.Train(runCtx)
	switch {
	case errors.Is(err, model.ErrTrainingInProgress):
		s.logger.Debug().Msg("scheduled retrain skipped, training already running")
	case err != nil:
		s.logger.Warn().Err(err).Msg("scheduled retrain failed")
	default:
		s.logger.Info().
			Int("version", meta.Version).
			Float64("mae", meta.Metrics.MAE).
			Float64("rmse", meta.Metrics.RMSE).
			Dur("duration", time.Since(start)).
			Msg("scheduled retrain complete")
	}
}

// String implements fmt.Stringer for suture's logs.
func (s *RetrainService) String() string {
	return "retrain-service"
}
