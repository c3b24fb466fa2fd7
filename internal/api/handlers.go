// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package api

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/ratewise/internal/analytics"
	"github.com/tomtom215/ratewise/internal/factors"
	"github.com/tomtom215/ratewise/internal/history"
	"github.com/tomtom215/ratewise/internal/model"
	"github.com/tomtom215/ratewise/internal/pricing"
)

// ModelService is the model lifecycle the API exposes.
type ModelService interface {
	Status() model.Status
	Ready() bool
	Train(ctx context.Context) (model.Metadata, error)
}

// BreakerState reports the model circuit breaker state.
type BreakerState interface {
	State() string
}

// Deps are the services handlers call into.
type Deps struct {
	Resolver   *pricing.Resolver
	Quoter     *pricing.Quoter
	Calculator *factors.Calculator
	Store      history.Store
	Analytics  *analytics.Service
	Model      ModelService

	// Breaker is optional.
	Breaker BreakerState
}

// Options configure handler behaviour.
type Options struct {
	Backend    string
	Version    string
	UseHistory bool
	MaxDays    int

	// RetrainMinInterval spaces manual retrain triggers; 0 disables the
	// throttle.
	RetrainMinInterval time.Duration
}

// Handler serves the Ratewise API.
type Handler struct {
	deps   Deps
	opts   Options
	logger zerolog.Logger

	retrainLimiter *rate.Limiter

	// baseCtx parents background training runs.
	baseCtx    context.Context
	trainingWG sync.WaitGroup
}

// NewHandler creates a Handler. Background retrains started by the API run
// under ctx and stop when it is cancelled.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewHandler(ctx context.Context, deps Deps, opts Options, logger zerolog.Logger) *Handler {
	if opts.MaxDays <= 0 {
		opts.MaxDays = maxBatchDays
	}
	limit := rate.Inf
	if opts.RetrainMinInterval > 0 {
		limit = rate.Every(opts.RetrainMinInterval)
	}
	return &Handler{
		deps:           deps,
		opts:           opts,
		logger:         logger.With().Str("component", "api").Logger(),
		retrainLimiter: rate.NewLimiter(limit, 1),
		baseCtx:        ctx,
	}
}

// Wait blocks until background training started by the API has finished.
func (h *Handler) Wait() {
	h.trainingWG.Wait()
}
