// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package model

import (
	"errors"
	"fmt"
	"math"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/ratewise/internal/logging"
	"github.com/tomtom215/ratewise/internal/metrics"
)

// ErrInvalidPrediction is returned for a NaN or infinite model output.
var ErrInvalidPrediction = errors.New("model returned a non-finite prediction")

// BreakerConfig configures BreakerPredictor.
type BreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
}

// DefaultBreakerConfig allows 3 half-open probes, a 1 minute window and a
// 30 second open period.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:        "model",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
	}
}

// BreakerPredictor guards a Predictor with a circuit breaker. It opens after
// at least 10 calls in the window with a 60% or higher failure rate; while
// open, Predict fails fast with gobreaker.ErrOpenState.
type BreakerPredictor struct {
	next Predictor
	cb   *gobreaker.CircuitBreaker[float64]
	name string
}

// NewBreakerPredictor wraps next.
func NewBreakerPredictor(next Predictor, cfg BreakerConfig) *BreakerPredictor {
	if cfg.Name == "" {
		cfg.Name = "model"
	}
	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[float64](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= 0.6 {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", ratio*100).
					Msg("opening model circuit breaker")
				return true
			}
			return false
		},

		// An untrained engine is not a failing one.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotTrained)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state transition")
			metrics.RecordBreakerTransition(name, from.String(), to.String())
		},
	})

	return &BreakerPredictor{next: next, cb: cb, name: cfg.Name}
}

// Predict implements Predictor.
func (b *BreakerPredictor) Predict(features []float64) (float64, error) {
	start := time.Now()
	v, err := b.cb.Execute(func() (float64, error) {
		v, err := b.next.Predict(features)
		if err != nil {
			return 0, err
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: %v", ErrInvalidPrediction, v)
		}
		return v, nil
	})

	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
		metrics.RecordPrediction("success", time.Since(start))
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
		metrics.RecordPrediction("unavailable", time.Since(start))
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		metrics.RecordPrediction("error", time.Since(start))
	}
	return v, err
}

// State returns the breaker state name: closed, half-open or open.
func (b *BreakerPredictor) State() string {
	return b.cb.State().String()
}
