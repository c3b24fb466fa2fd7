// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

// Package pricing resolves per-day dynamic room rates through an ordered
// chain of sources and quotes multi-night stays.
//
// For each day the first applicable tier wins:
//
//  1. custom: an operator multiplier supplied for that day
//  2. historical: a stored multiplier for the day or the same weekday up to
//     four weeks earlier, when history is enabled and the multiplier is not 1.0
//  3. ml_prediction: the trained model's rate, when a model is available
//  4. factor_calculation: base x occupancy factor x demand factor
//
// Every rate is clamped to [0.4, 4.0] x base and the effective multiplier is
// written back to history. A day that fails is returned degraded; a batch
// that fails is returned entirely as system_fallback. The number of results
// always equals the number of base rates.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/ratewise/internal/calendar"
	"github.com/tomtom215/ratewise/internal/catalog"
	"github.com/tomtom215/ratewise/internal/factors"
	"github.com/tomtom215/ratewise/internal/history"
	"github.com/tomtom215/ratewise/internal/metrics"
	"github.com/tomtom215/ratewise/internal/model"
)

// Rate bounds relative to the base rate.
const (
	MinRateRatio = 0.4
	MaxRateRatio = 4.0
)

var (
	// ErrInvalidBaseRate is returned for a base rate that is not a positive
	// finite number.
	ErrInvalidBaseRate = errors.New("base rate must be a positive number")

	// ErrInvalidMultiplier is returned for a non-finite custom multiplier.
	ErrInvalidMultiplier = errors.New("custom multiplier must be a finite number")
)

// Predictor maps a model feature vector to a nightly rate.
type Predictor interface {
	Predict(features []float64) (float64, error)
}

// Request is a batch of consecutive days to price.
type Request struct {
	Room catalog.RoomCategory
	Plan catalog.RatePlan

	// StartDate is YYYY-MM-DD; longer ISO timestamps are truncated to the date.
	StartDate string

	BaseRates []float64

	// CustomMultipliers covers a prefix of the days; it may be shorter than
	// BaseRates.
	CustomMultipliers []float64

	UseHistory bool
}

// Resolver prices batches. It is safe for concurrent use.
type Resolver struct {
	calc   *factors.Calculator
	store  history.Store
	model  Predictor
	logger zerolog.Logger
}

// NewResolver creates a Resolver. model may be nil, in which case the model
// tier is skipped.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewResolver(calc *factors.Calculator, store history.Store, model Predictor, logger zerolog.Logger) *Resolver {
	return &Resolver{
		calc:   calc,
		store:  store,
		model:  model,
		logger: logger.With().Str("component", "pricing").Logger(),
	}
}

// Resolve prices every day in req. It never returns fewer results than
// req.BaseRates. A nil request yields an empty result.
func (r *Resolver) Resolve(ctx context.Context, req *Request) (res *Result) {
	if req == nil {
		return newResult(&Request{}, []DayResult{})
	}
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error().Interface("panic", p).Msg("rate resolution failed, using system fallback")
			res = r.systemFallback(ctx, req)
		}
		for i := range res.Predictions {
			metrics.RecordRate(res.Predictions[i].Source, res.Predictions[i].Degraded())
		}
		metrics.RecordBatch(len(res.Predictions), time.Since(start))
	}()

	startDate, err := calendar.ParseDate(req.StartDate)
	if err != nil {
		r.logger.Warn().Err(err).Str("start_date", req.StartDate).Msg("unparsable start date, using system fallback")
		return r.systemFallback(ctx, req)
	}

	days := make([]DayResult, 0, len(req.BaseRates))
	for i, base := range req.BaseRates {
		days = append(days, r.resolveDaySafely(ctx, req, i, calendar.AddDays(startDate, i), base))
	}
	return newResult(req, days)
}

func newResult(req *Request, days []DayResult) *Result {
	return &Result{
		Room:        req.Room,
		Plan:        req.Plan,
		Predictions: days,
		TotalDays:   len(days),
		Summary:     Summarize(days),
	}
}

func (r *Resolver) resolveDaySafely(ctx context.Context, req *Request, i int, date time.Time, base float64) (day DayResult) {
	defer func() {
		if p := recover(); p != nil {
			day = r.degradedDay(ctx, req, date, base, fmt.Errorf("panic: %v", p))
		}
	}()

	var err error
	day, err = r.resolveDay(ctx, req, i, date, base)
	if err != nil {
		r.logger.Warn().Err(err).Str("date", calendar.FormatDate(date)).Msg("day resolution failed, using fallback")
		return r.degradedDay(ctx, req, date, base, err)
	}
	return day
}

func (r *Resolver) resolveDay(ctx context.Context, req *Request, i int, date time.Time, base float64) (DayResult, error) {
	if !finite(base) || base <= 0 {
		return DayResult{}, fmt.Errorf("%w: %v", ErrInvalidBaseRate, base)
	}

	key := history.Key{Date: date, Room: req.Room, Plan: req.Plan}
	occasions := r.calc.Calendar().OccasionsFor(date)
	occupancy := r.calc.Occupancy(ctx, date)
	occupancyFactor := factors.OccupancyLadder(occupancy.Percentage / 100)
	demandFactor := r.calc.DemandFactor(date, 1.0)

	var (
		dynamic float64
		source  string
	)
	switch {
	case i < len(req.CustomMultipliers):
		m := req.CustomMultipliers[i]
		if !finite(m) {
			return DayResult{}, fmt.Errorf("%w: %v", ErrInvalidMultiplier, m)
		}
		dynamic, source = base*m, SourceCustom

	default:
		if req.UseHistory {
			// A stored 1.0 is indistinguishable from "no adjustment" and
			// does not win the tier.
			if l := r.lookup(ctx, key); l.Found && l.Multiplier != history.NeutralMultiplier {
				dynamic, source = base*l.Multiplier, SourceHistorical
			}
		}
		if source == "" {
			if v, ok := r.predict(date, req, base); ok {
				dynamic, source = v, SourceModel
			} else {
				dynamic, source = base*occupancyFactor*demandFactor, SourceFactors
			}
		}
	}

	dynamic = clamp(dynamic, base*MinRateRatio, base*MaxRateRatio)
	multiplier := dynamic / base

	r.persist(ctx, &history.MultiplierRecord{
		Date:            date,
		Room:            req.Room,
		Plan:            req.Plan,
		Multiplier:      multiplier,
		BaseRate:        base,
		DynamicRate:     dynamic,
		OccupancyFactor: occupancyFactor,
		DemandFactor:    demandFactor,
	})

	if occasions == nil {
		occasions = []catalog.Occasion{}
	}
	return DayResult{
		Date:            calendar.FormatDate(date),
		Room:            req.Room,
		Plan:            req.Plan,
		BaseRate:        base,
		DynamicRate:     round2(dynamic),
		Multiplier:      round2(multiplier),
		Source:          source,
		OccupancyFactor: occupancyFactor,
		DemandFactor:    demandFactor,
		Occupancy:       occupancy,
		Occasions:       occasions,
		Status:          StatusOK,
	}, nil
}

// predict runs the model tier. Any failure, including a non-positive
// output, sends the day to the factor tier.
func (r *Resolver) predict(date time.Time, req *Request, base float64) (float64, bool) {
	if r.model == nil {
		return 0, false
	}
	features := model.Features(r.calc.Calendar(), date, req.Room, req.Plan, base)
	v, err := r.model.Predict(features)
	if err != nil {
		r.logger.Debug().Err(err).Str("date", calendar.FormatDate(date)).Msg("model unavailable, using factors")
		return 0, false
	}
	if !finite(v) || v <= 0 {
		r.logger.Debug().Float64("prediction", v).Msg("discarding invalid model output")
		return 0, false
	}
	return v, true
}

// lookup reads history with week fallback; read errors are misses.
func (r *Resolver) lookup(ctx context.Context, key history.Key) history.Lookup {
	l, err := history.LookupWithWeekFallback(ctx, r.store, key)
	if err != nil {
		r.logger.Warn().Err(err).Str("key", key.String()).Msg("history lookup failed, treating as miss")
		return history.Miss()
	}
	return l
}

// persist upserts rec; write errors are logged and dropped.
func (r *Resolver) persist(ctx context.Context, rec *history.MultiplierRecord) {
	if err := r.store.Upsert(ctx, *rec); err != nil {
		r.logger.Warn().Err(err).Str("key", rec.Key().String()).Msg("failed to save multiplier history")
	}
}

// degradedDay applies the best stored multiplier (or 1.0) to the raw base
// rate. It performs no writes.
func (r *Resolver) degradedDay(ctx context.Context, req *Request, date time.Time, base float64, cause error) DayResult {
	multiplier := history.NeutralMultiplier
	source := SourceErrorFallback
	if req.UseHistory && !date.IsZero() {
		if l := r.lookup(ctx, history.Key{Date: date, Room: req.Room, Plan: req.Plan}); l.Found && l.Multiplier != history.NeutralMultiplier {
			multiplier = l.Multiplier
			source = SourceHistoricalFallback
		}
	}
	return fallbackDay(req, date, base, multiplier, source, cause.Error())
}

// systemFallback prices every day from history alone. Dates are left empty
// when the start date cannot be parsed.
func (r *Resolver) systemFallback(ctx context.Context, req *Request) *Result {
	startDate, dateErr := calendar.ParseDate(req.StartDate)

	days := make([]DayResult, 0, len(req.BaseRates))
	for i, base := range req.BaseRates {
		var date time.Time
		multiplier := history.NeutralMultiplier
		if dateErr == nil {
			date = calendar.AddDays(startDate, i)
			if req.UseHistory {
				if l := r.lookup(ctx, history.Key{Date: date, Room: req.Room, Plan: req.Plan}); l.Found {
					multiplier = l.Multiplier
				}
			}
		}
		days = append(days, fallbackDay(req, date, base, multiplier, SourceSystemFallback, "system error, using historical fallback"))
	}
	return newResult(req, days)
}

func fallbackDay(req *Request, date time.Time, base, multiplier float64, source, reason string) DayResult {
	if !finite(base) {
		base = 0
	}
	dynamic := base * multiplier
	if base > 0 {
		dynamic = clamp(dynamic, base*MinRateRatio, base*MaxRateRatio)
		multiplier = dynamic / base
	}

	day := DayResult{
		Room:            req.Room,
		Plan:            req.Plan,
		BaseRate:        base,
		DynamicRate:     round2(dynamic),
		Multiplier:      round2(multiplier),
		Source:          source,
		OccupancyFactor: 1.0,
		DemandFactor:    1.0,
		Occupancy: factors.OccupancyDetail{
			Percentage: defaultOccupancyPercent,
			Source:     OccupancySourceDefault,
		},
		Occasions: []catalog.Occasion{},
		Status:    StatusDegraded,
		Error:     reason,
	}
	if !date.IsZero() {
		day.Date = calendar.FormatDate(date)
	}
	return day
}
