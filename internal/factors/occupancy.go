// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

// Package factors turns calendar days into the numeric occupancy, demand and
// per-stay factors used by both model training and rule-based pricing.
package factors

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/ratewise/internal/calendar"
	"github.com/tomtom215/ratewise/internal/catalog"
)

// Occupancy sources.
const (
	SourceActual    = "actual"
	SourcePredicted = "predicted"
)

// Estimate constants for the observation-aware path.
const (
	estimateBase         = 0.65
	estimateWeekendBoost = 0.15
	estimateThuFriBoost  = 0.05
	occasionBoostScale   = 0.2
	estimateMinPercent   = 20.0
	estimateMaxPercent   = 95.0
	assumedTotalRooms    = 100
)

// Simulation-only path constants.
const (
	simulatedBase          = 0.7
	simulatedOccasionBoost = 0.2
	simulatedWeekendBoost  = 0.1
	simulatedMin           = 0.30
	simulatedMax           = 0.95
)

// Observation is a realized occupancy figure for a day.
type Observation struct {
	Percentage    float64
	OccupiedRooms int
	TotalRooms    int
}

// ObservationSource supplies realized occupancy. found=false means none is
// recorded for the date.
type ObservationSource interface {
	ObservedOccupancy(ctx context.Context, date time.Time) (obs Observation, found bool, err error)
}

// EstimateFactors explains how a predicted occupancy was derived.
type EstimateFactors struct {
	Base      float64            `json:"base"`
	DayOfWeek int                `json:"day_of_week"`
	Occasions []catalog.Occasion `json:"occasions"`
	Season    int                `json:"season"`
}

// OccupancyDetail is the occupancy used for a day.
type OccupancyDetail struct {
	Percentage    float64          `json:"occupancy_percentage"`
	OccupiedRooms int              `json:"occupied_rooms"`
	TotalRooms    int              `json:"total_rooms"`
	Source        string           `json:"source"`
	Factors       *EstimateFactors `json:"factors,omitempty"`
}

// Calculator computes occupancy and demand factors for days.
type Calculator struct {
	calendar     *calendar.Calendar
	observations ObservationSource
	logger       zerolog.Logger
}

// NewCalculator creates a Calculator. observations may be nil, in which case
// every day uses the estimate.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewCalculator(cal *calendar.Calendar, observations ObservationSource, logger zerolog.Logger) *Calculator {
	return &Calculator{
		calendar:     cal,
		observations: observations,
		logger:       logger.With().Str("component", "factors").Logger(),
	}
}

// Calendar returns the occasion calendar the calculator uses.
func (c *Calculator) Calendar() *calendar.Calendar {
	return c.calendar
}

// Occupancy returns the realized occupancy for date when one is recorded,
// otherwise an estimate from weekday, occasions and season. A failing
// observation read is logged and treated as no observation.
func (c *Calculator) Occupancy(ctx context.Context, date time.Time) OccupancyDetail {
	date = calendar.Day(date)

	if c.observations != nil {
		obs, found, err := c.observations.ObservedOccupancy(ctx, date)
		switch {
		case err != nil:
			c.logger.Warn().Err(err).Str("date", calendar.FormatDate(date)).Msg("occupancy lookup failed, using estimate")
		case found:
			total := obs.TotalRooms
			if total == 0 {
				total = assumedTotalRooms
			}
			return OccupancyDetail{
				Percentage:    obs.Percentage,
				OccupiedRooms: obs.OccupiedRooms,
				TotalRooms:    total,
				Source:        SourceActual,
			}
		}
	}

	return c.estimate(date)
}

func (c *Calculator) estimate(date time.Time) OccupancyDetail {
	occasions := c.calendar.OccasionsFor(date)
	weekday := calendar.WeekdayIndex(date)

	occ := estimateBase
	switch {
	case weekday >= 5:
		occ += estimateWeekendBoost
	case weekday >= 3:
		occ += estimateThuFriBoost
	}

	if len(occasions) > 0 {
		occ += (catalog.MaxWeight(occasions) - 1.0) * occasionBoostScale
	}

	switch date.Month() {
	case time.June, time.July, time.August:
		occ += 0.10
	case time.December, time.January:
		occ += 0.15
	case time.March, time.April:
		occ += 0.05
	}

	pct := clamp(occ*100, estimateMinPercent, estimateMaxPercent)

	return OccupancyDetail{
		Percentage:    pct,
		OccupiedRooms: int(pct * assumedTotalRooms / 100),
		TotalRooms:    assumedTotalRooms,
		Source:        SourcePredicted,
		Factors: &EstimateFactors{
			Base:      estimateBase,
			DayOfWeek: weekday,
			Occasions: occasions,
			Season:    int(date.Month()),
		},
	}
}

// OccupancyFactor maps the day's occupancy (observed or estimated) onto the
// price ladder.
func (c *Calculator) OccupancyFactor(ctx context.Context, date time.Time) float64 {
	return OccupancyLadder(c.Occupancy(ctx, date).Percentage / 100)
}

// SimulatedOccupancy is the simulation-only occupancy estimate. It ignores
// observations: 0.7, plus 0.2 when any occasion is active, plus 0.1 on
// weekends, clamped to [0.30, 0.95].
func (c *Calculator) SimulatedOccupancy(date time.Time) float64 {
	occ := simulatedBase
	if len(c.calendar.OccasionsFor(date)) > 0 {
		occ += simulatedOccasionBoost
	}
	if calendar.IsWeekend(date) {
		occ += simulatedWeekendBoost
	}
	return clamp(occ, simulatedMin, simulatedMax)
}

// SimulatedOccupancyFactor maps SimulatedOccupancy onto the price ladder.
func (c *Calculator) SimulatedOccupancyFactor(date time.Time) float64 {
	return OccupancyLadder(c.SimulatedOccupancy(date))
}

type ladderStep struct {
	threshold float64
	factor    float64
}

// occupancyLadder is evaluated top-down; the first threshold met wins.
var occupancyLadder = []ladderStep{
	{0.90, 1.6},
	{0.85, 1.4},
	{0.80, 1.3},
	{0.75, 1.2},
	{0.70, 1.1},
	{0.60, 1.0},
	{0.50, 0.95},
}

const ladderFloor = 0.9

// OccupancyLadder maps an occupancy fraction to a discrete price factor.
// Tier lower bounds are inclusive and tiers are never interpolated.
func OccupancyLadder(occupancy float64) float64 {
	// Absorb representation error so 0.9 computed as 0.8999999999 lands in
	// the 0.90 tier.
	occupancy = math.Round(occupancy*1e9) / 1e9
	for _, step := range occupancyLadder {
		if occupancy >= step.threshold {
			return step.factor
		}
	}
	return ladderFloor
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
