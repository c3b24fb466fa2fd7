// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package pricing

import (
	"math"

	"github.com/tomtom215/ratewise/internal/catalog"
	"github.com/tomtom215/ratewise/internal/factors"
)

// Source tags name the tier that produced a day's rate.
const (
	SourceCustom     = "custom"
	SourceHistorical = "historical"
	SourceModel      = "ml_prediction"
	SourceFactors    = "factor_calculation"

	SourceHistoricalFallback = "historical_fallback"
	SourceErrorFallback      = "error_fallback"
	SourceSystemFallback     = "system_fallback"
)

// Status tags a day result as fully resolved or degraded.
type Status string

// Day statuses.
const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
)

// OccupancySourceDefault marks the placeholder occupancy of a degraded day.
const OccupancySourceDefault = "default"

const defaultOccupancyPercent = 65.0

// DayResult is the rate for one day and the context that produced it.
// Degraded results carry Error and neutral factors.
type DayResult struct {
	Date            string                  `json:"date"`
	Room            catalog.RoomCategory    `json:"room_type"`
	Plan            catalog.RatePlan        `json:"rate_type"`
	BaseRate        float64                 `json:"base_rate"`
	DynamicRate     float64                 `json:"dynamic_rate"`
	Multiplier      float64                 `json:"multiplier"`
	Source          string                  `json:"multiplier_source"`
	OccupancyFactor float64                 `json:"occupancy_factor"`
	DemandFactor    float64                 `json:"demand_factor"`
	Occupancy       factors.OccupancyDetail `json:"occupancy_data"`
	Occasions       []catalog.Occasion      `json:"occasions"`
	Status          Status                  `json:"status"`
	Error           string                  `json:"error,omitempty"`
}

// Degraded reports whether the day fell back after an error.
func (d *DayResult) Degraded() bool {
	return d.Status == StatusDegraded
}

// Summary aggregates a batch.
type Summary struct {
	TotalBaseRevenue    float64 `json:"total_base_revenue"`
	TotalDynamicRevenue float64 `json:"total_dynamic_revenue"`
	AverageMultiplier   float64 `json:"average_multiplier"`
	RevenueUplift       float64 `json:"revenue_increase_percent"`
	DegradedDays        int     `json:"degraded_days"`
}

// Result is a resolved batch: one DayResult per requested day.
type Result struct {
	Room        catalog.RoomCategory `json:"room_type"`
	Plan        catalog.RatePlan     `json:"rate_type"`
	Predictions []DayResult          `json:"predictions"`
	TotalDays   int                  `json:"total_days"`
	Summary     Summary              `json:"summary"`
}

// Summarize totals the rounded day figures. An empty batch has zero totals,
// an average multiplier of 1.0 and no uplift.
func Summarize(days []DayResult) Summary {
	s := Summary{AverageMultiplier: 1.0}
	if len(days) == 0 {
		return s
	}

	var multSum float64
	for i := range days {
		s.TotalBaseRevenue += days[i].BaseRate
		s.TotalDynamicRevenue += days[i].DynamicRate
		multSum += days[i].Multiplier
		if days[i].Degraded() {
			s.DegradedDays++
		}
	}
	s.AverageMultiplier = multSum / float64(len(days))
	if s.TotalBaseRevenue > 0 {
		s.RevenueUplift = (s.TotalDynamicRevenue - s.TotalBaseRevenue) / s.TotalBaseRevenue * 100
	}

	s.TotalBaseRevenue = round2(s.TotalBaseRevenue)
	s.TotalDynamicRevenue = round2(s.TotalDynamicRevenue)
	s.AverageMultiplier = round2(s.AverageMultiplier)
	s.RevenueUplift = round2(s.RevenueUplift)
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
