// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

// Package analytics aggregates multiplier history and occupancy
// observations into revenue reports. Reports are cached and the cache is
// cleared whenever history changes.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/ratewise/internal/cache"
	"github.com/tomtom215/ratewise/internal/calendar"
	"github.com/tomtom215/ratewise/internal/catalog"
	"github.com/tomtom215/ratewise/internal/history"
)

// DefaultWindowDays is the report window when no range is given.
const DefaultWindowDays = 30

// ErrInvalidRange is returned when start is after end.
var ErrInvalidRange = errors.New("start date must not be after end date")

// DailyTrend averages every record on one date.
type DailyTrend struct {
	Date                   string  `json:"date"`
	AverageMultiplier      float64 `json:"average_multiplier"`
	AverageOccupancyFactor float64 `json:"average_occupancy_factor"`
	AverageDemandFactor    float64 `json:"average_demand_factor"`
	RoomCount              int     `json:"room_count"`
}

// RoomPerformance averages every record for one room and plan.
type RoomPerformance struct {
	Room               catalog.RoomCategory `json:"room_type"`
	Plan               catalog.RatePlan     `json:"rate_type"`
	AverageMultiplier  float64              `json:"average_multiplier"`
	AverageRevenueGain float64              `json:"average_revenue_gain"`
	BookingDays        int                  `json:"booking_days"`
}

// OccupancyTrend is one recorded observation.
type OccupancyTrend struct {
	Date          string  `json:"date"`
	Percentage    float64 `json:"occupancy_percentage"`
	OccupiedRooms int     `json:"occupied_rooms"`
	TotalRooms    int     `json:"total_rooms"`
}

// RevenueSummary condenses a report.
type RevenueSummary struct {
	TotalDays          int              `json:"total_days"`
	AverageMultiplier  float64          `json:"average_multiplier"`
	BestPerformingRoom *RoomPerformance `json:"best_performing_room"`

	// AverageOccupancy is nil when no observations fall in the range.
	AverageOccupancy *float64 `json:"average_occupancy"`
}

// DateRange is an inclusive report window.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Revenue is a revenue report over a date range.
type Revenue struct {
	DailyTrends     []DailyTrend      `json:"daily_trends"`
	RoomPerformance []RoomPerformance `json:"room_performance"`
	OccupancyTrends []OccupancyTrend  `json:"occupancy_trends"`
	Summary         RevenueSummary    `json:"summary"`
	Range           DateRange         `json:"date_range"`
}

// Service builds revenue reports.
type Service struct {
	store      history.Store
	cache      cache.Cacher
	windowDays int
	now        func() time.Time
	logger     zerolog.Logger
}

// NewService creates a Service. c may be nil to disable caching.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewService(store history.Store, c cache.Cacher, windowDays int, logger zerolog.Logger) *Service {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return &Service{
		store:      store,
		cache:      c,
		windowDays: windowDays,
		now:        time.Now,
		logger:     logger.With().Str("component", "analytics").Logger(),
	}
}

// DefaultRange returns the trailing window ending today.
func (s *Service) DefaultRange() (start, end time.Time) {
	end = calendar.Day(s.now())
	return calendar.AddDays(end, -s.windowDays), end
}

// Revenue returns the report for [start, end]. Zero bounds take the
// trailing default window.
func (s *Service) Revenue(ctx context.Context, start, end time.Time) (*Revenue, error) {
	defStart, defEnd := s.DefaultRange()
	if start.IsZero() {
		start = defStart
	}
	if end.IsZero() {
		end = defEnd
	}
	start, end = calendar.Day(start), calendar.Day(end)
	if start.After(end) {
		return nil, ErrInvalidRange
	}

	rng := DateRange{Start: calendar.FormatDate(start), End: calendar.FormatDate(end)}
	key := cache.GenerateKey("revenue", rng)
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			if report, ok := v.(*Revenue); ok {
				return report, nil
			}
		}
	}

	records, err := s.store.ListMultipliers(ctx, history.Filter{Start: start, End: end})
	if err != nil {
		return nil, fmt.Errorf("list multipliers: %w", err)
	}
	observations, err := s.store.ListObservations(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}

	report := buildRevenue(records, observations)
	report.Range = rng

	if s.cache != nil {
		s.cache.Set(key, report)
	}
	return report, nil
}

// Invalidate drops every cached report.
func (s *Service) Invalidate() {
	if s.cache != nil {
		s.cache.Clear()
	}
}

// HandleChange invalidates the cache for a history change. It matches
// events.ChangeHandler.
func (s *Service) HandleChange(_ context.Context, c history.Change) error {
	s.logger.Debug().Str("kind", c.Kind).Str("date", c.Date).Msg("history changed, clearing analytics cache")
	s.Invalidate()
	return nil
}

type accumulator struct {
	multiplier, occupancy, demand, gain float64
	n                                   int
}

func (a *accumulator) mean(v float64) float64 {
	return round2(v / float64(a.n))
}

type roomKey struct {
	room catalog.RoomCategory
	plan catalog.RatePlan
}

func buildRevenue(records []history.MultiplierRecord, observations []history.OccupancyObservation) *Revenue {
	byDate := make(map[string]*accumulator)
	byRoom := make(map[roomKey]*accumulator)

	for i := range records {
		r := &records[i]
		date := calendar.FormatDate(r.Date)
		d := byDate[date]
		if d == nil {
			d = &accumulator{}
			byDate[date] = d
		}
		d.multiplier += r.Multiplier
		d.occupancy += r.OccupancyFactor
		d.demand += r.DemandFactor
		d.n++

		k := roomKey{r.Room, r.Plan}
		rm := byRoom[k]
		if rm == nil {
			rm = &accumulator{}
			byRoom[k] = rm
		}
		rm.multiplier += r.Multiplier
		rm.gain += r.DynamicRate - r.BaseRate
		rm.n++
	}

	report := &Revenue{
		DailyTrends:     make([]DailyTrend, 0, len(byDate)),
		RoomPerformance: make([]RoomPerformance, 0, len(byRoom)),
		OccupancyTrends: make([]OccupancyTrend, 0, len(observations)),
	}

	for date, a := range byDate {
		report.DailyTrends = append(report.DailyTrends, DailyTrend{
			Date:                   date,
			AverageMultiplier:      a.mean(a.multiplier),
			AverageOccupancyFactor: a.mean(a.occupancy),
			AverageDemandFactor:    a.mean(a.demand),
			RoomCount:              a.n,
		})
	}
	sort.Slice(report.DailyTrends, func(i, j int) bool {
		return report.DailyTrends[i].Date < report.DailyTrends[j].Date
	})

	for k, a := range byRoom {
		report.RoomPerformance = append(report.RoomPerformance, RoomPerformance{
			Room:               k.room,
			Plan:               k.plan,
			AverageMultiplier:  a.mean(a.multiplier),
			AverageRevenueGain: a.mean(a.gain),
			BookingDays:        a.n,
		})
	}
	sort.Slice(report.RoomPerformance, func(i, j int) bool {
		a, b := &report.RoomPerformance[i], &report.RoomPerformance[j]
		if a.AverageRevenueGain != b.AverageRevenueGain {
			return a.AverageRevenueGain > b.AverageRevenueGain
		}
		if a.Room != b.Room {
			return a.Room.Code() < b.Room.Code()
		}
		return a.Plan.Code() < b.Plan.Code()
	})

	var occupancySum float64
	for i := range observations {
		o := &observations[i]
		report.OccupancyTrends = append(report.OccupancyTrends, OccupancyTrend{
			Date:          calendar.FormatDate(o.Date),
			Percentage:    o.Percentage,
			OccupiedRooms: o.OccupiedRooms,
			TotalRooms:    o.TotalRooms,
		})
		occupancySum += o.Percentage
	}

	report.Summary = RevenueSummary{
		TotalDays:         len(report.DailyTrends),
		AverageMultiplier: 1.0,
	}
	if len(report.DailyTrends) > 0 {
		var sum float64
		for _, d := range report.DailyTrends {
			sum += d.AverageMultiplier
		}
		report.Summary.AverageMultiplier = round2(sum / float64(len(report.DailyTrends)))
	}
	if len(report.RoomPerformance) > 0 {
		best := report.RoomPerformance[0]
		report.Summary.BestPerformingRoom = &best
	}
	if len(observations) > 0 {
		avg := round2(occupancySum / float64(len(observations)))
		report.Summary.AverageOccupancy = &avg
	}
	return report
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
