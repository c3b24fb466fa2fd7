// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

// Package history persists computed and operator-set rate multipliers and
// realized occupancy observations.
//
// Two keyed tables are kept: multiplier history, unique on
// (date, room category, rate plan), and occupancy observations, unique on
// date. Writes are upserts (last write wins); nothing is deleted. Backends:
//
//   - memory: process-local maps, for tests and ephemeral runs
//   - duckdb: embedded analytical database (default)
//   - badger: embedded key-value store
//   - sqlite / postgres: relational tables via GORM
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/ratewise/internal/calendar"
	"github.com/tomtom215/ratewise/internal/catalog"
)

var (
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("history store is closed")

	// ErrInvalidRecord is returned when a record is missing its key fields.
	ErrInvalidRecord = errors.New("invalid history record")
)

// NeutralMultiplier is the multiplier reported when no history exists.
const NeutralMultiplier = 1.0

// FallbackWeeks is how many prior same-weekday dates the week fallback
// probes.
const FallbackWeeks = 4

// DefaultListLimit caps multiplier listings when no limit is given.
const DefaultListLimit = 1000

// Key identifies one multiplier record.
type Key struct {
	Date time.Time
	Room catalog.RoomCategory
	Plan catalog.RatePlan
}

// String renders the key as date/room/plan.
func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", calendar.FormatDate(k.Date), k.Room, k.Plan)
}

// MultiplierRecord is one persisted multiplier and the inputs that produced it.
type MultiplierRecord struct {
	Date            time.Time            `json:"date"`
	Room            catalog.RoomCategory `json:"room_type"`
	Plan            catalog.RatePlan     `json:"rate_type"`
	Multiplier      float64              `json:"multiplier"`
	BaseRate        float64              `json:"base_rate"`
	DynamicRate     float64              `json:"dynamic_rate"`
	OccupancyFactor float64              `json:"occupancy_factor"`
	DemandFactor    float64              `json:"demand_factor"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// Key returns the record's key.
func (r *MultiplierRecord) Key() Key {
	return Key{Date: r.Date, Room: r.Room, Plan: r.Plan}
}

func (r *MultiplierRecord) validate() error {
	if r.Date.IsZero() || r.Room == "" || r.Plan == "" {
		return fmt.Errorf("%w: date, room and plan are required", ErrInvalidRecord)
	}
	return nil
}

// OccupancyObservation is a realized occupancy figure for a date.
type OccupancyObservation struct {
	Date          time.Time `json:"date"`
	Percentage    float64   `json:"occupancy_percentage"`
	OccupiedRooms int       `json:"occupied_rooms"`
	TotalRooms    int       `json:"total_rooms"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Lookup is the result of a multiplier lookup. Found=false means no record
// exists; Multiplier is then NeutralMultiplier.
type Lookup struct {
	Multiplier float64
	Found      bool

	// Date is the date of the record that matched, which differs from the
	// requested date for week-fallback hits.
	Date time.Time

	// WeeksBack is 0 for an exact hit, 1..FallbackWeeks for a fallback hit.
	WeeksBack int
}

// Miss is the not-found lookup result.
func Miss() Lookup {
	return Lookup{Multiplier: NeutralMultiplier}
}

// Filter selects multiplier records. Zero values leave a dimension open.
type Filter struct {
	Room  catalog.RoomCategory
	Plan  catalog.RatePlan
	Start time.Time
	End   time.Time

	// Limit caps the number of records; 0 means unlimited.
	Limit int
}

func (f *Filter) matches(r *MultiplierRecord) bool {
	if f.Room != "" && r.Room != f.Room {
		return false
	}
	if f.Plan != "" && r.Plan != f.Plan {
		return false
	}
	if !f.Start.IsZero() && r.Date.Before(calendar.Day(f.Start)) {
		return false
	}
	if !f.End.IsZero() && r.Date.After(calendar.Day(f.End)) {
		return false
	}
	return true
}

// Store is the multiplier history and occupancy observation store.
// Implementations must be safe for concurrent use and upsert atomically
// per key.
type Store interface {
	// Get returns the multiplier recorded for exactly key.
	Get(ctx context.Context, key Key) (Lookup, error)

	// Upsert writes rec, replacing any record with the same key.
	Upsert(ctx context.Context, rec MultiplierRecord) error

	// ListMultipliers returns matching records, newest date first.
	ListMultipliers(ctx context.Context, f Filter) ([]MultiplierRecord, error)

	// GetObservation returns the observation for date, if any.
	GetObservation(ctx context.Context, date time.Time) (OccupancyObservation, bool, error)

	// UpsertObservation writes obs, replacing any observation for its date.
	UpsertObservation(ctx context.Context, obs OccupancyObservation) error

	// ListObservations returns observations in [start, end], oldest first.
	// Zero bounds are open.
	ListObservations(ctx context.Context, start, end time.Time) ([]OccupancyObservation, error)

	// Ping checks the store is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// LookupWithWeekFallback returns the exact match for key or, failing that,
// the first match on the same weekday 1, 2, 3 and 4 weeks earlier. A read
// error on any probe is returned immediately.
func LookupWithWeekFallback(ctx context.Context, s Store, key Key) (Lookup, error) {
	key.Date = calendar.Day(key.Date)
	for weeks := 0; weeks <= FallbackWeeks; weeks++ {
		probe := key
		probe.Date = key.Date.AddDate(0, 0, -7*weeks)
		l, err := s.Get(ctx, probe)
		if err != nil {
			return Miss(), err
		}
		if l.Found {
			l.WeeksBack = weeks
			l.Date = probe.Date
			return l, nil
		}
	}
	return Miss(), nil
}

// NormalizeObservation derives Percentage from room counts when it is
// unset and fills TotalRooms. It reports false when neither is usable.
func NormalizeObservation(obs *OccupancyObservation, percentageSet bool) bool {
	if !percentageSet {
		if obs.TotalRooms <= 0 {
			return false
		}
		obs.Percentage = float64(obs.OccupiedRooms) / float64(obs.TotalRooms) * 100
	}
	return true
}

// lessDesc orders records newest date first, then by room and plan.
func lessDesc(a, b *MultiplierRecord) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.After(b.Date)
	}
	if a.Room != b.Room {
		return a.Room < b.Room
	}
	return a.Plan < b.Plan
}
