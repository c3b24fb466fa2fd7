// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // DuckDB driver registration

	"github.com/tomtom215/ratewise/internal/calendar"
	"github.com/tomtom215/ratewise/internal/catalog"
	"github.com/tomtom215/ratewise/internal/logging"
)

// DuckDBStore implements Store on DuckDB.
type DuckDBStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// DuckDBOptions tunes the DuckDB connection.
type DuckDBOptions struct {
	// Path of the database file; ":memory:" or "" for an in-memory database.
	Path      string
	Threads   int
	MaxMemory string
}

// OpenDuckDB opens (creating if needed) a DuckDB history database.
func OpenDuckDB(ctx context.Context, opts DuckDBOptions) (*DuckDBStore, error) {
	threads := opts.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	maxMemory := opts.MaxMemory
	if maxMemory == "" {
		maxMemory = "512MB"
	}

	path := opts.Path
	if path == "" {
		path = ":memory:"
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	connStr := fmt.Sprintf("%s?threads=%d&max_memory=%s", path, threads, maxMemory)
	if path == ":memory:" {
		connStr = ""
	}

	db, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}

	s := NewDuckDBStore(db)
	if err := s.CreateTables(ctx); err != nil {
		closeQuietly(db)
		return nil, err
	}
	return s, nil
}

// NewDuckDBStore wraps an open DuckDB handle. Call CreateTables before use
// when the schema may not exist.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

const duckDBSchema = `
	CREATE TABLE IF NOT EXISTS multiplier_history (
		date DATE NOT NULL,
		room_type TEXT NOT NULL,
		rate_type TEXT NOT NULL,
		multiplier DOUBLE NOT NULL,
		base_rate DOUBLE,
		dynamic_rate DOUBLE,
		occupancy_factor DOUBLE,
		demand_factor DOUBLE,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (date, room_type, rate_type)
	);

	CREATE TABLE IF NOT EXISTS occupancy_data (
		date DATE PRIMARY KEY,
		actual_occupancy DOUBLE NOT NULL,
		occupied_rooms INTEGER,
		total_rooms INTEGER,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_multiplier_room_plan ON multiplier_history(room_type, rate_type)
`

// CreateTables creates the history tables if they do not exist.
func (s *DuckDBStore) CreateTables(ctx context.Context) error {
	for _, stmt := range strings.Split(duckDBSchema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

// Get implements Store.
func (s *DuckDBStore) Get(ctx context.Context, key Key) (Lookup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var multiplier float64
	err := s.db.QueryRowContext(ctx, `
		SELECT multiplier FROM multiplier_history
		WHERE date = CAST(? AS DATE) AND room_type = ? AND rate_type = ?`,
		calendar.FormatDate(key.Date), string(key.Room), string(key.Plan),
	).Scan(&multiplier)
	if errors.Is(err, sql.ErrNoRows) {
		return Miss(), nil
	}
	if err != nil {
		return Miss(), fmt.Errorf("failed to query multiplier %s: %w", key, err)
	}
	return Lookup{Multiplier: multiplier, Found: true, Date: calendar.Day(key.Date)}, nil
}

// Upsert implements Store.
func (s *DuckDBStore) Upsert(ctx context.Context, rec MultiplierRecord) error {
	if err := rec.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO multiplier_history
			(date, room_type, rate_type, multiplier, base_rate, dynamic_rate,
			 occupancy_factor, demand_factor, updated_at)
		VALUES (CAST(? AS DATE), ?, ?, ?, ?, ?, ?, ?, ?)`,
		calendar.FormatDate(rec.Date), string(rec.Room), string(rec.Plan),
		rec.Multiplier, rec.BaseRate, rec.DynamicRate,
		rec.OccupancyFactor, rec.DemandFactor, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert multiplier %s: %w", rec.Key(), err)
	}
	return nil
}

// ListMultipliers implements Store.
func (s *DuckDBStore) ListMultipliers(ctx context.Context, f Filter) ([]MultiplierRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT strftime(date, '%Y-%m-%d'), room_type, rate_type, multiplier,
		       COALESCE(base_rate, 0), COALESCE(dynamic_rate, 0),
		       COALESCE(occupancy_factor, 1), COALESCE(demand_factor, 1), updated_at
		FROM multiplier_history`

	conditions, args := filterConditions(&f, "CAST(? AS DATE)")
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date DESC, room_type, rate_type"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list multipliers: %w", err)
	}
	defer rows.Close()

	out := make([]MultiplierRecord, 0)
	for rows.Next() {
		var (
			rec        MultiplierRecord
			date       string
			room, plan string
		)
		if err := rows.Scan(&date, &room, &plan, &rec.Multiplier, &rec.BaseRate, &rec.DynamicRate,
			&rec.OccupancyFactor, &rec.DemandFactor, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan multiplier: %w", err)
		}
		if rec.Date, err = calendar.ParseDate(date); err != nil {
			return nil, err
		}
		rec.Room = catalog.RoomCategory(room)
		rec.Plan = catalog.RatePlan(plan)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating multipliers: %w", err)
	}
	return out, nil
}

// GetObservation implements Store.
func (s *DuckDBStore) GetObservation(ctx context.Context, date time.Time) (OccupancyObservation, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obs := OccupancyObservation{Date: calendar.Day(date)}
	err := s.db.QueryRowContext(ctx, `
		SELECT actual_occupancy, COALESCE(occupied_rooms, 0), COALESCE(total_rooms, 0), updated_at
		FROM occupancy_data WHERE date = CAST(? AS DATE)`,
		calendar.FormatDate(date),
	).Scan(&obs.Percentage, &obs.OccupiedRooms, &obs.TotalRooms, &obs.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return OccupancyObservation{}, false, nil
	}
	if err != nil {
		return OccupancyObservation{}, false, fmt.Errorf("failed to query occupancy: %w", err)
	}
	return obs, true, nil
}

// UpsertObservation implements Store.
func (s *DuckDBStore) UpsertObservation(ctx context.Context, obs OccupancyObservation) error {
	if obs.Date.IsZero() {
		return ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO occupancy_data
			(date, actual_occupancy, occupied_rooms, total_rooms, updated_at)
		VALUES (CAST(? AS DATE), ?, ?, ?, ?)`,
		calendar.FormatDate(obs.Date), obs.Percentage, obs.OccupiedRooms, obs.TotalRooms, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert occupancy: %w", err)
	}
	return nil
}

// ListObservations implements Store.
func (s *DuckDBStore) ListObservations(ctx context.Context, start, end time.Time) ([]OccupancyObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT strftime(date, '%Y-%m-%d'), actual_occupancy,
		       COALESCE(occupied_rooms, 0), COALESCE(total_rooms, 0), updated_at
		FROM occupancy_data`
	var (
		conditions []string
		args       []interface{}
	)
	if !start.IsZero() {
		conditions = append(conditions, "date >= CAST(? AS DATE)")
		args = append(args, calendar.FormatDate(start))
	}
	if !end.IsZero() {
		conditions = append(conditions, "date <= CAST(? AS DATE)")
		args = append(args, calendar.FormatDate(end))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list occupancy: %w", err)
	}
	defer rows.Close()

	out := make([]OccupancyObservation, 0)
	for rows.Next() {
		var (
			obs  OccupancyObservation
			date string
		)
		if err := rows.Scan(&date, &obs.Percentage, &obs.OccupiedRooms, &obs.TotalRooms, &obs.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan occupancy: %w", err)
		}
		if obs.Date, err = calendar.ParseDate(date); err != nil {
			return nil, err
		}
		out = append(out, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating occupancy: %w", err)
	}
	return out, nil
}

// Ping implements Store.
func (s *DuckDBStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close implements Store.
func (s *DuckDBStore) Close() error {
	return s.db.Close()
}

// filterConditions builds SQL predicates for f. dateParam is the
// placeholder expression for date values.
func filterConditions(f *Filter, dateParam string) ([]string, []interface{}) {
	var (
		conditions []string
		args       []interface{}
	)
	if f.Room != "" {
		conditions = append(conditions, "room_type = ?")
		args = append(args, string(f.Room))
	}
	if f.Plan != "" {
		conditions = append(conditions, "rate_type = ?")
		args = append(args, string(f.Plan))
	}
	if !f.Start.IsZero() {
		conditions = append(conditions, "date >= "+dateParam)
		args = append(args, calendar.FormatDate(f.Start))
	}
	if !f.End.IsZero() {
		conditions = append(conditions, "date <= "+dateParam)
		args = append(args, calendar.FormatDate(f.End))
	}
	return conditions, args
}

func closeQuietly(db *sql.DB) {
	if err := db.Close(); err != nil {
		logging.Warn().Err(err).Msg("failed to close database handle")
	}
}
