// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tomtom215/ratewise/internal/calendar"
	"github.com/tomtom215/ratewise/internal/catalog"
)

// multiplierRow is the relational layout of a MultiplierRecord. Dates are
// stored as YYYY-MM-DD text so ordering and equality behave the same on
// every dialect.
type multiplierRow struct {
	Date            string  `gorm:"primaryKey;size:10"`
	RoomType        string  `gorm:"primaryKey;size:32"`
	RateType        string  `gorm:"primaryKey;size:8"`
	Multiplier      float64 `gorm:"not null"`
	BaseRate        float64
	DynamicRate     float64
	OccupancyFactor float64
	DemandFactor    float64
	UpdatedAt       time.Time
}

func (multiplierRow) TableName() string { return "multiplier_history" }

type occupancyRow struct {
	Date            string  `gorm:"primaryKey;size:10"`
	ActualOccupancy float64 `gorm:"not null"`
	OccupiedRooms   int
	TotalRooms      int
	UpdatedAt       time.Time
}

func (occupancyRow) TableName() string { return "occupancy_data" }

// GormStore implements Store on a relational database through GORM.
type GormStore struct {
	db *gorm.DB
}

// OpenSQLite opens (creating if needed) a SQLite history database.
func OpenSQLite(ctx context.Context, path string) (*GormStore, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}
	return openGorm(ctx, sqlite.Open(path))
}

// OpenPostgres opens a PostgreSQL history database.
func OpenPostgres(ctx context.Context, dsn string) (*GormStore, error) {
	return openGorm(ctx, postgres.Open(dsn))
}

func openGorm(ctx context.Context, dialector gorm.Dialector) (*GormStore, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := NewGormStore(db)
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// NewGormStore wraps an open GORM handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the history tables.
func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&multiplierRow{}, &occupancyRow{}); err != nil {
		return fmt.Errorf("failed to migrate history tables: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *GormStore) Get(ctx context.Context, key Key) (Lookup, error) {
	var row multiplierRow
	err := s.db.WithContext(ctx).
		Where("date = ? AND room_type = ? AND rate_type = ?", calendar.FormatDate(key.Date), string(key.Room), string(key.Plan)).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Miss(), nil
	}
	if err != nil {
		return Miss(), fmt.Errorf("failed to query multiplier %s: %w", key, err)
	}
	return Lookup{Multiplier: row.Multiplier, Found: true, Date: calendar.Day(key.Date)}, nil
}

// Upsert implements Store.
func (s *GormStore) Upsert(ctx context.Context, rec MultiplierRecord) error {
	if err := rec.validate(); err != nil {
		return err
	}
	row := multiplierRow{
		Date:            calendar.FormatDate(rec.Date),
		RoomType:        string(rec.Room),
		RateType:        string(rec.Plan),
		Multiplier:      rec.Multiplier,
		BaseRate:        rec.BaseRate,
		DynamicRate:     rec.DynamicRate,
		OccupancyFactor: rec.OccupancyFactor,
		DemandFactor:    rec.DemandFactor,
		UpdatedAt:       time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert multiplier %s: %w", rec.Key(), err)
	}
	return nil
}

// ListMultipliers implements Store.
func (s *GormStore) ListMultipliers(ctx context.Context, f Filter) ([]MultiplierRecord, error) {
	q := s.db.WithContext(ctx).Model(&multiplierRow{})
	if f.Room != "" {
		q = q.Where("room_type = ?", string(f.Room))
	}
	if f.Plan != "" {
		q = q.Where("rate_type = ?", string(f.Plan))
	}
	if !f.Start.IsZero() {
		q = q.Where("date >= ?", calendar.FormatDate(f.Start))
	}
	if !f.End.IsZero() {
		q = q.Where("date <= ?", calendar.FormatDate(f.End))
	}
	q = q.Order("date DESC").Order("room_type").Order("rate_type")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var rows []multiplierRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list multipliers: %w", err)
	}

	out := make([]MultiplierRecord, 0, len(rows))
	for _, row := range rows {
		d, err := calendar.ParseDate(row.Date)
		if err != nil {
			return nil, err
		}
		out = append(out, MultiplierRecord{
			Date:            d,
			Room:            catalog.RoomCategory(row.RoomType),
			Plan:            catalog.RatePlan(row.RateType),
			Multiplier:      row.Multiplier,
			BaseRate:        row.BaseRate,
			DynamicRate:     row.DynamicRate,
			OccupancyFactor: row.OccupancyFactor,
			DemandFactor:    row.DemandFactor,
			UpdatedAt:       row.UpdatedAt,
		})
	}
	return out, nil
}

// GetObservation implements Store.
func (s *GormStore) GetObservation(ctx context.Context, date time.Time) (OccupancyObservation, bool, error) {
	var row occupancyRow
	err := s.db.WithContext(ctx).Where("date = ?", calendar.FormatDate(date)).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return OccupancyObservation{}, false, nil
	}
	if err != nil {
		return OccupancyObservation{}, false, fmt.Errorf("failed to query occupancy: %w", err)
	}
	return OccupancyObservation{
		Date:          calendar.Day(date),
		Percentage:    row.ActualOccupancy,
		OccupiedRooms: row.OccupiedRooms,
		TotalRooms:    row.TotalRooms,
		UpdatedAt:     row.UpdatedAt,
	}, true, nil
}

// UpsertObservation implements Store.
func (s *GormStore) UpsertObservation(ctx context.Context, obs OccupancyObservation) error {
	if obs.Date.IsZero() {
		return ErrInvalidRecord
	}
	row := occupancyRow{
		Date:            calendar.FormatDate(obs.Date),
		ActualOccupancy: obs.Percentage,
		OccupiedRooms:   obs.OccupiedRooms,
		TotalRooms:      obs.TotalRooms,
		UpdatedAt:       time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to upsert occupancy: %w", err)
	}
	return nil
}

// ListObservations implements Store.
func (s *GormStore) ListObservations(ctx context.Context, start, end time.Time) ([]OccupancyObservation, error) {
	q := s.db.WithContext(ctx).Model(&occupancyRow{})
	if !start.IsZero() {
		q = q.Where("date >= ?", calendar.FormatDate(start))
	}
	if !end.IsZero() {
		q = q.Where("date <= ?", calendar.FormatDate(end))
	}

	var rows []occupancyRow
	if err := q.Order("date").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list occupancy: %w", err)
	}

	out := make([]OccupancyObservation, 0, len(rows))
	for _, row := range rows {
		d, err := calendar.ParseDate(row.Date)
		if err != nil {
			return nil, err
		}
		out = append(out, OccupancyObservation{
			Date:          d,
			Percentage:    row.ActualOccupancy,
			OccupiedRooms: row.OccupiedRooms,
			TotalRooms:    row.TotalRooms,
			UpdatedAt:     row.UpdatedAt,
		})
	}
	return out, nil
}

// Ping implements Store.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close implements Store.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
