// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package history

import (
	"context"
	"time"

	"github.com/tomtom215/ratewise/internal/metrics"
)

// InstrumentedStore records Prometheus timings and error counts for every
// call to the wrapped store.
type InstrumentedStore struct {
	Store
	backend string
}

// Instrument wraps s, labelling metrics with backend.
func Instrument(s Store, backend Backend) *InstrumentedStore {
	return &InstrumentedStore{Store: s, backend: string(backend)}
}

func (s *InstrumentedStore) observe(op string, start time.Time, err error) {
	metrics.RecordHistoryOperation(s.backend, op, time.Since(start), err)
}

// Get implements Store.
func (s *InstrumentedStore) Get(ctx context.Context, key Key) (Lookup, error) {
	start := time.Now()
	l, err := s.Store.Get(ctx, key)
	s.observe("get", start, err)
	return l, err
}

// Upsert implements Store.
func (s *InstrumentedStore) Upsert(ctx context.Context, rec MultiplierRecord) error {
	start := time.Now()
	err := s.Store.Upsert(ctx, rec)
	s.observe("upsert", start, err)
	return err
}

// ListMultipliers implements Store.
func (s *InstrumentedStore) ListMultipliers(ctx context.Context, f Filter) ([]MultiplierRecord, error) {
	start := time.Now()
	out, err := s.Store.ListMultipliers(ctx, f)
	s.observe("list_multipliers", start, err)
	return out, err
}

// GetObservation implements Store.
func (s *InstrumentedStore) GetObservation(ctx context.Context, date time.Time) (OccupancyObservation, bool, error) {
	start := time.Now()
	obs, ok, err := s.Store.GetObservation(ctx, date)
	s.observe("get_observation", start, err)
	return obs, ok, err
}

// UpsertObservation implements Store.
func (s *InstrumentedStore) UpsertObservation(ctx context.Context, obs OccupancyObservation) error {
	start := time.Now()
	err := s.Store.UpsertObservation(ctx, obs)
	s.observe("upsert_observation", start, err)
	return err
}

// ListObservations implements Store.
func (s *InstrumentedStore) ListObservations(ctx context.Context, start, end time.Time) ([]OccupancyObservation, error) {
	began := time.Now()
	out, err := s.Store.ListObservations(ctx, start, end)
	s.observe("list_observations", began, err)
	return out, err
}
