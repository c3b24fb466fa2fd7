// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/ratewise/internal/calendar"
)

// MemoryStore keeps history in process memory.
type MemoryStore struct {
	mu           sync.RWMutex
	multipliers  map[string]MultiplierRecord
	observations map[string]OccupancyObservation
	closed       bool
	now          func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		multipliers:  make(map[string]MultiplierRecord),
		observations: make(map[string]OccupancyObservation),
		now:          time.Now,
	}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, key Key) (Lookup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Miss(), ErrClosed
	}
	rec, ok := m.multipliers[key.String()]
	if !ok {
		return Miss(), nil
	}
	return Lookup{Multiplier: rec.Multiplier, Found: true, Date: rec.Date}, nil
}

// Upsert implements Store.
func (m *MemoryStore) Upsert(_ context.Context, rec MultiplierRecord) error {
	if err := rec.validate(); err != nil {
		return err
	}
	rec.Date = calendar.Day(rec.Date)
	rec.UpdatedAt = m.now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.multipliers[rec.Key().String()] = rec
	return nil
}

// ListMultipliers implements Store.
func (m *MemoryStore) ListMultipliers(_ context.Context, f Filter) ([]MultiplierRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	out := make([]MultiplierRecord, 0)
	for _, rec := range m.multipliers {
		if f.matches(&rec) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return lessDesc(&out[i], &out[j]) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// GetObservation implements Store.
func (m *MemoryStore) GetObservation(_ context.Context, date time.Time) (OccupancyObservation, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return OccupancyObservation{}, false, ErrClosed
	}
	obs, ok := m.observations[calendar.FormatDate(date)]
	return obs, ok, nil
}

// UpsertObservation implements Store.
func (m *MemoryStore) UpsertObservation(_ context.Context, obs OccupancyObservation) error {
	if obs.Date.IsZero() {
		return ErrInvalidRecord
	}
	obs.Date = calendar.Day(obs.Date)
	obs.UpdatedAt = m.now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.observations[calendar.FormatDate(obs.Date)] = obs
	return nil
}

// ListObservations implements Store.
func (m *MemoryStore) ListObservations(_ context.Context, start, end time.Time) ([]OccupancyObservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	out := make([]OccupancyObservation, 0)
	for _, obs := range m.observations {
		if !start.IsZero() && obs.Date.Before(calendar.Day(start)) {
			continue
		}
		if !end.IsZero() && obs.Date.After(calendar.Day(end)) {
			continue
		}
		out = append(out, obs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// Ping implements Store.
func (m *MemoryStore) Ping(_ context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
