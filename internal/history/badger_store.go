// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package history

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/ratewise/internal/calendar"
)

// Key prefixes. Dates follow the prefix so iteration is chronological.
const (
	multiplierKeyPrefix  = "mh:"
	observationKeyPrefix = "occ:"
)

// BadgerStore implements Store on BadgerDB.
type BadgerStore struct {
	db  *badger.DB
	now func() time.Time
}

// OpenBadger opens a BadgerDB history store in dir.
func OpenBadger(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", dir, err)
	}
	return NewBadgerStore(db), nil
}

// NewBadgerStore wraps an open BadgerDB.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db, now: time.Now}
}

func multiplierKey(k Key) []byte {
	return []byte(multiplierKeyPrefix + calendar.FormatDate(k.Date) + ":" + string(k.Room) + ":" + string(k.Plan))
}

func observationKey(date time.Time) []byte {
	return []byte(observationKeyPrefix + calendar.FormatDate(date))
}

// Get implements Store.
func (s *BadgerStore) Get(_ context.Context, key Key) (Lookup, error) {
	var rec MultiplierRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(multiplierKey(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Miss(), nil
	}
	if err != nil {
		return Miss(), fmt.Errorf("get multiplier %s: %w", key, err)
	}
	return Lookup{Multiplier: rec.Multiplier, Found: true, Date: rec.Date}, nil
}

// Upsert implements Store.
func (s *BadgerStore) Upsert(_ context.Context, rec MultiplierRecord) error {
	if err := rec.validate(); err != nil {
		return err
	}
	rec.Date = calendar.Day(rec.Date)
	rec.UpdatedAt = s.now().UTC()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal multiplier: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(multiplierKey(rec.Key()), data)
	})
}

// ListMultipliers implements Store.
func (s *BadgerStore) ListMultipliers(_ context.Context, f Filter) ([]MultiplierRecord, error) {
	out := make([]MultiplierRecord, 0)
	prefix := []byte(multiplierKeyPrefix)

	seek := prefix
	if !f.Start.IsZero() {
		seek = []byte(multiplierKeyPrefix + calendar.FormatDate(f.Start))
	}

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			var rec MultiplierRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decode multiplier: %w", err)
			}
			if !f.End.IsZero() && rec.Date.After(calendar.Day(f.End)) {
				break
			}
			if f.matches(&rec) {
				out = append(out, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return lessDesc(&out[i], &out[j]) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// GetObservation implements Store.
func (s *BadgerStore) GetObservation(_ context.Context, date time.Time) (OccupancyObservation, bool, error) {
	var obs OccupancyObservation
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(observationKey(date))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &obs)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return OccupancyObservation{}, false, nil
	}
	if err != nil {
		return OccupancyObservation{}, false, fmt.Errorf("get occupancy: %w", err)
	}
	return obs, true, nil
}

// UpsertObservation implements Store.
func (s *BadgerStore) UpsertObservation(_ context.Context, obs OccupancyObservation) error {
	if obs.Date.IsZero() {
		return ErrInvalidRecord
	}
	obs.Date = calendar.Day(obs.Date)
	obs.UpdatedAt = s.now().UTC()

	data, err := json.Marshal(obs)
	if err != nil {
		return fmt.Errorf("marshal occupancy: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(observationKey(obs.Date), data)
	})
}

// ListObservations implements Store.
func (s *BadgerStore) ListObservations(_ context.Context, start, end time.Time) ([]OccupancyObservation, error) {
	out := make([]OccupancyObservation, 0)
	prefix := []byte(observationKeyPrefix)

	seek := prefix
	if !start.IsZero() {
		seek = observationKey(start)
	}

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			var obs OccupancyObservation
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &obs)
			}); err != nil {
				return fmt.Errorf("decode occupancy: %w", err)
			}
			if !end.IsZero() && obs.Date.After(calendar.Day(end)) {
				break
			}
			out = append(out, obs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Ping implements Store.
func (s *BadgerStore) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return ErrClosed
	}
	return nil
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
