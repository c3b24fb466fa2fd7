// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package history

import (
	"context"

	"github.com/tomtom215/ratewise/internal/calendar"
	"github.com/tomtom215/ratewise/internal/catalog"
	"github.com/tomtom215/ratewise/internal/logging"
)

// Change kinds.
const (
	ChangeMultiplier  = "multiplier"
	ChangeObservation = "observation"
)

// Change describes a successful history write.
type Change struct {
	Kind string               `json:"kind"`
	Date string               `json:"date"`
	Room catalog.RoomCategory `json:"room_type,omitempty"`
	Plan catalog.RatePlan     `json:"rate_type,omitempty"`
}

// Notifier receives history changes. Implementations must not block for long;
// the write has already committed when Notify is called.
type Notifier interface {
	Notify(ctx context.Context, c Change) error
}

// NotifyingStore publishes a Change after every successful write to the
// wrapped store. Notification failures are logged and never fail the write.
type NotifyingStore struct {
	Store
	notifier Notifier
}

// WithNotifier wraps s so writes are announced to n.
func WithNotifier(s Store, n Notifier) *NotifyingStore {
	return &NotifyingStore{Store: s, notifier: n}
}

// Upsert implements Store.
func (s *NotifyingStore) Upsert(ctx context.Context, rec MultiplierRecord) error {
	if err := s.Store.Upsert(ctx, rec); err != nil {
		return err
	}
	s.notify(ctx, Change{
		Kind: ChangeMultiplier,
		Date: calendar.FormatDate(rec.Date),
		Room: rec.Room,
		Plan: rec.Plan,
	})
	return nil
}

// UpsertObservation implements Store.
func (s *NotifyingStore) UpsertObservation(ctx context.Context, obs OccupancyObservation) error {
	if err := s.Store.UpsertObservation(ctx, obs); err != nil {
		return err
	}
	s.notify(ctx, Change{Kind: ChangeObservation, Date: calendar.FormatDate(obs.Date)})
	return nil
}

func (s *NotifyingStore) notify(ctx context.Context, c Change) {
	if err := s.notifier.Notify(ctx, c); err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("kind", c.Kind).
			Str("date", c.Date).
			Msg("failed to publish history change")
	}
}
