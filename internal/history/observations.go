// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package history

import (
	"context"
	"time"

	"github.com/tomtom215/ratewise/internal/factors"
)

// ObservationSource adapts a Store to factors.ObservationSource.
type ObservationSource struct {
	store Store
}

// NewObservationSource wraps s.
func NewObservationSource(s Store) *ObservationSource {
	return &ObservationSource{store: s}
}

// ObservedOccupancy implements factors.ObservationSource.
func (o *ObservationSource) ObservedOccupancy(ctx context.Context, date time.Time) (factors.Observation, bool, error) {
	obs, found, err := o.store.GetObservation(ctx, date)
	if err != nil || !found {
		return factors.Observation{}, false, err
	}
	return factors.Observation{
		Percentage:    obs.Percentage,
		OccupiedRooms: obs.OccupiedRooms,
		TotalRooms:    obs.TotalRooms,
	}, true, nil
}

var _ factors.ObservationSource = (*ObservationSource)(nil)
