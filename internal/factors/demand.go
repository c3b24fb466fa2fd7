// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package factors

import (
	"math"
	"time"

	"github.com/tomtom215/ratewise/internal/calendar"
	"github.com/tomtom215/ratewise/internal/catalog"
)

const (
	weekendDemandPremium = 1.2
	minDemand            = 0.5
	maxDemand            = 3.0
)

// DemandFactor scales historicalDemand by the strongest active occasion
// weight, applies the weekend premium and clamps to [0.5, 3.0].
func (c *Calculator) DemandFactor(date time.Time, historicalDemand float64) float64 {
	return DemandFor(c.calendar.OccasionsFor(date), calendar.IsWeekend(date), historicalDemand)
}

// DemandFor is DemandFactor on pre-computed occasions.
func DemandFor(occasions []catalog.Occasion, weekend bool, historicalDemand float64) float64 {
	if math.IsNaN(historicalDemand) {
		historicalDemand = 1.0
	}
	demand := historicalDemand
	if len(occasions) > 0 {
		demand *= catalog.MaxWeight(occasions)
	}
	if weekend {
		demand *= weekendDemandPremium
	}
	return clamp(demand, minDemand, maxDemand)
}
