// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

// Package model trains and serves the daily-rate regressor: a synthetic
// training set derived from the occasion calendar and factor rules, a
// standard scaler, gradient-boosted regression trees, versioned artifact
// persistence and a circuit-breaking predictor.
package model

import (
	"errors"
	"time"

	"github.com/tomtom215/ratewise/internal/calendar"
	"github.com/tomtom215/ratewise/internal/catalog"
)

var (
	// ErrNotTrained is returned when no model has been trained or loaded.
	ErrNotTrained = errors.New("model not trained")

	// ErrInvalidFeatures is returned for a feature vector of the wrong length.
	ErrInvalidFeatures = errors.New("invalid feature vector")

	// ErrTrainingInProgress is returned when a training run is already active.
	ErrTrainingInProgress = errors.New("training already in progress")
)

// Feature vector positions.
const (
	FeatureWeekday = iota
	FeatureMonth
	FeatureDayOfMonth
	FeatureIsWeekend
	FeatureIsHoliday
	FeatureNumOccasions
	FeatureBasePrice
	FeatureRoomCode
	FeaturePlanCode

	FeatureCount
)

// FeatureNames labels each vector position.
var FeatureNames = [FeatureCount]string{
	"day_of_week",
	"month",
	"day_of_month",
	"is_weekend",
	"is_holiday",
	"num_occasions",
	"base_price",
	"room_type_encoded",
	"rate_type_encoded",
}

// Features builds the model input for one day. "Holiday" means any occasion
// is active, weekends included.
func Features(cal *calendar.Calendar, date time.Time, room catalog.RoomCategory, plan catalog.RatePlan, basePrice float64) []float64 {
	occasions := cal.OccasionsFor(date)

	v := make([]float64, FeatureCount)
	v[FeatureWeekday] = float64(calendar.WeekdayIndex(date))
	v[FeatureMonth] = float64(date.Month())
	v[FeatureDayOfMonth] = float64(date.Day())
	v[FeatureIsWeekend] = boolFloat(calendar.IsWeekend(date))
	v[FeatureIsHoliday] = boolFloat(len(occasions) > 0)
	v[FeatureNumOccasions] = float64(len(occasions))
	v[FeatureBasePrice] = basePrice
	v[FeatureRoomCode] = float64(room.Code())
	v[FeaturePlanCode] = float64(plan.Code())
	return v
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
