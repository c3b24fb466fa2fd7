// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package api

// maxBatchDays bounds one daily-rate batch to three years.
const maxBatchDays = 1096

// DailyRatesRequest is the body of POST /api/v1/rates/daily.
type DailyRatesRequest struct {
	RoomType  string `json:"room_type" validate:"required,room_category"`
	RateType  string `json:"rate_type" validate:"required,rate_plan"`
	StartDate string `json:"start_date" validate:"required"`

	// BaseRates may be empty but not absent.
	BaseRates         []float64 `json:"base_rates" validate:"required,max=1096,dive,gt=0"`
	CustomMultipliers []float64 `json:"custom_multipliers,omitempty" validate:"omitempty,max=1096,dive,gte=0.1,lte=10"`

	// UseHistoricalFallback defaults to the configured value when absent.
	UseHistoricalFallback *bool `json:"use_historical_fallback,omitempty"`
}

// QuoteRequest is the body of POST /api/v1/rates/quote.
type QuoteRequest struct {
	RoomType    string `json:"room_type" validate:"required,room_category"`
	RateType    string `json:"rate_type" validate:"required,rate_plan"`
	CheckIn     string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut    string `json:"check_out" validate:"required,datetime=2006-01-02"`
	NumRooms    int    `json:"num_rooms,omitempty" validate:"omitempty,gte=1,lte=100"`
	BookingDate string `json:"booking_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// OccupancyRequest is the body of POST /api/v1/occupancy. Either
// occupancy_percentage or total_rooms must be present.
type OccupancyRequest struct {
	Date                string   `json:"date" validate:"required,datetime=2006-01-02"`
	OccupancyPercentage *float64 `json:"occupancy_percentage,omitempty" validate:"omitempty,gte=0,lte=100"`
	TotalRooms          int      `json:"total_rooms,omitempty" validate:"gte=0"`
	OccupiedRooms       int      `json:"occupied_rooms,omitempty" validate:"gte=0"`
}

// MultiplierRequest is the body of POST /api/v1/multipliers.
type MultiplierRequest struct {
	Date       string   `json:"date" validate:"required,datetime=2006-01-02"`
	RoomType   string   `json:"room_type" validate:"required,room_category"`
	RateType   string   `json:"rate_type" validate:"required,rate_plan"`
	Multiplier float64  `json:"multiplier" validate:"required,gte=0.1,lte=10"`
	BaseRate   *float64 `json:"base_rate,omitempty" validate:"omitempty,gt=0"`
}

// MultiplierQuery is the query of GET /api/v1/multipliers.
type MultiplierQuery struct {
	RoomType  string `json:"room_type" validate:"omitempty,room_category"`
	RateType  string `json:"rate_type" validate:"omitempty,rate_plan"`
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Limit     int    `json:"limit" validate:"gte=1,lte=1000"`
}

// DateRangeQuery is the query of GET /api/v1/analytics/revenue.
type DateRangeQuery struct {
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}
