// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package pricing

import (
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/ratewise/internal/calendar"
	"github.com/tomtom215/ratewise/internal/catalog"
	"github.com/tomtom215/ratewise/internal/factors"
)

// MaxStayNights bounds a single quote.
const MaxStayNights = 365

// ErrInvalidStay is returned for an empty, inverted or oversized stay.
var ErrInvalidStay = errors.New("invalid stay")

// QuoteRequest describes a stay to quote.
type QuoteRequest struct {
	Room     catalog.RoomCategory
	Plan     catalog.RatePlan
	CheckIn  time.Time
	CheckOut time.Time
	Rooms    int

	// BookingDate is when the booking is made; zero means today.
	BookingDate time.Time
}

// NightQuote is the rate for one night of a stay.
type NightQuote struct {
	Date            string             `json:"date"`
	Rate            float64            `json:"rate"`
	OccupancyFactor float64            `json:"occupancy_factor"`
	DemandFactor    float64            `json:"demand_factor"`
	Occasions       []catalog.Occasion `json:"occasions"`
}

// Quote is a priced stay.
type Quote struct {
	Room             catalog.RoomCategory `json:"room_type"`
	Plan             catalog.RatePlan     `json:"rate_type"`
	CheckIn          string               `json:"check_in"`
	CheckOut         string               `json:"check_out"`
	Nights           int                  `json:"nights"`
	Rooms            int                  `json:"num_rooms"`
	ListPrice        float64              `json:"list_price"`
	LeadDays         int                  `json:"lead_days"`
	LeadTimeFactor   float64              `json:"lead_time_factor"`
	LengthOfStay     float64              `json:"length_of_stay_factor"`
	RoomDemandFactor float64              `json:"room_demand_factor"`
	NightlyRates     []NightQuote         `json:"nightly_rates"`
	AverageNightly   float64              `json:"average_nightly_rate"`
	TotalPerRoom     float64              `json:"total_per_room"`
	Total            float64              `json:"total"`
}

// Quoter prices whole stays from the list price and stay-level factors.
type Quoter struct {
	calc *factors.Calculator
	now  func() time.Time
}

// NewQuoter creates a Quoter.
func NewQuoter(calc *factors.Calculator) *Quoter {
	return &Quoter{calc: calc, now: time.Now}
}

// Quote prices req. Each night is list price x occupancy x demand x the
// stay-level factors, clamped to [0.4, 4.0] x list price.
func (q *Quoter) Quote(req *QuoteRequest) (*Quote, error) {
	if !req.Room.Valid() {
		return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownRoomCategory, req.Room)
	}
	if !req.Plan.Valid() {
		return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownRatePlan, req.Plan)
	}

	checkIn, checkOut := calendar.Day(req.CheckIn), calendar.Day(req.CheckOut)
	nights := calendar.DaysBetween(checkIn, checkOut)
	if nights < 1 || nights > MaxStayNights {
		return nil, fmt.Errorf("%w: %d nights", ErrInvalidStay, nights)
	}
	rooms := req.Rooms
	if rooms < 1 {
		rooms = 1
	}
	booked := req.BookingDate
	if booked.IsZero() {
		booked = q.now()
	}
	lead := calendar.DaysBetween(calendar.Day(booked), checkIn)

	list := catalog.ListPrice(req.Room, req.Plan)
	leadFactor := factors.LeadTimeFactor(lead)
	losFactor := factors.LengthOfStayFactor(nights)
	roomFactor := factors.RoomDemandFactor(rooms)
	stayFactor := leadFactor * losFactor * roomFactor

	out := &Quote{
		Room:             req.Room,
		Plan:             req.Plan,
		CheckIn:          calendar.FormatDate(checkIn),
		CheckOut:         calendar.FormatDate(checkOut),
		Nights:           nights,
		Rooms:            rooms,
		ListPrice:        list,
		LeadDays:         lead,
		LeadTimeFactor:   leadFactor,
		LengthOfStay:     losFactor,
		RoomDemandFactor: roomFactor,
		NightlyRates:     make([]NightQuote, 0, nights),
	}

	for i := 0; i < nights; i++ {
		date := calendar.AddDays(checkIn, i)
		occ := q.calc.SimulatedOccupancyFactor(date)
		demand := q.calc.DemandFactor(date, 1.0)
		rate := clamp(list*occ*demand*stayFactor, list*MinRateRatio, list*MaxRateRatio)

		occasions := q.calc.Calendar().OccasionsFor(date)
		if occasions == nil {
			occasions = []catalog.Occasion{}
		}
		out.NightlyRates = append(out.NightlyRates, NightQuote{
			Date:            calendar.FormatDate(date),
			Rate:            round2(rate),
			OccupancyFactor: occ,
			DemandFactor:    demand,
			Occasions:       occasions,
		})
		out.TotalPerRoom += rate
	}

	out.AverageNightly = round2(out.TotalPerRoom / float64(nights))
	out.Total = round2(out.TotalPerRoom * float64(rooms))
	out.TotalPerRoom = round2(out.TotalPerRoom)
	return out, nil
}
