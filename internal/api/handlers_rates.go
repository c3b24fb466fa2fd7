// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tomtom215/ratewise/internal/calendar"
	"github.com/tomtom215/ratewise/internal/catalog"
	"github.com/tomtom215/ratewise/internal/logging"
	"github.com/tomtom215/ratewise/internal/pricing"
)

// DailyRates resolves a batch of consecutive days.
//
// POST /api/v1/rates/daily
func (h *Handler) DailyRates(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req DailyRatesRequest
	if !decodeJSON(rw, r, &req) {
		return
	}
	if len(req.BaseRates) > h.opts.MaxDays {
		fieldError(rw, "base_rates", fmt.Sprintf("base_rates must contain at most %d entries", h.opts.MaxDays))
		return
	}
	if _, err := calendar.ParseDate(req.StartDate); err != nil {
		fieldError(rw, "start_date", "start_date must be a date in YYYY-MM-DD format")
		return
	}

	// Validation has already accepted both values.
	room, _ := catalog.ParseRoomCategory(req.RoomType)
	plan, _ := catalog.ParseRatePlan(req.RateType)

	useHistory := h.opts.UseHistory
	if req.UseHistoricalFallback != nil {
		useHistory = *req.UseHistoricalFallback
	}

	result := h.deps.Resolver.Resolve(r.Context(), &pricing.Request{
		Room:              room,
		Plan:              plan,
		StartDate:         req.StartDate,
		BaseRates:         req.BaseRates,
		CustomMultipliers: req.CustomMultipliers,
		UseHistory:        useHistory,
	})

	if result.Summary.DegradedDays > 0 {
		logging.Ctx(r.Context()).Warn().
			Str("room_type", string(room)).
			Str("start_date", sanitizeLogValue(req.StartDate)).
			Int("degraded_days", result.Summary.DegradedDays).
			Msg("rate batch resolved with degraded days")
	}
	rw.Success(result)
}

// Quote prices a stay.
//
// POST /api/v1/rates/quote
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req QuoteRequest
	if !decodeJSON(rw, r, &req) {
		return
	}

	room, _ := catalog.ParseRoomCategory(req.RoomType)
	plan, _ := catalog.ParseRatePlan(req.RateType)
	checkIn, _ := calendar.ParseDate(req.CheckIn)
	checkOut, _ := calendar.ParseDate(req.CheckOut)
	booking, _ := parseOptionalDate(req.BookingDate)

	quote, err := h.deps.Quoter.Quote(&pricing.QuoteRequest{
		Room:        room,
		Plan:        plan,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Rooms:       req.NumRooms,
		BookingDate: booking,
	})
	if err != nil {
		if errors.Is(err, pricing.ErrInvalidStay) {
			fieldError(rw, "check_out", fmt.Sprintf("check_out must be 1 to %d nights after check_in", pricing.MaxStayNights))
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("quote failed")
		rw.InternalError("Failed to price stay")
		return
	}
	rw.Success(quote)
}
