// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/ratewise/internal/calendar"
	"github.com/tomtom215/ratewise/internal/catalog"
	"github.com/tomtom215/ratewise/internal/history"
	"github.com/tomtom215/ratewise/internal/logging"
)

// defaultCustomBaseRate is the base rate stored with a custom multiplier
// when the caller gives none.
const defaultCustomBaseRate = 100.0

// RecordOccupancy stores a realized occupancy observation.
//
// POST /api/v1/occupancy
func (h *Handler) RecordOccupancy(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req OccupancyRequest
	if !decodeJSON(rw, r, &req) {
		return
	}
	if req.TotalRooms > 0 && req.OccupiedRooms > req.TotalRooms {
		fieldError(rw, "occupied_rooms", "occupied_rooms must not exceed total_rooms")
		return
	}

	date, _ := calendar.ParseDate(req.Date)
	obs := history.OccupancyObservation{
		Date:          date,
		OccupiedRooms: req.OccupiedRooms,
		TotalRooms:    req.TotalRooms,
	}
	if req.OccupancyPercentage != nil {
		obs.Percentage = *req.OccupancyPercentage
	}
	if !history.NormalizeObservation(&obs, req.OccupancyPercentage != nil) {
		fieldError(rw, "occupancy_percentage", "occupancy_percentage or total_rooms with occupied_rooms is required")
		return
	}

	if err := h.deps.Store.UpsertObservation(r.Context(), obs); err != nil {
		rw.DatabaseError(err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("date", req.Date).
		Float64("occupancy", obs.Percentage).
		Msg("occupancy recorded")

	rw.Created(map[string]interface{}{
		"date":                 calendar.FormatDate(date),
		"occupancy_percentage": obs.Percentage,
		"occupied_rooms":       obs.OccupiedRooms,
		"total_rooms":          obs.TotalRooms,
	})
}

// Occupancy returns the occupancy used for a day, realized or estimated.
//
// GET /api/v1/occupancy/{date}
func (h *Handler) Occupancy(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	date, err := calendar.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		fieldError(rw, "date", "date must be a date in YYYY-MM-DD format")
		return
	}

	detail := h.deps.Calculator.Occupancy(r.Context(), date)
	rw.Success(map[string]interface{}{
		"date":      calendar.FormatDate(date),
		"occupancy": detail,
	})
}

// Occasions returns the occasions and demand factors for a day.
//
// GET /api/v1/occasions/{date}
func (h *Handler) Occasions(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	date, err := calendar.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		fieldError(rw, "date", "date must be a date in YYYY-MM-DD format")
		return
	}

	calc := h.deps.Calculator
	occasions := calc.Calendar().OccasionsFor(date)
	weights := make(map[catalog.Occasion]float64, len(occasions))
	for _, o := range occasions {
		weights[o] = o.Weight()
	}
	if occasions == nil {
		occasions = []catalog.Occasion{}
	}

	rw.Success(map[string]interface{}{
		"date":                       calendar.FormatDate(date),
		"occasions":                  occasions,
		"weights":                    weights,
		"is_weekend":                 calendar.IsWeekend(date),
		"demand_factor":              calc.DemandFactor(date, 1.0),
		"occupancy_factor":           calc.OccupancyFactor(r.Context(), date),
		"simulated_occupancy_factor": calc.SimulatedOccupancyFactor(date),
	})
}

// Multipliers lists stored multiplier history, newest first.
//
// GET /api/v1/multipliers
func (h *Handler) Multipliers(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	q := r.URL.Query()
	query := MultiplierQuery{
		RoomType:  q.Get("room_type"),
		RateType:  q.Get("rate_type"),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		Limit:     getIntParam(r, "limit", history.DefaultListLimit),
	}
	if !validateRequest(rw, &query) {
		return
	}

	filter := history.Filter{Limit: query.Limit}
	if query.RoomType != "" {
		filter.Room, _ = catalog.ParseRoomCategory(query.RoomType)
	}
	if query.RateType != "" {
		filter.Plan, _ = catalog.ParseRatePlan(query.RateType)
	}
	filter.Start, _ = parseOptionalDate(query.StartDate)
	filter.End, _ = parseOptionalDate(query.EndDate)

	records, err := h.deps.Store.ListMultipliers(r.Context(), filter)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.List(records, len(records))
}

// SetMultiplier stores a custom multiplier for one day, room and plan.
//
// POST /api/v1/multipliers
func (h *Handler) SetMultiplier(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req MultiplierRequest
	if !decodeJSON(rw, r, &req) {
		return
	}

	date, _ := calendar.ParseDate(req.Date)
	room, _ := catalog.ParseRoomCategory(req.RoomType)
	plan, _ := catalog.ParseRatePlan(req.RateType)
	base := defaultCustomBaseRate
	if req.BaseRate != nil {
		base = *req.BaseRate
	}

	rec := history.MultiplierRecord{
		Date:            date,
		Room:            room,
		Plan:            plan,
		Multiplier:      req.Multiplier,
		BaseRate:        base,
		DynamicRate:     base * req.Multiplier,
		OccupancyFactor: 1.0,
		DemandFactor:    1.0,
	}
	if err := h.deps.Store.Upsert(r.Context(), rec); err != nil {
		rw.DatabaseError(err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("key", rec.Key().String()).
		Float64("multiplier", rec.Multiplier).
		Msg("custom multiplier stored")
	rw.Created(rec)
}
