// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/ratewise/internal/analytics"
)

// Revenue returns the revenue report, by default over the trailing window.
//
// GET /api/v1/analytics/revenue
func (h *Handler) Revenue(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	q := r.URL.Query()
	query := DateRangeQuery{StartDate: q.Get("start_date"), EndDate: q.Get("end_date")}
	if !validateRequest(rw, &query) {
		return
	}
	start, _ := parseOptionalDate(query.StartDate)
	end, _ := parseOptionalDate(query.EndDate)

	report, err := h.deps.Analytics.Revenue(r.Context(), start, end)
	if err != nil {
		if errors.Is(err, analytics.ErrInvalidRange) {
			fieldError(rw, "start_date", "start_date must not be after end_date")
			return
		}
		rw.DatabaseError(err)
		return
	}
	rw.Success(report)
}
