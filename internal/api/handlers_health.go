// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package api

import (
	"context"
	"net/http"
	"time"
)

// healthPingTimeout bounds the store ping in health checks.
const healthPingTimeout = 2 * time.Second

// HealthStatus is the body of GET /api/v1/health.
type HealthStatus struct {
	Status              string `json:"status"`
	ModelLoaded         bool   `json:"model_loaded"`
	DatabaseInitialized bool   `json:"database_initialized"`
	Backend             string `json:"backend"`
	Version             string `json:"version"`
}

// Health reports service readiness: "healthy" when the history store
// answers, "degraded" otherwise. It always answers 200.
//
// GET /api/v1/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	dbOK := h.deps.Store.Ping(ctx) == nil
	status := "healthy"
	if !dbOK {
		status = "degraded"
	}

	rw.Success(HealthStatus{
		Status:              status,
		ModelLoaded:         h.deps.Model.Ready(),
		DatabaseInitialized: dbOK,
		Backend:             h.opts.Backend,
		Version:             h.opts.Version,
	})
}
