// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/ratewise/internal/logging"
	"github.com/tomtom215/ratewise/internal/model"
)

// ModelStatus is the body of GET /api/v1/model.
type ModelStatus struct {
	model.Status
	BreakerState string `json:"breaker_state,omitempty"`
}

// Model reports the active model and training state.
//
// GET /api/v1/model
func (h *Handler) Model(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	status := ModelStatus{Status: h.deps.Model.Status()}
	if h.deps.Breaker != nil {
		status.BreakerState = h.deps.Breaker.State()
	}
	rw.Success(status)
}

// Retrain starts a background training run. It answers 409 while a run is
// in progress and 429 when triggers arrive faster than the configured
// interval.
//
// POST /api/v1/model/retrain
func (h *Handler) Retrain(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.deps.Model.Status().Training {
		rw.Conflict("Model training already in progress")
		return
	}
	if !h.retrainLimiter.Allow() {
		rw.TooManyRequests("Retraining was triggered recently, retry later")
		return
	}

	requestID := logging.RequestIDFromContext(r.Context())
	h.trainingWG.Add(1)
	go func() {
		defer h.trainingWG.Done()

		meta, err := h.deps.Model.Train(h.baseCtx)
		switch {
		case errors.Is(err, model.ErrTrainingInProgress):
			h.logger.Info().Str("request_id", requestID).Msg("retrain skipped, training already running")
		case err != nil:
			h.logger.Error().Err(err).Str("request_id", requestID).Msg("retrain failed")
		default:
			h.logger.Info().
				Str("request_id", requestID).
				Int("version", meta.Version).
				Float64("mae", meta.Metrics.MAE).
				Msg("retrain finished")
		}
	}()

	rw.Accepted(map[string]string{"status": "training_started"})
}
