// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

// Package metrics registers the Prometheus collectors exported at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratewise_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ratewise_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ratewise_api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratewise_api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Pricing Metrics
	RatesResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratewise_rates_resolved_total",
			Help: "Total number of daily rates resolved, by source tier",
		},
		[]string{"source"}, // custom, historical, ml_prediction, factor_calculation, *_fallback
	)

	RatesDegraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratewise_rates_degraded_total",
			Help: "Total number of daily rates that fell back after an error",
		},
		[]string{"source"},
	)

	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ratewise_batch_duration_seconds",
			Help:    "Duration of a daily-rate batch resolution",
			Buckets: prometheus.DefBuckets,
		},
	)

	BatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ratewise_batch_days",
			Help:    "Number of days in resolved batches",
			Buckets: []float64{1, 7, 14, 30, 90, 180, 365, 1096},
		},
	)

	// Model Metrics
	ModelPredictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratewise_model_predictions_total",
			Help: "Total number of model predictions",
		},
		[]string{"result"}, // success, error, unavailable
	)

	ModelPredictionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ratewise_model_prediction_duration_seconds",
			Help:    "Duration of a single model prediction",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		},
	)

	ModelTrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratewise_model_training_runs_total",
			Help: "Total number of model training runs",
		},
		[]string{"result"},
	)

	ModelTrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ratewise_model_training_duration_seconds",
			Help:    "Duration of model training",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	ModelMAE = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ratewise_model_mae",
			Help: "Mean absolute error of the active model on its holdout set",
		},
	)

	ModelRMSE = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ratewise_model_rmse",
			Help: "Root mean squared error of the active model on its holdout set",
		},
	)

	ModelVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ratewise_model_version",
			Help: "Version number of the active model",
		},
	)

	// History Store Metrics
	HistoryOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ratewise_history_operation_duration_seconds",
			Help:    "Duration of history store operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	HistoryOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratewise_history_operation_errors_total",
			Help: "Total number of failed history store operations",
		},
		[]string{"backend", "operation"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ratewise_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratewise_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratewise_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratewise_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratewise_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	// Event Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratewise_events_published_total",
			Help: "Total number of history change events published",
		},
		[]string{"kind", "result"},
	)

	EventsConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ratewise_events_consumed_total",
			Help: "Total number of history change events consumed",
		},
	)
)

// RecordEventPublished counts a published history change event
func RecordEventPublished(kind string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	EventsPublished.WithLabelValues(kind, result).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRate counts one resolved day. degraded marks fallback results.
func RecordRate(source string, degraded bool) {
	RatesResolved.WithLabelValues(source).Inc()
	if degraded {
		RatesDegraded.WithLabelValues(source).Inc()
	}
}

// RecordBatch records a batch resolution.
func RecordBatch(days int, duration time.Duration) {
	BatchSize.Observe(float64(days))
	BatchDuration.Observe(duration.Seconds())
}

// RecordPrediction records a model prediction outcome.
func RecordPrediction(result string, duration time.Duration) {
	ModelPredictions.WithLabelValues(result).Inc()
	if result == "success" {
		ModelPredictionDuration.Observe(duration.Seconds())
	}
}

// RecordTraining records a training run. Error metrics are only set on success.
func RecordTraining(duration time.Duration, version int, mae, rmse float64, err error) {
	ModelTrainingDuration.Observe(duration.Seconds())
	if err != nil {
		ModelTrainingRuns.WithLabelValues("failure").Inc()
		return
	}
	ModelTrainingRuns.WithLabelValues("success").Inc()
	ModelVersion.Set(float64(version))
	ModelMAE.Set(mae)
	ModelRMSE.Set(rmse)
}

// RecordHistoryOperation records a history store call.
func RecordHistoryOperation(backend, operation string, duration time.Duration, err error) {
	HistoryOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
	if err != nil {
		HistoryOperationErrors.WithLabelValues(backend, operation).Inc()
	}
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(cacheType string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cacheType).Inc()
	} else {
		CacheMisses.WithLabelValues(cacheType).Inc()
	}
}

// RecordBreakerTransition updates the state gauge and counts the transition.
func RecordBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(BreakerStateValue(to))
}

// BreakerStateValue maps a breaker state name to its gauge value.
func BreakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}
