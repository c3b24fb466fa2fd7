// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/v1/rates/daily", "200"))
	RecordAPIRequest("POST", "/api/v1/rates/daily", "200", 15*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/v1/rates/daily", "200"))

	if after-before != 1 {
		t.Errorf("APIRequestsTotal delta = %v, want 1", after-before)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("after inc = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("after dec = %v, want %v", got, before)
	}
}

func TestRecordRate(t *testing.T) {
	tests := []struct {
		name         string
		source       string
		degraded     bool
		wantDegraded float64
	}{
		{"ok tier", "test_ok_tier", false, 0},
		{"degraded tier", "test_degraded_tier", true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordRate(tt.source, tt.degraded)
			if got := testutil.ToFloat64(RatesResolved.WithLabelValues(tt.source)); got != 1 {
				t.Errorf("RatesResolved = %v, want 1", got)
			}
			if got := testutil.ToFloat64(RatesDegraded.WithLabelValues(tt.source)); got != tt.wantDegraded {
				t.Errorf("RatesDegraded = %v, want %v", got, tt.wantDegraded)
			}
		})
	}
}

func TestRecordTraining(t *testing.T) {
	failBefore := testutil.ToFloat64(ModelTrainingRuns.WithLabelValues("failure"))
	RecordTraining(time.Second, 9, 1, 2, errors.New("boom"))
	if got := testutil.ToFloat64(ModelTrainingRuns.WithLabelValues("failure")); got != failBefore+1 {
		t.Errorf("failure runs = %v, want %v", got, failBefore+1)
	}

	RecordTraining(2*time.Second, 3, 12.5, 17.25, nil)
	if got := testutil.ToFloat64(ModelVersion); got != 3 {
		t.Errorf("ModelVersion = %v, want 3", got)
	}
	if got := testutil.ToFloat64(ModelMAE); got != 12.5 {
		t.Errorf("ModelMAE = %v, want 12.5", got)
	}
	if got := testutil.ToFloat64(ModelRMSE); got != 17.25 {
		t.Errorf("ModelRMSE = %v, want 17.25", got)
	}
}

func TestRecordHistoryOperation(t *testing.T) {
	RecordHistoryOperation("test_backend", "get", time.Millisecond, nil)
	RecordHistoryOperation("test_backend", "get", time.Millisecond, errors.New("io"))

	if got := testutil.ToFloat64(HistoryOperationErrors.WithLabelValues("test_backend", "get")); got != 1 {
		t.Errorf("errors = %v, want 1", got)
	}

	m := &dto.Metric{}
	observer := HistoryOperationDuration.WithLabelValues("test_backend", "get")
	if err := observer.(interface{ Write(*dto.Metric) error }).Write(m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := m.GetHistogram().GetSampleCount(); got != 2 {
		t.Errorf("sample count = %d, want 2", got)
	}
}

func TestRecordCacheLookup(t *testing.T) {
	RecordCacheLookup("test_cache", true)
	RecordCacheLookup("test_cache", false)
	RecordCacheLookup("test_cache", false)

	if got := testutil.ToFloat64(CacheHits.WithLabelValues("test_cache")); got != 1 {
		t.Errorf("hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(CacheMisses.WithLabelValues("test_cache")); got != 2 {
		t.Errorf("misses = %v, want 2", got)
	}
}

func TestRecordBreakerTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     float64
	}{
		{"closed", "open", 2},
		{"open", "half-open", 1},
		{"half-open", "closed", 0},
	}

	for _, tt := range tests {
		RecordBreakerTransition("test_breaker", tt.from, tt.to)
		if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("test_breaker")); got != tt.want {
			t.Errorf("%s->%s state = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
