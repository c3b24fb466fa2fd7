// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package model

import (
	"errors"
	"math"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

type stubPredictor struct {
	value float64
	err   error
	calls int
}

func (s *stubPredictor) Predict(_ []float64) (float64, error) {
	s.calls++
	return s.value, s.err
}

func testBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{Name: name, MaxRequests: 1, Interval: time.Minute, Timeout: time.Hour}
}

func TestBreakerPredictor_PassesThrough(t *testing.T) {
	t.Parallel()
	b := NewBreakerPredictor(&stubPredictor{value: 187.5}, testBreakerConfig("test-pass"))

	got, err := b.Predict(nil)
	if err != nil || got != 187.5 {
		t.Errorf("Predict = %v, %v", got, err)
	}
	if b.State() != "closed" {
		t.Errorf("State = %s", b.State())
	}
}

func TestBreakerPredictor_OpensOnFailures(t *testing.T) {
	t.Parallel()
	stub := &stubPredictor{err: errors.New("model exploded")}
	b := NewBreakerPredictor(stub, testBreakerConfig("test-open"))

	for i := 0; i < 10; i++ {
		if _, err := b.Predict(nil); err == nil {
			t.Fatal("expected failure")
		}
	}
	if b.State() != "open" {
		t.Fatalf("State = %s, want open", b.State())
	}

	_, err := b.Predict(nil)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Predict while open = %v, want ErrOpenState", err)
	}
	if stub.calls != 10 {
		t.Errorf("calls = %d, want 10 (open breaker must not call through)", stub.calls)
	}
}

func TestBreakerPredictor_NotTrainedDoesNotTrip(t *testing.T) {
	t.Parallel()
	b := NewBreakerPredictor(&stubPredictor{err: ErrNotTrained}, testBreakerConfig("test-untrained"))

	for i := 0; i < 20; i++ {
		if _, err := b.Predict(nil); !errors.Is(err, ErrNotTrained) {
			t.Fatalf("Predict = %v, want ErrNotTrained", err)
		}
	}
	if b.State() != "closed" {
		t.Errorf("State = %s, want closed", b.State())
	}
}

func TestBreakerPredictor_NonFinite(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		value float64
	}{
		{"nan", math.NaN()},
		{"inf", math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBreakerPredictor(&stubPredictor{value: tt.value}, testBreakerConfig("test-"+tt.name))
			if _, err := b.Predict(nil); !errors.Is(err, ErrInvalidPrediction) {
				t.Errorf("Predict = %v, want ErrInvalidPrediction", err)
			}
		})
	}
}
