// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package services

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/ratewise/internal/logging"
	"github.com/tomtom215/ratewise/internal/model"
)

var (
	_ suture.Service = (*HTTPServerService)(nil)
	_ suture.Service = (*RetrainService)(nil)
)

// mockHTTPServer blocks in ListenAndServe until Shutdown.
type mockHTTPServer struct {
	listenErr     error
	shutdownErr   error
	shutdownCount atomic.Int32
	started       chan struct{}
	stopCh        chan struct{}
}

func newMockHTTPServer() *mockHTTPServer {
	return &mockHTTPServer{started: make(chan struct{}, 1), stopCh: make(chan struct{})}
}

func (m *mockHTTPServer) ListenAndServe() error {
	m.started <- struct{}{}
	if m.listenErr != nil {
		return m.listenErr
	}
	<-m.stopCh
	return http.ErrServerClosed
}

func (m *mockHTTPServer) Shutdown(_ context.Context) error {
	m.shutdownCount.Add(1)
	close(m.stopCh)
	return m.shutdownErr
}

func TestHTTPServerServiceShutsDownOnCancel(t *testing.T) {
	t.Parallel()
	server := newMockHTTPServer()
	svc := NewHTTPServerService(server, time.Second, logging.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	<-server.started
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
	if server.shutdownCount.Load() != 1 {
		t.Errorf("shutdown calls = %d", server.shutdownCount.Load())
	}
}

func TestHTTPServerServiceListenFailure(t *testing.T) {
	t.Parallel()
	server := newMockHTTPServer()
	server.listenErr = errors.New("address in use")
	svc := NewHTTPServerService(server, 0, logging.Nop())

	if svc.shutdownTimeout != 10*time.Second {
		t.Errorf("default shutdown timeout = %v", svc.shutdownTimeout)
	}
	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, server.listenErr) {
		t.Errorf("Serve() = %v, want wrapped listen error", err)
	}
}

func TestHTTPServerServiceShutdownError(t *testing.T) {
	t.Parallel()
	server := newMockHTTPServer()
	server.shutdownErr = errors.New("connections still open")
	svc := NewHTTPServerService(server, time.Second, logging.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()
	<-server.started
	cancel()

	if err := <-done; !errors.Is(err, server.shutdownErr) {
		t.Errorf("Serve() = %v, want shutdown error", err)
	}
}

// mockTrainer counts lifecycle calls.
type mockTrainer struct {
	ensureCalls atomic.Int32
	trainCalls  atomic.Int32
	ensureErr   error
	trainErr    error
	trained     chan struct{}
}

func newMockTrainer() *mockTrainer {
	return &mockTrainer{trained: make(chan struct{}, 16)}
}

func (m *mockTrainer) EnsureModel(_ context.Context) error {
	m.ensureCalls.Add(1)
	return m.ensureErr
}

func (m *mockTrainer) Train(_ context.Context) (model.Metadata, error) {
	m.trainCalls.Add(1)
	select {
	case m.trained <- struct{}{}:
	default:
	}
	return model.Metadata{Version: int(m.trainCalls.Load())}, m.trainErr
}

func TestRetrainService(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		cfg        RetrainServiceConfig
		ensureErr  error
		trainErr   error
		wantEnsure int32
		wantTrain  bool
	}{
		{"ensure only", RetrainServiceConfig{EnsureOnStartup: true}, nil, nil, 1, false},
		{"ensure failure keeps running", RetrainServiceConfig{EnsureOnStartup: true}, errors.New("no data"), nil, 1, false},
		{"scheduled", RetrainServiceConfig{Interval: 5 * time.Millisecond}, nil, nil, 0, true},
		{"scheduled failure keeps running", RetrainServiceConfig{Interval: 5 * time.Millisecond}, nil, errors.New("diverged"), 0, true},
		{"already training", RetrainServiceConfig{Interval: 5 * time.Millisecond}, nil, model.ErrTrainingInProgress, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			trainer := newMockTrainer()
			trainer.ensureErr = tt.ensureErr
			trainer.trainErr = tt.trainErr
			svc := NewRetrainService(trainer, tt.cfg, logging.Nop())

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- svc.Serve(ctx) }()

			if tt.wantTrain {
				select {
				case <-trainer.trained:
				case <-time.After(2 * time.Second):
					t.Fatal("scheduled retrain did not run")
				}
			} else {
				time.Sleep(20 * time.Millisecond)
			}
			cancel()

			if err := <-done; !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() = %v, want context.Canceled", err)
			}
			if got := trainer.ensureCalls.Load(); got != tt.wantEnsure {
				t.Errorf("ensure calls = %d, want %d", got, tt.wantEnsure)
			}
			if !tt.wantTrain && trainer.trainCalls.Load() != 0 {
				t.Errorf("unexpected train calls: %d", trainer.trainCalls.Load())
			}
		})
	}
}

func TestRetrainServiceDefaults(t *testing.T) {
	t.Parallel()
	svc := NewRetrainService(newMockTrainer(), RetrainServiceConfig{}, logging.Nop())
	if svc.config.TrainTimeout != defaultTrainTimeout {
		t.Errorf("train timeout = %v", svc.config.TrainTimeout)
	}
	if svc.String() != "retrain-service" {
		t.Errorf("String() = %q", svc.String())
	}
}
