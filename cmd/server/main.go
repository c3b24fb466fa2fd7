// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

// Package main is the entry point for the Ratewise server.
//
// Ratewise prices hotel rooms night by night. Each night's multiplier comes
// from a custom override, the stored history, the trained rate model or the
// occupancy and demand factors, in that order.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: defaults, config.yaml, .env and the environment (Koanf v2)
//  2. History store: memory, DuckDB, BadgerDB, SQLite or PostgreSQL
//  3. Events: in-process watermill bus publishing history changes
//  4. Pricing: calendar, factor calculator, rate model, resolver and quoter
//  5. HTTP Server: REST API under /api/v1 and Prometheus metrics at /metrics
//
// Long-running parts run under a suture supervisor tree and are restarted on
// failure.
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the root context. The HTTP server drains for
// HTTP_SHUTDOWN_TIMEOUT, background training finishes and the history
// store is closed.
//
// # Example Usage
//
//	export HISTORY_BACKEND=sqlite
//	export HISTORY_PATH=/data/ratewise.db
//	export MODEL_DIR=/data/models
//	./ratewise
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/ratewise/internal/api"
	"github.com/tomtom215/ratewise/internal/app"
	"github.com/tomtom215/ratewise/internal/config"
	"github.com/tomtom215/ratewise/internal/logging"
	"github.com/tomtom215/ratewise/internal/model"
	"github.com/tomtom215/ratewise/internal/supervisor"
	"github.com/tomtom215/ratewise/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(app.LoggingConfig(cfg))

	logging.Info().
		Str("version", version).
		Str("history_backend", cfg.History.Backend).
		Bool("model_enabled", cfg.Model.Enabled).
		Bool("events_enabled", cfg.Events.Enabled).
		Msg("Starting Ratewise with supervisor tree")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := app.Build(ctx, cfg, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize components")
	}
	defer func() {
		if err := components.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing components")
		}
	}()
	logging.Info().Str("backend", components.Backend()).Msg("History store initialized")

	if cfg.Server.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	if cfg.IsProduction() && len(cfg.Server.CORSOrigins) == 1 && cfg.Server.CORSOrigins[0] == "*" {
		logging.Warn().Msg("CORS allows any origin in production; set CORS_ORIGINS")
	}

	deps := api.Deps{
		Resolver:   components.Resolver,
		Quoter:     components.Quoter,
		Calculator: components.Calculator,
		Store:      components.Store,
		Analytics:  components.Analytics,
		Model:      components.Engine,
	}
	if components.Breaker != nil {
		deps.Breaker = components.Breaker
	}
	handler := api.NewHandler(ctx, deps, api.Options{
		Backend:            components.Backend(),
		Version:            version,
		UseHistory:         cfg.Pricing.UseHistoricalFallback,
		MaxDays:            cfg.Pricing.MaxDays,
		RetrainMinInterval: cfg.Server.RetrainMinInterval,
	}, logging.WithComponent("api"))

	chiMiddleware := api.NewChiMiddleware(&api.ChiMiddlewareConfig{
		CORSAllowedOrigins:     cfg.Server.CORSOrigins,
		CORSMaxAge:             86400,
		RateLimitRequests:      cfg.Server.RateLimitReqs,
		WriteRateLimitRequests: cfg.Server.WriteRateLimitReqs,
		RateLimitWindow:        cfg.Server.RateLimitWindow,
		RateLimitDisabled:      cfg.Server.RateLimitDisabled,
	})
	router := api.NewRouter(handler, chiMiddleware)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	tree := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})

	if cfg.Model.Enabled {
		if !cfg.Model.TrainOnStartup {
			if err := components.Engine.Load(); err != nil && !errors.Is(err, model.ErrNoArtifact) {
				logging.Warn().Err(err).Msg("Stored model unusable, predictions fall through to factors")
			}
		}
		tree.AddModelService(services.NewRetrainService(components.Engine, services.RetrainServiceConfig{
			EnsureOnStartup: cfg.Model.TrainOnStartup,
			Interval:        cfg.Model.RetrainInterval,
		}, logging.WithComponent("retrain")))
		logging.Info().
			Bool("train_on_startup", cfg.Model.TrainOnStartup).
			Dur("retrain_interval", cfg.Model.RetrainInterval).
			Msg("Retrain service added to supervisor tree")
	} else {
		logging.Info().Msg("Rate model disabled (MODEL_ENABLED=false), using factor pricing")
	}

	if components.Consumer != nil {
		tree.AddEventService(components.Consumer)
		logging.Info().Msg("History change consumer added to supervisor tree")
	}

	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout, logging.WithComponent("http")))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
		serveErr = <-errCh
	case serveErr = <-errCh:
		cancel()
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logging.Error().Err(serveErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	handler.Wait()
	logging.Info().Msg("Ratewise stopped gracefully")
}
