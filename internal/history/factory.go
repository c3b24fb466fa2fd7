// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package history

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/tomtom215/ratewise/internal/logging"
)

// Backend names a Store implementation.
type Backend string

// Supported backends.
const (
	BackendMemory   Backend = "memory"
	BackendDuckDB   Backend = "duckdb"
	BackendBadger   Backend = "badger"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// Options selects and configures a backend.
type Options struct {
	Backend   Backend
	Path      string
	DSN       string
	Threads   int
	MaxMemory string

	// OpenTimeout bounds retries while opening; 0 means 30s.
	OpenTimeout time.Duration
}

// Open opens the configured backend, retrying transient failures with
// exponential backoff until OpenTimeout elapses. Unknown backends fail
// immediately.
func Open(ctx context.Context, opts Options) (Store, error) {
	maxElapsed := opts.OpenTimeout
	if maxElapsed <= 0 {
		maxElapsed = 30 * time.Second
	}

	var store Store
	attempt := 0
	operation := func() error {
		attempt++
		s, err := openOnce(ctx, opts)
		if err != nil {
			logging.Warn().Err(err).
				Str("backend", string(opts.Backend)).
				Int("attempt", attempt).
				Msg("history store open failed")
			return err
		}
		store = s
		return nil
	}

	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.MaxElapsedTime = maxElapsed

	if err := backoff.Retry(operation, backoff.WithContext(backoffStrategy, ctx)); err != nil {
		return nil, fmt.Errorf("open %s history store: %w", opts.Backend, err)
	}

	logging.Info().
		Str("backend", string(opts.Backend)).
		Int("attempts", attempt).
		Msg("history store opened")
	return store, nil
}

func openOnce(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendMemory, "":
		return NewMemoryStore(), nil
	case BackendDuckDB:
		return OpenDuckDB(ctx, DuckDBOptions{Path: opts.Path, Threads: opts.Threads, MaxMemory: opts.MaxMemory})
	case BackendBadger:
		return OpenBadger(opts.Path)
	case BackendSQLite:
		return OpenSQLite(ctx, opts.Path)
	case BackendPostgres:
		return OpenPostgres(ctx, opts.DSN)
	default:
		return nil, backoff.Permanent(fmt.Errorf("unknown history backend %q", opts.Backend))
	}
}
