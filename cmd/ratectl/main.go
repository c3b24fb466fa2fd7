// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

// Package main implements ratectl, the Ratewise command-line tool. It trains
// the rate model and prices batches and stays offline against the configured
// history store, using the same configuration as the server.
//
//	ratectl train --samples 20000
//	ratectl resolve --room Deluxe --plan CP --start 2025-03-01 --base-rates 180,180,195
//	ratectl quote --room Suite --check-in 2025-07-03 --check-out 2025-07-06 --rooms 2
//	ratectl occasions 2025-12-25
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/ratewise/internal/app"
	"github.com/tomtom215/ratewise/internal/config"
	"github.com/tomtom215/ratewise/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(config.Load).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// options are the persistent flags shared by every subcommand.
type options struct {
	loadConfig func() (*config.Config, error)

	backend  string
	path     string
	modelDir string
	logLevel string
}

func newRootCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	opts := &options{loadConfig: loadConfig}

	root := &cobra.Command{
		Use:          "ratectl",
		Short:        "Train the Ratewise rate model and price rooms offline",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logging.Init(logging.Config{
				Level:  opts.logLevel,
				Format: "console",
				Output: cmd.ErrOrStderr(),
			})
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	pf := root.PersistentFlags()
	pf.StringVar(&opts.backend, "backend", "", "history backend, overrides HISTORY_BACKEND")
	pf.StringVar(&opts.path, "path", "", "history file or directory, overrides HISTORY_PATH")
	pf.StringVar(&opts.modelDir, "model-dir", "", "model artifact directory, overrides MODEL_DIR")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "log level")

	root.AddCommand(trainCmd(opts))
	root.AddCommand(resolveCmd(opts))
	root.AddCommand(quoteCmd(opts))
	root.AddCommand(occasionsCmd())

	return root
}

// config loads the configuration and applies flag overrides. The CLI never
// runs an event bus.
func (o *options) config() (*config.Config, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	if o.backend != "" {
		cfg.History.Backend = o.backend
	}
	if o.path != "" {
		cfg.History.Path = o.path
	}
	if o.modelDir != "" {
		cfg.Model.Dir = o.modelDir
	}
	cfg.Events.Enabled = false
	return cfg, nil
}

// build loads the configuration and wires the components.
func (o *options) build(ctx context.Context) (*config.Config, *app.Components, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, nil, err
	}
	c, err := app.Build(ctx, cfg, logging.Logger())
	if err != nil {
		return nil, nil, err
	}
	return cfg, c, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
