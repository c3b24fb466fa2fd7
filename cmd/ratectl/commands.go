// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/ratewise/internal/app"
	"github.com/tomtom215/ratewise/internal/calendar"
	"github.com/tomtom215/ratewise/internal/catalog"
	"github.com/tomtom215/ratewise/internal/factors"
	"github.com/tomtom215/ratewise/internal/logging"
	"github.com/tomtom215/ratewise/internal/model"
	"github.com/tomtom215/ratewise/internal/pricing"
)

func trainCmd(opts *options) *cobra.Command {
	var (
		samples int
		seed    int64
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a new model version and make it the active one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			cfg.Model.Enabled = true
			if cmd.Flags().Changed("samples") {
				cfg.Model.Samples = samples
			}
			if cmd.Flags().Changed("seed") {
				cfg.Model.Seed = seed
			}

			c, err := app.Build(cmd.Context(), cfg, logging.Logger())
			if err != nil {
				return err
			}
			defer c.Close()

			meta, err := c.Engine.Train(cmd.Context())
			if err != nil {
				return fmt.Errorf("train: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), meta)
		},
	}

	cmd.Flags().IntVar(&samples, "samples", 0, "synthetic training samples (default from MODEL_SAMPLES)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (default from MODEL_SEED)")
	return cmd
}

func resolveCmd(opts *options) *cobra.Command {
	var (
		room, plan, start string
		baseRates, custom []float64
		noHistory         bool
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Price consecutive nights from a start date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			roomCat, err := catalog.ParseRoomCategory(room)
			if err != nil {
				return err
			}
			ratePlan, err := catalog.ParseRatePlan(plan)
			if err != nil {
				return err
			}
			if _, err := calendar.ParseDate(start); err != nil {
				return fmt.Errorf("--start: %w", err)
			}

			cfg, c, err := opts.build(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			if cfg.Model.Enabled {
				if err := c.Engine.Load(); err != nil && !errors.Is(err, model.ErrNoArtifact) {
					logging.Warn().Err(err).Msg("stored model unusable, pricing without it")
				}
			}

			res := c.Resolver.Resolve(cmd.Context(), &pricing.Request{
				Room:              roomCat,
				Plan:              ratePlan,
				StartDate:         start,
				BaseRates:         baseRates,
				CustomMultipliers: custom,
				UseHistory:        cfg.Pricing.UseHistoricalFallback && !noHistory,
			})
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	f := cmd.Flags()
	f.StringVar(&room, "room", string(catalog.RoomStandard), "room category")
	f.StringVar(&plan, "plan", string(catalog.PlanEP), "rate plan")
	f.StringVar(&start, "start", "", "first night, YYYY-MM-DD")
	f.Float64SliceVar(&baseRates, "base-rates", nil, "base rate per night")
	f.Float64SliceVar(&custom, "custom", nil, "custom multipliers for the first nights")
	f.BoolVar(&noHistory, "no-history", false, "skip stored multipliers")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("base-rates")
	return cmd
}

func quoteCmd(opts *options) *cobra.Command {
	var (
		room, plan                 string
		checkIn, checkOut, booking string
		rooms                      int
	)

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a stay from the list price and stay-level factors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := pricing.QuoteRequest{Rooms: rooms}
			var err error
			if req.Room, err = catalog.ParseRoomCategory(room); err != nil {
				return err
			}
			if req.Plan, err = catalog.ParseRatePlan(plan); err != nil {
				return err
			}
			if req.CheckIn, err = calendar.ParseDate(checkIn); err != nil {
				return fmt.Errorf("--check-in: %w", err)
			}
			if req.CheckOut, err = calendar.ParseDate(checkOut); err != nil {
				return fmt.Errorf("--check-out: %w", err)
			}
			if booking != "" {
				if req.BookingDate, err = calendar.ParseDate(booking); err != nil {
					return fmt.Errorf("--booking-date: %w", err)
				}
			}

			_, c, err := opts.build(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			quote, err := c.Quoter.Quote(&req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), quote)
		},
	}

	f := cmd.Flags()
	f.StringVar(&room, "room", string(catalog.RoomStandard), "room category")
	f.StringVar(&plan, "plan", string(catalog.PlanEP), "rate plan")
	f.StringVar(&checkIn, "check-in", "", "arrival date, YYYY-MM-DD")
	f.StringVar(&checkOut, "check-out", "", "departure date, YYYY-MM-DD")
	f.StringVar(&booking, "booking-date", "", "booking date, YYYY-MM-DD (default today)")
	f.IntVar(&rooms, "rooms", 1, "number of rooms")
	_ = cmd.MarkFlagRequired("check-in")
	_ = cmd.MarkFlagRequired("check-out")
	return cmd
}

// occasionReport is the output of ratectl occasions.
type occasionReport struct {
	Date                     string                       `json:"date"`
	Occasions                []catalog.Occasion           `json:"occasions"`
	Weights                  map[catalog.Occasion]float64 `json:"weights"`
	IsWeekend                bool                         `json:"is_weekend"`
	DemandFactor             float64                      `json:"demand_factor"`
	SimulatedOccupancyFactor float64                      `json:"simulated_occupancy_factor"`
}

func occasionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "occasions <date>",
		Short: "List the occasions and demand factor for a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := calendar.ParseDate(args[0])
			if err != nil {
				return err
			}

			calc := factors.NewCalculator(calendar.NewUS(), nil, logging.Logger())
			occasions := calc.Calendar().OccasionsFor(date)
			report := occasionReport{
				Date:                     calendar.FormatDate(date),
				Occasions:                []catalog.Occasion{},
				Weights:                  make(map[catalog.Occasion]float64, len(occasions)),
				IsWeekend:                calendar.IsWeekend(date),
				DemandFactor:             calc.DemandFactor(date, 1.0),
				SimulatedOccupancyFactor: calc.SimulatedOccupancyFactor(date),
			}
			for _, o := range occasions {
				report.Occasions = append(report.Occasions, o)
				report.Weights[o] = o.Weight()
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
}
