// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ratewise/internal/catalog"
	"github.com/tomtom215/ratewise/internal/config"
	"github.com/tomtom215/ratewise/internal/model"
	"github.com/tomtom215/ratewise/internal/pricing"
)

func memoryConfig(modelDir string) func() (*config.Config, error) {
	return func() (*config.Config, error) {
		return &config.Config{
			History: config.HistoryConfig{Backend: "memory", OpenTimeout: time.Second},
			Model: config.ModelConfig{
				Dir:        modelDir,
				Samples:    300,
				Seed:       3,
				Estimators: 10,
				MaxDepth:   3,
			},
			Pricing:   config.PricingConfig{UseHistoricalFallback: true, MaxDays: 1096},
			Analytics: config.AnalyticsConfig{CacheType: "ttl", CacheTTL: time.Minute, DefaultWindowDays: 30},
			Events:    config.EventsConfig{Enabled: true, BufferSize: 8},
		}, nil
	}
}

func run(t *testing.T, load func() (*config.Config, error), args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(load)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestResolveCommand(t *testing.T) {
	out, err := run(t, memoryConfig(""),
		"resolve", "--room", "deluxe", "--plan", "CP",
		"--start", "2024-06-03", "--base-rates", "100,120", "--custom", "1.5")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	var res pricing.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if res.Room != catalog.RoomDeluxe || res.TotalDays != 2 {
		t.Errorf("got room %s with %d days", res.Room, res.TotalDays)
	}
	if got := res.Predictions[0]; got.Source != pricing.SourceCustom || got.DynamicRate != 150 {
		t.Errorf("first night = %s/%v, want custom/150", got.Source, got.DynamicRate)
	}
	if got := res.Predictions[1].Source; got == pricing.SourceCustom {
		t.Error("second night has no custom multiplier")
	}
}

func TestQuoteCommand(t *testing.T) {
	out, err := run(t, memoryConfig(""),
		"quote", "--room", "Suite", "--check-in", "2024-07-03", "--check-out", "2024-07-06",
		"--booking-date", "2024-06-01", "--rooms", "2")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}

	var q pricing.Quote
	if err := json.Unmarshal([]byte(out), &q); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if q.Nights != 3 || q.Rooms != 2 || len(q.NightlyRates) != 3 {
		t.Errorf("got %d nights, %d rooms, %d rates", q.Nights, q.Rooms, len(q.NightlyRates))
	}
	if q.Total <= 0 {
		t.Errorf("Total = %v, want positive", q.Total)
	}
}

func TestOccasionsCommand(t *testing.T) {
	out, err := run(t, memoryConfig(""), "occasions", "2024-12-25")
	if err != nil {
		t.Fatalf("occasions: %v", err)
	}

	var report occasionReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	found := false
	for _, o := range report.Occasions {
		if o == catalog.Christmas {
			found = true
		}
	}
	if !found {
		t.Errorf("occasions = %v, want Christmas", report.Occasions)
	}
	if report.Weights[catalog.Christmas] != catalog.Christmas.Weight() {
		t.Errorf("weight = %v", report.Weights[catalog.Christmas])
	}
	if report.DemandFactor <= 1 {
		t.Errorf("DemandFactor = %v, want above 1 on Christmas", report.DemandFactor)
	}
}

func TestTrainCommand(t *testing.T) {
	out, err := run(t, memoryConfig(t.TempDir()), "train", "--samples", "250")
	if err != nil {
		t.Fatalf("train: %v", err)
	}

	var meta model.Metadata
	if err := json.Unmarshal([]byte(out), &meta); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if meta.Version != 1 || meta.Samples == 0 {
		t.Errorf("meta = %+v, want version 1 with samples", meta)
	}
}

func TestCommandErrors(t *testing.T) {
	loadErr := errors.New("no config")
	failing := func() (*config.Config, error) { return nil, loadErr }

	tests := []struct {
		name string
		load func() (*config.Config, error)
		args []string
		want string
	}{
		{"unknown room", memoryConfig(""), []string{"resolve", "--room", "Penthouse", "--start", "2024-06-03", "--base-rates", "100"}, "unknown room category"},
		{"bad start", memoryConfig(""), []string{"resolve", "--start", "June", "--base-rates", "100"}, "--start"},
		{"missing base rates", memoryConfig(""), []string{"resolve", "--start", "2024-06-03"}, "base-rates"},
		{"inverted stay", memoryConfig(""), []string{"quote", "--check-in", "2024-07-06", "--check-out", "2024-07-03"}, "invalid stay"},
		{"bad occasion date", memoryConfig(""), []string{"occasions", "Christmas"}, ""},
		{"config failure", failing, []string{"quote", "--check-in", "2024-07-03", "--check-out", "2024-07-04"}, "no config"},
		{"unknown backend", memoryConfig(""), []string{"--backend", "cassandra", "resolve", "--start", "2024-06-03", "--base-rates", "100"}, "unknown history backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.load, tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
