// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package model

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/tomtom215/ratewise/internal/calendar"
	"github.com/tomtom215/ratewise/internal/catalog"
	"github.com/tomtom215/ratewise/internal/factors"
)

// Dataset is a feature matrix and its labels.
type Dataset struct {
	X [][]float64
	Y []float64
}

// Len returns the number of samples.
func (d *Dataset) Len() int { return len(d.Y) }

// SynthConfig controls synthetic sample generation.
type SynthConfig struct {
	Samples int
	Seed    int64

	// Start anchors the sampled dates; each sample falls 1..364 days after it.
	Start time.Time
}

// Synthesize draws cfg.Samples labelled rows. The same seed and start always
// produce the same dataset. calc must not carry an observation source so the
// occupancy used is the estimate.
func Synthesize(ctx context.Context, calc *factors.Calculator, cfg SynthConfig) (*Dataset, error) {
	if cfg.Samples <= 0 {
		return nil, fmt.Errorf("samples must be positive, got %d", cfg.Samples)
	}
	start := calendar.Day(cfg.Start)
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // deterministic synthetic data, not security sensitive

	ds := &Dataset{
		X: make([][]float64, 0, cfg.Samples),
		Y: make([]float64, 0, cfg.Samples),
	}
	for i := 0; i < cfg.Samples; i++ {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		date := calendar.AddDays(start, rng.Intn(364)+1)
		room := catalog.RoomCategories[rng.Intn(len(catalog.RoomCategories))]
		plan := catalog.RatePlans[rng.Intn(len(catalog.RatePlans))]
		base := catalog.ListPrice(room, plan)

		occupancy := calc.OccupancyFactor(ctx, date)
		demand := calc.DemandFactor(date, 1.0)
		market := clampFloat(1+rng.NormFloat64()*0.1, 0.8, 1.3)
		noise := clampFloat(1+rng.NormFloat64()*0.05, 0.85, 1.15)

		ds.X = append(ds.X, Features(calc.Calendar(), date, room, plan, base))
		ds.Y = append(ds.Y, base*occupancy*demand*market*noise)
	}
	return ds, nil
}

// Split shuffles indices with seed and holds out testFraction of the rows.
func (d *Dataset) Split(testFraction float64, seed int64) (train, test *Dataset) {
	n := d.Len()
	perm := rand.New(rand.NewSource(seed)).Perm(n) //nolint:gosec // deterministic split
	nTest := int(float64(n) * testFraction)
	if nTest >= n {
		nTest = n - 1
	}

	pick := func(idx []int) *Dataset {
		out := &Dataset{X: make([][]float64, len(idx)), Y: make([]float64, len(idx))}
		for i, j := range idx {
			out.X[i] = d.X[j]
			out.Y[i] = d.Y[j]
		}
		return out
	}
	return pick(perm[nTest:]), pick(perm[:nTest])
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
