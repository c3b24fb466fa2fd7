// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package model

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/ratewise/internal/calendar"
	"github.com/tomtom215/ratewise/internal/catalog"
	"github.com/tomtom215/ratewise/internal/factors"
)

var synthStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func testCalculator() *factors.Calculator {
	return factors.NewCalculator(calendar.NewUS(), nil, zerolog.Nop())
}

func smallTrainConfig() TrainConfig {
	return TrainConfig{
		GBRT: GBRTConfig{
			Estimators:   40,
			LearningRate: 0.2,
			MaxDepth:     4,
			MaxBins:      32,
		},
		TestFraction: 0.2,
		Seed:         42,
	}
}

func TestFeatures(t *testing.T) {
	t.Parallel()
	date := time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC) // Wednesday

	got := Features(calendar.NewUS(), date, catalog.RoomSuite, catalog.PlanMAP, 350)
	want := []float64{2, 12, 25, 0, 1, 3, 350, 2, 2}

	if len(got) != FeatureCount {
		t.Fatalf("len = %d, want %d", len(got), FeatureCount)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s = %v, want %v", FeatureNames[i], got[i], want[i])
		}
	}
}

func TestSynthesize_Deterministic(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := SynthConfig{Samples: 500, Seed: 42, Start: synthStart}

	a, err := Synthesize(ctx, testCalculator(), cfg)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	b, err := Synthesize(ctx, testCalculator(), cfg)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	if a.Len() != 500 || b.Len() != 500 {
		t.Fatalf("lengths %d, %d", a.Len(), b.Len())
	}
	for i := range a.Y {
		if a.Y[i] != b.Y[i] {
			t.Fatalf("label %d differs: %v vs %v", i, a.Y[i], b.Y[i])
		}
	}
}

func TestSynthesize_LabelBounds(t *testing.T) {
	t.Parallel()
	ds, err := Synthesize(context.Background(), testCalculator(), SynthConfig{Samples: 2000, Seed: 7, Start: synthStart})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	for i, row := range ds.X {
		base := row[FeatureBasePrice]
		// occupancy [0.9,1.6] x demand [0.5,3.0] x market [0.8,1.3] x noise [0.85,1.15]
		lo := base * 0.9 * 0.5 * 0.8 * 0.85
		hi := base * 1.6 * 3.0 * 1.3 * 1.15
		if ds.Y[i] < lo || ds.Y[i] > hi {
			t.Fatalf("label %d = %v outside [%v, %v]", i, ds.Y[i], lo, hi)
		}

		room, ok := catalog.RoomCategoryFromCode(int(row[FeatureRoomCode]))
		if !ok {
			t.Fatalf("row %d has unknown room code %v", i, row[FeatureRoomCode])
		}
		plan, ok := catalog.RatePlanFromCode(int(row[FeaturePlanCode]))
		if !ok {
			t.Fatalf("row %d has unknown plan code %v", i, row[FeaturePlanCode])
		}
		if base != catalog.ListPrice(room, plan) {
			t.Fatalf("row %d base %v != list price of %s/%s", i, base, room, plan)
		}
	}
}

func TestSynthesize_RejectsZeroSamples(t *testing.T) {
	t.Parallel()
	if _, err := Synthesize(context.Background(), testCalculator(), SynthConfig{}); err == nil {
		t.Error("expected error for zero samples")
	}
}

func TestScaler(t *testing.T) {
	t.Parallel()
	s := FitScaler([][]float64{{1, 5}, {3, 5}})

	if s.Mean[0] != 2 || s.Scale[0] != 1 {
		t.Errorf("column 0 mean/scale = %v/%v, want 2/1", s.Mean[0], s.Scale[0])
	}
	if s.Scale[1] != 1 {
		t.Errorf("constant column scale = %v, want 1", s.Scale[1])
	}
	got := s.Transform([]float64{3, 5})
	if got[0] != 1 || got[1] != 0 {
		t.Errorf("Transform = %v, want [1 0]", got)
	}
}

func TestFitGBRT_StepFunction(t *testing.T) {
	t.Parallel()
	var x [][]float64
	var y []float64
	for i := 0; i < 10; i++ {
		x = append(x, []float64{float64(i)})
		if i < 5 {
			y = append(y, 1)
		} else {
			y = append(y, 10)
		}
	}

	g, err := FitGBRT(context.Background(), x, y, GBRTConfig{Estimators: 1, LearningRate: 1, MaxDepth: 1})
	if err != nil {
		t.Fatalf("FitGBRT: %v", err)
	}

	tests := []struct {
		x    float64
		want float64
	}{
		{0, 1}, {4, 1}, {4.4, 1}, {4.6, 10}, {9, 10}, {100, 10},
	}
	for _, tt := range tests {
		if got := g.Predict([]float64{tt.x}); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Predict(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
}

func TestFitGBRT_InvalidConfig(t *testing.T) {
	t.Parallel()
	x := [][]float64{{1}, {2}}
	y := []float64{1, 2}
	tests := []struct {
		name string
		cfg  GBRTConfig
	}{
		{"no estimators", GBRTConfig{LearningRate: 0.1, MaxDepth: 3}},
		{"zero learning rate", GBRTConfig{Estimators: 5, MaxDepth: 3}},
		{"zero depth", GBRTConfig{Estimators: 5, LearningRate: 0.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FitGBRT(context.Background(), x, y, tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFit_BeatsMeanBaseline(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ds, err := Synthesize(ctx, testCalculator(), SynthConfig{Samples: 1500, Seed: 42, Start: synthStart})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	art, m, err := Fit(ctx, ds, smallTrainConfig())
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if m.TrainSamples != 1200 || m.TestSamples != 300 {
		t.Errorf("split = %d/%d, want 1200/300", m.TrainSamples, m.TestSamples)
	}

	_, test := ds.Split(0.2, 42)
	var mean float64
	for _, v := range test.Y {
		mean += v
	}
	mean /= float64(test.Len())
	var baseline float64
	for _, v := range test.Y {
		baseline += math.Abs(v - mean)
	}
	baseline /= float64(test.Len())

	if m.MAE >= baseline {
		t.Errorf("model MAE %.2f not better than mean baseline %.2f", m.MAE, baseline)
	}
	if m.RMSE < m.MAE {
		t.Errorf("RMSE %.2f < MAE %.2f", m.RMSE, m.MAE)
	}

	if _, err := art.Predict([]float64{1, 2}); err == nil {
		t.Error("expected ErrInvalidFeatures for short vector")
	}
}

func TestArtifact_PredictNil(t *testing.T) {
	t.Parallel()
	var a *Artifact
	if _, err := a.Predict(make([]float64, FeatureCount)); err != ErrNotTrained {
		t.Errorf("err = %v, want ErrNotTrained", err)
	}
}
