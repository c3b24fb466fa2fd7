// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package model

import (
	"context"
	"fmt"
	"math"
)

// TrainConfig configures Fit.
type TrainConfig struct {
	GBRT         GBRTConfig
	TestFraction float64
	Seed         int64
}

// Metrics reports holdout accuracy.
type Metrics struct {
	MAE          float64 `json:"mae"`
	RMSE         float64 `json:"rmse"`
	TrainSamples int     `json:"train_samples"`
	TestSamples  int     `json:"test_samples"`
}

// Artifact is a fitted scaler and ensemble. It is immutable once built and
// safe for concurrent Predict calls. All fields are exported for gob.
type Artifact struct {
	FeatureNames []string
	Scaler       *Scaler
	Regressor    *GBRT
}

// Predict returns the predicted nightly rate for one feature vector.
func (a *Artifact) Predict(features []float64) (float64, error) {
	if a == nil || a.Regressor == nil || a.Scaler == nil {
		return 0, ErrNotTrained
	}
	if len(features) != len(a.Scaler.Mean) {
		return 0, fmt.Errorf("%w: got %d values, want %d", ErrInvalidFeatures, len(features), len(a.Scaler.Mean))
	}
	return a.Regressor.Predict(a.Scaler.Transform(features)), nil
}

// Fit holds out cfg.TestFraction of ds, fits scaler and ensemble on the rest
// and reports holdout MAE and RMSE.
func Fit(ctx context.Context, ds *Dataset, cfg TrainConfig) (*Artifact, Metrics, error) {
	if ds == nil || ds.Len() < 2 {
		return nil, Metrics{}, fmt.Errorf("need at least 2 samples to train")
	}
	if cfg.TestFraction <= 0 || cfg.TestFraction >= 1 {
		cfg.TestFraction = 0.2
	}

	train, test := ds.Split(cfg.TestFraction, cfg.Seed)
	scaler := FitScaler(train.X)
	ensemble, err := FitGBRT(ctx, scaler.TransformAll(train.X), train.Y, cfg.GBRT)
	if err != nil {
		return nil, Metrics{}, fmt.Errorf("fit ensemble: %w", err)
	}

	art := &Artifact{
		FeatureNames: FeatureNames[:],
		Scaler:       scaler,
		Regressor:    ensemble,
	}
	m, err := Evaluate(art, test)
	if err != nil {
		return nil, Metrics{}, err
	}
	m.TrainSamples = train.Len()
	return art, m, nil
}

// Evaluate computes MAE and RMSE of p over ds.
func Evaluate(p Predictor, ds *Dataset) (Metrics, error) {
	m := Metrics{TestSamples: ds.Len()}
	if ds.Len() == 0 {
		return m, nil
	}
	var absSum, sqSum float64
	for i, row := range ds.X {
		got, err := p.Predict(row)
		if err != nil {
			return Metrics{}, err
		}
		d := got - ds.Y[i]
		absSum += math.Abs(d)
		sqSum += d * d
	}
	n := float64(ds.Len())
	m.MAE = absSum / n
	m.RMSE = math.Sqrt(sqSum / n)
	return m, nil
}

// Predictor maps a feature vector to a nightly rate.
type Predictor interface {
	Predict(features []float64) (float64, error)
}
