// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package model

import (
	"context"
	"fmt"
	"sort"
)

// GBRTConfig configures gradient-boosted regression trees with squared loss.
type GBRTConfig struct {
	Estimators     int
	LearningRate   float64
	MaxDepth       int
	MinSamplesLeaf int

	// MaxBins caps the histogram bins per feature (at most 255).
	MaxBins int
}

// DefaultGBRTConfig returns 200 depth-6 trees at learning rate 0.1.
func DefaultGBRTConfig() GBRTConfig {
	return GBRTConfig{
		Estimators:     200,
		LearningRate:   0.1,
		MaxDepth:       6,
		MinSamplesLeaf: 1,
		MaxBins:        64,
	}
}

func (c *GBRTConfig) normalize() error {
	if c.Estimators <= 0 {
		return fmt.Errorf("estimators must be positive, got %d", c.Estimators)
	}
	if c.LearningRate <= 0 || c.LearningRate > 1 {
		return fmt.Errorf("learning rate must be in (0, 1], got %v", c.LearningRate)
	}
	if c.MaxDepth <= 0 {
		return fmt.Errorf("max depth must be positive, got %d", c.MaxDepth)
	}
	if c.MinSamplesLeaf <= 0 {
		c.MinSamplesLeaf = 1
	}
	if c.MaxBins < 2 || c.MaxBins > 255 {
		c.MaxBins = 64
	}
	return nil
}

// Node is a regression tree node. Leaves carry Value; splits send
// x[Feature] <= Threshold to Left.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     float64
	Leaf      bool
}

// Tree is a flattened regression tree rooted at Nodes[0].
type Tree struct {
	Nodes []Node
}

// Predict walks x to a leaf.
func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// GBRT is a fitted boosted ensemble.
type GBRT struct {
	Init         float64
	LearningRate float64
	Trees        []Tree
}

// Predict sums the initial estimate and the shrunken tree outputs.
func (g *GBRT) Predict(x []float64) float64 {
	p := g.Init
	for i := range g.Trees {
		p += g.LearningRate * g.Trees[i].Predict(x)
	}
	return p
}

// FitGBRT fits an ensemble to (x, y). Each tree is grown depth-first on
// per-feature histograms of quantile bins, splitting on the largest
// reduction in squared error of the current residuals.
func FitGBRT(ctx context.Context, x [][]float64, y []float64, cfg GBRTConfig) (*GBRT, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, fmt.Errorf("need equal, non-zero sample and label counts (got %d, %d)", len(x), len(y))
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	n := len(y)
	var mean float64
	for _, v := range y {
		mean += v
	}
	mean /= float64(n)

	model := &GBRT{
		Init:         mean,
		LearningRate: cfg.LearningRate,
		Trees:        make([]Tree, 0, cfg.Estimators),
	}

	bins := newBinner(x, cfg.MaxBins)
	pred := make([]float64, n)
	for i := range pred {
		pred[i] = mean
	}
	residual := make([]float64, n)
	idx := make([]int, n)

	for m := 0; m < cfg.Estimators; m++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i := range residual {
			residual[i] = y[i] - pred[i]
			idx[i] = i
		}

		tb := &treeBuilder{bins: bins, grad: residual, cfg: &cfg}
		tb.build(idx, 0)
		tree := Tree{Nodes: tb.nodes}

		for i := range pred {
			pred[i] += cfg.LearningRate * tree.Predict(x[i])
		}
		model.Trees = append(model.Trees, tree)
	}
	return model, nil
}

// binner maps each feature value to a histogram bin. bin(v) is the index of
// the first edge >= v, so bin(v) <= b exactly when v <= edges[b].
type binner struct {
	edges [][]float64
	codes [][]uint8 // [feature][sample]
}

func newBinner(x [][]float64, maxBins int) *binner {
	features := len(x[0])
	b := &binner{
		edges: make([][]float64, features),
		codes: make([][]uint8, features),
	}

	col := make([]float64, len(x))
	for f := 0; f < features; f++ {
		for i, row := range x {
			col[i] = row[f]
		}
		edges := binEdges(col, maxBins)
		codes := make([]uint8, len(x))
		for i, row := range x {
			codes[i] = uint8(sort.SearchFloat64s(edges, row[f])) //nolint:gosec // bounded by maxBins <= 255
		}
		b.edges[f] = edges
		b.codes[f] = codes
	}
	return b
}

// binEdges returns strictly increasing split candidates for one column:
// midpoints between distinct values when there are few of them, quantile
// cut points otherwise.
func binEdges(col []float64, maxBins int) []float64 {
	sorted := append([]float64(nil), col...)
	sort.Float64s(sorted)

	uniq := sorted[:0:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			uniq = append(uniq, v)
		}
	}

	if len(uniq) <= maxBins {
		edges := make([]float64, 0, len(uniq)-1)
		for i := 0; i+1 < len(uniq); i++ {
			edges = append(edges, (uniq[i]+uniq[i+1])/2)
		}
		return edges
	}

	edges := make([]float64, 0, maxBins-1)
	for q := 1; q < maxBins; q++ {
		cut := sorted[q*len(sorted)/maxBins]
		if len(edges) == 0 || cut > edges[len(edges)-1] {
			edges = append(edges, cut)
		}
	}
	// The largest value must stay right of every edge or the last bin is empty.
	if len(edges) > 0 && edges[len(edges)-1] >= uniq[len(uniq)-1] {
		edges = edges[:len(edges)-1]
	}
	return edges
}

type treeBuilder struct {
	bins  *binner
	grad  []float64
	cfg   *GBRTConfig
	nodes []Node
}

func (tb *treeBuilder) build(idx []int, depth int) int {
	var sum float64
	for _, i := range idx {
		sum += tb.grad[i]
	}
	id := len(tb.nodes)
	tb.nodes = append(tb.nodes, Node{Leaf: true, Value: sum / float64(len(idx))})

	if depth >= tb.cfg.MaxDepth || len(idx) < 2*tb.cfg.MinSamplesLeaf {
		return id
	}

	feature, bin, gain := tb.bestSplit(idx, sum)
	if feature < 0 || gain <= 1e-12 {
		return id
	}

	codes := tb.bins.codes[feature]
	split := 0
	for j := range idx {
		if int(codes[idx[j]]) <= bin {
			idx[split], idx[j] = idx[j], idx[split]
			split++
		}
	}

	left := tb.build(idx[:split], depth+1)
	right := tb.build(idx[split:], depth+1)
	tb.nodes[id] = Node{
		Feature:   feature,
		Threshold: tb.bins.edges[feature][bin],
		Left:      left,
		Right:     right,
	}
	return id
}

func (tb *treeBuilder) bestSplit(idx []int, total float64) (bestFeature, bestBin int, bestGain float64) {
	n := len(idx)
	parent := total * total / float64(n)
	minLeaf := tb.cfg.MinSamplesLeaf
	bestFeature, bestBin = -1, -1

	for f, edges := range tb.bins.edges {
		nb := len(edges) + 1
		if nb < 2 {
			continue
		}
		sums := make([]float64, nb)
		counts := make([]int, nb)
		codes := tb.bins.codes[f]
		for _, i := range idx {
			c := codes[i]
			sums[c] += tb.grad[i]
			counts[c]++
		}

		var leftSum float64
		leftCount := 0
		for b := 0; b < nb-1; b++ {
			leftSum += sums[b]
			leftCount += counts[b]
			rightCount := n - leftCount
			if leftCount < minLeaf {
				continue
			}
			if rightCount < minLeaf {
				break
			}
			rightSum := total - leftSum
			gain := leftSum*leftSum/float64(leftCount) + rightSum*rightSum/float64(rightCount) - parent
			if gain > bestGain {
				bestFeature, bestBin, bestGain = f, b, gain
			}
		}
	}
	return bestFeature, bestBin, bestGain
}
