package ml

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

// Regressor is the capability contract the prediction engine programs
// against. Any model exposing a point prediction plus per-stage partial
// predictions can back the serving path.
type Regressor interface {
	Predict(row []float64) float64
	StagedPredict(row []float64) []float64
}

// GradientBoosting is a gradient-boosted ensemble of regression trees
// with least-squares loss, stochastic subsampling and early stopping on
// a held-out validation fraction.
type GradientBoosting struct {
	NEstimators        int
	LearningRate       float64
	MaxDepth           int
	MinSamplesSplit    int
	MinSamplesLeaf     int
	Subsample          float64
	ValidationFraction float64
	NIterNoChange      int
	Tol                float64
	Seed               int64

	// Fitted state.
	Init        float64
	Trees       []*Tree
	NumFeatures int
}

// NewGradientBoosting returns an ensemble with the production
// hyperparameters used by the price model.
func NewGradientBoosting() *GradientBoosting {
	return &GradientBoosting{
		NEstimators:        200,
		LearningRate:       0.1,
		MaxDepth:           5,
		MinSamplesSplit:    5,
		MinSamplesLeaf:     3,
		Subsample:          0.9,
		ValidationFraction: 0.1,
		NIterNoChange:      15,
		Tol:                1e-4,
		Seed:               42,
	}
}

// Fit trains the ensemble on X against y. When NIterNoChange > 0 a
// validation fraction is held out and boosting stops once the
// validation loss has not improved by more than Tol for NIterNoChange
// consecutive stages.
func (g *GradientBoosting) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 || len(X) != len(y) {
		return fmt.Errorf("gbr: need matching non-empty X and y, got %d and %d rows", len(X), len(y))
	}
	g.NumFeatures = len(X[0])
	rng := rand.New(rand.NewSource(g.Seed))

	// Hold out a validation slice for early stopping.
	trainIdx := rng.Perm(len(X))
	var valIdx []int
	if g.NIterNoChange > 0 && g.ValidationFraction > 0 {
		nVal := int(float64(len(X)) * g.ValidationFraction)
		if nVal >= 1 && nVal < len(X) {
			valIdx = trainIdx[:nVal]
			trainIdx = trainIdx[nVal:]
		}
	}

	yTrain := make([]float64, 0, len(trainIdx))
	for _, i := range trainIdx {
		yTrain = append(yTrain, y[i])
	}
	g.Init = stat.Mean(yTrain, nil)

	// Current ensemble output per row, residuals updated in place.
	pred := make([]float64, len(X))
	residual := make([]float64, len(X))
	for i := range X {
		pred[i] = g.Init
		residual[i] = y[i] - pred[i]
	}

	g.Trees = g.Trees[:0]
	bestLoss := valLoss(y, pred, valIdx)
	stale := 0

	sampleSize := int(float64(len(trainIdx)) * g.Subsample)
	if sampleSize < 1 || g.Subsample >= 1 {
		sampleSize = len(trainIdx)
	}
	sample := make([]int, len(trainIdx))

	for stage := 0; stage < g.NEstimators; stage++ {
		copy(sample, trainIdx)
		rng.Shuffle(len(sample), func(a, b int) { sample[a], sample[b] = sample[b], sample[a] })

		tree := &Tree{
			MaxDepth:        g.MaxDepth,
			MinSamplesSplit: g.MinSamplesSplit,
			MinSamplesLeaf:  g.MinSamplesLeaf,
		}
		tree.Fit(X, residual, sample[:sampleSize])
		g.Trees = append(g.Trees, tree)

		for i := range X {
			pred[i] += g.LearningRate * tree.Predict(X[i])
			residual[i] = y[i] - pred[i]
		}

		if len(valIdx) > 0 {
			loss := valLoss(y, pred, valIdx)
			if loss < bestLoss-g.Tol {
				bestLoss = loss
				stale = 0
			} else {
				stale++
				if stale >= g.NIterNoChange {
					break
				}
			}
		}
	}
	return nil
}

// Predict returns the full-ensemble point prediction for one row.
func (g *GradientBoosting) Predict(row []float64) float64 {
	out := g.Init
	for _, tree := range g.Trees {
		out += g.LearningRate * tree.Predict(row)
	}
	return out
}

// Stages reports the number of fitted boosting stages. A model that
// has never been fitted has zero stages.
func (g *GradientBoosting) Stages() int {
	return len(g.Trees)
}

// StagedPredict returns the running partial prediction after each
// boosting stage. The last element equals Predict(row).
func (g *GradientBoosting) StagedPredict(row []float64) []float64 {
	out := make([]float64, len(g.Trees))
	acc := g.Init
	for i, tree := range g.Trees {
		acc += g.LearningRate * tree.Predict(row)
		out[i] = acc
	}
	return out
}

// FeatureImportances returns the per-feature share of total squared
// error reduction across all trees, normalized to sum to 1.
func (g *GradientBoosting) FeatureImportances() []float64 {
	imp := make([]float64, g.NumFeatures)
	for _, tree := range g.Trees {
		for f, v := range tree.Importances {
			imp[f] += v
		}
	}
	var total float64
	for _, v := range imp {
		total += v
	}
	if total > 0 {
		for f := range imp {
			imp[f] /= total
		}
	}
	return imp
}

func valLoss(y, pred []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var sum float64
	for _, i := range idx {
		d := y[i] - pred[i]
		sum += d * d
	}
	return sum / float64(len(idx))
}
