package ml

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syntheticData builds a noisy piecewise-linear regression problem.
func syntheticData(n int, seed int64) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		a := rng.Float64() * 10
		b := rng.Float64() * 5
		X[i] = []float64{a, b}
		y[i] = 3*a + 2*b*b + rng.NormFloat64()*0.5
	}
	return X, y
}

func TestGradientBoostingFitPredict(t *testing.T) {
	X, y := syntheticData(400, 1)

	g := NewGradientBoosting()
	require.NoError(t, g.Fit(X, y))
	require.NotEmpty(t, g.Trees)

	pred := make([]float64, len(y))
	for i := range X {
		pred[i] = g.Predict(X[i])
	}
	m, err := Evaluate(y, pred)
	require.NoError(t, err)
	assert.Greater(t, m.R2, 0.9, "ensemble should fit the training signal")
}

func TestGradientBoostingStagedPredict(t *testing.T) {
	X, y := syntheticData(200, 2)

	g := NewGradientBoosting()
	require.NoError(t, g.Fit(X, y))

	row := X[0]
	staged := g.StagedPredict(row)
	require.Len(t, staged, len(g.Trees))
	assert.InDelta(t, g.Predict(row), staged[len(staged)-1], 1e-9,
		"last stage must equal the full prediction")
}

func TestGradientBoostingEarlyStopping(t *testing.T) {
	// Constant target: the first stages already fit perfectly, so
	// early stopping must kick in well before NEstimators.
	X, _ := syntheticData(100, 3)
	y := make([]float64, len(X))
	for i := range y {
		y[i] = 42
	}

	g := NewGradientBoosting()
	require.NoError(t, g.Fit(X, y))
	assert.Less(t, len(g.Trees), g.NEstimators)
	assert.InDelta(t, 42, g.Predict(X[0]), 1e-6)
}

func TestGradientBoostingReproducible(t *testing.T) {
	X, y := syntheticData(150, 4)

	a := NewGradientBoosting()
	require.NoError(t, a.Fit(X, y))
	b := NewGradientBoosting()
	require.NoError(t, b.Fit(X, y))

	assert.Equal(t, len(a.Trees), len(b.Trees))
	assert.Equal(t, a.Predict(X[7]), b.Predict(X[7]))
}

func TestFeatureImportances(t *testing.T) {
	// Target depends only on feature 0; importance must reflect that.
	rng := rand.New(rand.NewSource(5))
	X := make([][]float64, 300)
	y := make([]float64, 300)
	for i := range X {
		X[i] = []float64{rng.Float64() * 10, rng.Float64()}
		y[i] = 5 * X[i][0]
	}

	g := NewGradientBoosting()
	require.NoError(t, g.Fit(X, y))

	imp := g.FeatureImportances()
	require.Len(t, imp, 2)
	assert.InDelta(t, 1.0, imp[0]+imp[1], 1e-9)
	assert.Greater(t, imp[0], imp[1])
}

func TestGradientBoostingEmptyInput(t *testing.T) {
	g := NewGradientBoosting()
	assert.Error(t, g.Fit(nil, nil))
	assert.Error(t, g.Fit([][]float64{{1}}, []float64{1, 2}))
}
