package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardScaler(t *testing.T) {
	X := [][]float64{
		{1, 100},
		{2, 200},
		{3, 300},
	}

	var s StandardScaler
	scaled, err := s.FitTransform(X)
	require.NoError(t, err)

	// Column means become 0, population std becomes 1.
	for j := 0; j < 2; j++ {
		var sum, sq float64
		for i := range scaled {
			sum += scaled[i][j]
			sq += scaled[i][j] * scaled[i][j]
		}
		assert.InDelta(t, 0, sum/3, 1e-9)
		assert.InDelta(t, 1, sq/3, 1e-9)
	}

	// Transform of a known row uses fitted parameters.
	row, err := s.TransformRow([]float64{2, 200})
	require.NoError(t, err)
	assert.InDelta(t, 0, row[0], 1e-9)
	assert.InDelta(t, 0, row[1], 1e-9)
}

func TestStandardScalerConstantFeature(t *testing.T) {
	X := [][]float64{{5, 1}, {5, 2}, {5, 3}}
	var s StandardScaler
	scaled, err := s.FitTransform(X)
	require.NoError(t, err)
	for i := range scaled {
		assert.Equal(t, 0.0, scaled[i][0])
	}
}

func TestStandardScalerErrors(t *testing.T) {
	var s StandardScaler
	_, err := s.Transform([][]float64{{1}})
	assert.Error(t, err, "transform before fit")

	require.NoError(t, s.Fit([][]float64{{1, 2}, {3, 4}}))
	_, err = s.Transform([][]float64{{1, 2, 3}})
	assert.Error(t, err, "mismatched width")
}
