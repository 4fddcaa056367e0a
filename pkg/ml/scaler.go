// Package ml implements the small regression toolkit backing the price
// model: a standardizing scaler, a categorical label encoder, a
// deterministic train/test splitter, regression metrics, and a
// gradient-boosted tree ensemble with staged-prediction support.
//
// All estimators expose exported fields so a fitted pipeline can be
// serialized with encoding/gob as part of a model bundle.
package ml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler standardizes features to zero mean and unit variance.
// Fit on training data only; Transform applies the fitted parameters.
type StandardScaler struct {
	Mean []float64
	Std  []float64
}

// Fit computes per-feature mean and standard deviation from X.
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 || len(X[0]) == 0 {
		return fmt.Errorf("scaler: cannot fit on empty matrix")
	}
	n := len(X)
	cols := len(X[0])
	s.Mean = make([]float64, cols)
	s.Std = make([]float64, cols)

	col := make([]float64, n)
	for j := 0; j < cols; j++ {
		for i, row := range X {
			col[i] = row[j]
		}
		s.Mean[j] = stat.Mean(col, nil)
		// Population standard deviation, matching the convention of
		// standardizing transforms rather than sample estimation.
		var ss float64
		for _, v := range col {
			d := v - s.Mean[j]
			ss += d * d
		}
		s.Std[j] = math.Sqrt(ss / float64(n))
		if s.Std[j] == 0 {
			// Constant feature: avoid division by zero, pass through.
			s.Std[j] = 1
		}
	}
	return nil
}

// Transform returns a standardized copy of X.
func (s *StandardScaler) Transform(X [][]float64) ([][]float64, error) {
	if len(s.Mean) == 0 {
		return nil, fmt.Errorf("scaler: not fitted")
	}
	out := make([][]float64, len(X))
	for i, row := range X {
		if len(row) != len(s.Mean) {
			return nil, fmt.Errorf("scaler: row has %d features, scaler fitted on %d", len(row), len(s.Mean))
		}
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = (v - s.Mean[j]) / s.Std[j]
		}
		out[i] = scaled
	}
	return out, nil
}

// TransformRow standardizes a single feature vector.
func (s *StandardScaler) TransformRow(row []float64) ([]float64, error) {
	out, err := s.Transform([][]float64{row})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// FitTransform fits the scaler on X and returns the standardized matrix.
func (s *StandardScaler) FitTransform(X [][]float64) ([][]float64, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}
