package bundle

import (
	"encoding/gob"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propsage/propsage/pkg/ml"
)

// fittedBundle trains a minimal but complete bundle for round-trip tests.
func fittedBundle(t *testing.T) *Bundle {
	t.Helper()

	X := [][]float64{
		{0, 800, 2, 2, 3, 10, 5, 1, 1},
		{0, 900, 2, 2, 4, 10, 6, 1, 1},
		{1, 1000, 3, 2, 5, 20, 2, 1, 1},
		{1, 1200, 3, 3, 8, 20, 3, 0, 1},
		{0, 850, 2, 1, 2, 12, 10, 1, 0},
		{1, 1100, 3, 2, 6, 18, 4, 1, 1},
	}
	y := []float64{6e6, 7e6, 9e6, 1.1e7, 6.5e6, 1e7}

	var scaler ml.StandardScaler
	scaled, err := scaler.FitTransform(X)
	require.NoError(t, err)

	model := ml.NewGradientBoosting()
	model.NEstimators = 25
	model.NIterNoChange = 0 // too few rows for a validation holdout
	require.NoError(t, model.Fit(scaled, y))

	var enc ml.LabelEncoder
	enc.Fit([]string{"Kharghar", "Vashi"})

	return &Bundle{
		Model:           model,
		Scaler:          &scaler,
		LocationEncoder: &enc,
		Features: []string{
			"location", "area_sqft", "bhk", "bathrooms", "floor",
			"total_floors", "age_of_property", "parking", "lift",
		},
		Target:          "actual_price",
		LocationClasses: enc.Classes,
		LocationStats: map[string]LocationStats{
			"Kharghar": {Count: 3, MeanPrice: 6.5e6, MedianPrice: 6.5e6, MinPrice: 6e6, MaxPrice: 7e6, AvgPricePerSqft: 7647},
			"Vashi":    {Count: 3, MeanPrice: 1e7, MedianPrice: 1e7, MinPrice: 9e6, MaxPrice: 1.1e7, AvgPricePerSqft: 9090},
		},
		FeatureImportance: map[string]float64{"area_sqft": 0.8, "location": 0.2},
		CreatedAt:         time.Now().UTC(),
	}
}

func TestBundleSaveLoadRoundTrip(t *testing.T) {
	b := fittedBundle(t)
	path := filepath.Join(t.TempDir(), "model.bundle")

	require.NoError(t, b.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, b.Features, loaded.Features)
	assert.Equal(t, b.LocationClasses, loaded.LocationClasses)
	assert.Equal(t, b.LocationStats, loaded.LocationStats)
	assert.Equal(t, b.FeatureImportance, loaded.FeatureImportance)

	// The decoded model must predict identically to the original.
	row, err := loaded.Scaler.TransformRow([]float64{0, 900, 2, 2, 4, 10, 6, 1, 1})
	require.NoError(t, err)
	orig, err := b.Scaler.TransformRow([]float64{0, 900, 2, 2, 4, 10, 6, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, b.Model.Predict(orig), loaded.Model.Predict(row))
}

func TestBundleSaveIsAtomic(t *testing.T) {
	b := fittedBundle(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "model.bundle")
	require.NoError(t, b.Save(path))

	// No temp leftovers after publishing.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "model.bundle", entries[0].Name())

	// Overwriting an existing bundle also goes through rename.
	require.NoError(t, b.Save(path))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.NotNil(t, loaded.Model)
}

func TestLoadMissingArtifact(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.bundle"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoadCorruptArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.bundle")
	require.NoError(t, os.WriteFile(path, []byte("not a gob stream"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestValidateMissingFields(t *testing.T) {
	b := fittedBundle(t)
	b.Model = nil
	b.LocationStats = nil

	err := b.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)
	assert.Contains(t, err.Error(), "model")
	assert.Contains(t, err.Error(), "location_stats")
}

func TestValidateRejectsUnfittedModel(t *testing.T) {
	b := fittedBundle(t)
	b.Model = ml.NewGradientBoosting()

	err := b.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)
	assert.Contains(t, err.Error(), "model stages")
}

func TestLoadRejectsUnfittedModel(t *testing.T) {
	// A decodable artifact whose ensemble carries no fitted stages must
	// fail at load time, not at predict time. Encoded by hand since
	// Save refuses to publish it.
	b := fittedBundle(t)
	b.Model = ml.NewGradientBoosting()

	path := filepath.Join(t.TempDir(), "stale.bundle")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, gob.NewEncoder(f).Encode(b))
	require.NoError(t, f.Close())

	_, err = Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestSaveRejectsInvalidBundle(t *testing.T) {
	b := fittedBundle(t)
	b.Scaler = nil
	err := b.Save(filepath.Join(t.TempDir(), "model.bundle"))
	assert.ErrorIs(t, err, ErrMalformed)
}
