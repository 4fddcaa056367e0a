// Package trainer fits the price model end to end: cleaned dataset in,
// published model bundle plus metadata snapshot out. Training is an
// offline, single-writer batch process; it never runs inside the
// serving path.
package trainer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/propsage/propsage/internal/bundle"
	"github.com/propsage/propsage/internal/dataset"
	"github.com/propsage/propsage/internal/state"
	"github.com/propsage/propsage/pkg/ml"
)

// Artifact file names inside the output directory.
const (
	BundleFileName   = "price_model.bundle"
	MetadataFileName = "model_metadata.json"
)

// Split parameters: 20% held-out test set with a fixed partition seed
// for reproducibility.
const (
	testFraction = 0.2
	splitSeed    = 42
)

// Config holds trainer configuration.
type Config struct {
	// OutputDir receives the bundle and metadata snapshot.
	OutputDir string
	// StatePath is the SQLite run-history database. Empty disables
	// run tracking.
	StatePath string
	// Environment tags recorded runs (dev, staging, prod).
	Environment string
	// Logger is optional; a discard logger is used when nil.
	Logger *slog.Logger
}

// Result summarizes one completed training run.
type Result struct {
	RunID        string
	BundlePath   string
	MetadataPath string

	Stats             *dataset.Stats
	TrainRows         int
	TestRows          int
	Stages            int
	TrainMetrics      ml.Metrics
	TestMetrics       ml.Metrics
	FeatureImportance map[string]float64
	LocationStats     map[string]bundle.LocationStats
}

// Trainer runs training jobs and records them in the run store.
type Trainer struct {
	cfg    Config
	logger *slog.Logger
	store  state.Store
}

// New creates a trainer, opening the run store when configured.
func New(cfg Config) (*Trainer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	t := &Trainer{cfg: cfg, logger: logger}

	if cfg.StatePath != "" {
		if dir := filepath.Dir(cfg.StatePath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create state directory: %w", err)
			}
		}
		store := state.NewSQLiteStore(logger)
		if err := store.Open(cfg.StatePath); err != nil {
			return nil, fmt.Errorf("open run store: %w", err)
		}
		if err := store.Migrate(); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("migrate run store: %w", err)
		}
		t.store = store
	}
	return t, nil
}

// Close releases the run store.
func (t *Trainer) Close() error {
	if t.store != nil {
		return t.store.Close()
	}
	return nil
}

// Train cleans the raw CSV at dataPath, fits the full pipeline and
// atomically publishes the model bundle.
func (t *Trainer) Train(ctx context.Context, dataPath string) (*Result, error) {
	var run *state.TrainingRun
	if t.store != nil {
		var err error
		run, err = t.store.CreateRun(t.cfg.Environment, dataPath)
		if err != nil {
			return nil, err
		}
	}

	res, err := t.train(ctx, dataPath)
	if t.store != nil && run != nil {
		if err != nil {
			_ = t.store.FailRun(run.ID, err.Error())
		} else {
			run.BundlePath = res.BundlePath
			run.OriginalRows = res.Stats.OriginalRows
			run.CleanedRows = res.Stats.CleanedRows
			run.TestR2 = res.TestMetrics.R2
			run.TestRMSE = res.TestMetrics.RMSE
			if blob, jsonErr := json.Marshal(map[string]ml.Metrics{
				"train": res.TrainMetrics,
				"test":  res.TestMetrics,
			}); jsonErr == nil {
				run.MetricsJSON = string(blob)
			}
			if storeErr := t.store.CompleteRun(run); storeErr != nil {
				t.logger.Warn("failed to record training run", "run_id", run.ID, "error", storeErr)
			}
			res.RunID = run.ID
		}
	}
	return res, err
}

func (t *Trainer) train(ctx context.Context, dataPath string) (*Result, error) {
	t.logger.Info("loading dataset", "path", dataPath)
	table, err := dataset.Load(dataPath)
	if err != nil {
		return nil, err
	}

	records, stats, err := dataset.Preprocess(table, t.logger)
	if err != nil {
		return nil, err
	}
	if len(records) < 10 {
		return nil, fmt.Errorf("trainer: only %d rows survived cleaning, not enough to fit", len(records))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Encode location over the cleaned vocabulary. Inference against a
	// location absent from training data must fail, so the encoder is
	// fit here and nowhere else.
	var encoder ml.LabelEncoder
	locations := make([]string, len(records))
	for i, r := range records {
		locations[i] = r.Location
	}
	encoder.Fit(locations)

	X := make([][]float64, len(records))
	y := make([]float64, len(records))
	for i, r := range records {
		code, err := encoder.Transform(r.Location)
		if err != nil {
			return nil, fmt.Errorf("trainer: encode %q: %w", r.Location, err)
		}
		X[i] = r.FeatureRow(code)
		y[i] = r.ActualPrice
	}

	XTrain, XTest, yTrain, yTest, err := ml.TrainTestSplit(X, y, testFraction, splitSeed)
	if err != nil {
		return nil, err
	}
	t.logger.Info("split dataset", "train_rows", len(XTrain), "test_rows", len(XTest))

	// Scaler is fit on the train split only; the test split and every
	// serving request go through the same fitted transform.
	var scaler ml.StandardScaler
	trainScaled, err := scaler.FitTransform(XTrain)
	if err != nil {
		return nil, err
	}
	testScaled, err := scaler.Transform(XTest)
	if err != nil {
		return nil, err
	}

	model := ml.NewGradientBoosting()
	t.logger.Info("training gradient boosting regressor",
		"stages", model.NEstimators, "learning_rate", model.LearningRate, "max_depth", model.MaxDepth)
	if err := model.Fit(trainScaled, yTrain); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	trainPred := predictAll(model, trainScaled)
	testPred := predictAll(model, testScaled)

	trainMetrics, err := ml.Evaluate(yTrain, trainPred)
	if err != nil {
		return nil, err
	}
	testMetrics, err := ml.Evaluate(yTest, testPred)
	if err != nil {
		return nil, err
	}
	t.logger.Info("evaluated model",
		"train_r2", trainMetrics.R2, "test_r2", testMetrics.R2,
		"test_rmse", testMetrics.RMSE, "test_mape", testMetrics.MAPE)

	features := dataset.FeatureColumns()
	importance := make(map[string]float64, len(features))
	for i, v := range model.FeatureImportances() {
		importance[features[i]] = ml.Round(v, 4)
	}

	// Location stats come from the full cleaned dataset, not just the
	// train split.
	locationStats := computeLocationStats(records)

	b := &bundle.Bundle{
		Model:             model,
		Scaler:            &scaler,
		LocationEncoder:   &encoder,
		Features:          features,
		Target:            dataset.TargetColumn(),
		LocationClasses:   encoder.Classes,
		LocationStats:     locationStats,
		TrainMetrics:      trainMetrics,
		TestMetrics:       testMetrics,
		FeatureImportance: importance,
		CreatedAt:         time.Now().UTC(),
	}

	bundlePath := filepath.Join(t.cfg.OutputDir, BundleFileName)
	if err := b.Save(bundlePath); err != nil {
		return nil, err
	}
	t.logger.Info("published model bundle", "path", bundlePath)

	metadataPath := filepath.Join(t.cfg.OutputDir, MetadataFileName)
	if err := writeMetadata(metadataPath, b, stats); err != nil {
		return nil, err
	}

	return &Result{
		BundlePath:        bundlePath,
		MetadataPath:      metadataPath,
		Stats:             stats,
		TrainRows:         len(XTrain),
		TestRows:          len(XTest),
		Stages:            len(model.Trees),
		TrainMetrics:      trainMetrics,
		TestMetrics:       testMetrics,
		FeatureImportance: importance,
		LocationStats:     locationStats,
	}, nil
}

func predictAll(model ml.Regressor, X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = model.Predict(row)
	}
	return out
}

// metadataSnapshot mirrors the bundle's metrics and stats as
// human-readable JSON for inspection tooling. The engine never reads
// it back.
type metadataSnapshot struct {
	ModelType         string                          `json:"model_type"`
	Features          []string                        `json:"features"`
	Target            string                          `json:"target"`
	LocationClasses   []string                        `json:"location_classes"`
	TrainMetrics      ml.Metrics                      `json:"train_metrics"`
	TestMetrics       ml.Metrics                      `json:"test_metrics"`
	FeatureImportance map[string]float64              `json:"feature_importance"`
	LocationStats     map[string]bundle.LocationStats `json:"location_stats"`
	DatasetStats      *dataset.Stats                  `json:"dataset_stats"`
	CreatedAt         time.Time                       `json:"created_at"`
}

func writeMetadata(path string, b *bundle.Bundle, stats *dataset.Stats) error {
	snapshot := metadataSnapshot{
		ModelType:         "GradientBoostingRegressor",
		Features:          b.Features,
		Target:            b.Target,
		LocationClasses:   b.LocationClasses,
		TrainMetrics:      b.TrainMetrics,
		TestMetrics:       b.TestMetrics,
		FeatureImportance: b.FeatureImportance,
		LocationStats:     b.LocationStats,
		DatasetStats:      stats,
		CreatedAt:         b.CreatedAt,
	}
	blob, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}
