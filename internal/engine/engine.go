// Package engine serves price predictions from a loaded model bundle.
// The engine holds the bundle behind an atomic pointer so a reload
// swaps the model without blocking in-flight predictions.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"gonum.org/v1/gonum/stat"

	"github.com/propsage/propsage/internal/bundle"
	"github.com/propsage/propsage/internal/dataset"
	"github.com/propsage/propsage/pkg/clean"
	"github.com/propsage/propsage/pkg/ml"
)

// Uncertainty model parameters. Confidence is derived from the spread
// of the last boosting stages relative to the final estimate, then
// widened into a price band.
const (
	stagedWindow  = 20
	relVolatility = 0.15
	minConfidence = 0.5
	baseMargin    = 0.08
	marginSpread  = 0.04
)

// Config holds engine configuration.
type Config struct {
	// BundlePath is the model artifact the engine serves from.
	BundlePath string
	// Logger is optional; a discard logger is used when nil.
	Logger *slog.Logger
}

// PropertyInput is a fully validated property description. Boundary
// validation happens at the transport layer; the engine only rejects
// what it cannot encode.
type PropertyInput struct {
	Location      string  `json:"location"`
	AreaSqft      float64 `json:"area_sqft"`
	BHK           int     `json:"bhk"`
	Bathrooms     int     `json:"bathrooms"`
	Floor         int     `json:"floor"`
	TotalFloors   int     `json:"total_floors"`
	AgeOfProperty float64 `json:"age_of_property"`
	Parking       bool    `json:"parking"`
	Lift          bool    `json:"lift"`
}

// PriceRange is the uncertainty band around an estimate.
type PriceRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Prediction is one price estimate with its uncertainty band and the
// training-time context for the property's location.
type Prediction struct {
	PredictedPrice    float64               `json:"predicted_price"`
	PriceRange        PriceRange            `json:"price_range"`
	Confidence        float64               `json:"confidence_score"`
	PricePerSqft      float64               `json:"price_per_sqft"`
	LocationContext   *bundle.LocationStats `json:"location_context,omitempty"`
	FeatureImportance map[string]float64    `json:"feature_importance,omitempty"`
	Input             PropertyInput         `json:"input_echo"`
}

// ModelInfo describes the currently loaded model.
type ModelInfo struct {
	ModelType         string             `json:"model_type"`
	Features          []string           `json:"features"`
	Target            string             `json:"target"`
	LocationClasses   []string           `json:"location_classes"`
	TrainMetrics      ml.Metrics         `json:"train_metrics"`
	TestMetrics       ml.Metrics         `json:"test_metrics"`
	FeatureImportance map[string]float64 `json:"feature_importance"`
	CreatedAt         time.Time          `json:"created_at"`
}

// Engine serves predictions from an atomically swappable bundle.
type Engine struct {
	cfg    Config
	logger *slog.Logger

	current atomic.Pointer[bundle.Bundle]
}

// New creates an engine. The bundle is not loaded until Load is called,
// so a server can come up healthy-but-unready before its first model
// is trained.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Load reads the configured bundle and swaps it in. In-flight
// predictions keep using the previous bundle until the swap completes.
func (e *Engine) Load() error {
	b, err := bundle.Load(e.cfg.BundlePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrBundleNotFound, e.cfg.BundlePath)
		}
		return err
	}
	e.current.Store(b)
	e.logger.Info("model bundle loaded",
		"path", e.cfg.BundlePath,
		"locations", len(b.LocationClasses),
		"trained_at", b.CreatedAt)
	return nil
}

// IsReady reports whether a model is loaded.
func (e *Engine) IsReady() bool { return e.current.Load() != nil }

// Predict estimates the price of one property.
func (e *Engine) Predict(input PropertyInput) (*Prediction, error) {
	b := e.current.Load()
	if b == nil {
		return nil, ErrNotReady
	}

	location, ok := clean.Location(input.Location)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLocation, input.Location)
	}
	code, err := b.LocationEncoder.Transform(location)
	if err != nil {
		// Canonical for the region but absent from training data.
		return nil, fmt.Errorf("%w: %q", ErrUnknownLocation, location)
	}
	input.Location = location

	row := dataset.Record{
		Location:      location,
		AreaSqft:      input.AreaSqft,
		BHK:           input.BHK,
		Bathrooms:     input.Bathrooms,
		Floor:         input.Floor,
		TotalFloors:   input.TotalFloors,
		AgeOfProperty: input.AgeOfProperty,
		Parking:       boolToInt(input.Parking),
		Lift:          boolToInt(input.Lift),
	}.FeatureRow(code)

	scaled, err := b.Scaler.TransformRow(row)
	if err != nil {
		return nil, fmt.Errorf("engine: scale input: %w", err)
	}

	staged := b.Model.StagedPredict(scaled)
	if len(staged) == 0 {
		return nil, fmt.Errorf("engine: model has no fitted stages")
	}
	estimate := staged[len(staged)-1]

	confidence := stagedConfidence(staged, estimate)
	margin := baseMargin + (1-confidence)*marginSpread

	pred := &Prediction{
		PredictedPrice: ml.Round(estimate, 0),
		PriceRange: PriceRange{
			Low:  ml.Round(estimate*(1-margin), 0),
			High: ml.Round(estimate*(1+margin), 0),
		},
		Confidence:        ml.Round(confidence, 2),
		PricePerSqft:      ml.Round(estimate/input.AreaSqft, 0),
		FeatureImportance: b.FeatureImportance,
		Input:             input,
	}
	if stats, ok := b.LocationStats[location]; ok {
		pred.LocationContext = &stats
	}
	return pred, nil
}

// stagedConfidence scores how settled the ensemble is: a model whose
// late boosting stages still move the estimate gets a lower score.
// The score is clamped to [0.5, 1.0].
func stagedConfidence(staged []float64, estimate float64) float64 {
	window := staged
	if len(window) > stagedWindow {
		window = window[len(window)-stagedWindow:]
	}
	sigma := stat.PopStdDev(window, nil)

	if estimate <= 0 {
		return minConfidence
	}
	confidence := 1 - sigma/(estimate*relVolatility)
	if confidence < minConfidence {
		confidence = minConfidence
	}
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}

// Locations returns the locations the loaded model can price, with
// their training-time stats.
func (e *Engine) Locations() ([]string, map[string]bundle.LocationStats, error) {
	b := e.current.Load()
	if b == nil {
		return nil, nil, ErrNotReady
	}
	names := make([]string, len(b.LocationClasses))
	copy(names, b.LocationClasses)
	return names, b.LocationStats, nil
}

// Info describes the loaded model.
func (e *Engine) Info() (*ModelInfo, error) {
	b := e.current.Load()
	if b == nil {
		return nil, ErrNotReady
	}
	return &ModelInfo{
		ModelType:         "GradientBoostingRegressor",
		Features:          b.Features,
		Target:            b.Target,
		LocationClasses:   b.LocationClasses,
		TrainMetrics:      b.TrainMetrics,
		TestMetrics:       b.TestMetrics,
		FeatureImportance: b.FeatureImportance,
		CreatedAt:         b.CreatedAt,
	}, nil
}

// Watch reloads the bundle whenever the artifact changes on disk, until
// ctx is done. The bundle directory is watched rather than the file
// itself because publishes land via rename.
func (e *Engine) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("engine: create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(e.cfg.BundlePath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("engine: watch %s: %w", dir, err)
	}
	target := filepath.Clean(e.cfg.BundlePath)
	e.logger.Info("watching for bundle updates", "path", target)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := e.Load(); err != nil {
				e.logger.Error("bundle reload failed", "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.logger.Error("bundle watcher error", "error", err)
		}
	}
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
