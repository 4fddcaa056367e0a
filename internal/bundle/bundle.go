// Package bundle defines the serialized model artifact: everything the
// prediction engine needs to reproduce inference without retraining.
// Bundles are written atomically (write-then-rename) and are immutable
// once loaded.
package bundle

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/propsage/propsage/pkg/ml"
)

// ErrMalformed reports an artifact that exists but is missing required
// bundle fields.
var ErrMalformed = errors.New("malformed model bundle")

func init() {
	// The bundle stores the model behind the Regressor capability so
	// the ensemble family stays swappable; gob needs the concrete
	// types registered.
	gob.Register(&ml.GradientBoosting{})
}

// LocationStats is an immutable per-location price aggregate snapshot
// taken at training time.
type LocationStats struct {
	Count           int     `json:"count"`
	MeanPrice       float64 `json:"mean_price"`
	MedianPrice     float64 `json:"median_price"`
	MinPrice        float64 `json:"min_price"`
	MaxPrice        float64 `json:"max_price"`
	AvgPricePerSqft float64 `json:"avg_price_per_sqft"`
}

// Bundle is the complete model artifact produced by one training run.
type Bundle struct {
	Model           ml.Regressor
	Scaler          *ml.StandardScaler
	LocationEncoder *ml.LabelEncoder

	Features        []string
	Target          string
	LocationClasses []string

	LocationStats     map[string]LocationStats
	TrainMetrics      ml.Metrics
	TestMetrics       ml.Metrics
	FeatureImportance map[string]float64

	CreatedAt time.Time
}

// Validate checks that every required bundle field is present. A bundle
// failing validation must never be published to a serving engine.
func (b *Bundle) Validate() error {
	var missing []string
	if b.Model == nil {
		missing = append(missing, "model")
	} else if m, ok := b.Model.(interface{ Stages() int }); ok && m.Stages() == 0 {
		// A decodable artifact holding an unfitted ensemble would
		// otherwise pass validation and fail only at predict time.
		missing = append(missing, "model stages")
	}
	if b.Scaler == nil {
		missing = append(missing, "scaler")
	}
	if b.LocationEncoder == nil {
		missing = append(missing, "location_encoder")
	}
	if len(b.Features) == 0 {
		missing = append(missing, "features")
	}
	if len(b.LocationClasses) == 0 {
		missing = append(missing, "location_classes")
	}
	if b.LocationStats == nil {
		missing = append(missing, "location_stats")
	}
	if b.FeatureImportance == nil {
		missing = append(missing, "feature_importance")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %v", ErrMalformed, missing)
	}
	return nil
}

// Save writes the bundle to path atomically: the encoded artifact lands
// in a temp file first and is renamed into place, so a reader never
// observes a partially written bundle.
func (b *Bundle) Save(path string) error {
	if err := b.Validate(); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create bundle directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".bundle-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp bundle: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := gob.NewEncoder(tmp).Encode(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode bundle: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync bundle: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close bundle: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish bundle: %w", err)
	}
	return nil
}

// Load reads and validates a bundle from path. The returned error wraps
// fs.ErrNotExist when the artifact is absent and ErrMalformed when it
// exists but fails decoding or validation.
func Load(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bundle: %w", err)
	}
	defer func() { _ = f.Close() }()

	var b Bundle
	if err := gob.NewDecoder(f).Decode(&b); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrMalformed, path, err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}
