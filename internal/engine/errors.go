package engine

import "errors"

var (
	// ErrNotReady reports a prediction attempt before a model bundle
	// has been loaded.
	ErrNotReady = errors.New("engine: model not loaded")

	// ErrBundleNotFound reports a load attempt against a bundle path
	// with no artifact behind it.
	ErrBundleNotFound = errors.New("engine: model bundle not found")

	// ErrUnknownLocation reports a prediction for a location the model
	// was never trained on.
	ErrUnknownLocation = errors.New("engine: unknown location")
)
