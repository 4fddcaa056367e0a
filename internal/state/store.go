// Package state records training-run history in a local SQLite
// database: when a model was trained, on what data, and how it scored.
// The serving path never depends on it; it exists for operators.
package state

import "time"

// Run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// TrainingRun is one recorded training run.
type TrainingRun struct {
	ID          string
	Environment string
	DataPath    string
	BundlePath  string

	OriginalRows int
	CleanedRows  int

	// MetricsJSON holds the full train/test metrics blob.
	MetricsJSON string
	TestR2      float64
	TestRMSE    float64

	Status      string
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// Store tracks training runs.
type Store interface {
	Open(path string) error
	Close() error
	Migrate() error

	CreateRun(env, dataPath string) (*TrainingRun, error)
	CompleteRun(run *TrainingRun) error
	FailRun(id, errMsg string) error
	GetRun(id string) (*TrainingRun, error)
	ListRuns(limit int) ([]*TrainingRun, error)
}
