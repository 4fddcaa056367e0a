package state

import (
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite-backed run store.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// Open opens the SQLite database at path. Use ":memory:" for an
// in-memory store.
func (s *SQLiteStore) Open(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open run store: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping run store: %w", err)
	}
	s.db = db
	s.path = path
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs all pending schema migrations.
func (s *SQLiteStore) Migrate() error {
	if s.db == nil {
		return fmt.Errorf("run store not opened")
	}
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.Up(s.db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// CreateRun inserts a new run in the running state.
func (s *SQLiteStore) CreateRun(env, dataPath string) (*TrainingRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("run store not opened")
	}
	run := &TrainingRun{
		ID:          uuid.New().String(),
		Environment: env,
		DataPath:    dataPath,
		Status:      RunStatusRunning,
		StartedAt:   time.Now().UTC(),
	}
	_, err := s.db.Exec(
		`INSERT INTO training_runs (id, environment, data_path, status, started_at)
		 VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Environment, run.DataPath, run.Status, run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	s.logger.Debug("created training run", "run_id", run.ID, "environment", env)
	return run, nil
}

// CompleteRun marks the run completed and stores its results.
func (s *SQLiteStore) CompleteRun(run *TrainingRun) error {
	if s.db == nil {
		return fmt.Errorf("run store not opened")
	}
	now := time.Now().UTC()
	run.Status = RunStatusCompleted
	run.CompletedAt = &now

	res, err := s.db.Exec(
		`UPDATE training_runs
		 SET bundle_path = ?, original_rows = ?, cleaned_rows = ?,
		     metrics_json = ?, test_r2 = ?, test_rmse = ?,
		     status = ?, completed_at = ?
		 WHERE id = ?`,
		run.BundlePath, run.OriginalRows, run.CleanedRows,
		run.MetricsJSON, run.TestR2, run.TestRMSE,
		run.Status, run.CompletedAt, run.ID,
	)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("complete run: run %s not found", run.ID)
	}
	return nil
}

// FailRun marks the run failed with an error message.
func (s *SQLiteStore) FailRun(id, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("run store not opened")
	}
	_, err := s.db.Exec(
		`UPDATE training_runs SET status = ?, error = ?, completed_at = ? WHERE id = ?`,
		RunStatusFailed, errMsg, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("fail run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*TrainingRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("run store not opened")
	}
	row := s.db.QueryRow(
		`SELECT id, environment, data_path, bundle_path, original_rows,
		        cleaned_rows, metrics_json, test_r2, test_rmse, status,
		        error, started_at, completed_at
		 FROM training_runs WHERE id = ?`, id)
	return scanRun(row)
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(limit int) ([]*TrainingRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("run store not opened")
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, environment, data_path, bundle_path, original_rows,
		        cleaned_rows, metrics_json, test_r2, test_rmse, status,
		        error, started_at, completed_at
		 FROM training_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*TrainingRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// scannable covers both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*TrainingRun, error) {
	run := &TrainingRun{}
	var completedAt sql.NullTime
	err := row.Scan(
		&run.ID, &run.Environment, &run.DataPath, &run.BundlePath,
		&run.OriginalRows, &run.CleanedRows, &run.MetricsJSON,
		&run.TestR2, &run.TestRMSE, &run.Status, &run.Error,
		&run.StartedAt, &completedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("training run not found")
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	return run, nil
}
