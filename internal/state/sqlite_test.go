package state

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(filepath.Join(t.TempDir(), "runs.db")))
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCreateAndGetRun(t *testing.T) {
	store := openStore(t)

	run, err := store.CreateRun("dev", "data/listings.csv")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, RunStatusRunning, run.Status)

	got, err := store.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "dev", got.Environment)
	assert.Equal(t, "data/listings.csv", got.DataPath)
	assert.Nil(t, got.CompletedAt)
}

func TestCompleteRun(t *testing.T) {
	store := openStore(t)

	run, err := store.CreateRun("dev", "data/listings.csv")
	require.NoError(t, err)

	run.BundlePath = "models/price_model.bundle"
	run.OriginalRows = 2500
	run.CleanedRows = 2100
	run.MetricsJSON = `{"test":{"r2_score":0.91}}`
	run.TestR2 = 0.91
	run.TestRMSE = 350000
	require.NoError(t, store.CompleteRun(run))

	got, err := store.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, got.Status)
	assert.Equal(t, 2100, got.CleanedRows)
	assert.Equal(t, 0.91, got.TestR2)
	require.NotNil(t, got.CompletedAt)
}

func TestCompleteRunUnknownID(t *testing.T) {
	store := openStore(t)
	err := store.CompleteRun(&TrainingRun{ID: "no-such-run"})
	assert.Error(t, err)
}

func TestFailRun(t *testing.T) {
	store := openStore(t)

	run, err := store.CreateRun("dev", "data/listings.csv")
	require.NoError(t, err)
	require.NoError(t, store.FailRun(run.ID, "dataset empty after cleaning"))

	got, err := store.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusFailed, got.Status)
	assert.Equal(t, "dataset empty after cleaning", got.Error)
}

func TestListRunsNewestFirst(t *testing.T) {
	store := openStore(t)

	first, err := store.CreateRun("dev", "a.csv")
	require.NoError(t, err)
	second, err := store.CreateRun("prod", "b.csv")
	require.NoError(t, err)

	runs, err := store.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	// Same-timestamp ties aside, both runs must be present.
	ids := []string{runs[0].ID, runs[1].ID}
	assert.Contains(t, ids, first.ID)
	assert.Contains(t, ids, second.ID)
}

func TestListRunsDefaultLimit(t *testing.T) {
	store := openStore(t)
	runs, err := store.ListRuns(0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestStoreNotOpened(t *testing.T) {
	store := NewSQLiteStore(nil)
	_, err := store.CreateRun("dev", "x.csv")
	assert.Error(t, err)
	_, err = store.ListRuns(5)
	assert.Error(t, err)
	assert.Error(t, store.Migrate())
}

// Driver-level failures surface wrapped, not swallowed.
func TestCreateRunQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("INSERT INTO training_runs").
		WillReturnError(assert.AnError)

	store := &SQLiteStore{db: db, logger: discardLogger()}
	_, err = store.CreateRun("dev", "x.csv")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRunQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT .+ FROM training_runs").
		WillReturnError(assert.AnError)

	store := &SQLiteStore{db: db, logger: discardLogger()}
	_, err = store.GetRun("some-id")
	assert.Error(t, err)
}
