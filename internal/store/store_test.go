package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/doccollate/constants"
	"github.com/joseph-ayodele/doccollate/internal/common"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), Config{DSN: filepath.Join(t.TempDir(), "runs.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func fixedClock(start time.Time) func() time.Time {
	now := start
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func TestDialectOf(t *testing.T) {
	tests := []struct {
		dsn     string
		dialect Dialect
		rest    string
	}{
		{"postgres://u:p@localhost/db", DialectPostgres, "postgres://u:p@localhost/db"},
		{"postgresql://localhost/db", DialectPostgres, "postgresql://localhost/db"},
		{"sqlite:///tmp/runs.db", DialectSQLite, "/tmp/runs.db"},
		{"runs.db", DialectSQLite, "runs.db"},
	}
	for _, tt := range tests {
		d, rest := DialectOf(tt.dsn)
		assert.Equal(t, tt.dialect, d, tt.dsn)
		assert.Equal(t, tt.rest, rest, tt.dsn)
	}
}

func TestRebind(t *testing.T) {
	pg := &DB{dialect: DialectPostgres}
	assert.Equal(t, "UPDATE t SET a = $1 WHERE id = $2", pg.rebind("UPDATE t SET a = ? WHERE id = ?"))
	lite := &DB{dialect: DialectSQLite}
	assert.Equal(t, "SELECT ?", lite.rebind("SELECT ?"))
}

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), Config{}, nil)
	assert.True(t, common.IsConfiguration(err))
}

func TestRunLifecycle(t *testing.T) {
	db := openTestDB(t)
	repo := NewRunRepository(db, nil)
	repo.(*runRepo).now = fixedClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	run, err := repo.Start(ctx, "/in/a.docx", "copyright", "abc")
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusRunning, run.Status)

	require.NoError(t, repo.MarkTextOK(ctx, run.ID, constants.DOCX))
	require.NoError(t, repo.FinishSuccess(ctx, run.ID, 2, map[string]string{"soft__name": "考勤系统"}))

	got, err := repo.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusOK, got.Status)
	assert.Equal(t, constants.DOCX, got.SourceType)
	assert.Equal(t, 2, got.FieldCount)
	assert.JSONEq(t, `{"soft__name":"考勤系统"}`, string(got.ResultJSON))
	require.NotNil(t, got.FinishedAt)
	assert.Equal(t, 2*time.Second, got.Elapsed())
	assert.Nil(t, got.ErrorMessage)

	err = repo.FinishFailure(ctx, run.ID, "late failure")
	assert.ErrorIs(t, err, ErrRunClosed)
}

func TestRunFailure(t *testing.T) {
	repo := NewRunRepository(openTestDB(t), nil)
	ctx := context.Background()

	run, err := repo.Start(ctx, "/in/b.pdf", "test_forms", "")
	require.NoError(t, err)
	require.NoError(t, repo.FinishFailure(ctx, run.ID, "DOCUMENT_READ: read b.pdf"))

	got, err := repo.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusFailed, got.Status)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, "DOCUMENT_READ: read b.pdf", *got.ErrorMessage)
	assert.True(t, got.Status.Terminal())
}

func TestRunUnknown(t *testing.T) {
	repo := NewRunRepository(openTestDB(t), nil)
	_, err := repo.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)

	err = repo.FinishFailure(context.Background(), uuid.New(), "x")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	repo := NewRunRepository(openTestDB(t), nil)
	repo.(*runRepo).now = fixedClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	for _, p := range []string{"a.md", "b.md", "c.md"} {
		_, err := repo.Start(ctx, p, "copyright", "")
		require.NoError(t, err)
	}
	runs, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c.md", runs[0].Path)
	assert.Equal(t, "b.md", runs[1].Path)
}
