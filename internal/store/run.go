package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/doccollate/constants"
	"github.com/joseph-ayodele/doccollate/internal/common"
	"github.com/joseph-ayodele/doccollate/internal/entity"
)

// ErrRunClosed is returned when a finished run is updated again.
var ErrRunClosed = errors.New("run already finished")

type RunRepository interface {
	Start(ctx context.Context, path, target, contentHash string) (*entity.Run, error)
	MarkTextOK(ctx context.Context, id uuid.UUID, sourceType string) error
	FinishSuccess(ctx context.Context, id uuid.UUID, fieldCount int, result any) error
	FinishFailure(ctx context.Context, id uuid.UUID, message string) error
	Get(ctx context.Context, id uuid.UUID) (*entity.Run, error)
	List(ctx context.Context, limit int) ([]entity.Run, error)
}

type runRepo struct {
	db  *DB
	log *slog.Logger
	now func() time.Time
}

func NewRunRepository(db *DB, log *slog.Logger) RunRepository {
	if log == nil {
		log = slog.Default()
	}
	return &runRepo{db: db, log: log, now: time.Now}
}

// fixed width so that text ordering matches time ordering
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func (r *runRepo) Start(ctx context.Context, path, target, contentHash string) (*entity.Run, error) {
	run := &entity.Run{
		ID:          uuid.New(),
		Path:        path,
		Target:      target,
		ContentHash: contentHash,
		Status:      constants.RunStatusRunning,
		StartedAt:   r.now().UTC(),
	}
	_, err := r.db.ExecContext(ctx, r.db.rebind(
		`INSERT INTO extraction_run (id, path, target, content_hash, status, started_at) VALUES (?, ?, ?, ?, ?, ?)`),
		run.ID.String(), run.Path, run.Target, run.ContentHash, string(run.Status), run.StartedAt.Format(timeLayout))
	if err != nil {
		r.log.Error("store.run.start.failed", "path", path, "error", err)
		return nil, common.NewAppError(common.CodeStore, "start run", err)
	}
	r.log.Info("store.run.started", "run_id", run.ID, "path", path, "target", target)
	return run, nil
}

func (r *runRepo) MarkTextOK(ctx context.Context, id uuid.UUID, sourceType string) error {
	return r.update(ctx, id, constants.RunStatusTextOK,
		`UPDATE extraction_run SET status = ?, source_type = ? WHERE id = ? AND status = ?`,
		string(constants.RunStatusTextOK), sourceType, id.String(), string(constants.RunStatusRunning))
}

func (r *runRepo) FinishSuccess(ctx context.Context, id uuid.UUID, fieldCount int, result any) error {
	var payload sql.NullString
	if result != nil {
		b, err := json.Marshal(result)
		if err != nil {
			return common.NewAppError(common.CodeStore, "encode result", err)
		}
		payload = sql.NullString{String: string(b), Valid: true}
	}
	return r.update(ctx, id, constants.RunStatusOK,
		`UPDATE extraction_run SET status = ?, finished_at = ?, field_count = ?, result_json = ? WHERE id = ? AND status IN (?, ?)`,
		string(constants.RunStatusOK), r.now().UTC().Format(timeLayout), fieldCount, payload, id.String(),
		string(constants.RunStatusRunning), string(constants.RunStatusTextOK))
}

func (r *runRepo) FinishFailure(ctx context.Context, id uuid.UUID, message string) error {
	return r.update(ctx, id, constants.RunStatusFailed,
		`UPDATE extraction_run SET status = ?, finished_at = ?, error_message = ? WHERE id = ? AND status IN (?, ?)`,
		string(constants.RunStatusFailed), r.now().UTC().Format(timeLayout), message, id.String(),
		string(constants.RunStatusRunning), string(constants.RunStatusTextOK))
}

// update applies a guarded transition; zero affected rows means the run is
// unknown or already terminal.
func (r *runRepo) update(ctx context.Context, id uuid.UUID, to constants.RunStatus, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, r.db.rebind(query), args...)
	if err != nil {
		r.log.Error("store.run.update.failed", "run_id", id, "status", to, "error", err)
		return common.NewAppError(common.CodeStore, fmt.Sprintf("set run %s", to), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return common.NewAppError(common.CodeStore, "rows affected", err)
	}
	if n == 0 {
		if _, gerr := r.Get(ctx, id); gerr != nil {
			return gerr
		}
		r.log.Warn("store.run.update.rejected", "run_id", id, "status", to)
		return common.NewAppError(common.CodeStore, fmt.Sprintf("set run %s", to), ErrRunClosed)
	}
	r.log.Info("store.run.updated", "run_id", id, "status", to)
	return nil
}

const runColumns = `id, path, target, content_hash, source_type, status, started_at, finished_at, error_message, field_count, result_json`

func (r *runRepo) Get(ctx context.Context, id uuid.UUID) (*entity.Run, error) {
	row := r.db.QueryRowContext(ctx, r.db.rebind(`SELECT `+runColumns+` FROM extraction_run WHERE id = ?`), id.String())
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError(common.CodeStore, "run "+id.String(), common.ErrNotFound)
	}
	if err != nil {
		return nil, common.NewAppError(common.CodeStore, "get run", err)
	}
	return run, nil
}

// List returns the most recent runs first.
func (r *runRepo) List(ctx context.Context, limit int) ([]entity.Run, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, r.db.rebind(`SELECT `+runColumns+` FROM extraction_run ORDER BY started_at DESC LIMIT ?`), limit)
	if err != nil {
		return nil, common.NewAppError(common.CodeStore, "list runs", err)
	}
	defer rows.Close()

	var out []entity.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, common.NewAppError(common.CodeStore, "scan run", err)
		}
		out = append(out, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewAppError(common.CodeStore, "list runs", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*entity.Run, error) {
	var (
		run                 entity.Run
		id, status, started string
		finished, errMsg    sql.NullString
		result              sql.NullString
	)
	if err := s.Scan(&id, &run.Path, &run.Target, &run.ContentHash, &run.SourceType, &status,
		&started, &finished, &errMsg, &run.FieldCount, &result); err != nil {
		return nil, err
	}
	var err error
	if run.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("run id: %w", err)
	}
	run.Status = constants.RunStatus(status)
	if run.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return nil, fmt.Errorf("started_at: %w", err)
	}
	if finished.Valid {
		t, err := time.Parse(timeLayout, finished.String)
		if err != nil {
			return nil, fmt.Errorf("finished_at: %w", err)
		}
		run.FinishedAt = &t
	}
	if errMsg.Valid {
		run.ErrorMessage = &errMsg.String
	}
	if result.Valid {
		run.ResultJSON = json.RawMessage(result.String)
	}
	return &run, nil
}
