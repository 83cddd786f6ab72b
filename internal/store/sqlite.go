package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/example/scriptforge/api-go/internal/model"
)

// SQLite is a Repository on top of database/sql. With the default in-memory
// DSN it lives exactly as long as the process.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One connection serialises writers and keeps a shared-cache memory
	// database alive between calls.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS jobs (
  id TEXT PRIMARY KEY,
  batch_id TEXT,
  kind TEXT NOT NULL,
  title TEXT,
  language TEXT NOT NULL,
  status TEXT NOT NULL,
  script TEXT,
  audio_url TEXT,
  error_message TEXT,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS jobs_status_updated ON jobs (status, updated_at);
CREATE TABLE IF NOT EXISTS batches (
  id TEXT PRIMARY KEY,
  job_ids TEXT NOT NULL,
  total_jobs INTEGER NOT NULL,
  completed_jobs INTEGER NOT NULL DEFAULT 0,
  failed_jobs INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);
`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

const jobColumns = `id, batch_id, kind, title, language, status, script, audio_url, error_message, created_at, updated_at`

func (s *SQLite) CreateJob(ctx context.Context, job model.Job) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (`+jobColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID,
		nullableString(job.BatchID),
		string(job.Kind),
		job.Title,
		job.Language,
		string(job.Status),
		nullableString(job.Script),
		nullableString(job.AudioURL),
		nullableString(job.Error),
		job.CreatedAt.UnixMilli(),
		job.UpdatedAt.UnixMilli(),
	)
	return err
}

func (s *SQLite) GetJob(ctx context.Context, id string) (model.Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Job{}, model.ErrNotFound
	}
	return job, err
}

func (s *SQLite) GetJobs(ctx context.Context, ids []string) ([]model.Job, error) {
	if len(ids) == 0 {
		return []model.Job{}, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]model.Job, len(ids))
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		byID[job.ID] = job
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]model.Job, 0, len(ids))
	for _, id := range ids {
		job, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("job %s: %w", id, model.ErrNotFound)
		}
		out = append(out, job)
	}
	return out, nil
}

func (s *SQLite) ListJobs(ctx context.Context, status *model.JobStatus, limit int) ([]model.Job, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := []any{}
	if status != nil {
		query += " WHERE status = ?"
		args = append(args, string(*status))
	}
	query += " ORDER BY updated_at DESC, id ASC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func (s *SQLite) UpdateJob(ctx context.Context, id string, patch model.JobPatch) (model.Job, error) {
	var status *string
	if patch.Status != nil {
		status = model.Ptr(string(*patch.Status))
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs
         SET updated_at = ?,
             status = COALESCE(?, status),
             script = COALESCE(?, script),
             audio_url = COALESCE(?, audio_url),
             error_message = COALESCE(?, error_message)
         WHERE id = ?`,
		time.Now().UnixMilli(),
		nullableString(status),
		nullableString(patch.Script),
		nullableString(patch.AudioURL),
		nullableString(patch.Error),
		id,
	)
	if err != nil {
		return model.Job{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.Job{}, model.ErrNotFound
	}
	return s.GetJob(ctx, id)
}

func (s *SQLite) CreateBatch(ctx context.Context, batch model.Batch) error {
	ids, err := json.Marshal(batch.JobIDs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO batches (id, job_ids, total_jobs, completed_jobs, failed_jobs, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		batch.ID,
		string(ids),
		batch.TotalJobs,
		batch.CompletedJobs,
		batch.FailedJobs,
		string(batch.Status),
		batch.CreatedAt.UnixMilli(),
		batch.UpdatedAt.UnixMilli(),
	)
	return err
}

func (s *SQLite) GetBatch(ctx context.Context, id string) (model.Batch, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, job_ids, total_jobs, completed_jobs, failed_jobs, status, created_at, updated_at
       FROM batches WHERE id = ?`, id,
	)
	var (
		bid, idsJSON, statusStr  string
		total, completed, failed int
		createdMs, updatedMs     int64
	)
	if err := row.Scan(&bid, &idsJSON, &total, &completed, &failed, &statusStr, &createdMs, &updatedMs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Batch{}, model.ErrNotFound
		}
		return model.Batch{}, err
	}
	var ids []string
	if err := json.Unmarshal([]byte(idsJSON), &ids); err != nil {
		return model.Batch{}, fmt.Errorf("decode job ids for batch %s: %w", bid, err)
	}
	return model.Batch{
		ID:            bid,
		JobIDs:        ids,
		TotalJobs:     total,
		CompletedJobs: completed,
		FailedJobs:    failed,
		Status:        model.BatchStatus(statusStr),
		CreatedAt:     time.UnixMilli(createdMs).UTC(),
		UpdatedAt:     time.UnixMilli(updatedMs).UTC(),
	}, nil
}

func (s *SQLite) UpdateBatch(ctx context.Context, id string, patch model.BatchPatch) (model.Batch, error) {
	var status *string
	if patch.Status != nil {
		status = model.Ptr(string(*patch.Status))
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE batches
         SET updated_at = ?,
             completed_jobs = COALESCE(?, completed_jobs),
             failed_jobs = COALESCE(?, failed_jobs),
             status = COALESCE(?, status)
         WHERE id = ?`,
		time.Now().UnixMilli(),
		nullableInt(patch.CompletedJobs),
		nullableInt(patch.FailedJobs),
		nullableString(status),
		id,
	)
	if err != nil {
		return model.Batch{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.Batch{}, model.ErrNotFound
	}
	return s.GetBatch(ctx, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (model.Job, error) {
	var (
		jid, kind, language, statusStr           string
		batchID, title, script, audioURL, errMsg sql.NullString
		createdMs, updatedMs                     int64
	)
	if err := row.Scan(&jid, &batchID, &kind, &title, &language, &statusStr, &script, &audioURL, &errMsg, &createdMs, &updatedMs); err != nil {
		return model.Job{}, err
	}
	return model.Job{
		ID:        jid,
		BatchID:   fromNull(batchID),
		Kind:      model.JobKind(kind),
		Title:     title.String,
		Language:  language,
		Status:    model.JobStatus(statusStr),
		Script:    fromNull(script),
		AudioURL:  fromNull(audioURL),
		Error:     fromNull(errMsg),
		CreatedAt: time.UnixMilli(createdMs).UTC(),
		UpdatedAt: time.UnixMilli(updatedMs).UTC(),
	}, nil
}

func fromNull(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
