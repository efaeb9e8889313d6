package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/resolver-cli/internal/model"
	"github.com/sells-group/resolver-cli/internal/scrape"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS jobs (
	id            TEXT PRIMARY KEY,
	input         TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'pending',
	record        TEXT,
	error_message TEXT,
	started_at    DATETIME,
	completed_at  DATETIME,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS page_cache (
	id         TEXT PRIMARY KEY,
	url        TEXT NOT NULL,
	page       TEXT NOT NULL,
	fetched_at DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);
CREATE INDEX IF NOT EXISTS idx_page_cache_url ON page_cache(url);
CREATE INDEX IF NOT EXISTS idx_page_cache_expires_at ON page_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateJob(ctx context.Context, input model.CompanyInput) (*model.Job, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	inputJSON, err := json.Marshal(input)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal input")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, input, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(inputJSON), string(model.JobPending), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert job")
	}

	return &model.Job{
		ID:        id,
		Input:     input,
		Status:    model.JobPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus, errorMessage string) error {
	now := time.Now().UTC()
	query := `UPDATE jobs SET status = ?, error_message = ?, updated_at = ?`
	args := []any{string(status), model.TruncateError(errorMessage), now}

	switch status {
	case model.JobProcessing:
		query += `, started_at = ?`
		args = append(args, now)
	case model.JobCompleted, model.JobFailed:
		query += `, completed_at = ?`
		args = append(args, now)
	}
	query += ` WHERE id = ?`
	args = append(args, jobID)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update job status %s", jobID)
	}
	return checkRowsAffected(res, "job", jobID)
}

func (s *SQLiteStore) SaveRecord(ctx context.Context, jobID string, record *model.ResolvedRecord) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal record")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET record = ?, updated_at = ? WHERE id = ?`,
		string(recordJSON), time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save record %s", jobID)
	}
	return checkRowsAffected(res, "job", jobID)
}

func (s *SQLiteStore) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, input, status, record, error_message, started_at, completed_at, created_at, updated_at
		 FROM jobs WHERE id = ?`,
		jobID,
	)
	return scanJob(row)
}

func (s *SQLiteStore) ListJobs(ctx context.Context, filter JobFilter) ([]model.Job, error) {
	query := `SELECT id, input, status, record, error_message, started_at, completed_at, created_at, updated_at
	 FROM jobs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list jobs")
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, eris.Wrap(rows.Err(), "sqlite: list jobs iterate")
}

func (s *SQLiteStore) GetCachedPage(ctx context.Context, url string) (*scrape.Result, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT page FROM page_cache
		 WHERE url = ? AND expires_at > datetime('now')
		 ORDER BY fetched_at DESC LIMIT 1`,
		url,
	)

	var pageJSON string
	err := row.Scan(&pageJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cached page")
	}

	var page scrape.Result
	if err := json.Unmarshal([]byte(pageJSON), &page); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal cached page")
	}
	return &page, nil
}

func (s *SQLiteStore) SetCachedPage(ctx context.Context, url string, page *scrape.Result, ttl time.Duration) error {
	id := uuid.New().String()
	now := time.Now().UTC()

	pageJSON, err := json.Marshal(page)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal page")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO page_cache (id, url, page, fetched_at, expires_at) VALUES (?, ?, ?, ?, ?)`,
		id, url, string(pageJSON), now, now.Add(ttl),
	)
	return eris.Wrap(err, "sqlite: set cached page")
}

func (s *SQLiteStore) DeleteExpiredPages(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM page_cache WHERE expires_at <= datetime('now')`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired pages")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanJob(row scannable) (*model.Job, error) {
	var j model.Job
	var inputJSON string
	var recordJSON, errorMessage sql.NullString
	var startedAt, completedAt sql.NullTime

	err := row.Scan(&j.ID, &inputJSON, &j.Status, &recordJSON, &errorMessage,
		&startedAt, &completedAt, &j.CreatedAt, &j.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan job")
	}

	if err := json.Unmarshal([]byte(inputJSON), &j.Input); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal input")
	}
	if recordJSON.Valid && recordJSON.String != "" {
		j.Record = &model.ResolvedRecord{}
		if err := json.Unmarshal([]byte(recordJSON.String), j.Record); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal record")
		}
	}
	if errorMessage.Valid {
		j.ErrorMessage = errorMessage.String
	}
	if startedAt.Valid {
		j.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		j.CompletedAt = &completedAt.Time
	}
	return &j, nil
}
