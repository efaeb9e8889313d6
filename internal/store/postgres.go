package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/resolver-cli/internal/model"
	"github.com/sells-group/resolver-cli/internal/scrape"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it in
// tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool, used by tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS jobs (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	input         JSONB NOT NULL,
	status        TEXT NOT NULL DEFAULT 'pending',
	record        JSONB,
	error_message TEXT,
	started_at    TIMESTAMPTZ,
	completed_at  TIMESTAMPTZ,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS page_cache (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	url        TEXT NOT NULL UNIQUE,
	page       JSONB NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);
CREATE INDEX IF NOT EXISTS idx_page_cache_url ON page_cache(url);
CREATE INDEX IF NOT EXISTS idx_page_cache_expires_at ON page_cache(expires_at);
CREATE INDEX IF NOT EXISTS idx_page_cache_url_expires ON page_cache(url, expires_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateJob(ctx context.Context, input model.CompanyInput) (*model.Job, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	inputJSON, err := json.Marshal(input)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal input")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO jobs (id, input, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, inputJSON, string(model.JobPending), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert job")
	}

	return &model.Job{
		ID:        id,
		Input:     input,
		Status:    model.JobPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus, errorMessage string) error {
	now := time.Now().UTC()
	query := `UPDATE jobs SET status = $1, error_message = $2, updated_at = $3`
	args := []any{string(status), model.TruncateError(errorMessage), now}
	argIdx := 4

	switch status {
	case model.JobProcessing:
		query += fmt.Sprintf(`, started_at = $%d`, argIdx)
		args = append(args, now)
		argIdx++
	case model.JobCompleted, model.JobFailed:
		query += fmt.Sprintf(`, completed_at = $%d`, argIdx)
		args = append(args, now)
		argIdx++
	}
	query += fmt.Sprintf(` WHERE id = $%d`, argIdx)
	args = append(args, jobID)

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "postgres: update job status %s", jobID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("job not found: %s", jobID)
	}
	return nil
}

func (s *PostgresStore) SaveRecord(ctx context.Context, jobID string, record *model.ResolvedRecord) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal record")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET record = $1, updated_at = $2 WHERE id = $3`,
		recordJSON, time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: save record %s", jobID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("job not found: %s", jobID)
	}
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, input, status, record, error_message, started_at, completed_at, created_at, updated_at
		 FROM jobs WHERE id = $1`,
		jobID,
	)
	return scanPgJob(row)
}

func (s *PostgresStore) ListJobs(ctx context.Context, filter JobFilter) ([]model.Job, error) {
	query := `SELECT id, input, status, record, error_message, started_at, completed_at, created_at, updated_at
	 FROM jobs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list jobs")
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		j, err := scanPgJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, eris.Wrap(rows.Err(), "postgres: list jobs iterate")
}

func (s *PostgresStore) GetCachedPage(ctx context.Context, url string) (*scrape.Result, error) {
	var pageJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT page FROM page_cache WHERE url = $1 AND expires_at > now()
		 ORDER BY fetched_at DESC LIMIT 1`,
		url,
	).Scan(&pageJSON)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get cached page")
	}

	var page scrape.Result
	if err := json.Unmarshal(pageJSON, &page); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal cached page")
	}
	return &page, nil
}

func (s *PostgresStore) SetCachedPage(ctx context.Context, url string, page *scrape.Result, ttl time.Duration) error {
	pageJSON, err := json.Marshal(page)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal page")
	}
	now := time.Now().UTC()

	_, err = s.pool.Exec(ctx,
		`INSERT INTO page_cache (id, url, page, fetched_at, expires_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (url) DO UPDATE SET page = $3, fetched_at = $4, expires_at = $5`,
		uuid.New().String(), url, pageJSON, now, now.Add(ttl),
	)
	return eris.Wrap(err, "postgres: set cached page")
}

func (s *PostgresStore) DeleteExpiredPages(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM page_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired pages")
	}
	return int(tag.RowsAffected()), nil
}

func scanPgJob(row pgx.Row) (*model.Job, error) {
	var j model.Job
	var inputJSON []byte
	var recordJSON *[]byte
	var errorMessage *string
	var startedAt, completedAt *time.Time

	err := row.Scan(&j.ID, &inputJSON, &j.Status, &recordJSON, &errorMessage,
		&startedAt, &completedAt, &j.CreatedAt, &j.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan job")
	}

	if err := json.Unmarshal(inputJSON, &j.Input); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal input")
	}
	if recordJSON != nil && len(*recordJSON) > 0 {
		j.Record = &model.ResolvedRecord{}
		if err := json.Unmarshal(*recordJSON, j.Record); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal record")
		}
	}
	if errorMessage != nil {
		j.ErrorMessage = *errorMessage
	}
	j.StartedAt = startedAt
	j.CompletedAt = completedAt
	return &j, nil
}
