// Package store persists jobs, resolved records, and the page cache. Two
// implementations exist: SQLite for single-machine batches and Postgres for
// shared deployments.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/resolver-cli/internal/model"
	"github.com/sells-group/resolver-cli/internal/scrape"
)

// ErrNotFound is returned when a requested job does not exist.
var ErrNotFound = eris.New("job not found")

// JobFilter specifies criteria for listing jobs.
type JobFilter struct {
	Status model.JobStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the resolution pipeline.
type Store interface {
	// Jobs
	CreateJob(ctx context.Context, input model.CompanyInput) (*model.Job, error)
	UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus, errorMessage string) error
	SaveRecord(ctx context.Context, jobID string, record *model.ResolvedRecord) error
	GetJob(ctx context.Context, jobID string) (*model.Job, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]model.Job, error)

	// Page cache
	GetCachedPage(ctx context.Context, url string) (*scrape.Result, error)
	SetCachedPage(ctx context.Context, url string, page *scrape.Result, ttl time.Duration) error
	DeleteExpiredPages(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
