// Package pipeline orchestrates per-row resolution: normalize, resolve the
// domain, discover contacts, persist. Batches fan rows out over a bounded
// worker pool.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/resolver-cli/internal/adapter"
	"github.com/sells-group/resolver-cli/internal/config"
	"github.com/sells-group/resolver-cli/internal/discovery"
	"github.com/sells-group/resolver-cli/internal/judge"
	"github.com/sells-group/resolver-cli/internal/model"
	"github.com/sells-group/resolver-cli/internal/normalize"
	"github.com/sells-group/resolver-cli/internal/resilience"
	"github.com/sells-group/resolver-cli/internal/resolver"
	"github.com/sells-group/resolver-cli/internal/router"
	"github.com/sells-group/resolver-cli/internal/scrape"
	"github.com/sells-group/resolver-cli/internal/store"
)

// Pipeline holds the shared services for row resolution. Rows never share
// mutable state; each Run gets fresh resolver and controller instances over
// these pools.
type Pipeline struct {
	cfg      *config.Config
	store    store.Store
	registry *adapter.Registry
	chain    *scrape.Chain
	judge    *judge.Judge
	selector discovery.Selector
}

// New creates a Pipeline with all dependencies.
func New(
	cfg *config.Config,
	st store.Store,
	registry *adapter.Registry,
	chain *scrape.Chain,
	j *judge.Judge,
	selector discovery.Selector,
) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		store:    st,
		registry: registry,
		chain:    chain,
		judge:    j,
		selector: selector,
	}
}

// Run creates a job for the input and resolves it end to end. The returned
// record is complete even on failure; the error reports only unrecoverable
// persistence problems.
func (p *Pipeline) Run(ctx context.Context, input model.CompanyInput) (*model.Job, error) {
	job, err := p.store.CreateJob(ctx, input)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create job")
	}
	return job, p.RunJob(ctx, job)
}

// RunJob resolves an already-created job in place, updating its status and
// record as the row progresses. Callers that hand the job id out before
// resolving use this directly.
func (p *Pipeline) RunJob(ctx context.Context, job *model.Job) error {
	input := job.Input
	log := zap.L().With(zap.String("company", input.Name), zap.String("id", input.ID))
	log.Info("pipeline: starting resolution")

	if input.ID == "" {
		input.ID = job.ID
	}

	setStatus := func(status model.JobStatus, errMsg string) {
		if statusErr := p.store.UpdateJobStatus(ctx, job.ID, status, errMsg); statusErr != nil {
			log.Warn("pipeline: failed to update status", zap.Error(statusErr))
		}
		job.Status = status
		job.ErrorMessage = model.TruncateError(errMsg)
	}
	setStatus(model.JobProcessing, "")

	rec := &model.ResolvedRecord{InputID: input.ID}
	job.Record = rec

	rowCtx, cancel := context.WithTimeout(ctx, p.cfg.Thresholds.RowDeadline())
	defer cancel()

	n, err := normalize.Normalize(input)
	if err != nil {
		rec.AddError(model.ErrInputInvalid, "", err.Error())
		rec.NeedsManualReview = true
		p.persist(ctx, job.ID, rec, log)
		setStatus(model.JobFailed, err.Error())
		return nil
	}
	log.Debug("pipeline: row normalized",
		zap.Int("tier", int(n.Tier)),
		zap.String("business_type", string(n.BusinessType)),
	)

	res := resolver.New(p.registry, p.chain, p.judge, p.cfg.Thresholds)
	res.Resolve(rowCtx, n, rec)

	ctrl := discovery.New(p.registry, p.selectorFor(n), p.cfg.Thresholds)
	ctrl.Discover(rowCtx, n, rec)

	if rowCtx.Err() != nil && !rec.HasError(model.ErrDeadlineExceeded) {
		rec.AddError(model.ErrDeadlineExceeded, "", "row deadline reached")
	}

	// Persist outside the row deadline so a timed-out row still lands.
	p.persist(ctx, job.ID, rec, log)

	if failed, msg := rowFailed(rec, res.State()); failed {
		setStatus(model.JobFailed, msg)
	} else {
		setStatus(model.JobCompleted, "")
	}

	log.Info("pipeline: resolution finished",
		zap.String("status", string(job.Status)),
		zap.String("domain", rec.Domain),
		zap.Int("contacts", len(rec.Contacts)),
		zap.Float64("cost_usd", rec.TotalCostUSD),
	)
	return nil
}

// selectorFor enables LLM stage selection only for rows routed with LLM
// analysis.
func (p *Pipeline) selectorFor(n model.NormalizedInput) discovery.Selector {
	if p.selector == nil {
		return nil
	}
	if plan := router.Route(n, p.registry); plan.LLMAnalysis {
		return p.selector
	}
	return nil
}

// persist saves the record, retrying once on infrastructure errors.
func (p *Pipeline) persist(ctx context.Context, jobID string, rec *model.ResolvedRecord, log *zap.Logger) {
	cfg := resilience.PersistRetryConfig()
	cfg.OnRetry = resilience.RetryLogger("store", "save record")

	err := resilience.Do(ctx, cfg, func(ctx context.Context) error {
		return p.store.SaveRecord(ctx, jobID, rec)
	})
	if err != nil {
		rec.AddError(model.ErrPersistence, "", err.Error())
		log.Error("pipeline: persist failed", zap.Error(err))
	}
}

// rowFailed decides terminal status. A deadline breach fails the row only
// when nothing valid was found; resolution failure alone does not fail a row
// that still produced contacts.
func rowFailed(rec *model.ResolvedRecord, state resolver.State) (bool, string) {
	hasResult := rec.Domain != "" || rec.ValidContact() != nil

	if rec.HasError(model.ErrDeadlineExceeded) && !hasResult {
		return true, "row deadline exceeded before any result"
	}
	if state == resolver.StateFailed && !hasResult {
		return true, firstErrorDetail(rec)
	}
	return false, ""
}

func firstErrorDetail(rec *model.ResolvedRecord) string {
	if len(rec.Errors) == 0 {
		return "resolution failed"
	}
	e := rec.Errors[0]
	return string(e.Kind) + ": " + e.Detail
}

// CleanupCache removes expired page cache entries, returning the count.
func (p *Pipeline) CleanupCache(ctx context.Context) (int, error) {
	return p.store.DeleteExpiredPages(ctx)
}

// Warm pre-runs store migration and logs pool readiness. Callers invoke it
// once before a batch.
func (p *Pipeline) Warm(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return p.store.Migrate(ctx)
}
