package pipeline

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/resolver-cli/internal/model"
)

// BatchResult summarizes one batch run. Jobs are indexed in input order so
// output files are stable across runs.
type BatchResult struct {
	Jobs      []*model.Job
	Total     int
	Succeeded int
	Failed    int
}

// FailureRate returns the fraction of failed rows, 0 for an empty batch.
func (b *BatchResult) FailureRate() float64 {
	if b.Total == 0 {
		return 0
	}
	return float64(b.Failed) / float64(b.Total)
}

// RunBatch resolves all rows with a bounded worker pool. Row failures are
// recorded per job and never abort the batch; only context cancellation
// stops the fan-out early.
func (p *Pipeline) RunBatch(ctx context.Context, inputs []model.CompanyInput) *BatchResult {
	concurrency := p.cfg.Batch.Concurrency
	if concurrency <= 0 {
		concurrency = 10
	}

	result := &BatchResult{
		Jobs:  make([]*model.Job, len(inputs)),
		Total: len(inputs),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, input := range inputs {
		g.Go(func() error {
			job, err := p.Run(gctx, input)
			if err != nil {
				zap.L().Error("batch: row errored outside pipeline",
					zap.String("company", input.Name),
					zap.Error(err),
				)
				job = &model.Job{
					Input:        input,
					Status:       model.JobFailed,
					ErrorMessage: model.TruncateError(err.Error()),
				}
			}
			result.Jobs[i] = job
			return nil
		})
	}
	_ = g.Wait()

	for _, job := range result.Jobs {
		if job == nil {
			result.Failed++
			continue
		}
		if job.Status == model.JobFailed {
			result.Failed++
		} else {
			result.Succeeded++
		}
	}

	zap.L().Info("batch: finished",
		zap.Int("total", result.Total),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
	)
	return result
}
