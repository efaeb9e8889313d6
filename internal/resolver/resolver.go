// Package resolver converts a normalized company row into a verified primary
// domain. It executes the router's plan, merges candidates across sources,
// verifies the leaders by scraping and judging their pages, and scores the
// survivors deterministically.
package resolver

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/resolver-cli/internal/adapter"
	"github.com/sells-group/resolver-cli/internal/config"
	"github.com/sells-group/resolver-cli/internal/extract"
	"github.com/sells-group/resolver-cli/internal/judge"
	"github.com/sells-group/resolver-cli/internal/model"
	"github.com/sells-group/resolver-cli/internal/normalize"
	"github.com/sells-group/resolver-cli/internal/router"
	"github.com/sells-group/resolver-cli/internal/scrape"
)

// State tracks where a row is in the resolution lifecycle.
type State string

const (
	StatePending      State = "pending"
	StateRouting      State = "routing"
	StateCalling      State = "calling"
	StateJudging      State = "judging"
	StateAccepted     State = "accepted"
	StateManualReview State = "manual_review"
	StateFailed       State = "failed"
)

// verifyFanout bounds concurrent candidate verification.
const verifyFanout = 3

// Resolver drives domain resolution for one row at a time.
type Resolver struct {
	registry *adapter.Registry
	chain    *scrape.Chain
	judge    *judge.Judge
	cfg      config.ThresholdsConfig

	state State
}

// New creates a resolver. judge may be nil when no LLM is configured; rows
// then score on deterministic signals only and Tier 4 rows are never
// accepted.
func New(registry *adapter.Registry, chain *scrape.Chain, j *judge.Judge, cfg config.ThresholdsConfig) *Resolver {
	return &Resolver{
		registry: registry,
		chain:    chain,
		judge:    j,
		cfg:      cfg,
		state:    StatePending,
	}
}

// State returns the lifecycle state of the last Resolve call.
func (r *Resolver) State() State { return r.state }

func (r *Resolver) setState(s State, rowID string) {
	r.state = s
	zap.L().Debug("resolver: state change",
		zap.String("row", rowID),
		zap.String("state", string(s)),
	)
}

// Resolve runs the routing plan for the row, recording stages and errors on
// rec. On acceptance rec.Domain, DomainConfidence and DomainSource are set;
// otherwise the row is marked for manual review and resolution continues
// downstream with no domain.
func (r *Resolver) Resolve(ctx context.Context, n model.NormalizedInput, rec *model.ResolvedRecord) {
	rowID := n.Input.ID

	r.setState(StateRouting, rowID)
	plan := router.Route(n, r.registry)
	if len(plan.Steps) == 0 {
		rec.AddError(model.ErrNoCandidate, "", "no adapters enabled for plan")
		rec.NeedsManualReview = true
		r.setState(StateManualReview, rowID)
		return
	}

	r.setState(StateCalling, rowID)
	var candidates []*model.DomainCandidate
	var stepErrors int
	switch plan.Mode {
	case router.ModeSequential:
		candidates, stepErrors = r.runSequential(ctx, plan, n, rec)
	default:
		candidates, stepErrors = r.runParallel(ctx, plan, n, rec)
	}

	if len(candidates) == 0 {
		if stepErrors == len(plan.Steps) && stepErrors > 0 {
			r.setState(StateFailed, rowID)
		} else {
			rec.AddError(model.ErrNoCandidate, "", "no domain candidates produced")
			r.setState(StateManualReview, rowID)
		}
		rec.NeedsManualReview = true
		return
	}

	r.setState(StateJudging, rowID)
	judged, judgeDown := r.verify(ctx, n, candidates, rec)
	if judgeDown {
		rec.AddError(model.ErrJudgeUnavailable, "", "judge unavailable, scoring on signals only")
	}
	if judgeDown && plan.Validation == router.ValidationMandatory {
		rec.NeedsManualReview = true
		r.setState(StateManualReview, rowID)
		return
	}

	best, breakdown := pickBest(judged)
	accepted := best != nil && breakdown.Total >= r.cfg.AcceptThreshold
	if accepted && plan.Validation == router.ValidationMandatory {
		accepted = best.Judge != nil && best.Judge.Match
	}

	if !accepted {
		rec.NeedsManualReview = true
		r.setState(StateManualReview, rowID)
		return
	}

	rec.Domain = best.Domain
	rec.DomainConfidence = breakdown.Total
	rec.DomainSource = primarySource(best)
	r.setState(StateAccepted, rowID)
	zap.L().Info("resolver: domain accepted",
		zap.String("row", rowID),
		zap.String("domain", best.Domain),
		zap.Float64("confidence", breakdown.Total),
		zap.String("source", string(rec.DomainSource)),
	)
}

// runSequential executes steps in order. A step that yields an exact phone
// match is verified on the spot: a surviving match short-circuits the plan,
// a directory listing is dropped and the next step runs.
func (r *Resolver) runSequential(ctx context.Context, plan router.Plan, n model.NormalizedInput, rec *model.ResolvedRecord) ([]*model.DomainCandidate, int) {
	merged := map[string]*model.DomainCandidate{}
	var errs int

	for step, tag := range plan.Steps {
		if ctx.Err() != nil {
			rec.AddError(model.ErrDeadlineExceeded, tag, "row deadline reached during plan")
			break
		}

		result := r.registry.Call(ctx, tag, adapter.Query{Normalized: n})
		if result == nil {
			continue
		}
		recordStage(rec, result)
		if result.Err != nil {
			rec.Errors = append(rec.Errors, *result.Err)
			errs++
			continue
		}

		if !mergeCandidates(merged, result.Domains, step) {
			continue
		}
		exact := exactCandidate(merged)
		if exact == nil {
			continue
		}
		r.verifyOne(ctx, n, exact, rec)
		if exact.Judge != nil && exact.Judge.IsDirectorySite {
			zap.L().Debug("resolver: phone match was a directory listing",
				zap.String("row", n.Input.ID),
				zap.String("domain", exact.Domain),
			)
			delete(merged, exact.Domain)
			continue
		}
		break
	}
	return flatten(merged), errs
}

func exactCandidate(merged map[string]*model.DomainCandidate) *model.DomainCandidate {
	for _, c := range merged {
		if c.PhoneExact {
			return c
		}
	}
	return nil
}

// runParallel fans the steps out together and merges results in plan order
// so the outcome is reproducible regardless of completion order.
func (r *Resolver) runParallel(ctx context.Context, plan router.Plan, n model.NormalizedInput, rec *model.ResolvedRecord) ([]*model.DomainCandidate, int) {
	results := make([]*adapter.Result, len(plan.Steps))

	var wg sync.WaitGroup
	for i, tag := range plan.Steps {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = r.registry.Call(ctx, tag, adapter.Query{Normalized: n})
		}()
	}
	wg.Wait()

	merged := map[string]*model.DomainCandidate{}
	var errs int
	for step, result := range results {
		if result == nil {
			continue
		}
		recordStage(rec, result)
		if result.Err != nil {
			rec.Errors = append(rec.Errors, *result.Err)
			errs++
			continue
		}
		mergeCandidates(merged, result.Domains, step)
	}
	return flatten(merged), errs
}

// mergeCandidates folds a step's candidates into the deduplicated set keyed
// by canonical domain. Returns true when an exact phone match arrived.
func mergeCandidates(merged map[string]*model.DomainCandidate, cands []model.DomainCandidate, step int) bool {
	var exact bool
	for i := range cands {
		c := cands[i]
		c.PlanStep = step
		exact = exact || c.PhoneExact

		existing, ok := merged[c.Domain]
		if !ok {
			merged[c.Domain] = &c
			continue
		}
		for _, tag := range c.Sources {
			existing.AddSource(tag)
		}
		if c.RawConfidence > existing.RawConfidence {
			existing.RawConfidence = c.RawConfidence
		}
		existing.PhoneExact = existing.PhoneExact || c.PhoneExact
		if c.PlanStep < existing.PlanStep {
			existing.PlanStep = c.PlanStep
		}
	}
	return exact
}

func flatten(merged map[string]*model.DomainCandidate) []*model.DomainCandidate {
	out := make([]*model.DomainCandidate, 0, len(merged))
	for _, c := range merged {
		out = append(out, c)
	}
	sourceRank(out)
	return out
}

// verify scrapes and judges the top candidates, attaching page signals and
// verdicts in place. It reports whether the judge was unavailable.
func (r *Resolver) verify(ctx context.Context, n model.NormalizedInput, candidates []*model.DomainCandidate, rec *model.ResolvedRecord) ([]scored, bool) {
	top := candidates
	if len(top) > r.cfg.TopK {
		top = top[:r.cfg.TopK]
	}

	var judgeFailures int
	var judgeSpend float64
	var mu sync.Mutex
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(verifyFanout)
	for _, cand := range top {
		if cand.Judge != nil {
			// Already verified inline during the plan.
			continue
		}
		g.Go(func() error {
			page, err := r.chain.Fetch(gctx, "https://"+cand.Domain)
			if err != nil || page.Empty() {
				// Unverifiable candidates keep their source prior only.
				return nil
			}
			sig := extract.FromPage(page)

			mu.Lock()
			cand.Signals = pageSignals(n, sig)
			mu.Unlock()

			if r.judge == nil {
				mu.Lock()
				judgeFailures++
				mu.Unlock()
				return nil
			}
			verdict, spent, err := r.judge.Evaluate(gctx, n, "https://"+cand.Domain, sig.Text)
			mu.Lock()
			if err != nil {
				judgeFailures++
			} else {
				cand.Judge = verdict
				judgeSpend += spent
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	rec.TotalCostUSD += judgeSpend

	zap.L().Debug("resolver: verification fan-out done",
		zap.Int("candidates", len(top)),
		zap.Duration("took", time.Since(start)),
	)

	out := make([]scored, 0, len(top))
	for _, cand := range top {
		out = append(out, scored{cand: cand, breakdown: Score(cand)})
	}
	return out, judgeFailures == len(top) && len(top) > 0
}

// verifyOne scrapes and judges a single candidate in place. Failures leave
// the candidate unjudged; the scorer then works from signals alone.
func (r *Resolver) verifyOne(ctx context.Context, n model.NormalizedInput, cand *model.DomainCandidate, rec *model.ResolvedRecord) {
	page, err := r.chain.Fetch(ctx, "https://"+cand.Domain)
	if err != nil || page.Empty() {
		return
	}
	sig := extract.FromPage(page)
	cand.Signals = pageSignals(n, sig)

	if r.judge == nil {
		return
	}
	if verdict, spent, err := r.judge.Evaluate(ctx, n, "https://"+cand.Domain, sig.Text); err == nil {
		cand.Judge = verdict
		rec.TotalCostUSD += spent
	}
}

// pageSignals compares extracted page content against the input row.
func pageSignals(n model.NormalizedInput, sig extract.Signals) model.PageSignals {
	var ps model.PageSignals

	if phone := n.Input.Phone; phone != "" {
		for _, raw := range sig.Phones {
			if e164, ok := normalize.ToE164(raw); ok && e164 == phone {
				ps.PhoneOnPage = true
				break
			}
		}
	}
	lower := strings.ToLower(sig.Text)
	if city := strings.ToLower(n.Input.City); city != "" && strings.Contains(lower, city) {
		ps.CityOnPage = true
	}
	if addr := strings.ToLower(n.Input.Address); addr != "" && strings.Contains(lower, addr) {
		ps.AddressOnPage = true
	}
	if sig.SchemaOrg != nil && sig.SchemaOrg.Name != "" {
		ps.SchemaOrgNameMatch = normalize.NameSimilarity(n.Input.Name, sig.SchemaOrg.Name) >= 0.6
	}
	return ps
}

// pickBest ranks the scored candidates and returns the winner, skipping
// eliminated ones.
func pickBest(cands []scored) (*model.DomainCandidate, Breakdown) {
	rank(cands)
	for _, s := range cands {
		if s.breakdown.Eliminated {
			continue
		}
		return s.cand, s.breakdown
	}
	return nil, Breakdown{}
}

// primarySource is the strongest tag that produced the candidate.
func primarySource(c *model.DomainCandidate) model.SourceTag {
	if len(c.Sources) == 0 {
		return ""
	}
	best := c.Sources[0]
	for _, tag := range c.Sources[1:] {
		if tag.Priority() < best.Priority() {
			best = tag
		}
	}
	return best
}

func recordStage(rec *model.ResolvedRecord, result *adapter.Result) {
	rec.AddStage(model.StageEvent{
		Tag:        result.Tag,
		CostUSD:    result.CostUSD,
		DurationMS: result.Latency.Milliseconds(),
		Candidates: result.CandidateCount(),
	})
}
