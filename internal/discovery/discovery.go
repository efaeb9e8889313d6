// Package discovery finds human contacts at a resolved company through a
// staged, early-exit loop over the enrichment adapters. Each observation
// informs the next stage choice; the loop stops on a high-confidence valid
// contact, an exhausted budget, the row deadline, or the step cap.
package discovery

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/resolver-cli/internal/adapter"
	"github.com/sells-group/resolver-cli/internal/config"
	"github.com/sells-group/resolver-cli/internal/model"
	"github.com/sells-group/resolver-cli/internal/router"
	"github.com/sells-group/resolver-cli/internal/validate"
)

// Controller runs contact discovery for one row at a time.
type Controller struct {
	registry *adapter.Registry
	selector Selector
	cfg      config.ThresholdsConfig
}

// Selector chooses the next stage given the loop state. The zero value of
// the deterministic policy is used when nil or when a selector's choice does
// not validate.
type Selector interface {
	Next(ctx context.Context, st *LoopState) (model.SourceTag, bool)
}

// LoopState is the controller's view of an in-progress row.
type LoopState struct {
	Normalized model.NormalizedInput
	Domain     string
	Contacts   []model.Contact
	Remaining  []model.SourceTag
	StepsTaken int
	BudgetUSD  float64
	EmptyRun   int // consecutive stages with zero candidates
	Pivoted    bool

	// SelectorCostUSD accumulates token spend from the LLM selector's own
	// calls; the controller folds it into the row total.
	SelectorCostUSD float64
}

// New creates a discovery controller. selector may be nil; Tier 3/4 rows
// with LLM analysis enabled get the LLM selector from the pipeline.
func New(registry *adapter.Registry, selector Selector, cfg config.ThresholdsConfig) *Controller {
	return &Controller{registry: registry, selector: selector, cfg: cfg}
}

// Discover runs the staged loop, recording stages, costs, and errors on rec
// and merging validated contacts into rec.Contacts.
func (c *Controller) Discover(ctx context.Context, n model.NormalizedInput, rec *model.ResolvedRecord) {
	st := &LoopState{
		Normalized: n,
		Domain:     rec.Domain,
		Remaining:  router.ContactStages(n, c.registry),
		BudgetUSD:  c.cfg.RowBudgetUSD - rec.TotalCostUSD,
	}

	pivotNext := false
	for st.StepsTaken < c.cfg.MaxSteps {
		if ctx.Err() != nil {
			rec.AddError(model.ErrDeadlineExceeded, "", "row deadline reached during contact discovery")
			return
		}
		if best := rec.ValidContact(); best != nil && best.Confidence >= c.cfg.EarlyExitConf {
			zap.L().Debug("discovery: early exit on valid contact",
				zap.String("row", n.Input.ID),
				zap.Float64("confidence", best.Confidence),
			)
			return
		}

		preSelect := st.SelectorCostUSD
		tag, ok := c.nextStage(ctx, st)
		if spent := st.SelectorCostUSD - preSelect; spent > 0 {
			rec.TotalCostUSD += spent
			st.BudgetUSD -= spent
		}
		if !ok {
			return
		}
		if cost := c.registry.Cost(tag); cost > st.BudgetUSD {
			zap.L().Debug("discovery: budget exhausted",
				zap.String("row", n.Input.ID),
				zap.String("skipped", string(tag)),
			)
			return
		}

		q := adapter.Query{Normalized: n, Domain: st.Domain}
		if tag == model.TagEmailVerify {
			email := c.unverifiedEmail(rec)
			if email == "" {
				st.Remaining = remove(st.Remaining, tag)
				continue
			}
			q.Email = email
		}

		result := c.registry.Call(ctx, tag, q)
		st.StepsTaken++
		st.Remaining = remove(st.Remaining, tag)
		if result == nil {
			continue
		}

		rec.AddStage(model.StageEvent{
			Tag:        result.Tag,
			CostUSD:    result.CostUSD,
			DurationMS: result.Latency.Milliseconds(),
			Candidates: result.CandidateCount(),
			Pivot:      pivotNext,
		})
		pivotNext = false
		st.BudgetUSD -= result.CostUSD

		if result.Err != nil {
			rec.Errors = append(rec.Errors, *result.Err)
			st.EmptyRun++
		} else {
			c.absorb(result, n, rec, st)
			if result.CandidateCount() == 0 && result.Verification == nil {
				st.EmptyRun++
			} else {
				st.EmptyRun = 0
			}
		}

		// Two stages with nothing at all: switch strategy family.
		if st.EmptyRun >= 2 && !st.Pivoted {
			st.Remaining = pivot(st.Remaining)
			st.Pivoted = true
			st.EmptyRun = 0
			pivotNext = true
			zap.L().Debug("discovery: pivoting strategy family", zap.String("row", n.Input.ID))
		}
	}
}

// absorb merges a stage's output into the record and revalidates.
func (c *Controller) absorb(result *adapter.Result, n model.NormalizedInput, rec *model.ResolvedRecord, st *LoopState) {
	if result.Verification != nil {
		for i := range rec.Contacts {
			validate.ApplyVerification(&rec.Contacts[i], result.Verification)
		}
	}

	for _, found := range result.Contacts {
		merged := false
		for i := range rec.Contacts {
			if sameContact(&rec.Contacts[i], &found) {
				mergeContact(&rec.Contacts[i], &found)
				merged = true
				break
			}
		}
		if !merged {
			rec.Contacts = append(rec.Contacts, found)
		}
	}

	for i := range rec.Contacts {
		validate.Validate(&rec.Contacts[i], n.Input.Name, st.Domain, c.cfg.ValidThreshold)
	}
	st.Contacts = rec.Contacts
}

// nextStage consults the selector first, falling back to the deterministic
// ordering when the selector declines or picks an unknown stage.
func (c *Controller) nextStage(ctx context.Context, st *LoopState) (model.SourceTag, bool) {
	if len(st.Remaining) == 0 {
		return "", false
	}
	if c.selector != nil {
		if tag, ok := c.selector.Next(ctx, st); ok {
			for _, r := range st.Remaining {
				if r == tag {
					return tag, true
				}
			}
			zap.L().Debug("discovery: selector chose unavailable stage",
				zap.String("stage", string(tag)))
		} else if !ok && tag == "" {
			// Selector may signal stop explicitly.
			return "", false
		}
	}
	// Stages needing a domain are useless without one.
	for _, tag := range st.Remaining {
		if st.Domain == "" && needsDomain(tag) {
			continue
		}
		return tag, true
	}
	return "", false
}

// unverifiedEmail picks the best contact email that has not been verified.
func (c *Controller) unverifiedEmail(rec *model.ResolvedRecord) string {
	var best *model.Contact
	for i := range rec.Contacts {
		ct := &rec.Contacts[i]
		if ct.Email == "" || ct.Signals.Deliverable != nil {
			continue
		}
		if best == nil || ct.Confidence > best.Confidence {
			best = ct
		}
	}
	if best == nil {
		return ""
	}
	return best.Email
}

func sameContact(a, b *model.Contact) bool {
	if a.Email != "" && b.Email != "" {
		return strings.EqualFold(a.Email, b.Email)
	}
	if a.LinkedInURL != "" && b.LinkedInURL != "" {
		return strings.EqualFold(a.LinkedInURL, b.LinkedInURL)
	}
	return a.Name != "" && b.Name != "" && strings.EqualFold(a.Name, b.Name)
}

// mergeContact fills a's empty fields from b and unions sources.
func mergeContact(a, b *model.Contact) {
	if a.Name == "" {
		a.Name = b.Name
	}
	if a.Title == "" {
		a.Title = b.Title
	}
	if a.Email == "" {
		a.Email = b.Email
	}
	if a.Phone == "" {
		a.Phone = b.Phone
	}
	if a.LinkedInURL == "" {
		a.LinkedInURL = b.LinkedInURL
	}
	for _, tag := range b.Sources {
		a.AddSource(tag)
	}
}

// pivot reorders remaining stages so the other strategy family runs first.
func pivot(remaining []model.SourceTag) []model.SourceTag {
	if len(remaining) == 0 {
		return remaining
	}
	current := router.Family(remaining[0])

	var other, same []model.SourceTag
	for _, tag := range remaining {
		if router.Family(tag) == current {
			same = append(same, tag)
		} else {
			other = append(other, tag)
		}
	}
	return append(other, same...)
}

func remove(tags []model.SourceTag, tag model.SourceTag) []model.SourceTag {
	out := tags[:0:0]
	for _, t := range tags {
		if t != tag {
			out = append(out, t)
		}
	}
	return out
}

func needsDomain(tag model.SourceTag) bool {
	return tag == model.TagSiteScrape || tag == model.TagEmailVerify
}
