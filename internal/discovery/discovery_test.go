package discovery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/resolver-cli/internal/adapter"
	"github.com/sells-group/resolver-cli/internal/config"
	"github.com/sells-group/resolver-cli/internal/model"
)

// stubStage records the queries it receives and returns canned results.
type stubStage struct {
	tag     model.SourceTag
	results []*adapter.Result
	queries []adapter.Query
}

func (s *stubStage) Tag() model.SourceTag { return s.tag }
func (s *stubStage) CostPerCall() float64 { return 0.01 }

func (s *stubStage) Call(ctx context.Context, q adapter.Query) (*adapter.Result, error) {
	s.queries = append(s.queries, q)
	i := len(s.queries) - 1
	if i >= len(s.results) {
		return &adapter.Result{}, nil
	}
	return s.results[i], nil
}

func stageRegistry(stages ...*stubStage) *adapter.Registry {
	reg := adapter.NewRegistry(time.Minute)
	for _, s := range stages {
		reg.Register(s, 1000, 10, time.Second)
	}
	return reg
}

func discoveryThresholds() config.ThresholdsConfig {
	return config.ThresholdsConfig{
		EarlyExitConf: 80,
		RowBudgetUSD:  0.50,
		MaxSteps:      5,
		TopK:          5,
	}
}

func smbInput() model.NormalizedInput {
	return model.NormalizedInput{
		Input:        model.CompanyInput{ID: "row-1", Name: "Acme Plumbing", City: "Austin"},
		Tier:         model.Tier2,
		BusinessType: model.BusinessSMB,
	}
}

func resolvedRec() *model.ResolvedRecord {
	return &model.ResolvedRecord{InputID: "row-1", Domain: "acme.com"}
}

func TestDiscover_StepCap(t *testing.T) {
	site := &stubStage{tag: model.TagSiteScrape}
	b2b := &stubStage{tag: model.TagB2BEnrich}
	social := &stubStage{tag: model.TagSocialSearch}

	cfg := discoveryThresholds()
	cfg.MaxSteps = 2

	rec := resolvedRec()
	c := New(stageRegistry(site, b2b, social), nil, cfg)
	c.Discover(context.Background(), smbInput(), rec)

	assert.Len(t, rec.Stages, 2)
	assert.Empty(t, social.queries)
}

func TestDiscover_EarlyExitOnStrongContact(t *testing.T) {
	site := &stubStage{tag: model.TagSiteScrape}

	rec := resolvedRec()
	rec.Contacts = []model.Contact{{
		Name: "Jane Smith", Email: "jane@acme.com", Confidence: 92, IsValid: true,
	}}

	c := New(stageRegistry(site), nil, discoveryThresholds())
	c.Discover(context.Background(), smbInput(), rec)

	assert.Empty(t, rec.Stages)
	assert.Empty(t, site.queries)
}

func TestDiscover_BudgetGateSkipsStage(t *testing.T) {
	site := &stubStage{tag: model.TagSiteScrape}

	rec := resolvedRec()
	rec.TotalCostUSD = 0.495 // leaves less than one call

	c := New(stageRegistry(site), nil, discoveryThresholds())
	c.Discover(context.Background(), smbInput(), rec)

	assert.Empty(t, rec.Stages)
	assert.Empty(t, site.queries)
}

func TestDiscover_PivotAfterTwoEmptyStages(t *testing.T) {
	site := &stubStage{tag: model.TagSiteScrape}
	b2b := &stubStage{tag: model.TagB2BEnrich}
	social := &stubStage{tag: model.TagSocialSearch, results: []*adapter.Result{{
		Contacts: []model.Contact{{
			Name: "Jane Smith", Title: "Owner",
			LinkedInURL: "https://linkedin.com/in/jane-smith",
			Sources:     []model.SourceTag{model.TagSocialSearch},
		}},
	}}}
	verify := &stubStage{tag: model.TagEmailVerify}

	rec := resolvedRec()
	c := New(stageRegistry(site, b2b, social, verify), nil, discoveryThresholds())
	c.Discover(context.Background(), smbInput(), rec)

	// site_scrape and b2b_enrich came up empty, email_verify has nothing to
	// check, so the search-centric family runs next with the pivot marked.
	require.Len(t, rec.Stages, 3)
	assert.Equal(t, model.TagSocialSearch, rec.Stages[2].Tag)
	assert.False(t, rec.Stages[0].Pivot)
	assert.False(t, rec.Stages[1].Pivot)
	assert.True(t, rec.Stages[2].Pivot)
	assert.Empty(t, verify.queries)

	require.Len(t, rec.Contacts, 1)
	assert.Equal(t, "Jane Smith", rec.Contacts[0].Name)
}

func TestDiscover_EmailVerifyPicksBestUnverified(t *testing.T) {
	deliverable := true
	verify := &stubStage{tag: model.TagEmailVerify, results: []*adapter.Result{{
		Verification: &model.EmailVerification{
			Email: "jane@acme.com", SyntaxValid: true, Deliverable: true,
		},
	}}}

	rec := resolvedRec()
	rec.Contacts = []model.Contact{
		{Name: "Bob Lee", Email: "bob@acme.com", Confidence: 40},
		{Name: "Jane Smith", Title: "Owner", Email: "jane@acme.com", Confidence: 60},
		{Name: "Already Done", Email: "done@acme.com", Confidence: 70,
			Signals: model.ContactSignals{Deliverable: &deliverable}},
	}

	c := New(stageRegistry(verify), nil, discoveryThresholds())
	c.Discover(context.Background(), smbInput(), rec)

	require.Len(t, verify.queries, 1)
	assert.Equal(t, "jane@acme.com", verify.queries[0].Email)
	assert.Equal(t, "acme.com", verify.queries[0].Domain)

	jane := rec.Contacts[1]
	require.NotNil(t, jane.Signals.Deliverable)
	assert.True(t, *jane.Signals.Deliverable)
	assert.True(t, jane.IsValid)
}

func TestDiscover_DeadlineRecordsError(t *testing.T) {
	site := &stubStage{tag: model.TagSiteScrape}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := resolvedRec()
	c := New(stageRegistry(site), nil, discoveryThresholds())
	c.Discover(ctx, smbInput(), rec)

	assert.True(t, rec.HasError(model.ErrDeadlineExceeded))
	assert.Empty(t, site.queries)
}

func TestDiscover_NoDomainSkipsSiteStages(t *testing.T) {
	site := &stubStage{tag: model.TagSiteScrape}
	b2b := &stubStage{tag: model.TagB2BEnrich}

	rec := &model.ResolvedRecord{InputID: "row-1"} // no resolved domain
	c := New(stageRegistry(site, b2b), nil, discoveryThresholds())
	c.Discover(context.Background(), smbInput(), rec)

	assert.Empty(t, site.queries)
	assert.NotEmpty(t, b2b.queries)
}

// fixedSelector returns a scripted sequence of choices.
type fixedSelector struct {
	choices []model.SourceTag
	oks     []bool
	calls   int
}

func (f *fixedSelector) Next(ctx context.Context, st *LoopState) (model.SourceTag, bool) {
	i := f.calls
	f.calls++
	if i >= len(f.choices) {
		return "", false
	}
	return f.choices[i], f.oks[i]
}

func TestDiscover_SelectorOverridesOrdering(t *testing.T) {
	site := &stubStage{tag: model.TagSiteScrape}
	b2b := &stubStage{tag: model.TagB2BEnrich}

	sel := &fixedSelector{
		choices: []model.SourceTag{model.TagB2BEnrich, ""},
		oks:     []bool{true, false},
	}

	rec := resolvedRec()
	c := New(stageRegistry(site, b2b), sel, discoveryThresholds())
	c.Discover(context.Background(), smbInput(), rec)

	// The selector ran b2b_enrich first, then stopped the loop.
	require.Len(t, rec.Stages, 1)
	assert.Equal(t, model.TagB2BEnrich, rec.Stages[0].Tag)
	assert.Empty(t, site.queries)
}

// spendingSelector charges a fixed amount per choice, like the LLM selector
// does for its own token usage.
type spendingSelector struct {
	inner Selector
	spend float64
}

func (s *spendingSelector) Next(ctx context.Context, st *LoopState) (model.SourceTag, bool) {
	st.SelectorCostUSD += s.spend
	return s.inner.Next(ctx, st)
}

func TestDiscover_SelectorSpendCountsAgainstRow(t *testing.T) {
	b2b := &stubStage{tag: model.TagB2BEnrich}

	sel := &spendingSelector{
		inner: &fixedSelector{
			choices: []model.SourceTag{model.TagB2BEnrich, ""},
			oks:     []bool{true, false},
		},
		spend: 0.002,
	}

	rec := resolvedRec()
	c := New(stageRegistry(b2b), sel, discoveryThresholds())
	c.Discover(context.Background(), smbInput(), rec)

	require.Len(t, rec.Stages, 1)
	// One adapter call at 0.01 plus two selector consultations at 0.002.
	assert.InDelta(t, 0.014, rec.TotalCostUSD, 1e-9)
}

func TestDiscover_SelectorUnknownStageFallsBack(t *testing.T) {
	site := &stubStage{tag: model.TagSiteScrape}

	sel := &fixedSelector{
		choices: []model.SourceTag{"unavailable", "unavailable"},
		oks:     []bool{false, false},
	}

	rec := resolvedRec()
	cfg := discoveryThresholds()
	cfg.MaxSteps = 1

	c := New(stageRegistry(site), sel, cfg)
	c.Discover(context.Background(), smbInput(), rec)

	require.Len(t, rec.Stages, 1)
	assert.Equal(t, model.TagSiteScrape, rec.Stages[0].Tag)
}

func TestUnverifiedEmail(t *testing.T) {
	deliverable := false
	c := &Controller{}

	rec := &model.ResolvedRecord{Contacts: []model.Contact{
		{Email: "", Confidence: 90},
		{Email: "checked@acme.com", Confidence: 80, Signals: model.ContactSignals{Deliverable: &deliverable}},
		{Email: "low@acme.com", Confidence: 20},
		{Email: "high@acme.com", Confidence: 55},
	}}
	assert.Equal(t, "high@acme.com", c.unverifiedEmail(rec))

	assert.Empty(t, c.unverifiedEmail(&model.ResolvedRecord{}))
}

func TestPivotReordersFamilies(t *testing.T) {
	in := []model.SourceTag{
		model.TagSiteScrape, model.TagEmailVerify,
		model.TagB2BEnrich, model.TagSocialSearch,
	}
	out := pivot(in)
	assert.Equal(t, []model.SourceTag{
		model.TagB2BEnrich, model.TagSocialSearch,
		model.TagSiteScrape, model.TagEmailVerify,
	}, out)

	assert.Empty(t, pivot(nil))
}
