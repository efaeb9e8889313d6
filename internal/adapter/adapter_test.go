package adapter

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/resolver-cli/internal/model"
	"github.com/sells-group/resolver-cli/internal/resilience"
)

// fakeAdapter is a scriptable adapter for registry tests.
type fakeAdapter struct {
	tag     model.SourceTag
	cost    float64
	calls   int
	results []*Result
	errs    []error
}

func (f *fakeAdapter) Tag() model.SourceTag { return f.tag }

func (f *fakeAdapter) CostPerCall() float64 { return f.cost }

func (f *fakeAdapter) Call(ctx context.Context, q Query) (*Result, error) {
	i := f.calls
	f.calls++
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if err != nil {
		return nil, err
	}
	return f.results[i], nil
}

func newTestRegistry(cooldown time.Duration, adapters ...*fakeAdapter) *Registry {
	r := NewRegistry(cooldown)
	for _, a := range adapters {
		r.Register(a, 1000, 10, time.Second)
	}
	return r
}

func TestRegistry_CallSuccess(t *testing.T) {
	fake := &fakeAdapter{
		tag:  model.TagWebSearchKG,
		cost: 0.001,
		results: []*Result{{
			Domains: []model.DomainCandidate{{Domain: "acme.com", RawConfidence: 80}},
		}},
	}
	reg := newTestRegistry(time.Minute, fake)

	res := reg.Call(context.Background(), model.TagWebSearchKG, Query{})
	require.NotNil(t, res)
	assert.Nil(t, res.Err)
	assert.Equal(t, model.TagWebSearchKG, res.Tag)
	assert.Equal(t, 0.001, res.CostUSD)
	assert.Equal(t, 1, res.CandidateCount())
}

func TestRegistry_UnregisteredReturnsNil(t *testing.T) {
	reg := NewRegistry(time.Minute)
	assert.Nil(t, reg.Call(context.Background(), model.TagB2BEnrich, Query{}))
	assert.False(t, reg.Enabled(model.TagB2BEnrich))
	assert.Zero(t, reg.Cost(model.TagB2BEnrich))
}

func TestRegistry_ErrorBecomesRowError(t *testing.T) {
	fake := &fakeAdapter{
		tag:     model.TagPlacesNameMatch,
		results: []*Result{nil},
		errs:    []error{resilience.NewStatusError(eris.New("forbidden"), 403)},
	}
	reg := newTestRegistry(time.Minute, fake)

	res := reg.Call(context.Background(), model.TagPlacesNameMatch, Query{})
	require.NotNil(t, res)
	require.NotNil(t, res.Err)
	assert.Equal(t, model.ErrAdapterHTTP, res.Err.Kind)
	assert.Equal(t, model.TagPlacesNameMatch, res.Err.Stage)
	assert.Equal(t, 1, fake.calls)
}

func TestRegistry_TransientErrorRetriedOnce(t *testing.T) {
	fake := &fakeAdapter{
		tag: model.TagWebSearchKG,
		results: []*Result{
			nil,
			{Domains: []model.DomainCandidate{{Domain: "acme.com"}}},
		},
		errs: []error{resilience.NewStatusError(eris.New("unavailable"), 503), nil},
	}
	reg := newTestRegistry(time.Minute, fake)

	res := reg.Call(context.Background(), model.TagWebSearchKG, Query{})
	require.NotNil(t, res)
	assert.Nil(t, res.Err)
	assert.Equal(t, 2, fake.calls)
}

func TestRegistry_QuotaTriggersCooldown(t *testing.T) {
	now := time.Now()
	fake := &fakeAdapter{
		tag:     model.TagB2BEnrich,
		results: []*Result{nil},
		errs:    []error{resilience.NewStatusError(eris.New("rate limited"), 429)},
	}
	reg := newTestRegistry(time.Minute, fake).WithNow(func() time.Time { return now })

	res := reg.Call(context.Background(), model.TagB2BEnrich, Query{})
	require.NotNil(t, res.Err)
	assert.Equal(t, model.ErrAdapterQuota, res.Err.Kind)
	callsAfterQuota := fake.calls

	// Within the cooldown window the adapter is skipped without calling out.
	res = reg.Call(context.Background(), model.TagB2BEnrich, Query{})
	require.NotNil(t, res.Err)
	assert.Equal(t, model.ErrAdapterQuota, res.Err.Kind)
	assert.Equal(t, callsAfterQuota, fake.calls)

	// After the window the call goes through again.
	now = now.Add(2 * time.Minute)
	fake.errs = nil
	fake.results = []*Result{{}}
	res = reg.Call(context.Background(), model.TagB2BEnrich, Query{})
	assert.Nil(t, res.Err)
}

func TestRegistry_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	fake := &fakeAdapter{
		tag:     model.TagSocialSearch,
		results: []*Result{nil},
		errs:    []error{eris.New("hard failure")},
	}
	reg := newTestRegistry(time.Minute, fake)

	for i := 0; i < 5; i++ {
		res := reg.Call(context.Background(), model.TagSocialSearch, Query{})
		require.NotNil(t, res.Err)
	}
	callsBefore := fake.calls

	res := reg.Call(context.Background(), model.TagSocialSearch, Query{})
	require.NotNil(t, res.Err)
	assert.Equal(t, model.ErrAdapterQuota, res.Err.Kind)
	assert.Equal(t, "circuit open", res.Err.Detail)
	assert.Equal(t, callsBefore, fake.calls)
}

func TestRegistry_Tags(t *testing.T) {
	reg := newTestRegistry(time.Minute,
		&fakeAdapter{tag: model.TagWebSearchKG, results: []*Result{{}}},
		&fakeAdapter{tag: model.TagSiteScrape, results: []*Result{{}}},
	)
	assert.ElementsMatch(t, []model.SourceTag{model.TagWebSearchKG, model.TagSiteScrape}, reg.Tags())
}

func TestIsDirectoryDomain(t *testing.T) {
	assert.True(t, IsDirectoryDomain("yelp.com"))
	assert.True(t, IsDirectoryDomain("m.yelp.com"))
	assert.True(t, IsDirectoryDomain("www.bbb.org"))
	assert.False(t, IsDirectoryDomain("acmeplumbing.com"))
	assert.False(t, IsDirectoryDomain("notyelp.com"))
}
