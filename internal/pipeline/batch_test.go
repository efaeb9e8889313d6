package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/resolver-cli/internal/adapter"
	"github.com/sells-group/resolver-cli/internal/model"
	"github.com/sells-group/resolver-cli/internal/scrape"
)

func TestRunBatch(t *testing.T) {
	reg := adapter.NewRegistry(time.Minute)
	reg.Register(&stubAdapter{
		tag: model.TagPlacesNameMatch,
		result: domainResult(model.TagPlacesNameMatch,
			model.DomainCandidate{Domain: "acmeplumbing.com", RawConfidence: 90}),
	}, 1000, 10, time.Second)
	reg.Register(&stubAdapter{tag: model.TagWebSearchKG}, 1000, 10, time.Second)

	chain := scrape.NewChain(&stubFetcher{pages: map[string]string{
		"https://acmeplumbing.com": "Acme Plumbing serves Austin, Texas with licensed residential plumbing repair.",
	}})

	st := newMemStore()
	p := New(testConfig(), st, reg, chain, nil, nil)

	inputs := []model.CompanyInput{
		{ID: "row-a", Name: "Acme Plumbing", City: "Austin", State: "TX"},
		{ID: "row-b", Name: ""}, // invalid, fails normalization
		{ID: "row-c", Name: "Beta Roofing", City: "Waco", State: "TX"},
	}

	result := p.RunBatch(context.Background(), inputs)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	assert.InDelta(t, 1.0/3.0, result.FailureRate(), 0.001)

	// Jobs land in input order regardless of completion order.
	require.Len(t, result.Jobs, 3)
	require.NotNil(t, result.Jobs[0].Record)
	assert.Equal(t, "row-a", result.Jobs[0].Record.InputID)
	assert.Equal(t, model.JobFailed, result.Jobs[1].Status)
	require.NotNil(t, result.Jobs[2].Record)
	assert.Equal(t, "row-c", result.Jobs[2].Record.InputID)
}

func TestFailureRateEmptyBatch(t *testing.T) {
	b := &BatchResult{}
	assert.Zero(t, b.FailureRate())
}
