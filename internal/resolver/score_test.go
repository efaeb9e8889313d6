package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/resolver-cli/internal/model"
)

func TestScore_PhoneExact(t *testing.T) {
	c := &model.DomainCandidate{
		Domain:     "acme.com",
		Sources:    []model.SourceTag{model.TagPlacesPhoneVerify},
		PhoneExact: true,
	}
	b := Score(c)
	assert.Equal(t, 99.0, b.Total)
	assert.False(t, b.Eliminated)
}

func TestScore_DirectoryEliminatedEvenWithPhoneExact(t *testing.T) {
	c := &model.DomainCandidate{
		Domain:     "yelp.com",
		PhoneExact: true,
		Judge:      &model.Verdict{Match: true, Confidence: 90, IsDirectorySite: true},
	}
	b := Score(c)
	assert.True(t, b.Eliminated)
	assert.Zero(t, b.Total)
}

func TestScore_JudgeContributions(t *testing.T) {
	match := &model.DomainCandidate{
		Sources: []model.SourceTag{model.TagWebSearchKG},
		Judge:   &model.Verdict{Match: true, Confidence: 80},
	}
	b := Score(match)
	assert.Equal(t, 30.0, b.SourcePrior)
	assert.Equal(t, 40.0, b.JudgeConfidence)
	assert.Equal(t, 70.0, b.Total)

	mismatch := &model.DomainCandidate{
		Sources: []model.SourceTag{model.TagWebSearchKG},
		Judge:   &model.Verdict{Match: false, Confidence: 80},
	}
	b = Score(mismatch)
	assert.Equal(t, -20.0, b.JudgeConfidence)
	assert.Equal(t, 10.0, b.Total)
}

func TestScore_ParentPenalty(t *testing.T) {
	c := &model.DomainCandidate{
		Sources: []model.SourceTag{model.TagWebSearchKG},
		Judge:   &model.Verdict{Match: true, Confidence: 80, IsParentCompany: true},
	}
	b := Score(c)
	assert.Equal(t, -30.0, b.ParentPenalty)
	assert.Equal(t, 40.0, b.Total)
}

func TestScore_MultiSourceAndSignals(t *testing.T) {
	c := &model.DomainCandidate{
		Sources: []model.SourceTag{model.TagPlacesNameMatch, model.TagWebSearchKG, model.TagLLMSearch},
		Signals: model.PageSignals{PhoneOnPage: true, CityOnPage: true, SchemaOrgNameMatch: true},
	}
	b := Score(c)
	assert.Equal(t, 35.0, b.SourcePrior)
	assert.Equal(t, 15.0, b.MultiSourceBonus)
	assert.Equal(t, 25.0, b.SignalBonus)
	assert.Equal(t, 75.0, b.Total)
}

func TestScore_ClampedToRange(t *testing.T) {
	high := &model.DomainCandidate{
		Sources: []model.SourceTag{model.TagPlacesNameMatch, model.TagWebSearchKG, model.TagB2BEnrich},
		Judge:   &model.Verdict{Match: true, Confidence: 99},
		Signals: model.PageSignals{PhoneOnPage: true, AddressOnPage: true, CityOnPage: true, SchemaOrgNameMatch: true},
	}
	assert.Equal(t, 99.0, Score(high).Total)

	low := &model.DomainCandidate{
		Sources: []model.SourceTag{model.TagDirectoryScrape},
		Judge:   &model.Verdict{Match: false, IsParentCompany: true},
	}
	assert.Equal(t, 0.0, Score(low).Total)
}

func TestRank_Deterministic(t *testing.T) {
	a := &model.DomainCandidate{Domain: "aaa.com", Sources: []model.SourceTag{model.TagWebSearchKG}}
	b := &model.DomainCandidate{Domain: "bb.com", Sources: []model.SourceTag{model.TagWebSearchKG}}

	// Same score twice: the shorter domain wins, in either input order.
	for _, cands := range [][]scored{
		{{a, Score(a)}, {b, Score(b)}},
		{{b, Score(b)}, {a, Score(a)}},
	} {
		rank(cands)
		assert.Equal(t, "bb.com", cands[0].cand.Domain)
	}
}

func TestRank_JudgeConfidenceBreaksTies(t *testing.T) {
	strong := &model.DomainCandidate{
		Domain:  "strong.com",
		Sources: []model.SourceTag{model.TagWebSearchKG},
		Judge:   &model.Verdict{Match: true, Confidence: 90},
	}
	weak := &model.DomainCandidate{
		Domain:  "weaker.com",
		Sources: []model.SourceTag{model.TagWebSearchKG},
		Judge:   &model.Verdict{Match: true, Confidence: 80},
	}

	cands := []scored{{weak, Score(weak)}, {strong, Score(strong)}}
	rank(cands)
	assert.Equal(t, "strong.com", cands[0].cand.Domain)
}

func TestSourceRank(t *testing.T) {
	phone := &model.DomainCandidate{Domain: "c.com", Sources: []model.SourceTag{model.TagPlacesPhoneVerify}, RawConfidence: 60}
	kg := &model.DomainCandidate{Domain: "a.com", Sources: []model.SourceTag{model.TagWebSearchKG}, RawConfidence: 80}
	llm := &model.DomainCandidate{Domain: "b.com", Sources: []model.SourceTag{model.TagLLMSearch}, RawConfidence: 95}

	cands := []*model.DomainCandidate{llm, kg, phone}
	sourceRank(cands)

	assert.Equal(t, "c.com", cands[0].Domain)
	assert.Equal(t, "a.com", cands[1].Domain)
	assert.Equal(t, "b.com", cands[2].Domain)
}

func TestSourceRank_RawConfidenceWithinSource(t *testing.T) {
	hi := &model.DomainCandidate{Domain: "hi.com", Sources: []model.SourceTag{model.TagWebSearchKG}, RawConfidence: 80}
	lo := &model.DomainCandidate{Domain: "lo.com", Sources: []model.SourceTag{model.TagWebSearchKG}, RawConfidence: 60}

	cands := []*model.DomainCandidate{lo, hi}
	sourceRank(cands)
	assert.Equal(t, "hi.com", cands[0].Domain)
}
