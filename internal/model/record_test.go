package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddStage_AccruesCost(t *testing.T) {
	rec := &ResolvedRecord{InputID: "r1"}
	rec.AddStage(StageEvent{Tag: TagPlacesPhoneVerify, CostUSD: 0.017})
	rec.AddStage(StageEvent{Tag: TagSiteScrape, CostUSD: 0.006})

	assert.InDelta(t, 0.023, rec.TotalCostUSD, 1e-9)
	assert.Equal(t, []SourceTag{TagPlacesPhoneVerify, TagSiteScrape}, rec.StageTags())
	assert.Equal(t, "places_phone_verify;site_scrape", rec.StageTagString())
}

func TestHasError(t *testing.T) {
	rec := &ResolvedRecord{}
	rec.AddError(ErrAdapterTimeout, TagWebSearchKG, "deadline")

	assert.True(t, rec.HasError(ErrAdapterTimeout))
	assert.False(t, rec.HasError(ErrJudgeUnavailable))
}

func TestValidContact_PicksHighestConfidence(t *testing.T) {
	rec := &ResolvedRecord{
		Contacts: []Contact{
			{Name: "A", Confidence: 90, IsValid: false},
			{Name: "B", Confidence: 60, IsValid: true},
			{Name: "C", Confidence: 75, IsValid: true},
		},
	}

	best := rec.ValidContact()
	require.NotNil(t, best)
	assert.Equal(t, "C", best.Name)

	empty := &ResolvedRecord{}
	assert.Nil(t, empty.ValidContact())
}

func TestResolvedRecord_JSONRoundTrip(t *testing.T) {
	deliverable := true
	rec := &ResolvedRecord{
		InputID:          "row-7",
		Domain:           "acmeplumbing.com",
		DomainConfidence: 87.5,
		DomainSource:     TagWebSearchKG,
		Contacts: []Contact{{
			Name:        "Jane Smith",
			Title:       "Owner",
			Email:       "jane@acmeplumbing.com",
			LinkedInURL: "linkedin.com/in/janesmith",
			Sources:     []SourceTag{TagSiteScrape, TagSocialSearch},
			Signals:     ContactSignals{EmailSyntaxValid: true, Deliverable: &deliverable, LinkedInNormalized: true},
			Confidence:  82,
			IsValid:     true,
		}},
		Stages: []StageEvent{
			{Tag: TagPlacesPhoneVerify, CostUSD: 0.017, Candidates: 1},
			{Tag: TagSiteScrape, CostUSD: 0.006, Candidates: 0, Pivot: true},
		},
		TotalCostUSD: 0.023,
		Errors:       []RowError{{Kind: ErrAdapterQuota, Stage: TagB2BEnrich, Detail: "429"}},
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"stages_completed"`)
	assert.Contains(t, string(data), `"needs_manual_review"`)

	var got ResolvedRecord
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, *rec, got)
}

func TestCandidateSourceHelpers(t *testing.T) {
	c := &DomainCandidate{Domain: "acme.com"}
	c.AddSource(TagWebSearchKG)
	c.AddSource(TagWebSearchKG)
	c.AddSource(TagLLMSearch)

	assert.Equal(t, []SourceTag{TagWebSearchKG, TagLLMSearch}, c.Sources)
	assert.True(t, c.HasSource(TagLLMSearch))
	assert.False(t, c.HasSource(TagB2BEnrich))
}

func TestSourceTagPriority(t *testing.T) {
	assert.Less(t, TagPlacesPhoneVerify.Priority(), TagWebSearchKG.Priority())
	assert.Less(t, TagWebSearchKG.Priority(), TagDirectoryScrape.Priority())
	assert.Equal(t, len(sourceTagPriority), SourceTag("bogus").Priority())
}

func TestContactIdentity(t *testing.T) {
	assert.False(t, (&Contact{Title: "Owner"}).Identity())
	assert.True(t, (&Contact{Phone: "+15125550134"}).Identity())
	assert.True(t, (&Contact{LinkedInURL: "linkedin.com/in/x"}).Identity())
}

func TestTruncateError(t *testing.T) {
	long := strings.Repeat("x", 1500)
	assert.Len(t, TruncateError(long), 1000)
	assert.Equal(t, "short", TruncateError("short"))
}

func TestCSVRow_TopContactAndOverflow(t *testing.T) {
	rec := &ResolvedRecord{
		InputID:          "r1",
		Domain:           "acme.com",
		DomainConfidence: 91.2,
		DomainSource:     TagPlacesPhoneVerify,
		Contacts: []Contact{
			{Name: "Backup", Confidence: 50, IsValid: false},
			{Name: "Jane Smith", Email: "jane@acme.com", Confidence: 80, IsValid: true},
		},
		Stages: []StageEvent{{Tag: TagPlacesPhoneVerify}},
	}

	row := CSVRow("Acme Plumbing", rec)
	require.Len(t, row, len(CSVHeader))
	assert.Equal(t, "Acme Plumbing", row[0])
	assert.Equal(t, "acme.com", row[1])
	assert.Equal(t, "91.2", row[2])
	assert.Equal(t, "Jane Smith", row[5])
	assert.Equal(t, "true", row[11]) // has_more_contacts
	assert.Equal(t, "places_phone_verify", row[12])
}

func TestCSVRow_NoContacts(t *testing.T) {
	rec := &ResolvedRecord{NeedsManualReview: true, Errors: []RowError{{Kind: ErrNoCandidate, Detail: "nothing found"}}}
	row := CSVRow("Ghost LLC", rec)
	require.Len(t, row, len(CSVHeader))
	assert.Equal(t, "true", row[4])
	assert.Empty(t, row[5])
	assert.Contains(t, row[13], "no_candidate")
}
