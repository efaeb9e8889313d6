package main

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/resolver-cli/internal/model"
	"github.com/sells-group/resolver-cli/internal/pipeline"
)

func TestWriteBatchCSV(t *testing.T) {
	rows := []model.CompanyInput{
		{ID: "row-1", Name: "Acme Plumbing"},
		{ID: "row-2", Name: "Bayside Dental"},
		{ID: "row-3", Name: "Crashed Row LLC"},
	}
	result := &pipeline.BatchResult{
		Total:     3,
		Succeeded: 2,
		Failed:    1,
		Jobs: []*model.Job{
			{
				Status: model.JobCompleted,
				Record: &model.ResolvedRecord{
					InputID:          "row-1",
					Domain:           "acmeplumbing.com",
					DomainConfidence: 92.5,
					DomainSource:     model.TagPlacesNameMatch,
					Contacts: []model.Contact{
						{Name: "Jane Smith", Title: "Owner", Email: "jane@acmeplumbing.com", IsValid: true, Confidence: 85},
					},
					Stages: []model.StageEvent{{Tag: model.TagPlacesNameMatch}, {Tag: model.TagSiteScrape}},
				},
			},
			{
				Status: model.JobCompleted,
				Record: &model.ResolvedRecord{
					InputID:           "row-2",
					NeedsManualReview: true,
					Errors:            []model.RowError{{Kind: model.ErrNoCandidate, Detail: "no candidates survived"}},
				},
			},
			nil,
		},
	}

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, writeBatchCSV(path, rows, result))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, model.CSVHeader, records[0])

	resolved := records[1]
	assert.Equal(t, "Acme Plumbing", resolved[0])
	assert.Equal(t, "acmeplumbing.com", resolved[1])
	assert.Equal(t, "92.5", resolved[2])
	assert.Equal(t, "false", resolved[4])
	assert.Equal(t, "jane@acmeplumbing.com", resolved[7])
	assert.Equal(t, "places_name_match;site_scrape", resolved[12])

	review := records[2]
	assert.Equal(t, "Bayside Dental", review[0])
	assert.Equal(t, "", review[1])
	assert.Equal(t, "true", review[4])
	assert.Contains(t, review[13], "no_candidate")

	// A row whose job never materialized still gets an output line.
	crashed := records[3]
	assert.Equal(t, "Crashed Row LLC", crashed[0])
	assert.Equal(t, "true", crashed[4])
}
