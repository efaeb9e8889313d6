package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/resolver-cli/internal/model"
)

func TestFormatJobsList(t *testing.T) {
	created := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	started := created.Add(time.Second)
	completed := started.Add(2350 * time.Millisecond)

	jobs := []model.Job{
		{
			ID:          "job-1",
			Input:       model.CompanyInput{Name: "Acme Plumbing"},
			Status:      model.JobCompleted,
			CreatedAt:   created,
			StartedAt:   &started,
			CompletedAt: &completed,
			Record: &model.ResolvedRecord{
				Domain:   "acmeplumbing.com",
				Contacts: []model.Contact{{Name: "Jane Smith"}, {Name: "Bob Lee"}},
			},
		},
		{
			ID:        "job-2",
			Input:     model.CompanyInput{Name: "Bayside Dental"},
			Status:    model.JobPending,
			CreatedAt: created,
		},
	}

	var buf bytes.Buffer
	formatJobsList(&buf, jobs)
	out := buf.String()

	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "COMPANY")
	assert.Contains(t, out, "Acme Plumbing")
	assert.Contains(t, out, "acmeplumbing.com")
	assert.Contains(t, out, "2.35s")
	assert.Contains(t, out, "Bayside Dental")
	assert.Contains(t, out, "pending")
}
