package pdl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrichCompany(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantErr  string
		wantNil  bool
		wantSite string
	}{
		{
			name:   "match",
			status: http.StatusOK,
			body: `{
				"name": "acme plumbing",
				"website": "acmeplumbing.com",
				"size": "11-50",
				"industry": "construction",
				"linkedin_url": "linkedin.com/company/acme-plumbing",
				"likelihood": 8,
				"employee_count": 24
			}`,
			wantSite: "acmeplumbing.com",
		},
		{
			name:    "no match is not an error",
			status:  http.StatusNotFound,
			body:    `{"status": 404, "error": {"type": "not_found"}}`,
			wantNil: true,
		},
		{
			name:    "quota exhausted",
			status:  http.StatusPaymentRequired,
			body:    `{"error": {"type": "payment_required"}}`,
			wantErr: "company enrich status 402",
		},
		{
			name:    "malformed response",
			status:  http.StatusOK,
			body:    `{{`,
			wantErr: "unmarshal company",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/company/enrich", r.URL.Path)
				assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
				assert.Equal(t, "Acme Plumbing", r.URL.Query().Get("name"))
				assert.Equal(t, "Austin, TX", r.URL.Query().Get("location"))
				assert.Equal(t, "2", r.URL.Query().Get("min_likelihood"))

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient("test-key", WithBaseURL(srv.URL))
			company, err := client.EnrichCompany(context.Background(), CompanyEnrichRequest{
				Name:     "Acme Plumbing",
				Location: "Austin, TX",
			})

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, company)
				return
			}
			require.NotNil(t, company)
			assert.Equal(t, tt.wantSite, company.Website)
			assert.Equal(t, 24, company.EmployeeCount)
		})
	}
}

func TestSearchPeople(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/person/search", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		var q personSearchQuery
		require.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		assert.Contains(t, q.Query, "job_company_website='acmeplumbing.com'")
		assert.Contains(t, q.Query, "job_title_levels IN ('owner', 'director')")
		assert.Equal(t, 5, q.Size)

		_, _ = w.Write([]byte(`{
			"status": 200,
			"total": 1,
			"data": [{
				"full_name": "Jane Smith",
				"job_title": "Owner",
				"work_email": "jane@acmeplumbing.com",
				"linkedin_url": "linkedin.com/in/jane-smith",
				"job_company_name": "Acme Plumbing"
			}]
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.SearchPeople(context.Background(), PersonSearchRequest{
		CompanyDomain: "acmeplumbing.com",
		Titles:        []string{"owner", "director"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Jane Smith", resp.Data[0].FullName)
	assert.Equal(t, "jane@acmeplumbing.com", resp.Data[0].WorkEmail)
}

func TestSearchPeopleNoMatches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status": 404}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.SearchPeople(context.Background(), PersonSearchRequest{CompanyDomain: "nobody.example"})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Empty(t, resp.Data)
}
