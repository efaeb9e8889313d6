package firecrawl

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScrape(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{
			name:   "success",
			status: http.StatusOK,
			body: `{
				"success": true,
				"data": {
					"markdown": "# Acme Plumbing\n\nCall (512) 555-0100.",
					"metadata": {"title": "Acme Plumbing", "sourceURL": "https://acmeplumbing.com", "statusCode": 200}
				}
			}`,
		},
		{
			name:    "scrape unsuccessful",
			status:  http.StatusOK,
			body:    `{"success": false, "data": {}}`,
			wantErr: "scrape unsuccessful",
		},
		{
			name:    "malformed response",
			status:  http.StatusOK,
			body:    `[]`,
			wantErr: "unmarshal response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/scrape", r.URL.Path)
				assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

				var req ScrapeRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "https://acmeplumbing.com", req.URL)
				assert.Equal(t, []string{"markdown", "html"}, req.Formats)

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient("test-key", WithBaseURL(srv.URL))
			resp, err := client.Scrape(context.Background(), ScrapeRequest{URL: "https://acmeplumbing.com"})

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, resp.Success)
			assert.Contains(t, resp.Data.Markdown, "555-0100")
			assert.Equal(t, "Acme Plumbing", resp.Data.Metadata.Title)
		})
	}
}

func TestScrapeAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": "rate limit exceeded"}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.Scrape(context.Background(), ScrapeRequest{URL: "https://acmeplumbing.com"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "status 429")
}
