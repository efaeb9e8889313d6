package jina

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantErr  string
		wantText string
	}{
		{
			name:   "success",
			status: http.StatusOK,
			body: `{
				"code": 200,
				"data": {
					"title": "Acme Plumbing",
					"url": "https://acmeplumbing.com",
					"content": "# Acme Plumbing\n\nLicensed plumbers in Austin since 1998.",
					"usage": {"tokens": 412}
				}
			}`,
			wantText: "Licensed plumbers",
		},
		{
			name:    "target blocked",
			status:  http.StatusUnprocessableEntity,
			body:    `{"code": 422, "message": "Target URL returned 403"}`,
			wantErr: "unexpected status 422",
		},
		{
			name:    "malformed response",
			status:  http.StatusOK,
			body:    `<html>`,
			wantErr: "unmarshal response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/https://acmeplumbing.com", r.URL.Path)
				assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
				assert.Equal(t, "markdown", r.Header.Get("X-Return-Format"))

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient("test-key", WithBaseURL(srv.URL))
			resp, err := client.Read(context.Background(), "https://acmeplumbing.com")

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Acme Plumbing", resp.Data.Title)
			assert.Contains(t, resp.Data.Content, tt.wantText)
			assert.Equal(t, 412, resp.Data.Usage.Tokens)
		})
	}
}
