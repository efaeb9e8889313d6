// Package emailcheck provides a client for the Emailable verification API.
package emailcheck

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.emailable.com/v1"

// Client verifies email deliverability.
type Client interface {
	Verify(ctx context.Context, email string) (*Verification, error)
}

// Verification is the structured verifier response.
type Verification struct {
	Email        string `json:"email"`
	State        string `json:"state"`  // deliverable | undeliverable | risky | unknown
	Reason       string `json:"reason"` // accepted_email, invalid_domain, ...
	Domain       string `json:"domain"`
	Disposable   bool   `json:"disposable"`
	Free         bool   `json:"free"`
	Role         bool   `json:"role"`
	AcceptAll    bool   `json:"accept_all"`
	MXRecord     string `json:"mx_record"`
	SMTPProvider string `json:"smtp_provider"`
}

// Deliverable reports whether the verifier judged the address deliverable.
func (v *Verification) Deliverable() bool {
	return v.State == "deliverable"
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates an Emailable verification client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Verify(ctx context.Context, email string) (*Verification, error) {
	q := url.Values{}
	q.Set("email", email)
	q.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/verify?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "emailcheck: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "emailcheck: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, eris.Wrap(err, "emailcheck: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("emailcheck: status %d: %s", resp.StatusCode, string(body))
	}

	var out Verification
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "emailcheck: unmarshal response")
	}

	return &out, nil
}
