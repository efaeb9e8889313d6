// Package pdl provides a client for the People Data Labs company enrichment
// and person search APIs.
package pdl

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.peopledatalabs.com/v5"

// Client defines the PDL operations used by the b2b_enrich adapter.
type Client interface {
	// EnrichCompany resolves a company to its canonical record.
	EnrichCompany(ctx context.Context, req CompanyEnrichRequest) (*Company, error)
	// SearchPeople finds people at a company domain.
	SearchPeople(ctx context.Context, req PersonSearchRequest) (*PersonSearchResponse, error)
}

// CompanyEnrichRequest identifies a company by name and/or website.
type CompanyEnrichRequest struct {
	Name     string
	Website  string
	Location string
}

// Company is a PDL company record (fields the pipeline uses).
type Company struct {
	Name          string  `json:"name"`
	Website       string  `json:"website"`
	Size          string  `json:"size"`
	Industry      string  `json:"industry"`
	LinkedInURL   string  `json:"linkedin_url"`
	Location      string  `json:"location.name"`
	Likelihood    float64 `json:"likelihood"`
	EmployeeCount int     `json:"employee_count"`
}

// PersonSearchRequest finds people at a company.
type PersonSearchRequest struct {
	CompanyDomain string
	Titles        []string
	Size          int
}

// PersonSearchResponse wraps the person search results.
type PersonSearchResponse struct {
	Status int      `json:"status"`
	Total  int      `json:"total"`
	Data   []Person `json:"data"`
}

// Person is a PDL person record (fields the pipeline uses).
type Person struct {
	FullName       string `json:"full_name"`
	JobTitle       string `json:"job_title"`
	WorkEmail      string `json:"work_email"`
	MobilePhone    string `json:"mobile_phone"`
	LinkedInURL    string `json:"linkedin_url"`
	JobCompanyName string `json:"job_company_name"`
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

// NewClient creates a People Data Labs client.
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

func (c *httpClient) EnrichCompany(ctx context.Context, req CompanyEnrichRequest) (*Company, error) {
	q := url.Values{}
	if req.Name != "" {
		q.Set("name", req.Name)
	}
	if req.Website != "" {
		q.Set("website", req.Website)
	}
	if req.Location != "" {
		q.Set("location", req.Location)
	}
	q.Set("min_likelihood", "2")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/company/enrich?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "pdl: create request")
	}
	httpReq.Header.Set("X-Api-Key", c.apiKey)

	body, status, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}
	// 404 means no match, not a failure.
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, eris.Errorf("pdl: company enrich status %d: %s", status, string(body))
	}

	var out Company
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "pdl: unmarshal company")
	}
	return &out, nil
}

type personSearchQuery struct {
	Query string `json:"sql"`
	Size  int    `json:"size"`
}

func (c *httpClient) SearchPeople(ctx context.Context, req PersonSearchRequest) (*PersonSearchResponse, error) {
	size := req.Size
	if size <= 0 {
		size = 5
	}

	sql := "SELECT * FROM person WHERE job_company_website='" + req.CompanyDomain + "'"
	if len(req.Titles) > 0 {
		sql += " AND job_title_levels IN ("
		for i, t := range req.Titles {
			if i > 0 {
				sql += ", "
			}
			sql += "'" + t + "'"
		}
		sql += ")"
	}

	body, err := json.Marshal(personSearchQuery{Query: sql, Size: size})
	if err != nil {
		return nil, eris.Wrap(err, "pdl: marshal search")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/person/search", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "pdl: create search request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)

	respBody, status, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return &PersonSearchResponse{Status: status}, nil
	}
	if status != http.StatusOK {
		return nil, eris.Errorf("pdl: person search status %d: %s", status, string(respBody))
	}

	var out PersonSearchResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, eris.Wrap(err, "pdl: unmarshal search")
	}
	return &out, nil
}

func (c *httpClient) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, eris.Wrap(err, "pdl: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, resp.StatusCode, eris.Wrap(err, "pdl: read response")
	}
	return body, resp.StatusCode, nil
}
