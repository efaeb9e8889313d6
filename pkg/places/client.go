// Package places provides a client for the Google Places API (new) Text
// Search endpoint.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://places.googleapis.com/v1"

// Client performs Google Places API operations.
type Client interface {
	TextSearch(ctx context.Context, req TextSearchRequest) (*TextSearchResponse, error)
}

// TextSearchRequest is the query for Places Text Search.
type TextSearchRequest struct {
	Query        string
	MaxResults   int
	LocationBias string // free-form "city, state" appended to the query
}

// TextSearchResponse is the response from Places Text Search.
type TextSearchResponse struct {
	Places []Place `json:"places"`
}

// Place represents a place returned by the API.
type Place struct {
	ID                 string      `json:"id"`
	DisplayName        DisplayName `json:"displayName"`
	FormattedAddress   string      `json:"formattedAddress"`
	NationalPhone      string      `json:"nationalPhoneNumber"`
	InternationalPhone string      `json:"internationalPhoneNumber"`
	WebsiteURI         string      `json:"websiteUri"`
	BusinessStatus     string      `json:"businessStatus"`
	Rating             float64     `json:"rating"`
	UserRatingCount    int         `json:"userRatingCount"`
}

// DisplayName holds the place's display name.
type DisplayName struct {
	Text string `json:"text"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
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

// NewClient creates a Google Places API client.
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

type textSearchRequest struct {
	TextQuery      string `json:"textQuery"`
	MaxResultCount int    `json:"maxResultCount,omitempty"`
}

const fieldMask = "places.id,places.displayName,places.formattedAddress," +
	"places.nationalPhoneNumber,places.internationalPhoneNumber," +
	"places.websiteUri,places.businessStatus,places.rating,places.userRatingCount"

func (c *httpClient) TextSearch(ctx context.Context, req TextSearchRequest) (*TextSearchResponse, error) {
	query := req.Query
	if req.LocationBias != "" {
		query += " " + req.LocationBias
	}

	body, err := json.Marshal(textSearchRequest{
		TextQuery:      query,
		MaxResultCount: req.MaxResults,
	})
	if err != nil {
		return nil, eris.Wrap(err, "places: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/places:searchText", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "places: create request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Goog-Api-Key", c.apiKey)
	httpReq.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "places: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, eris.Wrap(err, "places: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("places: status %d: %s", resp.StatusCode, string(respBody))
	}

	var out TextSearchResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, eris.Wrap(err, "places: unmarshal response")
	}

	return &out, nil
}
