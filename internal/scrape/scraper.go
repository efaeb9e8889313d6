// Package scrape fetches pages through a chain of fetchers: a direct HTTP
// client first, then Jina Reader, then Firecrawl for anti-bot targets.
package scrape

import (
	"context"
	"strings"
)

// Method identifies which fetcher produced a page.
type Method string

const (
	MethodDirect    Method = "direct"
	MethodJina      Method = "jina"
	MethodFirecrawl Method = "firecrawl"
)

// Result is one fetched page.
type Result struct {
	URL        string `json:"url"`
	Title      string `json:"title,omitempty"`
	HTML       string `json:"html,omitempty"`
	Text       string `json:"text"`
	Method     Method `json:"method"`
	StatusCode int    `json:"status_code"`
}

// Empty reports whether the page text has under 50 non-whitespace
// characters and should be treated as no content.
func (r *Result) Empty() bool {
	n := 0
	for _, c := range r.Text {
		if !isSpace(c) {
			n++
			if n >= 50 {
				return false
			}
		}
	}
	return true
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// Fetcher is one stage in the fetch chain.
type Fetcher interface {
	Name() Method
	Fetch(ctx context.Context, targetURL string) (*Result, error)
}

// NormalizeURL ensures a fetchable URL from a bare domain.
func NormalizeURL(target string) string {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return target
	}
	return "https://" + target
}
