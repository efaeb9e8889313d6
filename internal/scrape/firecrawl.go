package scrape

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/resolver-cli/pkg/firecrawl"
)

// FirecrawlFetcher is the last-resort anti-bot fetcher.
type FirecrawlFetcher struct {
	client firecrawl.Client
}

// NewFirecrawlFetcher creates a FirecrawlFetcher.
func NewFirecrawlFetcher(client firecrawl.Client) *FirecrawlFetcher {
	return &FirecrawlFetcher{client: client}
}

// Name returns the fetch method tag.
func (f *FirecrawlFetcher) Name() Method { return MethodFirecrawl }

// Fetch scrapes a URL through Firecrawl's rendering proxy.
func (f *FirecrawlFetcher) Fetch(ctx context.Context, targetURL string) (*Result, error) {
	resp, err := f.client.Scrape(ctx, firecrawl.ScrapeRequest{
		URL:     NormalizeURL(targetURL),
		Formats: []string{"markdown", "html"},
	})
	if err != nil {
		return nil, eris.Wrap(err, "firecrawl fetch")
	}
	if resp.Data.Markdown == "" {
		return nil, eris.New("firecrawl fetch: empty content")
	}

	status := resp.Data.StatusCode
	if status == 0 {
		status = resp.Data.Metadata.StatusCode
	}
	title := resp.Data.Title
	if title == "" {
		title = resp.Data.Metadata.Title
	}

	return &Result{
		URL:        targetURL,
		Title:      title,
		HTML:       resp.Data.HTML,
		Text:       resp.Data.Markdown,
		Method:     MethodFirecrawl,
		StatusCode: status,
	}, nil
}
