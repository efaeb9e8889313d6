package scrape

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/resolver-cli/pkg/jina"
)

// JinaFetcher fetches pages through the Jina AI Reader proxy. First
// fallback when the direct fetch is blocked.
type JinaFetcher struct {
	client jina.Client
}

// NewJinaFetcher creates a JinaFetcher.
func NewJinaFetcher(client jina.Client) *JinaFetcher {
	return &JinaFetcher{client: client}
}

// Name returns the fetch method tag.
func (f *JinaFetcher) Name() Method { return MethodJina }

// Fetch retrieves a URL via the reader proxy.
func (f *JinaFetcher) Fetch(ctx context.Context, targetURL string) (*Result, error) {
	resp, err := f.client.Read(ctx, NormalizeURL(targetURL))
	if err != nil {
		return nil, eris.Wrap(err, "jina fetch")
	}
	if resp.Data.Content == "" {
		return nil, eris.New("jina fetch: empty content")
	}

	return &Result{
		URL:        targetURL,
		Title:      resp.Data.Title,
		HTML:       resp.Data.HTML,
		Text:       resp.Data.Content,
		Method:     MethodJina,
		StatusCode: 200,
	}, nil
}
