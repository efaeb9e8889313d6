package scrape

import (
	"context"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// DirectFetcher fetches HTML via net/http, detects blocks, and converts to
// plaintext. Free, no API calls. Falls through to Jina/Firecrawl when blocked.
type DirectFetcher struct {
	client *http.Client
}

// NewDirectFetcher creates a DirectFetcher with a 10s budget.
func NewDirectFetcher() *DirectFetcher {
	return &DirectFetcher{
		client: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		},
	}
}

// Name returns the fetch method tag.
func (f *DirectFetcher) Name() Method { return MethodDirect }

// Fetch retrieves a URL, rejects blocked or error responses so the chain can
// fall through to the anti-bot fetchers.
func (f *DirectFetcher) Fetch(ctx context.Context, targetURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, NormalizeURL(targetURL), nil)
	if err != nil {
		return nil, eris.Wrap(err, "direct: create request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; ResolverBot/1.0)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "direct: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, eris.Wrap(err, "direct: read body")
	}

	if blocked, blockType := DetectBlock(resp, body); blocked {
		return nil, eris.Errorf("direct: blocked (%s)", blockType)
	}
	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("direct: status %d", resp.StatusCode)
	}
	if len(body) < 100 {
		return nil, eris.New("direct: empty page")
	}

	html := string(body)
	return &Result{
		URL:        targetURL,
		Title:      extractTitle(body),
		HTML:       html,
		Text:       StripHTML(html),
		Method:     MethodDirect,
		StatusCode: resp.StatusCode,
	}, nil
}

var titleRe = regexp.MustCompile(`(?i)<title[^>]*>(.*?)</title>`)

func extractTitle(body []byte) string {
	m := titleRe.FindSubmatch(body)
	if len(m) > 1 {
		return strings.TrimSpace(string(m[1]))
	}
	return ""
}

var (
	tagRe   = regexp.MustCompile(`<[^>]+>`)
	spaceRe = regexp.MustCompile(`[ \t]+`)
	nlRe    = regexp.MustCompile(`\n{3,}`)
)

// StripHTML removes scripts/styles/nav/footer, strips tags, decodes entities,
// and collapses whitespace into plaintext.
func StripHTML(html string) string {
	for _, tag := range []string{"script", "style", "nav", "footer", "noscript"} {
		re := regexp.MustCompile(`(?is)<` + tag + `[^>]*>.*?</` + tag + `>`)
		html = re.ReplaceAllString(html, "")
	}

	html = tagRe.ReplaceAllString(html, " ")

	r := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
	html = r.Replace(html)

	html = spaceRe.ReplaceAllString(html, " ")
	html = nlRe.ReplaceAllString(html, "\n\n")

	return strings.TrimSpace(html)
}
