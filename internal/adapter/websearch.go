package adapter

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/resolver-cli/internal/model"
	"github.com/sells-group/resolver-cli/internal/normalize"
	"github.com/sells-group/resolver-cli/pkg/serper"
)

// WebSearchKG runs a general web search for the company. The knowledge graph
// website, when present, is a strong signal; organic hits contribute weaker
// candidates with declining confidence by rank.
type WebSearchKG struct {
	client serper.Client
	cost   float64
}

// NewWebSearchKG creates the web-search adapter.
func NewWebSearchKG(client serper.Client, costUSD float64) *WebSearchKG {
	return &WebSearchKG{client: client, cost: costUSD}
}

func (a *WebSearchKG) Tag() model.SourceTag { return model.TagWebSearchKG }
func (a *WebSearchKG) CostPerCall() float64 { return a.cost }

func (a *WebSearchKG) Call(ctx context.Context, q Query) (*Result, error) {
	in := q.Normalized.Input

	query := in.Name
	if in.City != "" {
		query += " " + in.City
	}
	if in.State != "" {
		query += " " + in.State
	}

	resp, err := a.client.Search(ctx, serper.SearchRequest{
		Query:      query,
		NumResults: 10,
	})
	if err != nil {
		return nil, eris.Wrap(err, "adapter: web search")
	}

	res := &Result{}
	seen := map[string]bool{}

	if kg := resp.KnowledgeGraph; kg != nil && kg.Website != "" {
		if domain := normalize.CleanDomain(kg.Website); domain != "" && !IsDirectoryDomain(domain) {
			cand := model.DomainCandidate{Domain: domain, RawConfidence: 80}
			cand.AddSource(model.TagWebSearchKG)
			res.Domains = append(res.Domains, cand)
			seen[domain] = true
		}
	}

	conf := 65.0
	for _, hit := range resp.Organic {
		if len(res.Domains) >= 5 {
			break
		}
		domain := normalize.CleanDomain(hit.Link)
		if domain == "" || seen[domain] || IsDirectoryDomain(domain) {
			continue
		}
		seen[domain] = true

		cand := model.DomainCandidate{Domain: domain, RawConfidence: conf}
		cand.AddSource(model.TagWebSearchKG)
		res.Domains = append(res.Domains, cand)
		if conf > 40 {
			conf -= 5
		}
	}
	return res, nil
}

// DirectoryScrape queries search results restricted to business directory
// sites. Directory listings frequently carry the company's own website URL,
// which surfaces in the result snippets and links.
type DirectoryScrape struct {
	client serper.Client
	cost   float64
}

// NewDirectoryScrape creates the directory-search adapter.
func NewDirectoryScrape(client serper.Client, costUSD float64) *DirectoryScrape {
	return &DirectoryScrape{client: client, cost: costUSD}
}

func (a *DirectoryScrape) Tag() model.SourceTag { return model.TagDirectoryScrape }
func (a *DirectoryScrape) CostPerCall() float64 { return a.cost }

var directorySearchSites = []string{"yelp.com", "bbb.org", "yellowpages.com"}

func (a *DirectoryScrape) Call(ctx context.Context, q Query) (*Result, error) {
	in := q.Normalized.Input

	var sites []string
	for _, s := range directorySearchSites {
		sites = append(sites, "site:"+s)
	}
	query := in.Name + " (" + strings.Join(sites, " OR ") + ")"
	if in.City != "" {
		query += " " + in.City
	}

	resp, err := a.client.Search(ctx, serper.SearchRequest{
		Query:      query,
		NumResults: 10,
	})
	if err != nil {
		return nil, eris.Wrap(err, "adapter: directory search")
	}

	// Directory hits themselves are never candidates. Mine the snippets for
	// the company's own URL instead.
	res := &Result{}
	seen := map[string]bool{}
	for _, hit := range resp.Organic {
		for _, domain := range snippetDomains(hit.Snippet) {
			if seen[domain] || IsDirectoryDomain(domain) {
				continue
			}
			if !normalize.DomainMatchesName(domain, in.Name) {
				continue
			}
			seen[domain] = true
			cand := model.DomainCandidate{Domain: domain, RawConfidence: 55}
			cand.AddSource(model.TagDirectoryScrape)
			res.Domains = append(res.Domains, cand)
		}
	}
	return res, nil
}

// snippetDomains pulls bare domain mentions out of a search snippet.
func snippetDomains(snippet string) []string {
	var out []string
	for _, tok := range strings.Fields(snippet) {
		tok = strings.Trim(tok, ".,;:()[]\"'")
		if !strings.Contains(tok, ".") || strings.Contains(tok, "@") {
			continue
		}
		if d := normalize.CleanDomain(tok); d != "" {
			out = append(out, d)
		}
	}
	return out
}
