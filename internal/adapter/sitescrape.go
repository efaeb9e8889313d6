package adapter

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sells-group/resolver-cli/internal/extract"
	"github.com/sells-group/resolver-cli/internal/model"
	"github.com/sells-group/resolver-cli/internal/scrape"
)

// contactPaths are scraped alongside the homepage, in priority order.
var contactPaths = []string{"/about", "/team", "/contact", "/about-us", "/our-team"}

// SiteScrape fetches the resolved company site and extracts contact signals
// from the homepage and the usual about/team/contact pages.
type SiteScrape struct {
	chain *scrape.Chain
	cost  float64
}

// NewSiteScrape creates the site-scraping adapter.
func NewSiteScrape(chain *scrape.Chain, costUSD float64) *SiteScrape {
	return &SiteScrape{chain: chain, cost: costUSD}
}

func (a *SiteScrape) Tag() model.SourceTag { return model.TagSiteScrape }
func (a *SiteScrape) CostPerCall() float64 { return a.cost }

func (a *SiteScrape) Call(ctx context.Context, q Query) (*Result, error) {
	if q.Domain == "" {
		return &Result{}, nil
	}

	urls := []string{"https://" + q.Domain}
	for _, p := range contactPaths {
		urls = append(urls, "https://"+q.Domain+p)
	}

	var mu sync.Mutex
	var pages []extract.Signals

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(3)
	for _, u := range urls {
		g.Go(func() error {
			page, err := a.chain.Fetch(gctx, u)
			if err != nil || page.Empty() {
				// Subpages often 404; only the homepage failing matters and
				// even then signal extraction proceeds on whatever came back.
				return nil
			}
			sig := extract.FromPage(page)
			mu.Lock()
			pages = append(pages, sig)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{}
	seen := map[string]bool{}
	for _, sig := range pages {
		for _, c := range contactsFromSignals(q.Domain, sig) {
			key := strings.ToLower(c.Name + "|" + c.Email)
			if seen[key] {
				continue
			}
			seen[key] = true
			res.Contacts = append(res.Contacts, c)
		}
	}
	return res, nil
}

// contactsFromSignals folds one page's extracted signals into contacts.
// Named people anchor the records; loose emails on the company's own domain
// become anonymous contacts so validation can still score them.
func contactsFromSignals(domain string, sig extract.Signals) []model.Contact {
	var out []model.Contact

	linkedins := map[string]string{}
	for _, s := range sig.Socials {
		if strings.Contains(s, "linkedin.com/in/") {
			linkedins[strings.ToLower(s)] = s
		}
	}

	for _, p := range sig.People {
		c := model.Contact{Name: p.Name, Title: p.Title}
		c.AddSource(model.TagSiteScrape)
		if email := matchEmailToName(sig.Emails, p.Name, domain); email != "" {
			c.Email = email
		}
		if len(sig.Phones) == 1 {
			c.Phone = sig.Phones[0]
		}
		out = append(out, c)
	}

	claimed := map[string]bool{}
	for _, c := range out {
		if c.Email != "" {
			claimed[strings.ToLower(c.Email)] = true
		}
	}
	for _, email := range sig.Emails {
		if claimed[strings.ToLower(email)] {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(email), "@"+domain) {
			continue
		}
		c := model.Contact{Email: email}
		c.AddSource(model.TagSiteScrape)
		out = append(out, c)
	}
	return out
}

// matchEmailToName finds an on-domain email whose local part contains the
// person's first or last name.
func matchEmailToName(emails []string, name, domain string) string {
	parts := strings.Fields(strings.ToLower(name))
	for _, email := range emails {
		lower := strings.ToLower(email)
		if !strings.HasSuffix(lower, "@"+domain) {
			continue
		}
		local := strings.SplitN(lower, "@", 2)[0]
		for _, p := range parts {
			if len(p) >= 3 && strings.Contains(local, p) {
				return email
			}
		}
	}
	return ""
}
