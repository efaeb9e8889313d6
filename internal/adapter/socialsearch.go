package adapter

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/resolver-cli/internal/model"
	"github.com/sells-group/resolver-cli/pkg/serper"
)

// SocialSearch finds people at the company through LinkedIn profile search
// results. Profile titles carry "Name - Title - Company" which is enough to
// seed a contact record for validation.
type SocialSearch struct {
	client serper.Client
	cost   float64
}

// NewSocialSearch creates the social-profile search adapter.
func NewSocialSearch(client serper.Client, costUSD float64) *SocialSearch {
	return &SocialSearch{client: client, cost: costUSD}
}

func (a *SocialSearch) Tag() model.SourceTag { return model.TagSocialSearch }
func (a *SocialSearch) CostPerCall() float64 { return a.cost }

func (a *SocialSearch) Call(ctx context.Context, q Query) (*Result, error) {
	in := q.Normalized.Input

	query := "site:linkedin.com/in " + in.Name
	if in.City != "" {
		query += " " + in.City
	}

	resp, err := a.client.Search(ctx, serper.SearchRequest{Query: query, NumResults: 10})
	if err != nil {
		return nil, eris.Wrap(err, "adapter: social search")
	}

	res := &Result{}
	for _, hit := range resp.Organic {
		if !strings.Contains(hit.Link, "linkedin.com/in/") {
			continue
		}
		name, title := parseProfileTitle(hit.Title)
		if name == "" {
			continue
		}
		c := model.Contact{
			Name:        name,
			Title:       title,
			LinkedInURL: hit.Link,
		}
		c.AddSource(model.TagSocialSearch)
		res.Contacts = append(res.Contacts, c)
		if len(res.Contacts) >= 5 {
			break
		}
	}
	return res, nil
}

// parseProfileTitle splits "Jane Smith - Owner - Acme Plumbing | LinkedIn"
// into name and title.
func parseProfileTitle(title string) (string, string) {
	title = strings.TrimSuffix(title, "| LinkedIn")
	title = strings.TrimSuffix(strings.TrimSpace(title), "- LinkedIn")

	parts := strings.Split(title, " - ")
	if len(parts) == 0 {
		return "", ""
	}
	name := strings.TrimSpace(parts[0])
	if name == "" || strings.Contains(name, "|") {
		return "", ""
	}
	var role string
	if len(parts) > 1 {
		role = strings.TrimSpace(parts[1])
	}
	return name, role
}
