package adapter

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/resolver-cli/internal/model"
	"github.com/sells-group/resolver-cli/internal/normalize"
	"github.com/sells-group/resolver-cli/pkg/pdl"
)

// B2BEnrich resolves companies and people through the People Data Labs API.
// With no domain it enriches the company record for a domain candidate; once
// a domain is known it searches for decision-maker contacts at that domain.
type B2BEnrich struct {
	client pdl.Client
	cost   float64
}

// NewB2BEnrich creates the enrichment adapter.
func NewB2BEnrich(client pdl.Client, costUSD float64) *B2BEnrich {
	return &B2BEnrich{client: client, cost: costUSD}
}

func (a *B2BEnrich) Tag() model.SourceTag { return model.TagB2BEnrich }
func (a *B2BEnrich) CostPerCall() float64 { return a.cost }

// decisionTitles is the title filter for person search, broadest first.
var decisionTitles = []string{
	"owner", "founder", "co-founder", "ceo", "president",
	"managing partner", "principal", "general manager", "office manager",
}

func (a *B2BEnrich) Call(ctx context.Context, q Query) (*Result, error) {
	if q.Domain != "" {
		return a.searchPeople(ctx, q)
	}
	return a.enrichCompany(ctx, q)
}

func (a *B2BEnrich) enrichCompany(ctx context.Context, q Query) (*Result, error) {
	in := q.Normalized.Input

	company, err := a.client.EnrichCompany(ctx, pdl.CompanyEnrichRequest{
		Name:     in.Name,
		Location: locationBias(in),
	})
	if err != nil {
		return nil, eris.Wrap(err, "adapter: company enrich")
	}

	res := &Result{}
	if company == nil {
		return res, nil
	}
	domain := normalize.CleanDomain(company.Website)
	if domain == "" || IsDirectoryDomain(domain) {
		return res, nil
	}

	conf := 45 + company.Likelihood*5
	if conf > 85 {
		conf = 85
	}
	cand := model.DomainCandidate{Domain: domain, RawConfidence: conf}
	cand.AddSource(model.TagB2BEnrich)
	res.Domains = append(res.Domains, cand)
	return res, nil
}

func (a *B2BEnrich) searchPeople(ctx context.Context, q Query) (*Result, error) {
	resp, err := a.client.SearchPeople(ctx, pdl.PersonSearchRequest{
		CompanyDomain: q.Domain,
		Titles:        decisionTitles,
		Size:          5,
	})
	if err != nil {
		return nil, eris.Wrap(err, "adapter: person search")
	}

	res := &Result{}
	if resp == nil {
		return res, nil
	}
	for _, p := range resp.Data {
		if p.FullName == "" {
			continue
		}
		c := model.Contact{
			Name:        p.FullName,
			Title:       p.JobTitle,
			Email:       p.WorkEmail,
			Phone:       p.MobilePhone,
			LinkedInURL: p.LinkedInURL,
		}
		c.AddSource(model.TagB2BEnrich)
		res.Contacts = append(res.Contacts, c)
	}
	return res, nil
}
