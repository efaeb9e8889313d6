package adapter

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/resolver-cli/internal/model"
	"github.com/sells-group/resolver-cli/internal/normalize"
	"github.com/sells-group/resolver-cli/pkg/places"
)

// PlacesPhoneVerify searches Google Places by name and city, then compares
// the listing phone against the input phone in E.164 form. An exact match is
// the strongest domain signal the pipeline has.
type PlacesPhoneVerify struct {
	client places.Client
	cost   float64
}

// NewPlacesPhoneVerify creates the phone-verification adapter.
func NewPlacesPhoneVerify(client places.Client, costUSD float64) *PlacesPhoneVerify {
	return &PlacesPhoneVerify{client: client, cost: costUSD}
}

func (a *PlacesPhoneVerify) Tag() model.SourceTag { return model.TagPlacesPhoneVerify }
func (a *PlacesPhoneVerify) CostPerCall() float64 { return a.cost }

func (a *PlacesPhoneVerify) Call(ctx context.Context, q Query) (*Result, error) {
	in := q.Normalized.Input
	if in.Phone == "" {
		return &Result{}, nil
	}

	resp, err := a.client.TextSearch(ctx, places.TextSearchRequest{
		Query:        in.Name,
		MaxResults:   5,
		LocationBias: locationBias(in),
	})
	if err != nil {
		return nil, eris.Wrap(err, "adapter: places text search")
	}

	res := &Result{}
	for _, p := range resp.Places {
		domain := normalize.CleanDomain(p.WebsiteURI)
		if domain == "" || IsDirectoryDomain(domain) {
			continue
		}

		cand := model.DomainCandidate{Domain: domain}
		if phoneMatches(in.Phone, p.NationalPhone, p.InternationalPhone) {
			cand.AddSource(model.TagPlacesPhoneVerify)
			cand.PhoneExact = true
			cand.RawConfidence = 99
			res.Domains = []model.DomainCandidate{cand}
			return res, nil
		}
	}
	return res, nil
}

func phoneMatches(want string, listed ...string) bool {
	for _, raw := range listed {
		if e164, ok := normalize.ToE164(raw); ok && e164 == want {
			return true
		}
	}
	return false
}

// PlacesNameMatch searches Google Places by name and city without phone
// verification. Candidates are ranked by name similarity against the input.
type PlacesNameMatch struct {
	client places.Client
	cost   float64
}

// NewPlacesNameMatch creates the name-match adapter.
func NewPlacesNameMatch(client places.Client, costUSD float64) *PlacesNameMatch {
	return &PlacesNameMatch{client: client, cost: costUSD}
}

func (a *PlacesNameMatch) Tag() model.SourceTag { return model.TagPlacesNameMatch }
func (a *PlacesNameMatch) CostPerCall() float64 { return a.cost }

func (a *PlacesNameMatch) Call(ctx context.Context, q Query) (*Result, error) {
	in := q.Normalized.Input

	resp, err := a.client.TextSearch(ctx, places.TextSearchRequest{
		Query:        in.Name,
		MaxResults:   10,
		LocationBias: locationBias(in),
	})
	if err != nil {
		return nil, eris.Wrap(err, "adapter: places text search")
	}

	res := &Result{}
	for _, p := range resp.Places {
		domain := normalize.CleanDomain(p.WebsiteURI)
		if domain == "" || IsDirectoryDomain(domain) {
			continue
		}
		sim := normalize.NameSimilarity(in.Name, p.DisplayName.Text)
		if sim < 0.3 {
			continue
		}

		cand := model.DomainCandidate{
			Domain:        domain,
			RawConfidence: 40 + sim*40,
		}
		cand.AddSource(model.TagPlacesNameMatch)
		if phoneMatches(in.Phone, p.NationalPhone, p.InternationalPhone) {
			cand.PhoneExact = true
			cand.RawConfidence = 99
		}
		res.Domains = append(res.Domains, cand)
	}
	return res, nil
}

func locationBias(in model.CompanyInput) string {
	switch {
	case in.City != "" && in.State != "":
		return in.City + ", " + in.State
	case in.City != "":
		return in.City
	case in.State != "":
		return in.State
	default:
		return ""
	}
}
