// Package router maps a normalized input to a strategy plan: which adapters
// to run for domain resolution, in which mode, with which validation level.
// Everything here is pure; the resolver and discovery controller execute the
// plans.
package router

import (
	"github.com/sells-group/resolver-cli/internal/model"
)

// Mode is how a plan's steps execute.
type Mode string

const (
	ModeSequential Mode = "sequential"
	ModeParallel   Mode = "parallel"
)

// Validation is how strictly candidates must be judged.
type Validation string

const (
	// ValidationAlways judges every surviving candidate but accepts scorer
	// output on judge failure.
	ValidationAlways Validation = "always"
	// ValidationMandatory rejects any candidate the judge did not confirm.
	ValidationMandatory Validation = "mandatory"
)

// Plan is the routing decision for one row.
type Plan struct {
	Steps             []model.SourceTag
	Mode              Mode
	Validation        Validation
	ConsensusRequired bool
	LLMAnalysis       bool
}

// Enabler reports which adapters are available. Satisfied by
// *adapter.Registry.
type Enabler interface {
	Enabled(tag model.SourceTag) bool
}

// Route returns the domain-resolution plan for a normalized row. Disabled
// adapters are filtered out of the step list; an all-disabled plan has zero
// steps and the resolver reports no_candidate.
func Route(n model.NormalizedInput, enabled Enabler) Plan {
	var plan Plan
	switch n.Tier {
	case model.Tier1:
		plan = Plan{
			Steps:      []model.SourceTag{model.TagPlacesPhoneVerify, model.TagPlacesNameMatch, model.TagWebSearchKG},
			Mode:       ModeSequential,
			Validation: ValidationAlways,
		}
	case model.Tier2:
		plan = Plan{
			Steps:      []model.SourceTag{model.TagPlacesNameMatch, model.TagWebSearchKG},
			Mode:       ModeParallel,
			Validation: ValidationAlways,
		}
	case model.Tier3:
		plan = Plan{
			Steps:             []model.SourceTag{model.TagLLMSearch, model.TagDirectoryScrape, model.TagWebSearchKG, model.TagB2BEnrich},
			Mode:              ModeParallel,
			Validation:        ValidationAlways,
			ConsensusRequired: true,
		}
	default: // Tier4
		plan = Plan{
			Steps:             []model.SourceTag{model.TagLLMSearch, model.TagDirectoryScrape, model.TagWebSearchKG, model.TagB2BEnrich},
			Mode:              ModeParallel,
			Validation:        ValidationMandatory,
			ConsensusRequired: true,
			LLMAnalysis:       true,
		}
	}

	plan.Steps = filterEnabled(plan.Steps, enabled)
	return plan
}

// ContactStages returns the preferred contact-discovery ordering for the
// row's business type. The discovery controller walks this list, subject to
// budget and pivots.
func ContactStages(n model.NormalizedInput, enabled Enabler) []model.SourceTag {
	var stages []model.SourceTag
	switch n.BusinessType {
	case model.BusinessCorporate:
		stages = []model.SourceTag{
			model.TagWebSearchKG,
			model.TagB2BEnrich,
			model.TagSocialSearch,
			model.TagSiteScrape,
			model.TagEmailVerify,
		}
	case model.BusinessHealthcare:
		stages = []model.SourceTag{
			model.TagSiteScrape,
			model.TagB2BEnrich,
			model.TagSocialSearch,
			model.TagEmailVerify,
		}
	default: // smb, franchise
		stages = []model.SourceTag{
			model.TagSiteScrape,
			model.TagB2BEnrich,
			model.TagSocialSearch,
			model.TagEmailVerify,
		}
	}
	return filterEnabled(stages, enabled)
}

// StageFamily classifies a contact stage for the pivot rule.
type StageFamily string

const (
	FamilySiteCentric   StageFamily = "site_centric"
	FamilySearchCentric StageFamily = "search_centric"
)

// Family returns the strategy family of a contact stage.
func Family(tag model.SourceTag) StageFamily {
	switch tag {
	case model.TagSiteScrape, model.TagPageFetch, model.TagTextExtract, model.TagEmailVerify:
		return FamilySiteCentric
	default:
		return FamilySearchCentric
	}
}

func filterEnabled(tags []model.SourceTag, enabled Enabler) []model.SourceTag {
	if enabled == nil {
		return tags
	}
	out := tags[:0:0]
	for _, t := range tags {
		if enabled.Enabled(t) {
			out = append(out, t)
		}
	}
	return out
}
