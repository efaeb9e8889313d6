package model

// SourceTag identifies the adapter or stage that produced a candidate.
type SourceTag string

const (
	TagPlacesPhoneVerify SourceTag = "places_phone_verify"
	TagPlacesNameMatch   SourceTag = "places_name_match"
	TagWebSearchKG       SourceTag = "web_search_kg"
	TagDirectoryScrape   SourceTag = "directory_scrape"
	TagLLMSearch         SourceTag = "llm_search"
	TagB2BEnrich         SourceTag = "b2b_enrich"
	TagSiteScrape        SourceTag = "site_scrape"
	TagSocialSearch      SourceTag = "social_search"
	TagEmailVerify       SourceTag = "email_verify"
	TagPageFetch         SourceTag = "page_fetch"
	TagTextExtract       SourceTag = "text_extract"
)

// sourceTagPriority orders tags for deterministic tie-breaking in parallel
// fan-outs. Lower is stronger.
var sourceTagPriority = map[SourceTag]int{
	TagPlacesPhoneVerify: 0,
	TagPlacesNameMatch:   1,
	TagWebSearchKG:       2,
	TagB2BEnrich:         3,
	TagLLMSearch:         4,
	TagDirectoryScrape:   5,
	TagSiteScrape:        6,
	TagSocialSearch:      7,
	TagEmailVerify:       8,
	TagPageFetch:         9,
	TagTextExtract:       10,
}

// Priority returns the stable ordering rank for a source tag. Unknown tags
// sort last.
func (t SourceTag) Priority() int {
	if p, ok := sourceTagPriority[t]; ok {
		return p
	}
	return len(sourceTagPriority)
}

// PageSignals are corroborating observations made on a candidate's page.
type PageSignals struct {
	PhoneOnPage        bool `json:"phone_on_page,omitempty"`
	AddressOnPage      bool `json:"address_on_page,omitempty"`
	CityOnPage         bool `json:"city_on_page,omitempty"`
	SchemaOrgNameMatch bool `json:"schema_org_name_match,omitempty"`
}

// DomainCandidate is a proposed primary domain with provenance.
type DomainCandidate struct {
	Domain        string      `json:"domain"`
	Sources       []SourceTag `json:"sources"`
	RawConfidence float64     `json:"raw_confidence"` // per-source hint, 0-100
	PhoneExact    bool        `json:"phone_exact,omitempty"`
	Signals       PageSignals `json:"signals"`
	Judge         *Verdict    `json:"judge,omitempty"`
	PlanStep      int         `json:"plan_step"` // index of the earliest producing step
}

// HasSource reports whether the candidate carries the given source tag.
func (c *DomainCandidate) HasSource(tag SourceTag) bool {
	for _, s := range c.Sources {
		if s == tag {
			return true
		}
	}
	return false
}

// AddSource appends a source tag if not already present.
func (c *DomainCandidate) AddSource(tag SourceTag) {
	if !c.HasSource(tag) {
		c.Sources = append(c.Sources, tag)
	}
}

// Verdict is the LLM judge's advisory assessment of a candidate page.
type Verdict struct {
	Match           bool    `json:"match"`
	Confidence      float64 `json:"confidence"` // 0-100
	Evidence        string  `json:"evidence,omitempty"`
	PhoneFound      bool    `json:"phone_found"`
	AddressFound    bool    `json:"address_found"`
	NameFound       bool    `json:"name_found"`
	IsParentCompany bool    `json:"is_parent_company"`
	IsDirectorySite bool    `json:"is_directory_site"`
}
