package resolver

import (
	"sort"

	"github.com/sells-group/resolver-cli/internal/model"
)

// Breakdown explains one candidate's score, component by component.
type Breakdown struct {
	SourcePrior      float64 `json:"source_prior"`
	JudgeConfidence  float64 `json:"judge_confidence"`
	MultiSourceBonus float64 `json:"multi_source_bonus"`
	SignalBonus      float64 `json:"signal_bonus"`
	ParentPenalty    float64 `json:"parent_penalty"`
	Eliminated       bool    `json:"eliminated"`
	Total            float64 `json:"total"`
}

// sourcePriors are base confidence weights per producing source. They track
// how often each source's top candidate turns out correct.
var sourcePriors = map[model.SourceTag]float64{
	model.TagPlacesPhoneVerify: 50,
	model.TagPlacesNameMatch:   35,
	model.TagWebSearchKG:       30,
	model.TagB2BEnrich:         30,
	model.TagLLMSearch:         25,
	model.TagDirectoryScrape:   20,
}

// Score computes a candidate's final confidence and its breakdown. It is
// pure and deterministic; the judge verdict attached to the candidate is an
// advisory input, not the sole arbiter.
func Score(c *model.DomainCandidate) Breakdown {
	var b Breakdown

	if c.Judge != nil && c.Judge.IsDirectorySite {
		b.Eliminated = true
		return b
	}

	if c.PhoneExact {
		b.SourcePrior = 99
		b.Total = 99
		return b
	}

	for _, tag := range c.Sources {
		if p := sourcePriors[tag]; p > b.SourcePrior {
			b.SourcePrior = p
		}
	}

	if c.Judge != nil {
		if c.Judge.Match {
			b.JudgeConfidence = c.Judge.Confidence * 0.5
		} else {
			b.JudgeConfidence = -20
		}
		if c.Judge.IsParentCompany {
			b.ParentPenalty = -30
		}
	}

	if len(c.Sources) >= 2 {
		b.MultiSourceBonus = 10
		if len(c.Sources) >= 3 {
			b.MultiSourceBonus = 15
		}
	}

	if c.Signals.PhoneOnPage {
		b.SignalBonus += 10
	}
	if c.Signals.AddressOnPage {
		b.SignalBonus += 5
	}
	if c.Signals.CityOnPage {
		b.SignalBonus += 5
	}
	if c.Signals.SchemaOrgNameMatch {
		b.SignalBonus += 10
	}

	b.Total = b.SourcePrior + b.JudgeConfidence + b.MultiSourceBonus + b.SignalBonus + b.ParentPenalty
	if b.Total < 0 {
		b.Total = 0
	}
	if b.Total > 99 {
		b.Total = 99
	}
	return b
}

// scored pairs a candidate with its computed breakdown for ranking.
type scored struct {
	cand      *model.DomainCandidate
	breakdown Breakdown
}

// rank orders scored candidates best-first with deterministic tie-breaks:
// higher total, then higher judge confidence, then more sources, then
// shorter domain, then earlier plan step.
func rank(cands []scored) {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.breakdown.Total != b.breakdown.Total {
			return a.breakdown.Total > b.breakdown.Total
		}
		ac, bc := judgeConf(a.cand), judgeConf(b.cand)
		if ac != bc {
			return ac > bc
		}
		if len(a.cand.Sources) != len(b.cand.Sources) {
			return len(a.cand.Sources) > len(b.cand.Sources)
		}
		if len(a.cand.Domain) != len(b.cand.Domain) {
			return len(a.cand.Domain) < len(b.cand.Domain)
		}
		return a.cand.PlanStep < b.cand.PlanStep
	})
}

func judgeConf(c *model.DomainCandidate) float64 {
	if c.Judge == nil {
		return 0
	}
	return c.Judge.Confidence
}

// sourceRank orders candidates for the verification fan-out: strongest
// producing source first, then raw confidence, then plan step, then domain
// for full determinism.
func sourceRank(cands []*model.DomainCandidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		ap, bp := bestPriority(a), bestPriority(b)
		if ap != bp {
			return ap < bp
		}
		if a.RawConfidence != b.RawConfidence {
			return a.RawConfidence > b.RawConfidence
		}
		if a.PlanStep != b.PlanStep {
			return a.PlanStep < b.PlanStep
		}
		return a.Domain < b.Domain
	})
}

func bestPriority(c *model.DomainCandidate) int {
	best := model.SourceTag("").Priority()
	for _, tag := range c.Sources {
		if p := tag.Priority(); p < best {
			best = p
		}
	}
	return best
}
