package adapter

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/resolver-cli/internal/cost"
	"github.com/sells-group/resolver-cli/internal/model"
	"github.com/sells-group/resolver-cli/internal/normalize"
	"github.com/sells-group/resolver-cli/pkg/anthropic"
	"github.com/sells-group/resolver-cli/pkg/serper"
)

const querySystemPrompt = `You compose web search queries that find a specific business's own website.
Given the business details, return a JSON array of 1 to 3 search query strings.
Vary the angle: one query with the legal name and city, one with distinctive
name tokens plus the business category, one targeting the likely domain name.
Return only the JSON array, nothing else.`

// LLMSearch has Claude compose targeted search queries from the company
// details, executes them, and ranks the resulting domains. Meant for hard
// rows where the straightforward name search does not converge.
type LLMSearch struct {
	ai        anthropic.Client
	search    serper.Client
	model     string
	maxTokens int64
	cost      float64
	calc      *cost.Calculator
}

// NewLLMSearch creates the LLM-composed-search adapter. calc prices the
// composition call's tokens on top of the flat search cost; nil means the
// tokens are not billed.
func NewLLMSearch(ai anthropic.Client, search serper.Client, llmModel string, maxTokens int64, costUSD float64, calc *cost.Calculator) *LLMSearch {
	return &LLMSearch{ai: ai, search: search, model: llmModel, maxTokens: maxTokens, cost: costUSD, calc: calc}
}

func (a *LLMSearch) Tag() model.SourceTag { return model.TagLLMSearch }
func (a *LLMSearch) CostPerCall() float64 { return a.cost }

func (a *LLMSearch) Call(ctx context.Context, q Query) (*Result, error) {
	in := q.Normalized.Input

	queries, llmSpend := a.composeQueries(ctx, in)
	res := &Result{CostUSD: llmSpend}
	seen := map[string]bool{}
	conf := 60.0

	for _, query := range queries {
		resp, err := a.search.Search(ctx, serper.SearchRequest{Query: query, NumResults: 5})
		if err != nil {
			// A later query may still succeed; only fail when nothing ran.
			if len(queries) == 1 {
				return nil, eris.Wrap(err, "adapter: llm search")
			}
			zap.L().Debug("adapter: llm search query failed",
				zap.String("query", query), zap.Error(err))
			continue
		}
		for _, hit := range resp.Organic {
			domain := normalize.CleanDomain(hit.Link)
			if domain == "" || seen[domain] || IsDirectoryDomain(domain) {
				continue
			}
			seen[domain] = true

			cand := model.DomainCandidate{Domain: domain, RawConfidence: conf}
			cand.AddSource(model.TagLLMSearch)
			res.Domains = append(res.Domains, cand)
			if conf > 40 {
				conf -= 5
			}
		}
	}
	return res, nil
}

// composeQueries asks the model for search queries and falls back to a
// deterministic query when the model is unavailable or returns garbage. The
// second return is the token spend of the composition call.
func (a *LLMSearch) composeQueries(ctx context.Context, in model.CompanyInput) ([]string, float64) {
	fallback := []string{strings.TrimSpace(in.Name + " " + in.City + " official website")}
	if a.ai == nil {
		return fallback, 0
	}

	var sb strings.Builder
	sb.WriteString("Business name: " + in.Name + "\n")
	if in.City != "" {
		sb.WriteString("City: " + in.City + "\n")
	}
	if in.State != "" {
		sb.WriteString("State: " + in.State + "\n")
	}
	if in.Category != "" {
		sb.WriteString("Category: " + in.Category + "\n")
	}
	if in.Context != "" {
		sb.WriteString("Notes: " + in.Context + "\n")
	}

	temp := 0.0
	resp, err := a.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		System:      querySystemPrompt,
		Messages:    []anthropic.Message{{Role: "user", Content: sb.String()}},
		Temperature: &temp,
	})
	if err != nil {
		zap.L().Debug("adapter: query composition failed, using fallback", zap.Error(err))
		return fallback, 0
	}

	var spent float64
	if a.calc != nil {
		spent = a.calc.Claude(a.model, resp.Usage.InputTokens, resp.Usage.OutputTokens)
	}

	queries := decodeQueries(resp.Text)
	if len(queries) == 0 {
		return fallback, spent
	}
	return queries, spent
}

var jsonArrayRe = regexp.MustCompile(`(?s)\[.*\]`)

func decodeQueries(text string) []string {
	raw := jsonArrayRe.FindString(text)
	if raw == "" {
		return nil
	}
	var queries []string
	if err := json.Unmarshal([]byte(raw), &queries); err != nil {
		return nil
	}
	out := queries[:0]
	for _, q := range queries {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	if len(out) > 3 {
		out = out[:3]
	}
	return out
}
