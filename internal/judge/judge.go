// Package judge implements the LLM-backed candidate classifier. Its verdicts
// are advisory inputs to the resolver's scorer, never the sole arbiter.
package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/resolver-cli/internal/config"
	"github.com/sells-group/resolver-cli/internal/cost"
	"github.com/sells-group/resolver-cli/internal/model"
	"github.com/sells-group/resolver-cli/pkg/anthropic"
)

const maxPageChars = 10_000

const systemPrompt = `You evaluate whether a web page belongs to a specific business. Respond with ONLY a JSON object:
{"match": <bool>, "confidence": <0-100>, "evidence": "<one sentence>", "phone_found": <bool>, "address_found": <bool>, "name_found": <bool>, "is_parent_company": <bool>, "is_directory_site": <bool>}

Red flags (set the matching boolean and lower confidence):
- Directory or listing site (yellow pages, medicare.gov, yelp, chambers, industry associations) -> is_directory_site
- Multi-location parent or holding company rather than the specific location -> is_parent_company
- Industry association or franchisor corporate site when the input is one location

Positive signals (raise confidence):
- Exact or suffix match of the input phone number on the page
- Input city appears in the page's address or contact block
- Single-location business whose name is prominent on the page
- schema.org Organization name matching the input name`

// Judge evaluates domain candidates against extracted page text.
type Judge struct {
	ai   anthropic.Client
	cfg  config.LLMConfig
	calc *cost.Calculator
}

// New creates a Judge. calc may be nil; verdicts then carry zero cost.
func New(ai anthropic.Client, cfg config.LLMConfig, calc *cost.Calculator) *Judge {
	return &Judge{ai: ai, cfg: cfg, calc: calc}
}

// Evaluate asks the model whether candidateURL belongs to the input company.
// The second return is the token spend of the call, for the caller to accrue
// into the owning stage. A non-nil error means the judge was unavailable;
// callers degrade to deterministic scoring (and Tier4 rows fail mandatory
// validation).
func (j *Judge) Evaluate(ctx context.Context, in model.NormalizedInput, candidateURL, pageText string) (*model.Verdict, float64, error) {
	if j.ai == nil {
		return nil, 0, eris.New("judge: no client configured")
	}

	if len(pageText) > maxPageChars {
		cut := maxPageChars
		for cut > 0 && !utf8.RuneStart(pageText[cut]) {
			cut--
		}
		pageText = pageText[:cut]
	}

	ctx, cancel := context.WithTimeout(ctx, j.cfg.Timeout())
	defer cancel()

	temp := 0.0
	resp, err := j.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       j.cfg.Model,
		MaxTokens:   j.cfg.MaxTokens,
		System:      systemPrompt,
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: buildUserPrompt(in, candidateURL, pageText)},
		},
	})
	if err != nil {
		return nil, 0, eris.Wrap(err, "judge: evaluate")
	}

	var spent float64
	if j.calc != nil {
		spent = j.calc.Claude(j.cfg.Model, resp.Usage.InputTokens, resp.Usage.OutputTokens)
	}

	verdict := DecodeVerdict(resp.Text)
	zap.L().Debug("judge: verdict",
		zap.String("url", candidateURL),
		zap.Bool("match", verdict.Match),
		zap.Float64("confidence", verdict.Confidence),
		zap.Bool("directory", verdict.IsDirectorySite),
		zap.Float64("cost_usd", spent),
	)
	return verdict, spent, nil
}

func buildUserPrompt(in model.NormalizedInput, candidateURL, pageText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Business: %s\n", in.Input.Name)
	if in.Input.City != "" {
		fmt.Fprintf(&b, "City: %s %s\n", in.Input.City, in.Input.State)
	}
	if in.Input.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", in.Input.Phone)
	}
	if in.Input.Address != "" {
		fmt.Fprintf(&b, "Address: %s\n", in.Input.Address)
	}
	if in.Input.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", in.Input.Category)
	}
	if in.Input.Context != "" {
		fmt.Fprintf(&b, "Context: %s\n", in.Input.Context)
	}
	fmt.Fprintf(&b, "\nCandidate URL: %s\n\nPage text:\n%s", candidateURL, pageText)
	return b.String()
}

var (
	matchRe = regexp.MustCompile(`"match"\s*:\s*(true|false)`)
	confRe  = regexp.MustCompile(`"confidence"\s*:\s*([0-9]+(?:\.[0-9]+)?)`)
	fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
)

// DecodeVerdict parses the model's JSON output. On strict-parse failure it
// regex-extracts match and confidence and defaults unknown booleans to false.
func DecodeVerdict(raw string) *model.Verdict {
	text := strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(text); len(m) > 1 {
		text = strings.TrimSpace(m[1])
	}
	// Pull the outermost object if the model added prose around it.
	if i := strings.Index(text, "{"); i >= 0 {
		if k := strings.LastIndex(text, "}"); k > i {
			text = text[i : k+1]
		}
	}

	var v model.Verdict
	if err := json.Unmarshal([]byte(text), &v); err == nil {
		v.Confidence = clamp(v.Confidence)
		return &v
	}

	// Fallback decoder.
	v = model.Verdict{}
	if m := matchRe.FindStringSubmatch(raw); len(m) > 1 {
		v.Match = m[1] == "true"
	}
	if m := confRe.FindStringSubmatch(raw); len(m) > 1 {
		if c, err := strconv.ParseFloat(m[1], 64); err == nil {
			v.Confidence = clamp(c)
		}
	}
	return &v
}

func clamp(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
