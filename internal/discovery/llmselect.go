package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/resolver-cli/internal/config"
	"github.com/sells-group/resolver-cli/internal/cost"
	"github.com/sells-group/resolver-cli/internal/model"
	"github.com/sells-group/resolver-cli/pkg/anthropic"
)

const selectorSystemPrompt = `You direct a contact-discovery loop for one business.
Given the current state, choose the next tool to run, or stop.
Respond with only a JSON object:
{"next_tool": "<tool name>", "args": {}, "rationale": "<one sentence>", "should_stop": false}
Set should_stop true when the found contacts are already good enough or no
remaining tool is likely to help. next_tool must be one of the available
tools listed in the state.`

// LLMSelector picks the next discovery stage by asking the model. Invalid
// or unparseable choices fall through to the deterministic ordering.
type LLMSelector struct {
	ai   anthropic.Client
	cfg  config.LLMConfig
	calc *cost.Calculator
}

// NewLLMSelector creates a selector backed by the configured model. calc may
// be nil; selector calls then count as free.
func NewLLMSelector(ai anthropic.Client, cfg config.LLMConfig, calc *cost.Calculator) *LLMSelector {
	return &LLMSelector{ai: ai, cfg: cfg, calc: calc}
}

type toolChoice struct {
	NextTool   string          `json:"next_tool"`
	Args       json.RawMessage `json:"args"`
	Rationale  string          `json:"rationale"`
	ShouldStop bool            `json:"should_stop"`
}

// Next implements Selector. A second return of false with an empty tag
// signals an explicit stop; false with a non-empty tag means "no usable
// choice, use the fallback".
func (s *LLMSelector) Next(ctx context.Context, st *LoopState) (model.SourceTag, bool) {
	if s.ai == nil || len(st.Remaining) == 0 {
		return "unavailable", false
	}

	temp := 0.0
	resp, err := s.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       s.cfg.Model,
		MaxTokens:   int64(s.cfg.MaxTokens),
		System:      selectorSystemPrompt,
		Messages:    []anthropic.Message{{Role: "user", Content: describeState(st)}},
		Temperature: &temp,
	})
	if err != nil {
		zap.L().Debug("discovery: selector call failed, using deterministic policy", zap.Error(err))
		return "unavailable", false
	}
	if s.calc != nil {
		st.SelectorCostUSD += s.calc.Claude(s.cfg.Model, resp.Usage.InputTokens, resp.Usage.OutputTokens)
	}

	choice := decodeChoice(resp.Text)
	if choice == nil {
		return "unavailable", false
	}
	if choice.ShouldStop {
		return "", false
	}

	tag := model.SourceTag(strings.TrimSpace(choice.NextTool))
	for _, r := range st.Remaining {
		if r == tag {
			zap.L().Debug("discovery: selector chose stage",
				zap.String("stage", string(tag)),
				zap.String("rationale", choice.Rationale),
			)
			return tag, true
		}
	}
	return "unavailable", false
}

func describeState(st *LoopState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Business: %s\n", st.Normalized.Input.Name)
	if st.Domain != "" {
		fmt.Fprintf(&b, "Resolved domain: %s\n", st.Domain)
	} else {
		b.WriteString("Resolved domain: none\n")
	}
	fmt.Fprintf(&b, "Business type: %s\n", st.Normalized.BusinessType)
	fmt.Fprintf(&b, "Steps taken: %d\n", st.StepsTaken)
	fmt.Fprintf(&b, "Budget remaining: $%.3f\n", st.BudgetUSD)

	b.WriteString("Contacts so far:\n")
	if len(st.Contacts) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, c := range st.Contacts {
		fmt.Fprintf(&b, "  - name=%q title=%q email=%q confidence=%.0f valid=%v\n",
			c.Name, c.Title, c.Email, c.Confidence, c.IsValid)
	}

	b.WriteString("Available tools:")
	for _, t := range st.Remaining {
		b.WriteString(" " + string(t))
	}
	b.WriteString("\n")
	return b.String()
}

var choiceRe = regexp.MustCompile(`(?s)\{.*\}`)

func decodeChoice(text string) *toolChoice {
	raw := choiceRe.FindString(text)
	if raw == "" {
		return nil
	}
	var choice toolChoice
	if err := json.Unmarshal([]byte(raw), &choice); err != nil {
		return nil
	}
	if choice.NextTool == "" && !choice.ShouldStop {
		return nil
	}
	return &choice
}
