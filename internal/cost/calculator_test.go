package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClaude(t *testing.T) {
	c := NewCalculator(Rates{
		Anthropic: map[string]ModelRate{
			"claude-haiku-4-5-20251001": {Input: 0.80, Output: 4.00},
		},
	})

	// 10k input tokens at $0.80/MTok plus 2k output at $4.00/MTok.
	got := c.Claude("claude-haiku-4-5-20251001", 10_000, 2_000)
	assert.InDelta(t, 0.008+0.008, got, 1e-9)

	assert.Zero(t, c.Claude("unknown-model", 10_000, 2_000))
}

func TestQuery(t *testing.T) {
	c := NewCalculator(Rates{PerQuery: map[string]float64{"serper": 0.001}})
	assert.Equal(t, 0.001, c.Query("serper"))
	assert.Zero(t, c.Query("unknown"))
}

func TestJina(t *testing.T) {
	c := NewCalculator(Rates{Jina: JinaRate{PerMTok: 0.02}})
	assert.InDelta(t, 0.001, c.Jina(50_000), 1e-9)
	assert.Zero(t, c.Jina(0))
}

func TestDefaultRates(t *testing.T) {
	r := DefaultRates()
	assert.NotEmpty(t, r.Anthropic)
	assert.Equal(t, 0.017, r.PerQuery["places"])
	assert.Equal(t, 0.030, r.PerQuery["pdl"])
	assert.Equal(t, 0.02, r.Jina.PerMTok)
}
