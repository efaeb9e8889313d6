package pipeline

import (
	"time"

	"github.com/sells-group/resolver-cli/internal/adapter"
	"github.com/sells-group/resolver-cli/internal/config"
	"github.com/sells-group/resolver-cli/internal/cost"
	"github.com/sells-group/resolver-cli/internal/discovery"
	"github.com/sells-group/resolver-cli/internal/judge"
	"github.com/sells-group/resolver-cli/internal/scrape"
	"github.com/sells-group/resolver-cli/internal/store"
	"github.com/sells-group/resolver-cli/pkg/anthropic"
	"github.com/sells-group/resolver-cli/pkg/emailcheck"
	"github.com/sells-group/resolver-cli/pkg/firecrawl"
	"github.com/sells-group/resolver-cli/pkg/jina"
	"github.com/sells-group/resolver-cli/pkg/pdl"
	"github.com/sells-group/resolver-cli/pkg/places"
	"github.com/sells-group/resolver-cli/pkg/serper"
)

// pageCacheTTL bounds how long verification pages are reused across rows.
const pageCacheTTL = 24 * time.Hour

// Build wires all external clients and constructs a ready Pipeline. Adapters
// are registered only when enabled and keyed; a missing LLM key disables the
// judge and the LLM stage selector but not the rest of the pipeline.
func Build(cfg *config.Config, st store.Store) *Pipeline {
	var ai anthropic.Client
	if cfg.LLM.Key != "" {
		ai = anthropic.NewClient(cfg.LLM.Key)
	}

	var serperClient serper.Client
	if cfg.Adapters.Serper.Enabled && cfg.Adapters.Serper.Key != "" {
		serperClient = serper.NewClient(cfg.Adapters.Serper.Key,
			serper.WithBaseURL(cfg.Adapters.Serper.BaseURL))
	}

	calc := cost.NewCalculator(cost.DefaultRates())

	// costOr prefers the configured per-call price, falling back to the
	// default rate card.
	costOr := func(configured float64, service string) float64 {
		if configured > 0 {
			return configured
		}
		return calc.Query(service)
	}

	cooldown := time.Duration(cfg.Adapters.CooldownSec) * time.Second
	registry := adapter.NewRegistry(cooldown)

	if c := cfg.Adapters.Places; c.Enabled && c.Key != "" {
		client := places.NewClient(c.Key, places.WithBaseURL(c.BaseURL))
		perCall := costOr(c.CostUSD, "places")
		registry.Register(adapter.NewPlacesPhoneVerify(client, perCall), c.RatePerSec, c.Burst, c.Timeout())
		registry.Register(adapter.NewPlacesNameMatch(client, perCall), c.RatePerSec, c.Burst, c.Timeout())
	}
	if c := cfg.Adapters.Serper; serperClient != nil {
		perCall := costOr(c.CostUSD, "serper")
		registry.Register(adapter.NewWebSearchKG(serperClient, perCall), c.RatePerSec, c.Burst, c.Timeout())
		registry.Register(adapter.NewDirectoryScrape(serperClient, perCall), c.RatePerSec, c.Burst, c.Timeout())
		registry.Register(adapter.NewSocialSearch(serperClient, perCall), c.RatePerSec, c.Burst, c.Timeout())
		registry.Register(
			adapter.NewLLMSearch(ai, serperClient, cfg.LLM.Model, cfg.LLM.MaxTokens, perCall, calc),
			c.RatePerSec, c.Burst, c.Timeout(),
		)
	}
	if c := cfg.Adapters.PDL; c.Enabled && c.Key != "" {
		client := pdl.NewClient(c.Key, pdl.WithBaseURL(c.BaseURL))
		registry.Register(adapter.NewB2BEnrich(client, costOr(c.CostUSD, "pdl")), c.RatePerSec, c.Burst, c.Timeout())
	}
	if c := cfg.Adapters.EmailCheck; c.Enabled && c.Key != "" {
		client := emailcheck.NewClient(c.Key, emailcheck.WithBaseURL(c.BaseURL))
		registry.Register(adapter.NewEmailVerify(client, costOr(c.CostUSD, "emailcheck")), c.RatePerSec, c.Burst, c.Timeout())
	}

	chain := buildChain(cfg, st)
	jc := cfg.Adapters.Jina
	registry.Register(adapter.NewSiteScrape(chain, jc.CostUSD),
		jc.RatePerSec, jc.Burst, 60*time.Second)

	var j *judge.Judge
	var selector discovery.Selector
	if ai != nil {
		j = judge.New(ai, cfg.LLM, calc)
		selector = discovery.NewLLMSelector(ai, cfg.LLM, calc)
	}

	return New(cfg, st, registry, chain, j, selector)
}

// buildChain assembles the fetch chain: direct HTTP first, then Jina, then
// Firecrawl, with the store as page cache.
func buildChain(cfg *config.Config, st store.Store) *scrape.Chain {
	fetchers := []scrape.Fetcher{scrape.NewDirectFetcher()}

	if c := cfg.Adapters.Jina; c.Enabled && c.Key != "" {
		client := jina.NewClient(c.Key, jina.WithBaseURL(c.BaseURL))
		fetchers = append(fetchers, scrape.NewJinaFetcher(client))
	}
	if c := cfg.Adapters.Firecrawl; c.Enabled && c.Key != "" {
		client := firecrawl.NewClient(c.Key, firecrawl.WithBaseURL(c.BaseURL))
		fetchers = append(fetchers, scrape.NewFirecrawlFetcher(client))
	}

	chain := scrape.NewChain(fetchers...)
	if st != nil {
		chain = chain.WithCache(st, pageCacheTTL)
	}
	return chain
}
