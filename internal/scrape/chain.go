package scrape

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// PageCache stores fetched pages so top-K verification never refetches a URL
// within a job batch.
type PageCache interface {
	GetCachedPage(ctx context.Context, url string) (*Result, error)
	SetCachedPage(ctx context.Context, url string, page *Result, ttl time.Duration) error
}

// Chain tries fetchers in priority order, returning the first usable result.
type Chain struct {
	fetchers []Fetcher
	cache    PageCache
	cacheTTL time.Duration
}

// NewChain creates a Chain. Fetchers are tried in order; the first result
// with usable text wins.
func NewChain(fetchers ...Fetcher) *Chain {
	return &Chain{fetchers: fetchers}
}

// WithCache enables page caching with the given TTL.
func (c *Chain) WithCache(cache PageCache, ttl time.Duration) *Chain {
	c.cache = cache
	c.cacheTTL = ttl
	return c
}

// Fetch retrieves a page through the chain. Results under the 50-character
// content floor are treated as failures so the next fetcher runs.
func (c *Chain) Fetch(ctx context.Context, targetURL string) (*Result, error) {
	if c.cache != nil {
		if cached, err := c.cache.GetCachedPage(ctx, targetURL); err == nil && cached != nil {
			return cached, nil
		}
	}

	var lastErr error
	for _, f := range c.fetchers {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		result, err := f.Fetch(ctx, targetURL)
		if err != nil {
			zap.L().Debug("scrape: fetcher failed, trying next",
				zap.String("fetcher", string(f.Name())),
				zap.String("url", targetURL),
				zap.Error(err),
			)
			lastErr = err
			continue
		}
		if result.Empty() {
			lastErr = eris.Errorf("scrape: %s returned under-length content", f.Name())
			continue
		}

		if c.cache != nil {
			if cacheErr := c.cache.SetCachedPage(ctx, targetURL, result, c.cacheTTL); cacheErr != nil {
				zap.L().Debug("scrape: cache write failed", zap.Error(cacheErr))
			}
		}
		return result, nil
	}

	if lastErr != nil {
		return nil, eris.Wrap(lastErr, "scrape: all fetchers failed")
	}
	return nil, eris.Errorf("scrape: no fetcher configured for url: %s", targetURL)
}
