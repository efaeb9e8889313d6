// Package adapter provides uniform wrappers over the external services the
// pipeline calls. Every call goes through the Registry, which applies rate
// limits, quota cooldowns, circuit breaking, and a single transient retry,
// and converts Go errors into structured row errors. Nothing in this package
// ever throws into the orchestrator.
package adapter

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/resolver-cli/internal/model"
	"github.com/sells-group/resolver-cli/internal/resilience"
)

// Query carries everything an adapter might need for one invocation.
type Query struct {
	Normalized model.NormalizedInput
	Domain     string // resolved domain, set for contact-discovery stages
	Email      string // set for email_verify
}

// Result is the structured outcome of one adapter call.
type Result struct {
	Tag          model.SourceTag          `json:"tag"`
	Domains      []model.DomainCandidate  `json:"domains,omitempty"`
	Contacts     []model.Contact          `json:"contacts,omitempty"`
	Verification *model.EmailVerification `json:"verification,omitempty"`
	CostUSD      float64                  `json:"cost_usd"`
	Latency      time.Duration            `json:"latency"`
	Err          *model.RowError          `json:"error,omitempty"`
}

// CandidateCount returns the number of candidates of either kind.
func (r *Result) CandidateCount() int {
	return len(r.Domains) + len(r.Contacts)
}

// Adapter is one external service wrapper. Call returns a Go error only at
// this boundary; the Registry converts it into a structured Result.
type Adapter interface {
	Tag() model.SourceTag
	CostPerCall() float64
	Call(ctx context.Context, q Query) (*Result, error)
}

// Registry holds the configured adapters plus their shared per-service
// resources: token bucket, circuit breaker, and quota cooldown window.
type Registry struct {
	mu       sync.RWMutex
	adapters map[model.SourceTag]Adapter
	limiters map[model.SourceTag]*rate.Limiter
	breakers map[model.SourceTag]*resilience.CircuitBreaker
	coolOff  map[model.SourceTag]time.Time

	cooldown time.Duration
	timeout  map[model.SourceTag]time.Duration
	nowFunc  func() time.Time
}

// NewRegistry creates an empty adapter registry. cooldown is the hard-skip
// window applied to an adapter after a quota error.
func NewRegistry(cooldown time.Duration) *Registry {
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	return &Registry{
		adapters: make(map[model.SourceTag]Adapter),
		limiters: make(map[model.SourceTag]*rate.Limiter),
		breakers: make(map[model.SourceTag]*resilience.CircuitBreaker),
		coolOff:  make(map[model.SourceTag]time.Time),
		timeout:  make(map[model.SourceTag]time.Duration),
		cooldown: cooldown,
		nowFunc:  time.Now,
	}
}

// Register adds an adapter with its rate limit and per-call timeout.
func (r *Registry) Register(a Adapter, perSec float64, burst int, timeout time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tag := a.Tag()
	r.adapters[tag] = a
	if perSec <= 0 {
		perSec = 1
	}
	if burst <= 0 {
		burst = 1
	}
	r.limiters[tag] = rate.NewLimiter(rate.Limit(perSec), burst)
	r.breakers[tag] = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		OnStateChange: func(from, to resilience.CircuitState) {
			zap.L().Warn("adapter: circuit state change",
				zap.String("adapter", string(tag)),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	r.timeout[tag] = timeout
}

// Enabled reports whether the adapter is registered.
func (r *Registry) Enabled(tag model.SourceTag) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.adapters[tag]
	return ok
}

// Cost returns the per-call cost of a registered adapter, 0 when unknown.
func (r *Registry) Cost(tag model.SourceTag) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if a, ok := r.adapters[tag]; ok {
		return a.CostPerCall()
	}
	return 0
}

// Tags returns all registered adapter tags.
func (r *Registry) Tags() []model.SourceTag {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]model.SourceTag, 0, len(r.adapters))
	for t := range r.adapters {
		tags = append(tags, t)
	}
	return tags
}

// WithNow sets a fixed clock for testing cooldowns.
func (r *Registry) WithNow(fn func() time.Time) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nowFunc = fn
	return r
}

// Call invokes the adapter for tag, applying quota cooldown, rate limiting,
// circuit breaking, one transient retry, and structured error conversion.
// The returned Result is never nil for a registered tag; unregistered tags
// return nil (the router treats that as a skipped step).
func (r *Registry) Call(ctx context.Context, tag model.SourceTag, q Query) *Result {
	r.mu.RLock()
	a, ok := r.adapters[tag]
	limiter := r.limiters[tag]
	breaker := r.breakers[tag]
	timeout := r.timeout[tag]
	until := r.coolOff[tag]
	now := r.nowFunc()
	r.mu.RUnlock()

	if !ok {
		return nil
	}

	start := now
	fail := func(kind model.ErrorKind, detail string) *Result {
		return &Result{
			Tag:     tag,
			Latency: r.nowFunc().Sub(start),
			Err:     &model.RowError{Kind: kind, Stage: tag, Detail: detail},
		}
	}

	if now.Before(until) {
		return fail(model.ErrAdapterQuota, "cooling down after quota error")
	}

	if err := limiter.Wait(ctx); err != nil {
		return fail(resilience.Classify(err), err.Error())
	}
	if err := breaker.Allow(); err != nil {
		return fail(model.ErrAdapterQuota, "circuit open")
	}

	callCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	retryCfg := resilience.AdapterRetryConfig()
	retryCfg.OnRetry = resilience.RetryLogger(string(tag), "call")

	result, err := resilience.DoVal(callCtx, retryCfg, func(ctx context.Context) (*Result, error) {
		return a.Call(ctx, q)
	})
	breaker.Record(err)

	if err != nil {
		kind := resilience.Classify(err)
		if kind == model.ErrAdapterQuota {
			r.mu.Lock()
			r.coolOff[tag] = r.nowFunc().Add(r.cooldown)
			r.mu.Unlock()
		}
		zap.L().Debug("adapter: call failed",
			zap.String("adapter", string(tag)),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return fail(kind, err.Error())
	}

	if result == nil {
		result = &Result{}
	}
	result.Tag = tag
	result.CostUSD += a.CostPerCall()
	result.Latency = r.nowFunc().Sub(start)
	return result
}

// directoryDomains are aggregator sites that can never be a company's own
// primary domain.
var directoryDomains = map[string]bool{
	"yelp.com": true, "yellowpages.com": true, "bbb.org": true,
	"medicare.gov": true, "facebook.com": true, "linkedin.com": true,
	"mapquest.com": true, "manta.com": true, "chamberofcommerce.com": true,
	"healthgrades.com": true, "zocdoc.com": true, "angi.com": true,
	"houzz.com": true, "thumbtack.com": true, "clutch.co": true,
	"crunchbase.com": true, "indeed.com": true, "glassdoor.com": true,
	"wikipedia.org": true, "instagram.com": true, "twitter.com": true,
	"x.com": true, "youtube.com": true, "google.com": true,
}

// IsDirectoryDomain reports whether a canonical domain is a known
// aggregator/directory site.
func IsDirectoryDomain(domain string) bool {
	if directoryDomains[domain] {
		return true
	}
	// Match registrable suffix (e.g. m.yelp.com).
	for d := range directoryDomains {
		if directoryDomains[d] && len(domain) > len(d) && domain[len(domain)-len(d)-1] == '.' && domain[len(domain)-len(d):] == d {
			return true
		}
	}
	return false
}
