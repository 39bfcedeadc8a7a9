// Package resolver decides whether an inbound request path is a redirect.
//
// Resolution is best-effort: a lookup that fails or times out is a NoMatch, so
// normal site navigation never depends on the rule store being available.
package resolver

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/freewebtopdf/redirector/internal/domain"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Config holds resolver settings
type Config struct {
	// LookupTimeout bounds a single rule store query
	LookupTimeout time.Duration
}

// DefaultConfig returns the default resolver configuration
func DefaultConfig() Config {
	return Config{LookupTimeout: 200 * time.Millisecond}
}

// Resolver implements domain.RedirectResolver
type Resolver struct {
	repository domain.RuleRepository
	cache      domain.CacheManager
	recorder   domain.ClickRecorder
	config     Config

	lookups singleflight.Group

	// generations guards cache writes from lookups that raced an invalidation
	genMu       sync.Mutex
	generations map[string]uint64
	epoch       uint64

	redirects    atomic.Int64
	noMatches    atomic.Int64
	lookupErrors atomic.Int64
}

// NewResolver creates a resolver. recorder may be nil, in which case visits are not counted.
func NewResolver(repository domain.RuleRepository, cache domain.CacheManager, recorder domain.ClickRecorder, config Config) *Resolver {
	if config.LookupTimeout <= 0 {
		config.LookupTimeout = DefaultConfig().LookupTimeout
	}
	return &Resolver{
		repository:  repository,
		cache:       cache,
		recorder:    recorder,
		config:      config,
		generations: make(map[string]uint64),
	}
}

// Resolve returns the outcome for path and records a visit when it redirects
func (r *Resolver) Resolve(ctx context.Context, path string) domain.Outcome {
	outcome := r.match(ctx, path)
	if !outcome.IsRedirect() {
		r.noMatches.Add(1)
		return outcome
	}

	if r.recorder != nil {
		r.recorder.Record(ctx, outcome.RuleID)
	}
	r.redirects.Add(1)

	return outcome
}

// Preview returns the outcome for path without recording a visit
func (r *Resolver) Preview(ctx context.Context, path string) domain.Outcome {
	return r.match(ctx, path)
}

func (r *Resolver) match(ctx context.Context, path string) domain.Outcome {
	slug := domain.NormalizeSlug(path)
	if slug == "" {
		return domain.NoMatch()
	}

	if cached, found := r.cache.Get(slug); found {
		return redirectTo(cached, true)
	}

	epoch, gen := r.generation(slug)
	rule, err := r.lookup(ctx, slug)
	if err != nil {
		if !domain.IsNotFound(err) {
			r.lookupErrors.Add(1)
			log.Warn().Err(err).Str("slug", slug).Msg("Rule lookup failed, passing request through")
		}
		return domain.NoMatch()
	}

	// A rule without a destination never breaks normal navigation
	if !rule.IsMatchable() {
		return domain.NoMatch()
	}

	r.store(slug, rule, epoch, gen)
	return redirectTo(rule, false)
}

func (r *Resolver) generation(slug string) (uint64, uint64) {
	r.genMu.Lock()
	defer r.genMu.Unlock()
	return r.epoch, r.generations[slug]
}

// store caches rule unless slug was invalidated after the lookup began
func (r *Resolver) store(slug string, rule *domain.Rule, epoch, gen uint64) {
	r.genMu.Lock()
	defer r.genMu.Unlock()

	if r.epoch != epoch || r.generations[slug] != gen {
		log.Debug().Str("slug", slug).Msg("Rule changed during lookup, not caching")
		return
	}
	r.cache.Set(slug, rule)
}

// lookup collapses concurrent misses for the same slug into one store query.
// The query is detached from the caller so one disconnecting client cannot fail the others.
func (r *Resolver) lookup(ctx context.Context, slug string) (*domain.Rule, error) {
	v, err, _ := r.lookups.Do(slug, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.config.LookupTimeout)
		defer cancel()

		rule, err := r.repository.FindPublishedBySlug(lookupCtx, slug)
		if err != nil {
			if lookupCtx.Err() != nil && !domain.IsNotFound(err) {
				return nil, domain.NewAppErrorWithCause(
					domain.ErrLookupUnavailable,
					"Rule lookup timed out",
					503,
					err,
					map[string]any{"slug": slug, "timeout": r.config.LookupTimeout.String()},
				).WithContext(ctx, "resolve")
			}
			return nil, err
		}
		return rule, nil
	})
	if err != nil {
		return nil, err
	}

	rule := *v.(*domain.Rule)
	return &rule, nil
}

func redirectTo(rule *domain.Rule, cacheHit bool) domain.Outcome {
	return domain.Outcome{
		Action:     domain.ActionRedirect,
		TargetURL:  rule.TargetURL,
		StatusCode: http.StatusMovedPermanently,
		RuleID:     rule.ID,
		Slug:       rule.Slug,
		CacheHit:   cacheHit,
		Timestamp:  time.Now(),
	}
}

// Invalidate drops the cached rule for slug
func (r *Resolver) Invalidate(slug string) {
	slug = domain.NormalizeSlug(slug)

	// Forget under the lock so a caller that sees the new generation starts a fresh query
	r.genMu.Lock()
	r.generations[slug]++
	r.cache.Invalidate(slug)
	r.lookups.Forget(slug)
	r.genMu.Unlock()
}

// InvalidateCache clears the cache
func (r *Resolver) InvalidateCache(ctx context.Context) error {
	r.genMu.Lock()
	r.epoch++
	r.generations = make(map[string]uint64)
	r.cache.Clear()
	r.genMu.Unlock()

	return nil
}

// Warm preloads matchable rules into the cache, newest first, until it is full
func (r *Resolver) Warm(ctx context.Context) (int, error) {
	rules, err := r.repository.GetAllRules(ctx)
	if err != nil {
		return 0, err
	}

	limit := r.cache.Stats().MaxSize
	loaded := 0
	for i := range rules {
		if loaded >= limit {
			break
		}
		if !rules[i].IsMatchable() {
			continue
		}
		r.cache.Set(domain.NormalizeSlug(rules[i].Slug), &rules[i])
		loaded++
	}

	return loaded, nil
}

// HealthCheck performs a health check on the resolver
func (r *Resolver) HealthCheck(ctx context.Context) domain.HealthStatus {
	status := domain.HealthStatusHealthy
	message := "Resolver is operating normally"

	cacheStats := r.cache.Stats()
	details := map[string]any{
		"cache_size":      cacheStats.Size,
		"cache_hit_ratio": cacheStats.HitRatio,
		"redirects":       r.redirects.Load(),
		"no_matches":      r.noMatches.Load(),
		"lookup_errors":   r.lookupErrors.Load(),
		"lookup_timeout":  r.config.LookupTimeout.String(),
	}

	cacheHealth := r.cache.HealthCheck(ctx)
	if cacheHealth.Status != domain.HealthStatusHealthy {
		status = domain.HealthStatusDegraded
		message = "Cache issues detected"
		details["cache_status"] = cacheHealth.Status
		details["cache_message"] = cacheHealth.Message
	}

	// Failed lookups degrade redirects but never site navigation
	repoHealth := r.repository.HealthCheck(ctx)
	if repoHealth.Status != domain.HealthStatusHealthy {
		status = domain.HealthStatusDegraded
		message = "Rule store issues detected"
		details["storage_status"] = repoHealth.Status
		details["storage_message"] = repoHealth.Message
	}

	return domain.HealthStatus{
		Status:    status,
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
	}
}

// GetStats returns resolver statistics
func (r *Resolver) GetStats(ctx context.Context) map[string]any {
	cacheStats := r.cache.Stats()

	return map[string]any{
		"redirects":       r.redirects.Load(),
		"no_matches":      r.noMatches.Load(),
		"lookup_errors":   r.lookupErrors.Load(),
		"cache_hits":      cacheStats.Hits,
		"cache_misses":    cacheStats.Misses,
		"cache_size":      cacheStats.Size,
		"cache_max_size":  cacheStats.MaxSize,
		"cache_hit_ratio": cacheStats.HitRatio,
	}
}
