// Package health aggregates component health for the /health endpoint.
package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/freewebtopdf/redirector/internal/domain"
)

// Component is anything that can report its own health
type Component interface {
	HealthCheck(ctx context.Context) domain.HealthStatus
}

// ComponentFunc adapts a function to Component
type ComponentFunc func(ctx context.Context) domain.HealthStatus

// HealthCheck calls f
func (f ComponentFunc) HealthCheck(ctx context.Context) domain.HealthStatus {
	return f(ctx)
}

// SystemHealthChecker implements comprehensive system health monitoring
type SystemHealthChecker struct {
	repository domain.RuleRepository
	resolver   domain.RedirectResolver
	cache      domain.CacheManager

	// Optional components such as the visit counter or Redis
	extra map[string]Component

	// Health check configuration
	timeout   time.Duration
	startTime time.Time

	// Cached health status to avoid expensive checks on every request
	lastCheck   time.Time
	lastHealth  domain.SystemHealth
	cacheTTL    time.Duration
	healthMutex sync.RWMutex
}

// NewSystemHealthChecker creates a new system health checker
func NewSystemHealthChecker(
	repository domain.RuleRepository,
	resolver domain.RedirectResolver,
	cache domain.CacheManager,
) *SystemHealthChecker {
	return &SystemHealthChecker{
		repository: repository,
		resolver:   resolver,
		cache:      cache,
		extra:      make(map[string]Component),
		timeout:    5 * time.Second,
		cacheTTL:   30 * time.Second,
		startTime:  time.Now(),
	}
}

// Register adds a named component to every health check
func (h *SystemHealthChecker) Register(name string, component Component) {
	h.healthMutex.Lock()
	defer h.healthMutex.Unlock()
	h.extra[name] = component
	h.lastCheck = time.Time{}
}

// SetCacheTTL changes how long a health result is reused; zero disables caching
func (h *SystemHealthChecker) SetCacheTTL(ttl time.Duration) {
	h.healthMutex.Lock()
	defer h.healthMutex.Unlock()
	h.cacheTTL = ttl
}

// CheckHealth performs a comprehensive system health check
func (h *SystemHealthChecker) CheckHealth(ctx context.Context) domain.SystemHealth {
	h.healthMutex.Lock()
	defer h.healthMutex.Unlock()

	// Return cached result if still valid
	if !h.lastCheck.IsZero() && time.Since(h.lastCheck) < h.cacheTTL {
		return h.lastHealth
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	now := time.Now()
	components := make(map[string]domain.HealthStatus)
	overallStatus := domain.HealthStatusHealthy

	for _, name := range h.componentNames() {
		status := h.checkLocked(checkCtx, name)
		components[name] = status
		overallStatus = aggregateStatus(overallStatus, status.Status)
	}

	systemHealth := domain.SystemHealth{
		Status:     overallStatus,
		Timestamp:  now,
		Components: components,
		Metrics:    h.collectSystemMetrics(checkCtx),
		Uptime:     time.Since(h.startTime),
	}

	h.lastCheck = now
	h.lastHealth = systemHealth

	return systemHealth
}

// CheckComponent performs a health check on a specific component
func (h *SystemHealthChecker) CheckComponent(ctx context.Context, component string) domain.HealthStatus {
	checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	h.healthMutex.RLock()
	defer h.healthMutex.RUnlock()
	return h.checkLocked(checkCtx, component)
}

func (h *SystemHealthChecker) componentNames() []string {
	names := []string{"storage", "resolver", "cache"}
	extra := make([]string, 0, len(h.extra))
	for name := range h.extra {
		extra = append(extra, name)
	}
	sort.Strings(extra)
	return append(names, extra...)
}

func (h *SystemHealthChecker) checkLocked(ctx context.Context, component string) domain.HealthStatus {
	switch component {
	case "storage":
		return h.repository.HealthCheck(ctx)
	case "resolver":
		return h.resolver.HealthCheck(ctx)
	case "cache":
		return h.cache.HealthCheck(ctx)
	}

	if c, ok := h.extra[component]; ok {
		return c.HealthCheck(ctx)
	}

	return domain.HealthStatus{
		Status:    domain.HealthStatusUnhealthy,
		Message:   "Unknown component",
		Timestamp: time.Now(),
		Details: map[string]any{
			"component": component,
			"error":     "Component not found",
		},
	}
}

// aggregateStatus determines the overall status based on component statuses
func aggregateStatus(current, componentStatus string) string {
	// Priority: unhealthy > degraded > healthy
	statusPriority := map[string]int{
		domain.HealthStatusHealthy:   0,
		domain.HealthStatusDegraded:  1,
		domain.HealthStatusUnhealthy: 2,
	}

	if statusPriority[componentStatus] > statusPriority[current] {
		return componentStatus
	}
	return current
}

// collectSystemMetrics gathers system-wide metrics
func (h *SystemHealthChecker) collectSystemMetrics(ctx context.Context) map[string]any {
	metrics := make(map[string]any)

	if storageStats := h.repository.GetStats(ctx); storageStats != nil {
		metrics["storage"] = storageStats
	}

	if resolverStats := h.resolver.GetStats(ctx); resolverStats != nil {
		metrics["resolver"] = resolverStats
	}

	cacheStats := h.cache.Stats()
	metrics["cache"] = map[string]any{
		"hits":      cacheStats.Hits,
		"misses":    cacheStats.Misses,
		"size":      cacheStats.Size,
		"max_size":  cacheStats.MaxSize,
		"hit_ratio": cacheStats.HitRatio,
	}

	metrics["system"] = map[string]any{
		"uptime_seconds": time.Since(h.startTime).Seconds(),
		"timestamp":      time.Now(),
	}

	return metrics
}

// IsHealthy returns true if the system is healthy
func (h *SystemHealthChecker) IsHealthy(ctx context.Context) bool {
	return h.CheckHealth(ctx).Status == domain.HealthStatusHealthy
}
