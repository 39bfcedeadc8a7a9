package health

import (
	"context"
	"testing"
	"time"

	"github.com/freewebtopdf/redirector/internal/cache"
	"github.com/freewebtopdf/redirector/internal/domain"
	"github.com/freewebtopdf/redirector/internal/resolver"
	"github.com/freewebtopdf/redirector/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupChecker(t *testing.T) *SystemHealthChecker {
	t.Helper()
	store := storage.NewStore(t.TempDir())
	require.NoError(t, store.Load(context.Background()))

	lru := cache.NewLRUCache(100)
	res := resolver.NewResolver(store, lru, nil, resolver.DefaultConfig())
	return NewSystemHealthChecker(store, res, lru)
}

func status(s string) ComponentFunc {
	return func(ctx context.Context) domain.HealthStatus {
		return domain.HealthStatus{Status: s, Timestamp: time.Now()}
	}
}

func TestCheckHealth_Healthy(t *testing.T) {
	h := setupChecker(t)

	health := h.CheckHealth(context.Background())
	assert.Equal(t, domain.HealthStatusHealthy, health.Status)
	assert.Contains(t, health.Components, "storage")
	assert.Contains(t, health.Components, "resolver")
	assert.Contains(t, health.Components, "cache")
	assert.Contains(t, health.Metrics, "resolver")
	assert.True(t, h.IsHealthy(context.Background()))
}

func TestCheckHealth_WorstComponentWins(t *testing.T) {
	h := setupChecker(t)
	h.SetCacheTTL(0)

	h.Register("counter", status(domain.HealthStatusDegraded))
	assert.Equal(t, domain.HealthStatusDegraded, h.CheckHealth(context.Background()).Status)

	h.Register("redis", status(domain.HealthStatusUnhealthy))
	health := h.CheckHealth(context.Background())
	assert.Equal(t, domain.HealthStatusUnhealthy, health.Status)
	assert.Equal(t, domain.HealthStatusUnhealthy, health.Components["redis"].Status)
}

func TestCheckHealth_Cached(t *testing.T) {
	h := setupChecker(t)

	first := h.CheckHealth(context.Background())
	second := h.CheckHealth(context.Background())
	assert.Equal(t, first.Timestamp, second.Timestamp)

	// Registering a component invalidates the cached result
	h.Register("counter", status(domain.HealthStatusDegraded))
	assert.Equal(t, domain.HealthStatusDegraded, h.CheckHealth(context.Background()).Status)
}

func TestCheckComponent(t *testing.T) {
	h := setupChecker(t)
	h.Register("redis", status(domain.HealthStatusHealthy))

	assert.Equal(t, domain.HealthStatusHealthy, h.CheckComponent(context.Background(), "storage").Status)
	assert.Equal(t, domain.HealthStatusHealthy, h.CheckComponent(context.Background(), "redis").Status)
	assert.Equal(t, domain.HealthStatusUnhealthy, h.CheckComponent(context.Background(), "bogus").Status)
}
