package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/freewebtopdf/redirector/internal/domain"
	"github.com/freewebtopdf/redirector/internal/storage/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Set REDIRECTOR_TEST_POSTGRES_DSN to run against a disposable database
func testDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("REDIRECTOR_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("REDIRECTOR_TEST_POSTGRES_DSN not set")
	}
	return dsn
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	store, err := NewStore(ctx, Config{DSN: testDSN(t), MaxConns: 10})
	require.NoError(t, err)
	require.NoError(t, store.Truncate(ctx))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_Conformance(t *testing.T) {
	testDSN(t)
	storetest.Run(t, func(t *testing.T) domain.Store {
		return newTestStore(t)
	})
}

func TestStore_HealthAndStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateRule(ctx, storetest.NewRule("a", "https://a.example")))

	assert.Equal(t, domain.HealthStatusHealthy, store.HealthCheck(ctx).Status)
	stats := store.GetStats(ctx)
	assert.Equal(t, 1, stats["rule_count"])
}

func TestNewStore_BadDSN(t *testing.T) {
	_, err := NewStore(context.Background(), Config{DSN: "://not a dsn"})
	assert.Error(t, err)
}
