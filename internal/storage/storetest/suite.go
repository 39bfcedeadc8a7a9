// Package storetest holds the behaviour every storage driver must share.
// Driver packages call Run from their own tests with a constructor for a fresh, empty store.
package storetest

import (
	"context"
	"sync"
	"testing"

	"github.com/freewebtopdf/redirector/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store; cleanup is registered on t
type Factory func(t *testing.T) domain.Store

// NewRule builds a valid published rule
func NewRule(slug, target string) *domain.Rule {
	return &domain.Rule{
		ID:        uuid.New().String(),
		Slug:      slug,
		TargetURL: target,
		Status:    domain.StatusPublished,
	}
}

// Run executes the shared store behaviour against a driver
func Run(t *testing.T, newStore Factory) {
	t.Run("CRUD", func(t *testing.T) { testCRUD(t, newStore(t)) })
	t.Run("FindPublishedBySlug", func(t *testing.T) { testFindPublishedBySlug(t, newStore(t)) })
	t.Run("SlugUniqueness", func(t *testing.T) { testSlugUniqueness(t, newStore(t)) })
	t.Run("UpdateKeepsVisitCount", func(t *testing.T) { testUpdateKeepsVisitCount(t, newStore(t)) })
	t.Run("ConcurrentIncrements", func(t *testing.T) { testConcurrentIncrements(t, newStore(t)) })
	t.Run("IncrementUnknownRule", func(t *testing.T) { testIncrementUnknownRule(t, newStore(t)) })
	t.Run("ReservedPaths", func(t *testing.T) { testReservedPaths(t, newStore(t)) })
}

func testCRUD(t *testing.T, store domain.Store) {
	ctx := context.Background()

	rule := NewRule("promo", "https://partner.example.com/offer")
	rule.Description = "spring"
	require.NoError(t, store.CreateRule(ctx, rule))

	got, err := store.GetRuleByID(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, "promo", got.Slug)
	assert.Equal(t, rule.TargetURL, got.TargetURL)
	assert.Equal(t, domain.StatusPublished, got.Status)
	assert.Equal(t, int64(0), got.VisitCount)
	assert.False(t, got.CreatedAt.IsZero())

	got.TargetURL = "https://partner.example.com/summer"
	got.Status = domain.StatusUnpublished
	require.NoError(t, store.UpdateRule(ctx, got))

	updated, err := store.GetRuleByID(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://partner.example.com/summer", updated.TargetURL)
	assert.Equal(t, domain.StatusUnpublished, updated.Status)

	all, err := store.GetAllRules(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, store.DeleteRule(ctx, rule.ID))
	_, err = store.GetRuleByID(ctx, rule.ID)
	assert.True(t, domain.IsNotFound(err))
	assert.True(t, domain.IsNotFound(store.DeleteRule(ctx, rule.ID)))
	assert.True(t, domain.IsNotFound(store.UpdateRule(ctx, rule)))
}

func testFindPublishedBySlug(t *testing.T, store domain.Store) {
	ctx := context.Background()

	published := NewRule("promo", "https://a.example")
	draft := NewRule("draft", "https://b.example")
	draft.Status = domain.StatusUnpublished
	require.NoError(t, store.CreateRule(ctx, published))
	require.NoError(t, store.CreateRule(ctx, draft))

	got, err := store.FindPublishedBySlug(ctx, "promo")
	require.NoError(t, err)
	assert.Equal(t, published.ID, got.ID)

	_, err = store.FindPublishedBySlug(ctx, "draft")
	assert.True(t, domain.IsNotFound(err))

	_, err = store.FindPublishedBySlug(ctx, "Promo")
	assert.True(t, domain.IsNotFound(err), "slug match is case-sensitive")

	_, err = store.FindPublishedBySlug(ctx, "missing")
	assert.True(t, domain.IsNotFound(err))
}

func testSlugUniqueness(t *testing.T, store domain.Store) {
	ctx := context.Background()

	first := NewRule("promo", "https://a.example")
	require.NoError(t, store.CreateRule(ctx, first))

	err := store.CreateRule(ctx, NewRule("promo", "https://b.example"))
	assert.True(t, domain.IsConflict(err))

	second := NewRule("other", "https://b.example")
	require.NoError(t, store.CreateRule(ctx, second))

	second.Slug = "promo"
	assert.True(t, domain.IsConflict(store.UpdateRule(ctx, second)))

	// Renaming frees the old slug
	first.Slug = "renamed"
	require.NoError(t, store.UpdateRule(ctx, first))
	second.Slug = "promo"
	assert.NoError(t, store.UpdateRule(ctx, second))
}

func testUpdateKeepsVisitCount(t *testing.T, store domain.Store) {
	ctx := context.Background()

	rule := NewRule("promo", "https://a.example")
	require.NoError(t, store.CreateRule(ctx, rule))

	_, err := store.IncrementVisitCount(ctx, rule.ID)
	require.NoError(t, err)
	n, err := store.IncrementVisitCount(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	rule.VisitCount = 0
	rule.TargetURL = "https://b.example"
	require.NoError(t, store.UpdateRule(ctx, rule))

	count, err := store.VisitCount(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func testConcurrentIncrements(t *testing.T, store domain.Store) {
	ctx := context.Background()

	rule := NewRule("hot", "https://a.example")
	require.NoError(t, store.CreateRule(ctx, rule))

	const workers, perWorker = 8, 25
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				_, err := store.IncrementVisitCount(ctx, rule.ID)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	count, err := store.VisitCount(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(workers*perWorker), count)
}

func testIncrementUnknownRule(t *testing.T, store domain.Store) {
	_, err := store.IncrementVisitCount(context.Background(), uuid.New().String())
	assert.Error(t, err)
}

func testReservedPaths(t *testing.T, store domain.Store) {
	ctx := context.Background()

	about := &domain.ReservedPath{Path: "/about/", Kind: domain.ReservedPage}
	require.NoError(t, store.CreateReservedPath(ctx, about))
	assert.NotEmpty(t, about.ID)
	assert.Equal(t, "about", about.Path)
	assert.Equal(t, domain.SourceManual, about.Source)

	assert.True(t, domain.IsConflict(store.CreateReservedPath(ctx, &domain.ReservedPath{Path: "about"})))

	hit, reserved, err := store.PathIsReserved(ctx, "about", "")
	require.NoError(t, err)
	assert.True(t, reserved)
	assert.Equal(t, about.ID, hit.ID)

	_, reserved, err = store.PathIsReserved(ctx, "about", about.ID)
	require.NoError(t, err)
	assert.False(t, reserved, "the excluded owner never conflicts with itself")

	require.NoError(t, store.ReplaceReservedPaths(ctx, domain.SourceSynced, []domain.ReservedPath{
		{Path: "blog", Kind: domain.ReservedPage},
		{Path: "blog/hello-world", Kind: domain.ReservedPost},
	}))
	require.NoError(t, store.ReplaceReservedPaths(ctx, domain.SourceSynced, []domain.ReservedPath{
		{Path: "contact", Kind: domain.ReservedPage},
	}))

	all, err := store.ListReservedPaths(ctx)
	require.NoError(t, err)
	paths := make([]string, 0, len(all))
	for _, p := range all {
		paths = append(paths, p.Path)
	}
	assert.ElementsMatch(t, []string{"about", "contact"}, paths)

	require.NoError(t, store.DeleteReservedPath(ctx, about.ID))
	assert.True(t, domain.IsNotFound(store.DeleteReservedPath(ctx, about.ID)))

	_, reserved, err = store.PathIsReserved(ctx, "about", "")
	require.NoError(t, err)
	assert.False(t, reserved)
}
