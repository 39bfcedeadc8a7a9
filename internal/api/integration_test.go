package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freewebtopdf/redirector/internal/cache"
	"github.com/freewebtopdf/redirector/internal/conflict"
	"github.com/freewebtopdf/redirector/internal/counter"
	"github.com/freewebtopdf/redirector/internal/domain"
	"github.com/freewebtopdf/redirector/internal/health"
	"github.com/freewebtopdf/redirector/internal/notice"
	"github.com/freewebtopdf/redirector/internal/resolver"
	"github.com/freewebtopdf/redirector/internal/storage"
)

type integrationEnv struct {
	app   *fiber.App
	store *storage.Store
}

// newIntegrationApp wires the real collaborators around a file store in a temp dir
func newIntegrationApp(t *testing.T, config RouterConfig) *integrationEnv {
	t.Helper()

	store := storage.NewStore(t.TempDir())
	require.NoError(t, store.Load(context.Background()))

	notices := notice.NewMemoryQueue(45 * time.Second)
	validator := domain.NewValidator()
	checker := conflict.NewValidator(store, notices, "v1")
	lru := cache.NewLRUCache(1000)
	clicks := counter.New(store, counter.Config{Mode: counter.ModeSync})
	t.Cleanup(func() { _ = clicks.Close() })

	res := resolver.NewResolver(store, lru, clicks, resolver.DefaultConfig())
	healthChecker := health.NewSystemHealthChecker(store, res, lru)
	healthChecker.SetCacheTTL(0)

	if config.BodyLimit == 0 {
		config.BodyLimit = 1024 * 1024
	}

	app := SetupRouter(RouterDependencies{
		Resolver:      res,
		Repository:    store,
		Reserved:      store,
		Visits:        store,
		Conflicts:     conflict.NewConflictManager(checker),
		Checker:       checker,
		Notices:       notices,
		Cache:         lru,
		Validator:     validator,
		HealthChecker: healthChecker,
		CounterStats:  clicks,
	}, config)

	return &integrationEnv{app: app, store: store}
}

func (e *integrationEnv) createRule(t *testing.T, slug, target string) (string, map[string]any) {
	t.Helper()
	status, body := doJSON(t, e.app, "POST", "/v1/rules", CreateRuleRequest{Slug: slug, TargetURL: target})
	require.Equal(t, 201, status, "%v", body)
	data := dataOf(t, body)
	return data["rule"].(map[string]any)["id"].(string), data
}

func (e *integrationEnv) visit(t *testing.T, method, path string) *http.Response {
	t.Helper()
	resp, err := e.app.Test(httptest.NewRequest(method, path, nil))
	require.NoError(t, err)
	return resp
}

func TestRedirectLifecycle(t *testing.T) {
	env := newIntegrationApp(t, RouterConfig{})

	id, _ := env.createRule(t, "promo", "https://partner.example.com/offer")

	t.Run("published slug redirects permanently", func(t *testing.T) {
		resp := env.visit(t, "GET", "/promo")
		assert.Equal(t, 301, resp.StatusCode)
		assert.Equal(t, "https://partner.example.com/offer", resp.Header.Get("Location"))
	})

	t.Run("trailing slash and other methods redirect too", func(t *testing.T) {
		assert.Equal(t, 301, env.visit(t, "GET", "/promo/").StatusCode)
		assert.Equal(t, 301, env.visit(t, "POST", "/promo").StatusCode)
	})

	t.Run("visits are counted", func(t *testing.T) {
		status, body := doJSON(t, env.app, "GET", "/v1/rules/"+id, nil)
		require.Equal(t, 200, status)
		assert.Equal(t, float64(3), dataOf(t, body)["rule"].(map[string]any)["visit_count"])
	})

	t.Run("preview does not count", func(t *testing.T) {
		status, body := doJSON(t, env.app, "GET", "/v1/resolve?path=/promo", nil)
		require.Equal(t, 200, status)
		assert.Equal(t, "redirect", dataOf(t, body)["action"])

		count, err := env.store.VisitCount(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})

	t.Run("slug match is case sensitive", func(t *testing.T) {
		assert.Equal(t, 404, env.visit(t, "GET", "/PROMO").StatusCode)
	})

	t.Run("retargeting takes effect immediately", func(t *testing.T) {
		target := "https://partner.example.com/new"
		status, _ := doJSON(t, env.app, "PUT", "/v1/rules/"+id, UpdateRuleRequest{TargetURL: &target})
		require.Equal(t, 200, status)

		resp := env.visit(t, "GET", "/promo")
		assert.Equal(t, 301, resp.StatusCode)
		assert.Equal(t, target, resp.Header.Get("Location"))
	})

	t.Run("unpublished rule falls through", func(t *testing.T) {
		unpublished := domain.StatusUnpublished
		status, _ := doJSON(t, env.app, "PUT", "/v1/rules/"+id, UpdateRuleRequest{Status: &unpublished})
		require.Equal(t, 200, status)

		assert.Equal(t, 404, env.visit(t, "GET", "/promo").StatusCode)
	})

	t.Run("deleted rule falls through", func(t *testing.T) {
		published := domain.StatusPublished
		status, _ := doJSON(t, env.app, "PUT", "/v1/rules/"+id, UpdateRuleRequest{Status: &published})
		require.Equal(t, 200, status)
		require.Equal(t, 301, env.visit(t, "GET", "/promo").StatusCode)

		status, _ = doJSON(t, env.app, "DELETE", "/v1/rules/"+id, nil)
		require.Equal(t, 200, status)

		assert.Equal(t, 404, env.visit(t, "GET", "/promo").StatusCode)
	})
}

func TestRootAndEmptyTargetNeverRedirect(t *testing.T) {
	env := newIntegrationApp(t, RouterConfig{})

	status, _ := doJSON(t, env.app, "POST", "/v1/rules", CreateRuleRequest{Slug: "later"})
	require.Equal(t, 201, status)

	assert.Equal(t, 404, env.visit(t, "GET", "/").StatusCode)
	assert.Equal(t, 404, env.visit(t, "GET", "/later").StatusCode)
}

func TestDuplicateSlugRejected(t *testing.T) {
	env := newIntegrationApp(t, RouterConfig{})
	env.createRule(t, "promo", "https://a.example.com")

	status, body := doJSON(t, env.app, "POST", "/v1/rules", CreateRuleRequest{Slug: "promo", TargetURL: "https://b.example.com"})

	assert.Equal(t, 409, status)
	assert.Equal(t, domain.ErrConflict, body["code"])
}

func TestReservedSlugConflictWorkflow(t *testing.T) {
	env := newIntegrationApp(t, RouterConfig{})

	status, body := doJSON(t, env.app, "POST", "/v1/reserved", ReservedPathRequest{Path: "/about/"})
	require.Equal(t, 201, status)
	assert.Equal(t, "about", dataOf(t, body)["path"])
	assert.Equal(t, "page", dataOf(t, body)["kind"])

	status, body = doJSON(t, env.app, "POST", "/v1/conflicts/check", ConflictCheckRequest{Slug: "about"})
	require.Equal(t, 200, status)
	assert.Equal(t, true, dataOf(t, body)["conflict"])

	id, data := env.createRule(t, "about", "https://example.com/about-us")
	c := data["conflict"].(map[string]any)
	assert.Equal(t, true, c["conflict"])
	assert.Equal(t, fmt.Sprintf(conflict.WarningFormat, "about"), c["message"])

	// The rule is saved and still redirects; the warning is advisory
	assert.Equal(t, 301, env.visit(t, "GET", "/about").StatusCode)

	status, body = doJSON(t, env.app, "GET", "/v1/rules/"+id, nil)
	require.Equal(t, 200, status)
	notices := dataOf(t, body)["notices"].([]any)
	require.Len(t, notices, 1)
	assert.Equal(t, string(domain.NoticeSlugConflict), notices[0].(map[string]any)["kind"])

	status, body = doJSON(t, env.app, "GET", "/v1/rules/"+id, nil)
	require.Equal(t, 200, status)
	assert.Empty(t, dataOf(t, body)["notices"])

	status, body = doJSON(t, env.app, "GET", "/v1/rules", nil)
	require.Equal(t, 200, status)
	assert.Equal(t, float64(1), dataOf(t, body)["conflict_count"])

	status, _ = doJSON(t, env.app, "POST", "/v1/reserved", ReservedPathRequest{Path: "about"})
	assert.Equal(t, 409, status, "a path is reserved once")
}

func TestSystemPathConflicts(t *testing.T) {
	env := newIntegrationApp(t, RouterConfig{})

	for _, slug := range []string{"health", "metrics", "swagger", "v1"} {
		status, body := doJSON(t, env.app, "POST", "/v1/conflicts/check", ConflictCheckRequest{Slug: slug})
		require.Equal(t, 200, status)
		data := dataOf(t, body)
		assert.Equal(t, true, data["conflict"], slug)
		assert.Equal(t, string(domain.ReservedSystem), data["kind"], slug)
	}
}

func TestAdminAPIKey(t *testing.T) {
	env := newIntegrationApp(t, RouterConfig{AdminAPIKey: "s3cret"})

	req := httptest.NewRequest("GET", "/v1/rules", nil)
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	req = httptest.NewRequest("GET", "/v1/rules", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err = env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	req = httptest.NewRequest("GET", "/v1/rules", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	resp, err = env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	// Redirects and health stay public
	resp, err = env.app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestHostOriginFallthrough(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Origin", "wordpress")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("page " + r.URL.Path))
	}))
	defer origin.Close()

	env := newIntegrationApp(t, RouterConfig{HostOrigin: origin.URL})
	env.createRule(t, "promo", "https://partner.example.com/offer")

	resp := env.visit(t, "GET", "/about?ref=home")
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "wordpress", resp.Header.Get("X-Origin"))

	resp = env.visit(t, "GET", "/promo")
	assert.Equal(t, 301, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("X-Origin"))
}

func TestConcurrentRedirects(t *testing.T) {
	env := newIntegrationApp(t, RouterConfig{})
	id, _ := env.createRule(t, "promo", "https://partner.example.com/offer")

	const workers, perWorker = 8, 10

	var wg sync.WaitGroup
	failures := make(chan int, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				resp, err := env.app.Test(httptest.NewRequest("GET", "/promo", nil))
				if err != nil {
					failures <- -1
					continue
				}
				if resp.StatusCode != 301 {
					failures <- resp.StatusCode
				}
			}
		}()
	}
	wg.Wait()
	close(failures)

	for code := range failures {
		t.Errorf("unexpected response %d", code)
	}

	count, err := env.store.VisitCount(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(workers*perWorker), count, "no visit is lost")
}

func TestProperty_CreatedSlugPreviewsToTarget(t *testing.T) {
	env := newIntegrationApp(t, RouterConfig{})

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	seen := make(map[string]bool)
	properties.Property("a published rule previews to its own target", prop.ForAll(
		func(slug string) bool {
			if seen[slug] {
				return true
			}
			seen[slug] = true

			target := "https://example.com/" + slug
			status, _ := doJSON(t, env.app, "POST", "/v1/rules", CreateRuleRequest{Slug: slug, TargetURL: target})
			if status != 201 {
				return false
			}

			status, body := doJSON(t, env.app, "GET", "/v1/resolve?path=/"+slug+"/", nil)
			if status != 200 {
				return false
			}
			data := body["data"].(map[string]any)
			return data["action"] == "redirect" && data["target_url"] == target
		},
		gen.Identifier(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
