package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/freewebtopdf/redirector/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockResolver is a mock implementation of RedirectResolver
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, path string) domain.Outcome {
	return m.Called(ctx, path).Get(0).(domain.Outcome)
}

func (m *MockResolver) Preview(ctx context.Context, path string) domain.Outcome {
	return m.Called(ctx, path).Get(0).(domain.Outcome)
}

func (m *MockResolver) Invalidate(slug string) {
	m.Called(slug)
}

func (m *MockResolver) InvalidateCache(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockResolver) HealthCheck(ctx context.Context) domain.HealthStatus {
	return m.Called(ctx).Get(0).(domain.HealthStatus)
}

func (m *MockResolver) GetStats(ctx context.Context) map[string]any {
	return m.Called(ctx).Get(0).(map[string]any)
}

func redirect(target string) domain.Outcome {
	return domain.Outcome{
		Action:     domain.ActionRedirect,
		TargetURL:  target,
		StatusCode: 301,
		RuleID:     "r1",
		Timestamp:  time.Now(),
	}
}

func setupApp(resolver domain.RedirectResolver, config DispatcherConfig) *fiber.App {
	d := NewDispatcher(resolver, config)
	app := fiber.New()
	app.Use(d.Middleware())
	app.Get("/v1/rules", func(c *fiber.Ctx) error { return c.SendString("admin") })
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Use(d.Fallback())
	return app
}

func TestDispatcher_Redirects(t *testing.T) {
	resolver := new(MockResolver)
	resolver.On("Resolve", mock.Anything, "/promo").Return(redirect("https://partner.example.com/offer"))

	app := setupApp(resolver, DispatcherConfig{AdminPrefix: "/v1"})

	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodPost} {
		resp, err := app.Test(httptest.NewRequest(method, "/promo", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusMovedPermanently, resp.StatusCode, method)
		assert.Equal(t, "https://partner.example.com/offer", resp.Header.Get("Location"))
		assert.Equal(t, "redirector", resp.Header.Get(RedirectByHeader))
	}
}

func TestDispatcher_UnescapesPath(t *testing.T) {
	resolver := new(MockResolver)
	resolver.On("Resolve", mock.Anything, "/café").Return(redirect("https://example.com/cafe"))

	app := setupApp(resolver, DispatcherConfig{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/caf%C3%A9", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusMovedPermanently, resp.StatusCode)
}

func TestDispatcher_NoMatchFallsThrough(t *testing.T) {
	resolver := new(MockResolver)
	resolver.On("Resolve", mock.Anything, "/about").Return(domain.NoMatch())

	app := setupApp(resolver, DispatcherConfig{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/about", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Location"))
}

func TestDispatcher_InternalPathsSkipResolution(t *testing.T) {
	resolver := new(MockResolver)
	app := setupApp(resolver, DispatcherConfig{AdminPrefix: "v1/"})

	for path, want := range map[string]string{"/v1/rules": "admin", "/health": "ok"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, want, string(body))
	}

	resolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestDispatcher_EncodedInternalPathsSkipResolution(t *testing.T) {
	resolver := new(MockResolver)
	app := setupApp(resolver, DispatcherConfig{AdminPrefix: "v1"})

	for _, path := range []string{"/%68ealth", "/%761/rules", "/swagger%2Findex.html"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		assert.NotEqual(t, http.StatusMovedPermanently, resp.StatusCode, path)
	}

	resolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestDispatcher_IsInternal(t *testing.T) {
	d := NewDispatcher(nil, DispatcherConfig{AdminPrefix: "/admin"})

	assert.True(t, d.IsInternal("/admin"))
	assert.True(t, d.IsInternal("/admin/rules"))
	assert.True(t, d.IsInternal("/swagger/index.html"))
	assert.False(t, d.IsInternal("/administrator"))
	assert.False(t, d.IsInternal("/healthy"))
	assert.False(t, d.IsInternal("/"))
}

func TestDispatcher_FallbackProxiesToOrigin(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("page:" + r.URL.RequestURI()))
	}))
	defer origin.Close()

	resolver := new(MockResolver)
	resolver.On("Resolve", mock.Anything, "/about").Return(domain.NoMatch())

	app := setupApp(resolver, DispatcherConfig{HostOrigin: origin.URL + "/"})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/about?x=1", nil), 5000)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "page:/about?x=1", string(body))
}
