// Package middleware contains the request dispatcher that runs redirect
// resolution ahead of every other route.
package middleware

import (
	"net/url"
	"strings"

	"github.com/freewebtopdf/redirector/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/proxy"
	"github.com/rs/zerolog/log"
)

// RedirectByHeader names the component that issued a redirect
const RedirectByHeader = "X-Redirect-By"

// DefaultInternalPrefixes are always served by the service itself
var DefaultInternalPrefixes = []string{"/health", "/metrics", "/swagger"}

// DispatcherConfig configures the dispatcher
type DispatcherConfig struct {
	// AdminPrefix is the admin API mount point, e.g. "/v1"
	AdminPrefix string
	// HostOrigin receives every request that is not a redirect; empty means 404
	HostOrigin string
}

// Dispatcher asks the resolver about each request before normal routing
type Dispatcher struct {
	resolver domain.RedirectResolver
	internal []string
	origin   string
}

// NewDispatcher creates a dispatcher for the given resolver
func NewDispatcher(resolver domain.RedirectResolver, config DispatcherConfig) *Dispatcher {
	internal := append([]string{}, DefaultInternalPrefixes...)
	if prefix := "/" + strings.Trim(config.AdminPrefix, "/"); prefix != "/" {
		internal = append(internal, prefix)
	}

	return &Dispatcher{
		resolver: resolver,
		internal: internal,
		origin:   strings.TrimRight(config.HostOrigin, "/"),
	}
}

// Middleware must be registered before any other route
func (d *Dispatcher) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if unescaped, err := url.PathUnescape(path); err == nil {
			path = unescaped
		}

		// Both forms are checked so an encoded internal path cannot resolve as a slug
		if d.IsInternal(c.Path()) || d.IsInternal(path) {
			return c.Next()
		}

		outcome := d.resolver.Resolve(c.UserContext(), path)
		if !outcome.IsRedirect() {
			return c.Next()
		}

		log.Debug().
			Str("path", path).
			Str("rule_id", outcome.RuleID).
			Str("target", outcome.TargetURL).
			Bool("cache_hit", outcome.CacheHit).
			Msg("Redirecting")

		c.Set(RedirectByHeader, "redirector")
		return c.Redirect(outcome.TargetURL, outcome.StatusCode)
	}
}

// Fallback is the terminal handler for requests that did not redirect
func (d *Dispatcher) Fallback() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if d.origin != "" && !d.IsInternal(c.Path()) {
			if err := proxy.Do(c, d.origin+c.OriginalURL()); err != nil {
				log.Error().Err(err).Str("origin", d.origin).Str("path", c.Path()).Msg("Host origin unavailable")
				return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
					"status":  "error",
					"code":    domain.ErrInternal,
					"message": "Host origin unavailable",
				})
			}
			return nil
		}

		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":  "error",
			"code":    domain.ErrNotFound,
			"message": "Not Found",
		})
	}
}

// IsInternal reports whether path belongs to the service's own namespace
func (d *Dispatcher) IsInternal(path string) bool {
	for _, prefix := range d.internal {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
