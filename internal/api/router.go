package api

import (
	"crypto/subtle"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/keyauth"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/freewebtopdf/redirector/internal/conflict"
	"github.com/freewebtopdf/redirector/internal/domain"
	"github.com/freewebtopdf/redirector/internal/middleware"
)

// RouterConfig contains configuration for the HTTP router
type RouterConfig struct {
	CORSOrigins []string
	BodyLimit   int
	// AdminPrefix is where the admin API is mounted
	AdminPrefix string
	// AdminAPIKey enables bearer key authentication on the admin API when set
	AdminAPIKey string
	// HostOrigin receives requests that are not redirects
	HostOrigin string
}

// RouterDependencies contains all dependencies needed by the router
type RouterDependencies struct {
	Resolver      domain.RedirectResolver
	Repository    domain.RuleRepository
	Reserved      domain.ReservedPathRepository
	Visits        domain.VisitCounter
	Conflicts     *conflict.ConflictManager
	Checker       domain.ConflictChecker
	Notices       domain.NoticeQueue
	Cache         domain.CacheManager
	Validator     domain.Validator
	HealthChecker domain.HealthChecker
	CounterStats  StatsProvider
	Syncer        ReservedSyncer
}

// SetupRouter creates and configures the Fiber app with all routes and middleware
func SetupRouter(deps RouterDependencies, config RouterConfig) *fiber.App {
	if config.AdminPrefix == "" {
		config.AdminPrefix = "/v1"
	}
	config.AdminPrefix = "/" + strings.Trim(config.AdminPrefix, "/")

	app := fiber.New(fiber.Config{
		BodyLimit:    config.BodyLimit,
		ErrorHandler: customErrorHandler,
	})

	handlers := NewHandlers(deps)
	reservedHandlers := NewReservedHandlers(deps.Reserved, deps.Syncer, deps.Validator)
	dispatcher := middleware.NewDispatcher(deps.Resolver, middleware.DispatcherConfig{
		AdminPrefix: config.AdminPrefix,
		HostOrigin:  config.HostOrigin,
	})

	// Middleware pipeline (order is critical)

	// 1. RequestID middleware for UUID generation
	app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return generateUUID()
		},
	}))

	// 2. Structured logging middleware with zerolog
	app.Use(structuredLoggingMiddleware())

	// 3. Panic recovery middleware with stack trace logging
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			log.Error().
				Str("request_id", requestID(c)).
				Interface("panic", e).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Str("ip", c.IP()).
				Msg("Panic recovered")
		},
	}))

	// 4. Redirect dispatch runs before any route can claim the path
	app.Use(dispatcher.Middleware())

	// 5. Security headers middleware (HSTS, XSS protection)
	app.Use(securityHeadersMiddleware())

	// 6. CORS middleware with origin restrictions
	if len(config.CORSOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     strings.Join(config.CORSOrigins, ","),
			AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
			AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Request-ID",
			AllowCredentials: false,
			MaxAge:           86400, // 24 hours
		}))
	}

	// Admin API routes
	admin := app.Group(config.AdminPrefix)
	if config.AdminAPIKey != "" {
		admin.Use(adminKeyAuth(config.AdminAPIKey))
	}

	admin.Get("/resolve", handlers.ResolveHandler)

	admin.Get("/rules", handlers.ListRulesHandler)
	admin.Post("/rules", handlers.CreateRuleHandler)
	admin.Get("/rules/:id", handlers.GetRuleHandler)
	admin.Put("/rules/:id", handlers.UpdateRuleHandler)
	admin.Delete("/rules/:id", handlers.DeleteRuleHandler)

	admin.Post("/conflicts/check", handlers.CheckConflictHandler)

	admin.Get("/reserved", reservedHandlers.ListReservedHandler)
	admin.Post("/reserved", reservedHandlers.CreateReservedHandler)
	admin.Post("/reserved/sync", reservedHandlers.SyncReservedHandler)
	admin.Delete("/reserved/:id", reservedHandlers.DeleteReservedHandler)

	// Health and metrics endpoints
	app.Get("/health", handlers.HealthHandler)
	app.Get("/metrics", handlers.MetricsHandler)

	// Swagger documentation endpoint
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Everything else belongs to the host site
	app.Use(dispatcher.Fallback())

	return app
}

// adminKeyAuth accepts "Authorization: Bearer <key>" on the admin API
func adminKeyAuth(apiKey string) fiber.Handler {
	expected := []byte(apiKey)
	return keyauth.New(keyauth.Config{
		KeyLookup:  "header:" + fiber.HeaderAuthorization,
		AuthScheme: "Bearer",
		Validator: func(c *fiber.Ctx, key string) (bool, error) {
			if subtle.ConstantTimeCompare([]byte(key), expected) == 1 {
				return true, nil
			}
			return false, keyauth.ErrMissingOrMalformedAPIKey
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return sendError(c, domain.NewAppError(
				domain.ErrUnauthorized,
				"Missing or invalid API key",
				401,
				nil,
			))
		},
	})
}

// customErrorHandler handles Fiber framework errors
func customErrorHandler(c *fiber.Ctx, err error) error {
	// Default to 500 server error
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	// Check if it's a Fiber error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Map common Fiber errors to domain errors
	switch code {
	case fiber.StatusRequestEntityTooLarge:
		return c.Status(413).JSON(ErrorResponse{
			Status:  "error",
			Code:    domain.ErrTooLarge,
			Message: "Request payload too large",
		})
	case fiber.StatusBadRequest:
		return c.Status(400).JSON(ErrorResponse{
			Status:  "error",
			Code:    domain.ErrInvalidInput,
			Message: message,
		})
	case fiber.StatusNotFound:
		return c.Status(404).JSON(ErrorResponse{
			Status:  "error",
			Code:    domain.ErrNotFound,
			Message: message,
		})
	default:
		return c.Status(code).JSON(ErrorResponse{
			Status:  "error",
			Code:    domain.ErrInternal,
			Message: message,
		})
	}
}

// generateUUID generates a UUID v4 for request tracking
func generateUUID() string {
	return uuid.New().String()
}

// structuredLoggingMiddleware creates structured JSON logging middleware with zerolog
func structuredLoggingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Process request
		err := c.Next()

		latency := time.Since(start)
		status := c.Response().StatusCode()

		logEvent := log.Info()
		if status >= 500 {
			logEvent = log.Error()
		} else if status >= 400 {
			logEvent = log.Warn()
		}

		logEvent.
			Str("request_id", requestID(c)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", latency).
			Str("ip", c.IP()).
			Str("user_agent", c.Get("User-Agent")).
			Str("location", string(c.Response().Header.Peek(fiber.HeaderLocation))).
			Int("response_size", len(c.Response().Body())).
			Msg("HTTP request processed")

		return err
	}
}

// securityHeadersMiddleware adds security headers (HSTS, XSS protection)
func securityHeadersMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		return c.Next()
	}
}
