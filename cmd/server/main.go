package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freewebtopdf/redirector/internal/api"
	"github.com/freewebtopdf/redirector/internal/cache"
	"github.com/freewebtopdf/redirector/internal/config"
	"github.com/freewebtopdf/redirector/internal/conflict"
	"github.com/freewebtopdf/redirector/internal/counter"
	"github.com/freewebtopdf/redirector/internal/domain"
	"github.com/freewebtopdf/redirector/internal/health"
	"github.com/freewebtopdf/redirector/internal/notice"
	"github.com/freewebtopdf/redirector/internal/reserved"
	"github.com/freewebtopdf/redirector/internal/resolver"
	"github.com/freewebtopdf/redirector/internal/storage"
	"github.com/freewebtopdf/redirector/internal/storage/postgres"
	"github.com/freewebtopdf/redirector/internal/storage/redisctr"
	"github.com/freewebtopdf/redirector/internal/storage/sqlite"

	docs "github.com/freewebtopdf/redirector/docs"
)

// @title Redirector API
// @version 1.0
// @description Slug redirect service: short site paths answered with permanent redirects, everything else passed to the host site
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @BasePath /
// @schemes http https

// @tag.name Resolution
// @tag.description Redirect resolution preview

// @tag.name Rules
// @tag.description Redirect rule management

// @tag.name Conflicts
// @tag.description Slug conflict checks

// @tag.name Reserved
// @tag.description Paths owned by host site content

// @tag.name System
// @tag.description System health and metrics operations

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

func main() {
	healthCheck := flag.Bool("health-check", false, "Perform health check and exit")
	flag.Parse()

	if *healthCheck {
		performHealthCheck()
		return
	}

	setupLogger()

	log.Info().Msg("Redirector starting...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatal().Err(err).Msg("Failed to create required directories")
	}

	docs.SwaggerInfo.Host = os.Getenv("DOMAIN")

	logStartupConfig(cfg)

	ctx := context.Background()

	svc, err := buildService(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise service")
	}

	if svc.syncer != nil {
		if err := svc.syncer.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to start reserved path syncer")
		}
	}

	setupGracefulShutdown(svc)

	serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info().
		Int("port", cfg.Server.Port).
		Str("addr", serverAddr).
		Msg("Starting HTTP server")

	if err := svc.app.Listen(serverAddr); err != nil {
		log.Fatal().Err(err).Msg("Failed to start HTTP server")
	}
}

// service holds the wired application and everything that must be closed with it
type service struct {
	app     *fiber.App
	store   domain.Store
	counter *counter.Counter
	syncer  *reserved.Syncer
	redis   *redis.Client
}

// Close releases resources in dependency order; queued clicks are flushed before the store closes
func (s *service) Close() {
	if s.syncer != nil {
		s.syncer.Stop()
	}

	if s.counter != nil {
		if err := s.counter.Close(); err != nil {
			log.Error().Err(err).Str("component", "visit counter").Msg("Error during shutdown")
		}
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Error().Err(err).Str("component", "store").Msg("Error during shutdown")
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Error().Err(err).Str("component", "redis").Msg("Error during shutdown")
		}
	}
}

func buildService(ctx context.Context, cfg *config.Config) (*service, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	svc := &service{store: store}

	if cfg.NeedsRedis() {
		svc.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := svc.redis.Ping(ctx).Err(); err != nil {
			_ = store.Close()
			_ = svc.redis.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
	}

	// Visit count backend
	var visits domain.VisitCounter = store
	var redisCounter *redisctr.Counter
	if cfg.Counter.Driver == config.CounterRedis {
		redisCounter = redisctr.New(svc.redis, redisctr.WithPrefix(cfg.Redis.Prefix))
		rules, err := store.GetAllRules(ctx)
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("failed to read rules for counter seeding: %w", err)
		}
		if err := redisCounter.Seed(ctx, rules); err != nil {
			log.Warn().Err(err).Msg("Failed to seed redis visit counts")
		}
		visits = redisCounter
	}

	svc.counter = counter.New(visits, counter.Config{
		Mode:      counter.Mode(cfg.Counter.Mode),
		Timeout:   cfg.Counter.Timeout,
		Workers:   cfg.Counter.Workers,
		QueueSize: cfg.Counter.QueueSize,
	})

	// Admin notices
	var notices domain.NoticeQueue
	if cfg.Notice.Driver == config.NoticeRedis {
		notices = notice.NewRedisQueue(svc.redis, cfg.Redis.Prefix, cfg.Notice.TTL)
	} else {
		notices = notice.NewMemoryQueue(cfg.Notice.TTL)
	}

	validator := domain.NewValidator()

	if err := reserved.SeedStatic(ctx, store, cfg.Reserved.Paths); err != nil {
		log.Warn().Err(err).Msg("Failed to seed configured reserved paths")
	}

	conflictValidator := conflict.NewValidator(store, notices, strings.Trim(cfg.Admin.Prefix, "/"))
	conflictManager := conflict.NewConflictManager(conflictValidator)

	cacheTTL := cfg.EffectiveCacheTTL()
	if cacheTTL != cfg.Cache.TTL {
		log.Warn().
			Str("storage_driver", cfg.Storage.Driver).
			Dur("configured_ttl", cfg.Cache.TTL).
			Dur("effective_ttl", cacheTTL).
			Msg("Capping redirect cache TTL, rules may be edited by other instances")
	}
	lruCache := cache.NewLRUCacheWithTTL(cfg.Cache.MaxSize, cacheTTL)

	redirectResolver := resolver.NewResolver(store, lruCache, svc.counter, resolver.Config{
		LookupTimeout: cfg.Resolver.LookupTimeout,
	})

	warmed, err := redirectResolver.Warm(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to warm redirect cache")
	} else {
		log.Info().Int("rules", warmed).Msg("Redirect cache warmed")
	}

	healthChecker := health.NewSystemHealthChecker(store, redirectResolver, lruCache)
	healthChecker.Register("counter", svc.counter)
	if redisCounter != nil {
		healthChecker.Register("redis", redisCounter)
	}

	deps := api.RouterDependencies{
		Resolver:      redirectResolver,
		Repository:    store,
		Reserved:      store,
		Visits:        visits,
		Conflicts:     conflictManager,
		Checker:       conflictValidator,
		Notices:       notices,
		Cache:         lruCache,
		Validator:     validator,
		HealthChecker: healthChecker,
		CounterStats:  svc.counter,
	}

	if cfg.Reserved.IndexURL != "" {
		svc.syncer = reserved.NewSyncer(reserved.SyncerConfig{
			IndexURL: cfg.Reserved.IndexURL,
			Timeout:  cfg.Reserved.SyncTimeout,
			Schedule: cfg.Reserved.SyncSchedule,
		}, store, validator)
		svc.syncer.SetOnSync(func() {
			logConflictSummary(context.Background(), store, conflictManager)
		})
		// Left unset otherwise so the handlers see a nil interface
		deps.Syncer = svc.syncer
	}

	svc.app = api.SetupRouter(deps, api.RouterConfig{
		CORSOrigins: cfg.Security.CORSOrigins,
		BodyLimit:   cfg.Server.BodyLimit,
		AdminPrefix: cfg.Admin.Prefix,
		AdminAPIKey: cfg.Admin.APIKey,
		HostOrigin:  cfg.Host.Origin,
	})

	svc.app.Server().ReadTimeout = cfg.Server.ReadTimeout
	svc.app.Server().WriteTimeout = cfg.Server.WriteTimeout

	return svc, nil
}

func openStore(ctx context.Context, cfg *config.Config) (domain.Store, error) {
	switch cfg.Storage.Driver {
	case config.StorageSQLite:
		store, err := sqlite.NewStore(ctx, &sqlite.Config{DatabasePath: cfg.Storage.SQLitePath})
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		log.Info().Str("path", cfg.Storage.SQLitePath).Msg("Using sqlite storage")
		return store, nil

	case config.StoragePostgres:
		store, err := postgres.NewStore(ctx, postgres.Config{
			DSN:      cfg.Storage.DatabaseURL,
			MaxConns: cfg.Storage.MaxConns,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		log.Info().Msg("Using postgres storage")
		return store, nil

	default:
		store := storage.NewStoreWithConfig(storage.StoreConfig{
			DataDir:  cfg.Storage.DataDir,
			RulesDir: cfg.Storage.RulesDir,
		})
		if err := store.Load(ctx); err != nil {
			return nil, fmt.Errorf("failed to load rules: %w", err)
		}
		log.Info().Str("rules_dir", cfg.Storage.RulesDir).Msg("Using file storage")
		return store, nil
	}
}

// logConflictSummary reports rules whose slug became shadowed after the reserved set changed
func logConflictSummary(ctx context.Context, repo domain.RuleRepository, manager *conflict.ConflictManager) {
	rules, err := repo.GetAllRules(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to list rules after reserved path sync")
		return
	}

	enriched := manager.EnrichRulesWithConflictInfo(ctx, rules)
	if enriched.ConflictCount == 0 {
		return
	}

	for _, r := range enriched.Rules {
		if r.HasConflict {
			log.Warn().Str("rule_id", r.ID).Str("slug", r.Slug).Msg("Redirect slug is shadowed by site content")
		}
	}
}

func setupLogger() {
	zerolog.TimeFieldFormat = time.RFC3339

	level := os.Getenv("LOG_LEVEL")
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if os.Getenv("LOG_FORMAT") == "text" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func logStartupConfig(cfg *config.Config) {
	log.Info().
		Int("server_port", cfg.Server.Port).
		Dur("server_read_timeout", cfg.Server.ReadTimeout).
		Dur("server_write_timeout", cfg.Server.WriteTimeout).
		Int("server_body_limit", cfg.Server.BodyLimit).
		Int("cache_max_size", cfg.Cache.MaxSize).
		Dur("cache_ttl", cfg.EffectiveCacheTTL()).
		Str("storage_driver", cfg.Storage.Driver).
		Str("storage_data_dir", cfg.Storage.DataDir).
		Str("counter_driver", cfg.Counter.Driver).
		Str("counter_mode", cfg.Counter.Mode).
		Str("notice_driver", cfg.Notice.Driver).
		Dur("resolver_lookup_timeout", cfg.Resolver.LookupTimeout).
		Str("admin_prefix", cfg.Admin.Prefix).
		Bool("admin_auth_enabled", cfg.Admin.APIKey != "").
		Str("host_origin", cfg.Host.Origin).
		Int("reserved_static_paths", len(cfg.Reserved.Paths)).
		Bool("reserved_sync_enabled", cfg.Reserved.IndexURL != "").
		Strs("security_cors_origins", cfg.Security.CORSOrigins).
		Bool("security_enable_https", cfg.Security.EnableHTTPS).
		Str("logging_level", cfg.Logging.Level).
		Str("logging_format", cfg.Logging.Format).
		Msg("Configuration loaded successfully")
}

func setupGracefulShutdown(svc *service) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-ctx.Done()
		stop()

		log.Info().Msg("Received shutdown signal, initiating graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		log.Info().Msg("Stopping HTTP server...")
		if err := svc.app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error during HTTP server shutdown")
		}

		svc.Close()

		log.Info().Msg("Graceful shutdown completed")
		os.Exit(0)
	}()
}

func performHealthCheck() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	client := &http.Client{
		Timeout: 3 * time.Second,
	}

	resp, err := client.Get(fmt.Sprintf("http://localhost:%s/health", port))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Health check failed: HTTP %d\n", resp.StatusCode)
		os.Exit(1)
	}

	fmt.Println("Health check passed")
	os.Exit(0)
}
