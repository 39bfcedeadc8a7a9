package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Storage drivers
const (
	StorageFile     = "file"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Counter and notice drivers
const (
	CounterStore = "store"
	CounterRedis = "redis"
	NoticeMemory = "memory"
	NoticeRedis  = "redis"
)

// Config holds all configuration for the redirect service
type Config struct {
	Server struct {
		Port         int           `env:"PORT" envDefault:"8080" validate:"min=1,max=65535"`
		ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
		WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"5s"`
		BodyLimit    int           `env:"BODY_LIMIT" envDefault:"1048576" validate:"min=1"` // 1MB
	}

	Cache struct {
		MaxSize int `env:"CACHE_MAX_SIZE" envDefault:"10000" validate:"min=100"`
		// Zero keeps entries until they are invalidated or evicted
		TTL time.Duration `env:"CACHE_TTL" envDefault:"5m"`
		// SharedTTL caps TTL for database drivers, whose rules can be edited by another instance
		SharedTTL time.Duration `env:"CACHE_SHARED_TTL" envDefault:"30s"`
	}

	Storage struct {
		Driver      string `env:"STORAGE_DRIVER" envDefault:"file" validate:"oneof=file sqlite postgres"`
		DataDir     string `env:"DATA_DIR" envDefault:"./data"`
		RulesDir    string `env:"RULES_DIR"`
		SQLitePath  string `env:"SQLITE_PATH" envDefault:"./data/redirector.db"`
		DatabaseURL string `env:"DATABASE_URL"`
		MaxConns    int32  `env:"DATABASE_MAX_CONNS" envDefault:"10" validate:"min=1"`
	}

	Counter struct {
		Driver    string        `env:"COUNTER_DRIVER" envDefault:"store" validate:"oneof=store redis"`
		Mode      string        `env:"COUNTER_MODE" envDefault:"sync" validate:"oneof=sync async"`
		Timeout   time.Duration `env:"COUNTER_TIMEOUT" envDefault:"250ms"`
		Workers   int           `env:"COUNTER_WORKERS" envDefault:"4" validate:"min=1"`
		QueueSize int           `env:"COUNTER_QUEUE_SIZE" envDefault:"1024" validate:"min=1"`
	}

	Redis struct {
		Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
		Password string `env:"REDIS_PASSWORD"`
		DB       int    `env:"REDIS_DB" envDefault:"0" validate:"min=0"`
		Prefix   string `env:"REDIS_PREFIX" envDefault:"redirector"`
	}

	Notice struct {
		Driver string        `env:"NOTICE_DRIVER" envDefault:"memory" validate:"oneof=memory redis"`
		TTL    time.Duration `env:"NOTICE_TTL" envDefault:"45s"`
	}

	Resolver struct {
		LookupTimeout time.Duration `env:"RESOLVER_LOOKUP_TIMEOUT" envDefault:"200ms"`
	}

	Admin struct {
		Prefix string `env:"ADMIN_PREFIX" envDefault:"/v1"`
		APIKey string `env:"ADMIN_API_KEY"`
	}

	Host struct {
		Origin string `env:"HOST_ORIGIN" validate:"omitempty,url"`
	}

	Reserved struct {
		Paths        []string      `env:"RESERVED_PATHS" envSeparator:","`
		IndexURL     string        `env:"RESERVED_INDEX_URL" validate:"omitempty,url"`
		SyncSchedule string        `env:"RESERVED_SYNC_SCHEDULE" envDefault:"@every 5m" validate:"cron_schedule"`
		SyncTimeout  time.Duration `env:"RESERVED_SYNC_TIMEOUT" envDefault:"30s"`
	}

	Security struct {
		CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," validate:"cors_origins"`
		EnableHTTPS bool     `env:"ENABLE_HTTPS" envDefault:"false"`
	}

	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
		Format string `env:"LOG_FORMAT" envDefault:"json" validate:"oneof=json text"`
	}
}

// Load loads configuration from environment variables and .env files
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if cfg.Storage.RulesDir == "" {
		cfg.Storage.RulesDir = filepath.Join(cfg.Storage.DataDir, "redirects")
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration using struct tags
func Validate(cfg *Config) error {
	validator := validator.New()

	if err := validator.RegisterValidation("cors_origins", validateCORSOrigins); err != nil {
		return fmt.Errorf("failed to register cors_origins validation: %w", err)
	}
	if err := validator.RegisterValidation("cron_schedule", validateCronSchedule); err != nil {
		return fmt.Errorf("failed to register cron_schedule validation: %w", err)
	}

	if err := validator.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCORSOrigins validates CORS origins format
func validateCORSOrigins(fl validator.FieldLevel) bool {
	origins := fl.Field().Interface().([]string)
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return false
		}
	}
	return true
}

// validateCronSchedule accepts standard five field specs and @every descriptors
func validateCronSchedule(fl validator.FieldLevel) bool {
	schedule := strings.TrimSpace(fl.Field().String())
	if schedule == "" {
		return true
	}
	_, err := cron.ParseStandard(schedule)
	return err == nil
}

// validateCustomRules performs additional validation beyond struct tags
func validateCustomRules(cfg *Config) error {
	if cfg.Storage.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	if cfg.Server.ReadTimeout < time.Millisecond {
		return fmt.Errorf("read timeout must be at least 1ms")
	}
	if cfg.Server.WriteTimeout < time.Millisecond {
		return fmt.Errorf("write timeout must be at least 1ms")
	}
	if cfg.Cache.TTL != 0 && cfg.Cache.TTL < time.Second {
		return fmt.Errorf("cache TTL must be zero or at least 1 second")
	}

	switch cfg.Storage.Driver {
	case StoragePostgres:
		if cfg.Storage.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres storage driver")
		}
	case StorageSQLite:
		if cfg.Storage.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite storage driver")
		}
	}

	if cfg.Cache.SharedTTL < time.Second {
		return fmt.Errorf("shared cache TTL must be at least 1 second")
	}

	if cfg.NeedsRedis() && cfg.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required when a redis driver is selected")
	}

	if cfg.Counter.Timeout < time.Millisecond {
		return fmt.Errorf("counter timeout must be at least 1ms")
	}
	if cfg.Resolver.LookupTimeout < time.Millisecond {
		return fmt.Errorf("resolver lookup timeout must be at least 1ms")
	}
	if cfg.Notice.TTL < time.Second {
		return fmt.Errorf("notice TTL must be at least 1 second")
	}

	prefix := strings.Trim(cfg.Admin.Prefix, "/")
	if prefix == "" || strings.Contains(prefix, "/") {
		return fmt.Errorf("admin prefix must be a single path segment, got %q", cfg.Admin.Prefix)
	}

	if cfg.Reserved.IndexURL != "" && cfg.Reserved.SyncTimeout < time.Second {
		return fmt.Errorf("reserved sync timeout must be at least 1 second")
	}

	return nil
}

// SharedStore reports whether rules live in a database other instances may write to
func (cfg *Config) SharedStore() bool {
	return cfg.Storage.Driver == StorageSQLite || cfg.Storage.Driver == StoragePostgres
}

// EffectiveCacheTTL returns the redirect cache TTL. With a shared store an admin write
// on another instance is only seen once the entry expires, so the TTL is capped.
func (cfg *Config) EffectiveCacheTTL() time.Duration {
	if !cfg.SharedStore() {
		return cfg.Cache.TTL
	}
	if cfg.Cache.TTL == 0 || cfg.Cache.TTL > cfg.Cache.SharedTTL {
		return cfg.Cache.SharedTTL
	}
	return cfg.Cache.TTL
}

// NeedsRedis reports whether any component is backed by Redis
func (cfg *Config) NeedsRedis() bool {
	return cfg.Counter.Driver == CounterRedis || cfg.Notice.Driver == NoticeRedis
}

// EnsureDirectories creates all required directories
func (cfg *Config) EnsureDirectories() error {
	dirs := []string{cfg.Storage.DataDir}

	switch cfg.Storage.Driver {
	case StorageFile, "":
		dirs = append(dirs, cfg.Storage.RulesDir)
	case StorageSQLite:
		dirs = append(dirs, filepath.Dir(cfg.Storage.SQLitePath))
	}

	for _, dir := range dirs {
		if dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("cannot create directory %s: %w", dir, err)
			}
		}
	}
	return nil
}

// formatValidationError formats validation errors into readable messages
func formatValidationError(err error) error {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		var messages []string
		for _, e := range validationErrors {
			switch e.Tag() {
			case "required":
				messages = append(messages, fmt.Sprintf("%s is required", e.Field()))
			case "min":
				messages = append(messages, fmt.Sprintf("%s must be at least %s", e.Field(), e.Param()))
			case "max":
				messages = append(messages, fmt.Sprintf("%s must be at most %s", e.Field(), e.Param()))
			case "oneof":
				messages = append(messages, fmt.Sprintf("%s must be one of: %s", e.Field(), e.Param()))
			case "url":
				messages = append(messages, fmt.Sprintf("%s must be a valid URL", e.Field()))
			case "cors_origins":
				messages = append(messages, fmt.Sprintf("%s contains invalid origin format", e.Field()))
			case "cron_schedule":
				messages = append(messages, fmt.Sprintf("%s is not a valid cron schedule", e.Field()))
			default:
				messages = append(messages, fmt.Sprintf("%s failed validation: %s", e.Field(), e.Tag()))
			}
		}
		return fmt.Errorf("validation errors: %s", strings.Join(messages, "; "))
	}
	return err
}
