package domain

import "context"

// RuleRepository defines the contract for rule storage operations
type RuleRepository interface {
	GetAllRules(ctx context.Context) ([]Rule, error)
	GetRuleByID(ctx context.Context, id string) (*Rule, error)
	CreateRule(ctx context.Context, rule *Rule) error
	UpdateRule(ctx context.Context, rule *Rule) error
	DeleteRule(ctx context.Context, id string) error

	// FindPublishedBySlug returns the published rule whose slug equals slug exactly.
	// A missing rule is reported with an ErrNotFound AppError.
	FindPublishedBySlug(ctx context.Context, slug string) (*Rule, error)

	// Health and monitoring
	HealthCheck(ctx context.Context) HealthStatus
	GetStats(ctx context.Context) map[string]any
}

// VisitCounter performs atomic visit count increments
type VisitCounter interface {
	// IncrementVisitCount adds one to the rule's count in a single atomic step
	IncrementVisitCount(ctx context.Context, ruleID string) (int64, error)
	VisitCount(ctx context.Context, ruleID string) (int64, error)
}

// ReservedPathRepository stores paths owned by regular site content
type ReservedPathRepository interface {
	ListReservedPaths(ctx context.Context) ([]ReservedPath, error)
	CreateReservedPath(ctx context.Context, path *ReservedPath) error
	DeleteReservedPath(ctx context.Context, id string) error
	// ReplaceReservedPaths swaps every entry of source for paths
	ReplaceReservedPaths(ctx context.Context, source string, paths []ReservedPath) error
	// PathIsReserved reports whether path is claimed by an entry other than excludingID
	PathIsReserved(ctx context.Context, path, excludingID string) (*ReservedPath, bool, error)
}

// Store is the full persistence surface a storage driver provides
type Store interface {
	RuleRepository
	ReservedPathRepository
	VisitCounter
	Close() error
}

// RedirectResolver decides whether a request path is a redirect
type RedirectResolver interface {
	Resolve(ctx context.Context, path string) Outcome
	Preview(ctx context.Context, path string) Outcome
	Invalidate(slug string)
	InvalidateCache(ctx context.Context) error

	// Health and monitoring
	HealthCheck(ctx context.Context) HealthStatus
	GetStats(ctx context.Context) map[string]any
}

// ClickRecorder records a served redirect without affecting it
type ClickRecorder interface {
	Record(ctx context.Context, ruleID string)
}

// ConflictChecker reports whether a slug shadows a reserved path
type ConflictChecker interface {
	CheckConflict(ctx context.Context, slug, ownerRuleID string) (ConflictResult, error)
	Advise(ctx context.Context, rule *Rule) ConflictResult
}

// NoticeQueue holds one-shot admin notices keyed by rule ID
type NoticeQueue interface {
	Push(ctx context.Context, notice Notice) error
	// Consume returns and removes every pending notice for the rule
	Consume(ctx context.Context, ruleID string) ([]Notice, error)
}

// CacheManager defines the contract for caching operations
type CacheManager interface {
	Get(key string) (*Rule, bool)
	Set(key string, rule *Rule)
	Invalidate(key string)
	Clear()
	Stats() CacheStats

	// Health and monitoring
	HealthCheck(ctx context.Context) HealthStatus
}

// HealthChecker defines the interface for system health monitoring
type HealthChecker interface {
	CheckHealth(ctx context.Context) SystemHealth
	CheckComponent(ctx context.Context, component string) HealthStatus
}

// Validator defines the interface for input validation
type Validator interface {
	ValidateRule(rule *Rule) error
	ValidateSlug(slug string) error
	ValidateTargetURL(url string) error
	ValidateReservedPath(path *ReservedPath) error
}
