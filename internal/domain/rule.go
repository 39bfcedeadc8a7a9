package domain

import (
	"time"
)

// RuleStatus is the publication state of a redirect rule
type RuleStatus string

const (
	// StatusPublished marks a rule that the resolver may match
	StatusPublished RuleStatus = "published"
	// StatusUnpublished marks a draft or trashed rule
	StatusUnpublished RuleStatus = "unpublished"
)

// Rule represents a slug-to-URL redirect managed by an administrator
// @Description Slug redirect rule
type Rule struct {
	ID          string     `json:"id" yaml:"id" validate:"required,uuid4" example:"123e4567-e89b-12d3-a456-426614174000"`
	Slug        string     `json:"slug" yaml:"slug" validate:"required,min=1,max=200" example:"promo"`
	TargetURL   string     `json:"target_url" yaml:"target_url" validate:"omitempty,url,max=2048" example:"https://partner.example.com/offer"`
	Status      RuleStatus `json:"status" yaml:"status" validate:"required,oneof=published unpublished" example:"published" enums:"published,unpublished"`
	VisitCount  int64      `json:"visit_count" yaml:"visit_count" example:"42"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty" example:"Spring campaign landing page"`
	CreatedAt   time.Time  `json:"created_at" yaml:"created_at,omitempty" example:"2023-01-01T12:00:00Z"`
	UpdatedAt   time.Time  `json:"updated_at" yaml:"updated_at,omitempty" example:"2023-01-01T12:00:00Z"`

	// Path to the rule file on disk, file-backed store only
	FilePath string `json:"file_path,omitempty" yaml:"-"`
}

// IsMatchable reports whether the resolver may redirect on this rule
func (r *Rule) IsMatchable() bool {
	return r.Status == StatusPublished && r.TargetURL != ""
}

// ReservedKind classifies why a path is claimed by the host site
type ReservedKind string

const (
	ReservedPage   ReservedKind = "page"
	ReservedPost   ReservedKind = "post"
	ReservedSystem ReservedKind = "system"
)

// Reserved path sources
const (
	SourceManual = "manual"
	SourceSynced = "synced"
	SourceConfig = "config"
)

// ReservedPath is a path owned by regular site content that a redirect slug must not shadow
// @Description Path reserved by the host site
type ReservedPath struct {
	ID        string       `json:"id" yaml:"id" example:"9b2e4c1a-7f3d-4a8e-b6c2-1d5f8e9a0b3c"`
	Path      string       `json:"path" yaml:"path" validate:"required,max=200" example:"about"`
	Kind      ReservedKind `json:"kind" yaml:"kind" example:"page" enums:"page,post,system"`
	Source    string       `json:"source" yaml:"source" example:"manual"`
	CreatedAt time.Time    `json:"created_at" yaml:"created_at,omitempty"`
}

// OutcomeAction is what the dispatcher should do with a request
type OutcomeAction string

const (
	ActionRedirect OutcomeAction = "redirect"
	ActionNoAction OutcomeAction = "no_action"
)

// Outcome is the resolver's decision for a request path
type Outcome struct {
	Action     OutcomeAction `json:"action"`
	TargetURL  string        `json:"target_url,omitempty"`
	StatusCode int           `json:"status_code,omitempty"`
	RuleID     string        `json:"rule_id,omitempty"`
	Slug       string        `json:"slug,omitempty"`
	CacheHit   bool          `json:"cache_hit"`
	Timestamp  time.Time     `json:"timestamp"`
}

// IsRedirect reports whether the outcome carries a redirect
func (o Outcome) IsRedirect() bool {
	return o.Action == ActionRedirect
}

// NoMatch builds a no-action outcome
func NoMatch() Outcome {
	return Outcome{Action: ActionNoAction, Timestamp: time.Now()}
}

// ConflictResult is the advisory outcome of a slug conflict check
type ConflictResult struct {
	Conflict   bool   `json:"conflict"`
	Code       string `json:"code,omitempty"`
	Slug       string `json:"slug,omitempty"`
	ReservedID string `json:"reserved_id,omitempty"`
	Kind       string `json:"kind,omitempty"`
	Message    string `json:"message,omitempty"`
}

// NoticeKind identifies the kind of one-shot admin notice
type NoticeKind string

const (
	NoticeSlugConflict NoticeKind = "slug_conflict"
)

// Notice is a one-shot message for the administrator editing a rule
type Notice struct {
	RuleID    string     `json:"rule_id"`
	Kind      NoticeKind `json:"kind"`
	Slug      string     `json:"slug,omitempty"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"created_at"`
}

// CacheStats represents cache performance metrics
type CacheStats struct {
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	Size     int     `json:"size"`
	MaxSize  int     `json:"max_size"`
	HitRatio float64 `json:"hit_ratio"`
}

// HealthStatus represents the health status of a component
type HealthStatus struct {
	Status    string         `json:"status"` // "healthy", "unhealthy", "degraded"
	Message   string         `json:"message,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Health status constants
const (
	HealthStatusHealthy   = "healthy"
	HealthStatusUnhealthy = "unhealthy"
	HealthStatusDegraded  = "degraded"
)

// SystemHealth represents overall system health
type SystemHealth struct {
	Status     string                  `json:"status"`
	Timestamp  time.Time               `json:"timestamp"`
	Components map[string]HealthStatus `json:"components"`
	Metrics    map[string]any          `json:"metrics,omitempty"`
	Uptime     time.Duration           `json:"uptime"`
}
