// Package redisctr keeps visit counts in a Redis hash so increments stay a
// single HINCRBY regardless of which storage driver holds the rules.
package redisctr

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/freewebtopdf/redirector/internal/domain"

	"github.com/redis/go-redis/v9"
)

// Counter implements domain.VisitCounter on Redis
type Counter struct {
	rdb    *redis.Client
	prefix string
}

// Option configures a Counter
type Option func(*Counter)

// WithPrefix sets the key prefix
func WithPrefix(prefix string) Option {
	return func(c *Counter) {
		c.prefix = strings.Trim(prefix, ":")
	}
}

// New creates a Redis visit counter
func New(rdb *redis.Client, opts ...Option) *Counter {
	c := &Counter{
		rdb:    rdb,
		prefix: "redirector",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Counter) key() string {
	return c.prefix + ":visits"
}

// IncrementVisitCount adds one to the rule's field with HINCRBY
func (c *Counter) IncrementVisitCount(ctx context.Context, ruleID string) (int64, error) {
	n, err := c.rdb.HIncrBy(ctx, c.key(), ruleID, 1).Result()
	if err != nil {
		return 0, domain.NewAppErrorWithCause(domain.ErrCounterWriteFailed, "Failed to increment visit count", 500, err,
			map[string]any{"rule_id": ruleID, "backend": "redis"}).WithContext(ctx, "increment_visit_count")
	}
	return n, nil
}

// VisitCount returns the count for a rule; an unknown rule has zero visits
func (c *Counter) VisitCount(ctx context.Context, ruleID string) (int64, error) {
	n, err := c.rdb.HGet(ctx, c.key(), ruleID).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, domain.NewAppErrorWithCause(domain.ErrInternal, "Failed to read visit count", 500, err,
			map[string]any{"rule_id": ruleID, "backend": "redis"})
	}
	return n, nil
}

// Counts returns the counts for several rules in one round trip
func (c *Counter) Counts(ctx context.Context, ruleIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(ruleIDs))
	if len(ruleIDs) == 0 {
		return counts, nil
	}

	values, err := c.rdb.HMGet(ctx, c.key(), ruleIDs...).Result()
	if err != nil {
		return nil, domain.NewAppErrorWithCause(domain.ErrInternal, "Failed to read visit counts", 500, err, nil)
	}
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			counts[ruleIDs[i]] = n
		}
	}
	return counts, nil
}

// Seed copies persisted counts into Redis without overwriting live values,
// so a fresh Redis continues from what the rule store last recorded
func (c *Counter) Seed(ctx context.Context, rules []domain.Rule) error {
	if len(rules) == 0 {
		return nil
	}
	pipe := c.rdb.Pipeline()
	for _, rule := range rules {
		pipe.HSetNX(ctx, c.key(), rule.ID, rule.VisitCount)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Forget drops the count of a deleted rule
func (c *Counter) Forget(ctx context.Context, ruleID string) error {
	return c.rdb.HDel(ctx, c.key(), ruleID).Err()
}

// HealthCheck pings Redis
func (c *Counter) HealthCheck(ctx context.Context) domain.HealthStatus {
	start := time.Now()
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return domain.HealthStatus{
			Status:    domain.HealthStatusUnhealthy,
			Message:   "Redis is not reachable",
			Details:   map[string]any{"error": err.Error()},
			Timestamp: time.Now(),
		}
	}
	return domain.HealthStatus{
		Status:    domain.HealthStatusHealthy,
		Message:   "Redis counter is operating normally",
		Details:   map[string]any{"ping_ms": time.Since(start).Milliseconds(), "key": c.key()},
		Timestamp: time.Now(),
	}
}
