// Package counter records served redirects against a visit count backend.
// Recording never fails and never holds a redirect beyond the configured timeout:
// backend errors are logged and counted, then dropped.
package counter

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/freewebtopdf/redirector/internal/domain"

	"github.com/rs/zerolog/log"
)

// Mode selects how clicks reach the backend
type Mode string

const (
	// ModeSync increments inline with the redirect, bounded by Timeout
	ModeSync Mode = "sync"
	// ModeAsync hands the click to a worker pool and returns immediately
	ModeAsync Mode = "async"
)

// Config holds counter settings
type Config struct {
	Mode      Mode
	Timeout   time.Duration
	Workers   int
	QueueSize int
}

// DefaultConfig returns the synchronous configuration
func DefaultConfig() Config {
	return Config{
		Mode:      ModeSync,
		Timeout:   250 * time.Millisecond,
		Workers:   4,
		QueueSize: 1024,
	}
}

// Counter implements domain.ClickRecorder on top of a domain.VisitCounter
type Counter struct {
	backend domain.VisitCounter
	config  Config

	queue  chan string
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool

	recorded atomic.Int64
	failed   atomic.Int64
	dropped  atomic.Int64
}

// New creates a counter; async mode starts its workers immediately
func New(backend domain.VisitCounter, config Config) *Counter {
	defaults := DefaultConfig()
	if config.Mode == "" {
		config.Mode = defaults.Mode
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}

	c := &Counter{backend: backend, config: config}

	if config.Mode == ModeAsync {
		c.queue = make(chan string, config.QueueSize)
		for i := 0; i < config.Workers; i++ {
			c.wg.Add(1)
			go c.worker()
		}
	}

	return c
}

// Record counts one visit for the rule. It never returns an error.
func (c *Counter) Record(ctx context.Context, ruleID string) {
	if c.config.Mode != ModeAsync {
		c.increment(context.WithoutCancel(ctx), ruleID)
		return
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		c.dropped.Add(1)
		return
	}

	select {
	case c.queue <- ruleID:
	default:
		c.dropped.Add(1)
		log.Warn().Str("rule_id", ruleID).Int("queue_size", c.config.QueueSize).Msg("Visit counter queue full, dropping click")
	}
}

// Increment passes straight through to the backend and reports errors
func (c *Counter) Increment(ctx context.Context, ruleID string) (int64, error) {
	return c.backend.IncrementVisitCount(ctx, ruleID)
}

// VisitCount reads the backend count
func (c *Counter) VisitCount(ctx context.Context, ruleID string) (int64, error) {
	return c.backend.VisitCount(ctx, ruleID)
}

func (c *Counter) worker() {
	defer c.wg.Done()
	for ruleID := range c.queue {
		c.increment(context.Background(), ruleID)
	}
}

func (c *Counter) increment(parent context.Context, ruleID string) {
	ctx, cancel := context.WithTimeout(parent, c.config.Timeout)
	defer cancel()

	count, err := c.backend.IncrementVisitCount(ctx, ruleID)
	if err != nil {
		c.failed.Add(1)
		log.Warn().Err(err).Str("rule_id", ruleID).Msg("Visit count increment failed")
		return
	}

	c.recorded.Add(1)
	log.Debug().Str("rule_id", ruleID).Int64("visit_count", count).Msg("Visit recorded")
}

// Close stops accepting clicks and waits for queued ones to be written
func (c *Counter) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	if c.queue != nil {
		close(c.queue)
	}
	c.mu.Unlock()

	c.wg.Wait()
	return nil
}

// GetStats returns counter statistics
func (c *Counter) GetStats() map[string]any {
	stats := map[string]any{
		"mode":     string(c.config.Mode),
		"recorded": c.recorded.Load(),
		"failed":   c.failed.Load(),
		"dropped":  c.dropped.Load(),
	}
	if c.queue != nil {
		stats["queue_depth"] = len(c.queue)
		stats["queue_size"] = cap(c.queue)
		stats["workers"] = c.config.Workers
	}
	return stats
}

// HealthCheck reports the counter as degraded while the queue is nearly full
func (c *Counter) HealthCheck(ctx context.Context) domain.HealthStatus {
	stats := c.GetStats()
	status := domain.HealthStatusHealthy
	message := "Visit counter is operating normally"

	if c.queue != nil && len(c.queue) >= int(float64(cap(c.queue))*0.9) {
		status = domain.HealthStatusDegraded
		message = "Visit counter queue is near capacity"
	}

	return domain.HealthStatus{
		Status:    status,
		Message:   message,
		Details:   stats,
		Timestamp: time.Now(),
	}
}
