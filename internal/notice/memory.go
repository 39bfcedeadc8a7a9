// Package notice holds one-shot admin notices keyed by rule ID.
// A notice is returned by the first Consume for its rule and never again,
// and silently expires when nobody reads it within the TTL.
package notice

import (
	"context"
	"sync"
	"time"

	"github.com/freewebtopdf/redirector/internal/domain"
)

// DefaultTTL matches how long an editor has to see a save warning
const DefaultTTL = 45 * time.Second

type entry struct {
	notice  domain.Notice
	expires time.Time
}

// MemoryQueue is an in-process NoticeQueue
type MemoryQueue struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string][]entry
	now     func() time.Time
}

// NewMemoryQueue creates an in-memory queue; ttl <= 0 uses DefaultTTL
func NewMemoryQueue(ttl time.Duration) *MemoryQueue {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryQueue{
		ttl:     ttl,
		entries: make(map[string][]entry),
		now:     time.Now,
	}
}

// Push stores a notice for its rule
func (q *MemoryQueue) Push(ctx context.Context, n domain.Notice) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	q.sweepLocked(now)
	q.entries[n.RuleID] = append(q.entries[n.RuleID], entry{notice: n, expires: now.Add(q.ttl)})
	return nil
}

// Consume returns and removes the rule's live notices
func (q *MemoryQueue) Consume(ctx context.Context, ruleID string) ([]domain.Notice, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	pending := q.entries[ruleID]
	delete(q.entries, ruleID)

	now := q.now()
	notices := make([]domain.Notice, 0, len(pending))
	for _, e := range pending {
		if now.Before(e.expires) {
			notices = append(notices, e.notice)
		}
	}
	return notices, nil
}

// Len returns the number of rules with pending notices
func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

func (q *MemoryQueue) sweepLocked(now time.Time) {
	for ruleID, pending := range q.entries {
		live := pending[:0]
		for _, e := range pending {
			if now.Before(e.expires) {
				live = append(live, e)
			}
		}
		if len(live) == 0 {
			delete(q.entries, ruleID)
		} else {
			q.entries[ruleID] = live
		}
	}
}
