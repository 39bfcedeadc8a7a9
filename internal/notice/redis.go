package notice

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/freewebtopdf/redirector/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisQueue shares notices between instances behind a load balancer.
// Each rule has a list whose TTL is refreshed on every push.
type RedisQueue struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisQueue creates a Redis-backed queue; ttl <= 0 uses DefaultTTL
func NewRedisQueue(rdb *redis.Client, prefix string, ttl time.Duration) *RedisQueue {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	prefix = strings.Trim(prefix, ":")
	if prefix == "" {
		prefix = "redirector"
	}
	return &RedisQueue{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (q *RedisQueue) key(ruleID string) string {
	return fmt.Sprintf("%s:notices:%s", q.prefix, ruleID)
}

// Push appends a notice and refreshes the list TTL
func (q *RedisQueue) Push(ctx context.Context, n domain.Notice) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notice: %w", err)
	}

	key := q.key(n.RuleID)
	_, err = q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, payload)
		pipe.Expire(ctx, key, q.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to push notice: %w", err)
	}
	return nil
}

// Consume reads and deletes the rule's list in one MULTI/EXEC
func (q *RedisQueue) Consume(ctx context.Context, ruleID string) ([]domain.Notice, error) {
	key := q.key(ruleID)

	var lrange *redis.StringSliceCmd
	_, err := q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		lrange = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to consume notices: %w", err)
	}

	raw := lrange.Val()
	notices := make([]domain.Notice, 0, len(raw))
	for _, item := range raw {
		var n domain.Notice
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			log.Warn().Err(err).Str("rule_id", ruleID).Msg("Dropping undecodable notice")
			continue
		}
		notices = append(notices, n)
	}
	return notices, nil
}
