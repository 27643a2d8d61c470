// Package reminder scans the task collection on a fixed interval and emits
// at-most-once notifications per (task, due date) pair, deduplicated through
// a durable ledger.
package reminder

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key identifies one notification: a task and the exact due-date string it
// carried when the reminder fired. A changed due date forms a new key, so a
// moved deadline re-notifies; orphaned keys are never garbage collected.
type Key struct {
	TaskID  string
	DueDate string
}

func (k Key) String() string {
	return "notified_" + k.TaskID + "_" + k.DueDate
}

// Ledger is the durable dedup store shared across scheduler ticks and
// application restarts. Mark records the key if absent and reports whether
// it was newly recorded; re-marking an existing key is harmless. Forget
// removes a marker so a failed delivery can retry on a later tick.
type Ledger interface {
	Mark(ctx context.Context, owner string, key Key) (bool, error)
	Forget(ctx context.Context, owner string, key Key) error
}

// RedisLedger stores notification markers in Redis so every instance
// serving the owner observes the same dedup state.
type RedisLedger struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLedger creates a ledger on the provided Redis client. A zero TTL
// keeps markers forever, which matches the at-most-once contract; a positive
// TTL lets deployments re-notify after long silence.
func NewRedisLedger(client *redis.Client, ttl time.Duration) *RedisLedger {
	return &RedisLedger{client: client, ttl: ttl}
}

func (r *RedisLedger) redisKey(owner string, key Key) string {
	return owner + ":" + key.String()
}

// Mark records the key atomically via SetNX and returns true when the key
// was newly added.
func (r *RedisLedger) Mark(ctx context.Context, owner string, key Key) (bool, error) {
	return r.client.SetNX(ctx, r.redisKey(owner, key), 1, r.ttl).Result()
}

// Forget deletes a previously recorded key.
func (r *RedisLedger) Forget(ctx context.Context, owner string, key Key) error {
	return r.client.Del(ctx, r.redisKey(owner, key)).Err()
}
