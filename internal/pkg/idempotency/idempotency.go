// Package idempotency guards at-least-once message handlers against
// reprocessing. The bus may redeliver a message after a crash or a consumer
// rebalance; handlers run under Exec so a message that already completed is
// skipped instead of applied twice.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrInProgress means another worker currently holds the key's lease.
	ErrInProgress = errors.New("idempotency: operation in progress")
	// ErrCompleted means the operation already completed successfully.
	ErrCompleted = errors.New("idempotency: operation already completed")
)

const (
	stateInProgress = "in_progress"
	stateCompleted  = "completed"

	defaultLease = time.Minute
	defaultTTL   = time.Hour
)

// Guard tracks operation state in redis keyed by an operation ID.
type Guard interface {
	Exec(ctx context.Context, key string, fn func(context.Context) error) error
}

// RedisGuard implements Guard with SETNX leases.
type RedisGuard struct {
	client *redis.Client
	prefix string
	lease  time.Duration
	ttl    time.Duration
}

// NewRedisGuard creates a Guard with the default lease (1m) and completed
// state TTL (1h).
func NewRedisGuard(client *redis.Client) *RedisGuard {
	return &RedisGuard{
		client: client,
		prefix: "herald:idem:",
		lease:  defaultLease,
		ttl:    defaultTTL,
	}
}

// Exec runs fn at most once per key. A concurrent holder yields
// ErrInProgress; a previously completed key yields ErrCompleted. When fn
// fails the lease is released so the broker's redelivery can retry.
func (g *RedisGuard) Exec(ctx context.Context, key string, fn func(context.Context) error) error {
	fk := g.prefix + key

	acquired, err := g.client.SetNX(ctx, fk, stateInProgress, g.lease).Result()
	if err != nil {
		return err
	}
	if !acquired {
		state, err := g.client.Get(ctx, fk).Result()
		if errors.Is(err, redis.Nil) {
			// Lease expired between SETNX and GET; let redelivery retry.
			return ErrInProgress
		}
		if err != nil {
			return err
		}
		if state == stateCompleted {
			return ErrCompleted
		}
		return ErrInProgress
	}

	if err := fn(ctx); err != nil {
		if delErr := g.client.Del(ctx, fk).Err(); delErr != nil {
			return errors.Join(err, delErr)
		}
		return err
	}

	return g.client.Set(ctx, fk, stateCompleted, g.ttl).Err()
}
