// Package antifraud throttles suspicious ballot traffic (Redis fixed-window
// rate limit, plus a permissive noop for setups without Redis).
package antifraud

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bramvdmeulen/tegenstem/internal/domain"
)

var ErrRateLimitExceeded = fmt.Errorf("submission limit reached")

// RedisRateLimiter caps submissions per voter identity in fixed windows. It
// guards the acceptance pipeline against floods before the duplicate check
// ever reaches the ledger.
type RedisRateLimiter struct {
	client    *redis.Client
	limit     int
	window    time.Duration
	keyPrefix string
}

func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration, prefix string) *RedisRateLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisRateLimiter{
		client:    client,
		limit:     limit,
		window:    window,
		keyPrefix: prefix,
	}
}

func (r *RedisRateLimiter) Validate(ctx context.Context, clientIdentity string) error {
	if r.client == nil || r.limit <= 0 || r.window <= 0 {
		// Invalid configuration degrades to permissive mode.
		return nil
	}

	key := r.buildKey(clientIdentity)
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("antifraud: increment: %w", err)
	}

	if count == 1 {
		if err := r.client.Expire(ctx, key, r.window).Err(); err != nil {
			return fmt.Errorf("antifraud: set expiry: %w", err)
		}
	}

	if int(count) > r.limit {
		return ErrRateLimitExceeded
	}

	return nil
}

func (r *RedisRateLimiter) buildKey(clientIdentity string) string {
	// SHA-1 keeps raw network/device identities out of Redis.
	hash := sha1.Sum([]byte(clientIdentity))
	return fmt.Sprintf("%s:%s", r.keyPrefix, hex.EncodeToString(hash[:]))
}

var _ domain.Antifraud = (*RedisRateLimiter)(nil)
