package ratelimit

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"nodebridge/internal/domain/dialog360"

	"github.com/redis/go-redis/v9"
)

var _ dialog360.RecipientRateLimiter = (*RedisRecipientLimiter)(nil)

const keyPrefix = "nodebridge:ratelimit:whatsapp:"

// RedisRecipientLimiter caps how many template messages a WhatsApp recipient
// receives per window, using a Redis sorted set scored by send time.
type RedisRecipientLimiter struct {
	client    redis.UniversalClient
	maxPerWin int
	window    time.Duration
}

// NewRedisRecipientLimiter creates a new Redis-based per-recipient rate limiter.
func NewRedisRecipientLimiter(redisAddr, password string, db int, maxPerHour int) *RedisRecipientLimiter {
	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: password,
		DB:       db,
	})
	return NewWithClient(client, maxPerHour, time.Hour)
}

// NewWithClient creates a limiter on an existing Redis client.
func NewWithClient(client redis.UniversalClient, max int, window time.Duration) *RedisRecipientLimiter {
	return &RedisRecipientLimiter{
		client:    client,
		maxPerWin: max,
		window:    window,
	}
}

// Allow records a send attempt for the recipient and reports whether it fits
// in the window. Trimming, recording and counting happen in one MULTI so two
// concurrent sends cannot both see the last free slot.
func (r *RedisRecipientLimiter) Allow(ctx context.Context, recipient string) (bool, error) {
	if r.maxPerWin <= 0 {
		return true, nil
	}

	key := keyPrefix + recipient
	now := time.Now()
	windowStart := now.Add(-r.window)

	randBytes := make([]byte, 4)
	_, _ = rand.Read(randBytes)
	member := fmt.Sprintf("%d:%s", now.UnixNano(), hex.EncodeToString(randBytes))

	var countCmd *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("%d", windowStart.UnixNano()))
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: member})
		countCmd = pipe.ZCard(ctx, key)
		pipe.Expire(ctx, key, r.window+time.Minute)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("checking recipient rate limit: %w", err)
	}

	if countCmd.Val() > int64(r.maxPerWin) {
		// Denied attempts do not consume a slot.
		if err := r.client.ZRem(ctx, key, member).Err(); err != nil {
			return false, fmt.Errorf("releasing rate limit entry: %w", err)
		}
		return false, nil
	}

	return true, nil
}

// Close closes the Redis connection.
func (r *RedisRecipientLimiter) Close() error {
	return r.client.Close()
}
