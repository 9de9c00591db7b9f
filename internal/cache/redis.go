// Package cache provides the optional Redis-backed synthesis result cache.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "dictation:synth:"

// SynthesisCache remembers which artifact file a given (language, engine,
// text) fingerprint produced. Everything is best-effort: a Redis outage means
// re-synthesis, never a failed request.
type SynthesisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

func NewSynthesisCache(client *redis.Client, ttl time.Duration, log *slog.Logger) *SynthesisCache {
	return &SynthesisCache{client: client, ttl: ttl, log: log}
}

func (c *SynthesisCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.client.Get(ctx, keyPrefix+key).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("synthesis cache get failed", "error", err)
		}
		return "", false
	}
	return val, true
}

func (c *SynthesisCache) Set(ctx context.Context, key, filename string) {
	if err := c.client.Set(ctx, keyPrefix+key, filename, c.ttl).Err(); err != nil {
		c.log.Warn("synthesis cache set failed", "error", err)
	}
}
