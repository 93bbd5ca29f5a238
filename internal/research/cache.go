package research

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "research:search:"

// RedisCache keeps live search outcomes in Redis for a fixed TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache returns nil when client is nil so callers can skip WithCache.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if client == nil || ttl <= 0 {
		return nil
	}
	return &RedisCache{client: client, ttl: ttl}
}

// Load fetches a cached outcome. A miss is (Outcome{}, false, nil).
func (c *RedisCache) Load(ctx context.Context, query string, max int) (Outcome, bool, error) {
	raw, err := c.client.Get(ctx, cacheKey(query, max)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Outcome{}, false, nil
	}
	if err != nil {
		return Outcome{}, false, fmt.Errorf("redis get: %w", err)
	}

	var outcome Outcome
	if err := json.Unmarshal(raw, &outcome); err != nil {
		return Outcome{}, false, fmt.Errorf("decode cached outcome: %w", err)
	}
	return outcome, true, nil
}

// Store writes outcome under the query key.
func (c *RedisCache) Store(ctx context.Context, query string, max int, outcome Outcome) error {
	raw, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(query, max), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func cacheKey(query string, max int) string {
	sum := sha256.Sum256([]byte(query + "|" + strconv.Itoa(max)))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
