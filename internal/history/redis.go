package history

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/artifactresolve/collector/pkg/metrics"
)

// redisKeyPrefix namespaces every resolution-history entry cached in
// Redis, so the keys coexist with other subsystems on a shared instance.
const redisKeyPrefix = "reshist:"

// redisEntryTTL bounds how long a cached lookup survives before it falls
// back to Postgres again, so a stale cache entry self-heals.
const redisEntryTTL = 1 * time.Hour

// RedisCache wraps a Recorder with a Redis read-through cache in front of
// Get. The cache is advisory: Redis unavailability degrades to a direct
// Postgres read rather than failing the call, and every fallback is
// logged.
type RedisCache struct {
	client  *redis.Client
	primary Recorder
	logger  *slog.Logger
	metrics *metrics.HistoryMetrics
}

// NewRedisCache builds a RedisCache in front of primary. client may be a
// real *redis.Client or one dialed against a miniredis instance in tests.
// m may be nil, in which case cache hits/misses are not recorded.
func NewRedisCache(client *redis.Client, primary Recorder, logger *slog.Logger, m *metrics.HistoryMetrics) *RedisCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCache{client: client, primary: primary, logger: logger, metrics: m}
}

// Record writes through to the primary recorder and invalidates (rather
// than updates) the cache entry, so the next Get re-populates it from the
// source of truth.
func (c *RedisCache) Record(ctx context.Context, entry Entry) error {
	if err := c.primary.Record(ctx, entry); err != nil {
		return err
	}
	if err := c.client.Del(ctx, redisKeyPrefix+entry.ResolutionID).Err(); err != nil {
		c.logger.Warn("resolution history: redis cache invalidation failed", "error", err, "resolution_id", entry.ResolutionID)
	}
	return nil
}

// Get attempts a Redis read first; on a cache miss, a malformed cache
// entry, or a Redis error, it falls back to a direct primary read. The
// malformed-entry and Redis-error fallbacks are logged; a clean miss is
// not. A Redis outage never fails the lookup.
func (c *RedisCache) Get(ctx context.Context, resolutionID string) (Entry, bool, error) {
	key := redisKeyPrefix + resolutionID
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var entry Entry
		if jsonErr := json.Unmarshal(raw, &entry); jsonErr == nil {
			c.recordHit()
			return entry, true, nil
		}
		c.logger.Warn("resolution history: corrupt redis cache entry, falling back", "resolution_id", resolutionID)
	case errors.Is(err, redis.Nil):
		// Clean miss; fall through to primary without logging noise.
	default:
		c.logger.Warn("resolution history: redis unavailable, falling back to primary store", "error", err, "resolution_id", resolutionID)
	}

	c.recordMiss()
	entry, found, err := c.primary.Get(ctx, resolutionID)
	if err != nil || !found {
		return entry, found, err
	}

	encoded, marshalErr := json.Marshal(entry)
	if marshalErr != nil {
		return entry, found, nil
	}
	if setErr := c.client.Set(ctx, key, encoded, redisEntryTTL).Err(); setErr != nil {
		c.logger.Warn("resolution history: redis cache populate failed", "error", setErr, "resolution_id", resolutionID)
	}
	return entry, found, nil
}

func (c *RedisCache) recordHit() {
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *RedisCache) recordMiss() {
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// Close releases the primary recorder; the Redis client is owned by the
// caller (it is typically shared with other subsystems) and is not closed
// here.
func (c *RedisCache) Close(ctx context.Context) error {
	return c.primary.Close(ctx)
}

// DialRedis builds a *redis.Client from the resolved HistoryConfig fields.
func DialRedis(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

var _ Recorder = (*RedisCache)(nil)
