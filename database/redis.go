package database

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"progression-engine/logger"
	"progression-engine/models"
)

// LeaderboardCache keeps the ranked head of leaderboard buckets in Redis.
// Every failure degrades to a cache miss.
type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient connects to Redis and pings it once. It returns nil when
// Redis is unreachable so callers can run without a cache.
func NewRedisClient(ctx context.Context, addr, password string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		logger.Warn().Err(err).Str("addr", addr).Msg("⚠️ Failed to connect to Redis, leaderboard cache disabled")
		_ = client.Close()
		return nil
	}
	logger.Info().Str("addr", addr).Msg("✅ Connected to Redis")
	return client
}

func NewLeaderboardCache(client *redis.Client, ttl time.Duration) *LeaderboardCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &LeaderboardCache{client: client, ttl: ttl}
}

func (c *LeaderboardCache) Get(ctx context.Context, key string) ([]models.LeaderboardEntry, bool) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Debug().Err(err).Str("key", key).Msg("Leaderboard cache read failed")
		}
		return nil, false
	}
	var entries []models.LeaderboardEntry
	if err := json.Unmarshal(val, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

func (c *LeaderboardCache) Set(ctx context.Context, key string, entries []models.LeaderboardEntry) {
	payload, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		logger.Debug().Err(err).Str("key", key).Msg("Leaderboard cache write failed")
	}
}

func (c *LeaderboardCache) Invalidate(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		logger.Debug().Err(err).Str("key", key).Msg("Leaderboard cache invalidation failed")
	}
}
