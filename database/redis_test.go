package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"progression-engine/models"
)

// Needs a live server; set REDIS_TEST_ADDR to run.
func TestLeaderboardCache(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()
	client := NewRedisClient(ctx, addr, os.Getenv("REDIS_TEST_PASSWORD"))
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })

	cache := NewLeaderboardCache(client, time.Minute)
	key := "test:leaderboard:" + uuid.NewString()

	_, ok := cache.Get(ctx, key)
	assert.False(t, ok)

	cache.Set(ctx, key, []models.LeaderboardEntry{{UserID: "u1", Score: 40, Rank: 1}})
	entries, ok := cache.Get(ctx, key)
	require.True(t, ok)
	require.Len(t, entries, 1)
	assert.Equal(t, "u1", entries[0].UserID)

	cache.Invalidate(ctx, key)
	_, ok = cache.Get(ctx, key)
	assert.False(t, ok)
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.Nil(t, NewRedisClient(ctx, "127.0.0.1:1", ""))
}
