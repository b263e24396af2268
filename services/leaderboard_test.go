package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"progression-engine/models"
)

type memoryCache struct {
	mu          sync.Mutex
	data        map[string][]models.LeaderboardEntry
	hits        int
	invalidated int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]models.LeaderboardEntry{}}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]models.LeaderboardEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries, ok := c.data[key]
	if ok {
		c.hits++
	}
	return entries, ok
}

func (c *memoryCache) Set(_ context.Context, key string, entries []models.LeaderboardEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = entries
}

func (c *memoryCache) Invalidate(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	c.invalidated++
}

type memoryStore struct {
	objects map[string]any
}

func (s *memoryStore) PutJSON(_ context.Context, key string, v any) error {
	s.objects[key] = v
	return nil
}

func ranksOf(t *testing.T, env *testEnv, lbType models.LeaderboardType, period models.Period) map[string]int {
	t.Helper()
	entries, err := env.engine.Leaderboards.Top(context.Background(), lbType, period, MaxTop)
	require.NoError(t, err)
	ranks := map[string]int{}
	for _, e := range entries {
		ranks[e.UserID] = e.Rank
	}
	return ranks
}

func TestPeriodBounds(t *testing.T) {
	env := newTestEnv(t)
	lb := env.engine.Leaderboards

	start, end := lb.PeriodBounds(models.PeriodDaily, wednesdayNoon)
	assert.Equal(t, time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC), end)

	start, end = lb.PeriodBounds(models.PeriodWeekly, wednesdayNoon)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Sunday, start.Weekday())
	assert.Equal(t, time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC), end)

	start, end = lb.PeriodBounds(models.PeriodMonthly, wednesdayNoon)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), end)

	start, end = lb.PeriodBounds(models.PeriodAllTime, wednesdayNoon)
	assert.Equal(t, 1970, start.Year())
	assert.Equal(t, 9999, end.Year())
}

func TestPeriodBounds_UsesServiceLocation(t *testing.T) {
	env := newTestEnv(t)
	lb := NewLeaderboardService(NewCore(env.db, models.DefaultGameSettings(), env.clock, time.FixedZone("UTC+5", 5*3600)), nil)

	// 22:00 UTC on the 13th is already 03:00 on the 14th at UTC+5.
	start, end := lb.PeriodBounds(models.PeriodDaily, time.Date(2024, 3, 13, 22, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 3, 13, 19, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 3, 14, 19, 0, 0, 0, time.UTC), end)
	assert.Equal(t, time.UTC, start.Location())
}

func TestUpdateLeaderboard_MaintainsAllPeriods(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "u1")
	ctx := context.Background()

	require.NoError(t, env.engine.Leaderboards.UpdateLeaderboard(ctx, "u1", models.LeaderboardTotalPoints, 20))
	require.NoError(t, env.engine.Leaderboards.UpdateLeaderboard(ctx, "u1", models.LeaderboardTotalPoints, 15))

	var entries []models.LeaderboardEntry
	require.NoError(t, env.db.Where("user_id = ?", "u1").Find(&entries).Error)
	require.Len(t, entries, 4)
	for _, e := range entries {
		assert.Equal(t, int64(35), e.Score, string(e.Period))
		assert.Equal(t, 1, e.Rank)
		assert.True(t, e.PeriodEnd.After(e.PeriodStart))
	}
}

func TestUpdateLeaderboard_RanksHaveNoGapsOrDuplicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lb := env.engine.Leaderboards
	for _, id := range []string{"a", "b", "c"} {
		env.createUser(t, id)
	}

	require.NoError(t, lb.UpdateLeaderboard(ctx, "a", models.LeaderboardTotalPoints, 30))
	require.NoError(t, lb.UpdateLeaderboard(ctx, "b", models.LeaderboardTotalPoints, 50))
	require.NoError(t, lb.UpdateLeaderboard(ctx, "c", models.LeaderboardTotalPoints, 10))
	assert.Equal(t, map[string]int{"b": 1, "a": 2, "c": 3}, ranksOf(t, env, models.LeaderboardTotalPoints, models.PeriodWeekly))

	require.NoError(t, lb.UpdateLeaderboard(ctx, "c", models.LeaderboardTotalPoints, 100))
	assert.Equal(t, map[string]int{"c": 1, "b": 2, "a": 3}, ranksOf(t, env, models.LeaderboardTotalPoints, models.PeriodDaily))
}

func TestUpdateLeaderboard_TiesKeepInsertionOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lb := env.engine.Leaderboards
	env.createUser(t, "first")
	env.createUser(t, "second")

	require.NoError(t, lb.UpdateLeaderboard(ctx, "first", models.LeaderboardTaskCompletion, 1))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, lb.UpdateLeaderboard(ctx, "second", models.LeaderboardTaskCompletion, 1))

	assert.Equal(t, map[string]int{"first": 1, "second": 2}, ranksOf(t, env, models.LeaderboardTaskCompletion, models.PeriodAllTime))
}

func TestUpdateLeaderboard_NewDayOpensNewBucket(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "u1")
	ctx := context.Background()
	lb := env.engine.Leaderboards

	require.NoError(t, lb.UpdateLeaderboard(ctx, "u1", models.LeaderboardTotalPoints, 20))
	env.clock.Advance(24 * time.Hour)
	require.NoError(t, lb.UpdateLeaderboard(ctx, "u1", models.LeaderboardTotalPoints, 5))

	daily, err := lb.UserRank(ctx, "u1", models.LeaderboardTotalPoints, models.PeriodDaily)
	require.NoError(t, err)
	require.NotNil(t, daily)
	assert.Equal(t, int64(5), daily.Score)

	allTime, err := lb.UserRank(ctx, "u1", models.LeaderboardTotalPoints, models.PeriodAllTime)
	require.NoError(t, err)
	require.NotNil(t, allTime)
	assert.Equal(t, int64(25), allTime.Score)
}

func TestUpdateLeaderboard_UnknownUserAndZeroDelta(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "u1")
	ctx := context.Background()

	require.NoError(t, env.engine.Leaderboards.UpdateLeaderboard(ctx, "ghost", models.LeaderboardTotalPoints, 10))
	require.NoError(t, env.engine.Leaderboards.UpdateLeaderboard(ctx, "u1", models.LeaderboardTotalPoints, 0))

	var count int64
	require.NoError(t, env.db.Model(&models.LeaderboardEntry{}).Count(&count).Error)
	assert.Zero(t, count)

	entry, err := env.engine.Leaderboards.UserRank(ctx, "u1", models.LeaderboardTotalPoints, models.PeriodDaily)
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestTop_LimitsAndCaches(t *testing.T) {
	env := newTestEnv(t)
	cache := newMemoryCache()
	env.engine.Leaderboards.Cache = cache
	ctx := context.Background()
	lb := env.engine.Leaderboards

	for i, id := range []string{"a", "b", "c", "d"} {
		env.createUser(t, id)
		require.NoError(t, lb.UpdateLeaderboard(ctx, id, models.LeaderboardDSACompletion, int64(10*(i+1))))
	}

	top, err := lb.Top(ctx, models.LeaderboardDSACompletion, models.PeriodMonthly, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "d", top[0].UserID)
	assert.Equal(t, "c", top[1].UserID)

	_, err = lb.Top(ctx, models.LeaderboardDSACompletion, models.PeriodMonthly, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)

	invalidated := cache.invalidated
	require.NoError(t, lb.UpdateLeaderboard(ctx, "a", models.LeaderboardDSACompletion, 100))
	assert.Greater(t, cache.invalidated, invalidated)

	top, err = lb.Top(ctx, models.LeaderboardDSACompletion, models.PeriodMonthly, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "a", top[0].UserID)
}

func TestRefreshRanks_RepairsStaleRanks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lb := env.engine.Leaderboards
	env.createUser(t, "a")
	env.createUser(t, "b")
	require.NoError(t, lb.UpdateLeaderboard(ctx, "a", models.LeaderboardTotalPoints, 10))
	require.NoError(t, lb.UpdateLeaderboard(ctx, "b", models.LeaderboardTotalPoints, 20))

	require.NoError(t, env.db.Model(&models.LeaderboardEntry{}).Where("1 = 1").UpdateColumn("rank", 7).Error)
	require.NoError(t, lb.RefreshRanks(ctx))

	assert.Equal(t, map[string]int{"b": 1, "a": 2}, ranksOf(t, env, models.LeaderboardTotalPoints, models.PeriodAllTime))
}

func TestArchiveClosedBuckets(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "u1")
	ctx := context.Background()
	lb := env.engine.Leaderboards
	require.NoError(t, lb.UpdateLeaderboard(ctx, "u1", models.LeaderboardTotalPoints, 42))

	store := &memoryStore{objects: map[string]any{}}
	n, err := lb.ArchiveClosedBuckets(ctx, store, models.PeriodDaily, wednesdayNoon)
	require.NoError(t, err)
	assert.Zero(t, n, "yesterday has no entries")

	n, err = lb.ArchiveClosedBuckets(ctx, store, models.PeriodDaily, wednesdayNoon.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	obj, ok := store.objects["leaderboards/DAILY/TOTAL_POINTS/2024-03-13.json"]
	require.True(t, ok)
	snap := obj.(Snapshot)
	require.Len(t, snap.Entries, 1)
	assert.Equal(t, int64(42), snap.Entries[0].Score)

	n, err = lb.ArchiveClosedBuckets(ctx, store, models.PeriodAllTime, wednesdayNoon)
	require.NoError(t, err)
	assert.Zero(t, n)
}
