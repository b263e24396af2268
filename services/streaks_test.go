package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"progression-engine/models"
)

func (e *testEnv) seedStreak(t *testing.T, userID string, st models.StreakType, current, longest int, daysAgo int) {
	t.Helper()
	day := time.Date(wednesdayNoon.Year(), wednesdayNoon.Month(), wednesdayNoon.Day(), 0, 0, 0, 0, time.UTC)
	require.NoError(t, e.db.Create(&models.UserStreak{
		UserID:         userID,
		StreakType:     st,
		CurrentCount:   current,
		LongestCount:   longest,
		LastActiveDate: day.AddDate(0, 0, -daysAgo),
	}).Error)
}

func TestUpdateStreak_FirstActivity(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "u1")

	update, err := env.engine.Streaks.UpdateStreak(context.Background(), "u1", models.StreakTaskCompletion)
	require.NoError(t, err)
	assert.True(t, update.Updated)
	assert.Equal(t, 1, update.Streak.CurrentCount)
	assert.Equal(t, 1, update.Streak.LongestCount)
	assert.Zero(t, update.Bonus)
}

func TestUpdateStreak_SameDayIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "u1")
	ctx := context.Background()

	_, err := env.engine.Streaks.UpdateStreak(ctx, "u1", models.StreakTaskCompletion)
	require.NoError(t, err)

	env.clock.Advance(6 * time.Hour)
	update, err := env.engine.Streaks.UpdateStreak(ctx, "u1", models.StreakTaskCompletion)
	require.NoError(t, err)
	assert.False(t, update.Updated)
	assert.Equal(t, 1, update.Streak.CurrentCount)
}

func TestUpdateStreak_ConsecutiveDayIncrements(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "u1")
	env.seedStreak(t, "u1", models.StreakTaskCompletion, 5, 5, 1)

	update, err := env.engine.Streaks.UpdateStreak(context.Background(), "u1", models.StreakTaskCompletion)
	require.NoError(t, err)
	assert.True(t, update.Updated)
	assert.Equal(t, 6, update.Streak.CurrentCount)
	assert.Equal(t, 6, update.Streak.LongestCount)
}

func TestUpdateStreak_GapResets(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "u1")
	env.seedStreak(t, "u1", models.StreakTaskCompletion, 3, 3, 3)

	update, err := env.engine.Streaks.UpdateStreak(context.Background(), "u1", models.StreakTaskCompletion)
	require.NoError(t, err)
	assert.True(t, update.Updated)
	assert.Equal(t, 1, update.Streak.CurrentCount)
	assert.Equal(t, 3, update.Streak.LongestCount)
}

func TestUpdateStreak_ClockMovedBackwards(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "u1")
	env.seedStreak(t, "u1", models.StreakTaskCompletion, 4, 4, -1)

	update, err := env.engine.Streaks.UpdateStreak(context.Background(), "u1", models.StreakTaskCompletion)
	require.NoError(t, err)
	assert.False(t, update.Updated)
	assert.Equal(t, 4, update.Streak.CurrentCount)
}

func TestUpdateStreak_WeeklyBonus(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "u1")
	env.seedStreak(t, "u1", models.StreakTaskCompletion, 6, 6, 1)
	ctx := context.Background()

	update, err := env.engine.Streaks.UpdateStreak(ctx, "u1", models.StreakTaskCompletion)
	require.NoError(t, err)
	assert.Equal(t, 7, update.Streak.CurrentCount)
	assert.Equal(t, int64(50), update.Bonus)

	bonuses := env.transactions(t, "u1", models.TxStreakBonus)
	require.Len(t, bonuses, 1)
	assert.Equal(t, int64(50), bonuses[0].Points)
	assert.Equal(t, int64(50), env.reload(t, "u1").Points)

	// Day 8 pays nothing, day 14 pays two cycles.
	env.clock.Advance(24 * time.Hour)
	update, err = env.engine.Streaks.UpdateStreak(ctx, "u1", models.StreakTaskCompletion)
	require.NoError(t, err)
	assert.Zero(t, update.Bonus)

	for day := 9; day <= 14; day++ {
		env.clock.Advance(24 * time.Hour)
		update, err = env.engine.Streaks.UpdateStreak(ctx, "u1", models.StreakTaskCompletion)
		require.NoError(t, err)
	}
	assert.Equal(t, 14, update.Streak.CurrentCount)
	assert.Equal(t, int64(100), update.Bonus)
	assert.Equal(t, int64(150), env.reload(t, "u1").Points)
}

func TestUpdateStreak_NoBonusWithoutThreshold(t *testing.T) {
	env := newTestEnv(t, func(s *models.GameSettings) { s.StreakBonusThreshold = 0 })
	env.createUser(t, "u1")
	env.seedStreak(t, "u1", models.StreakTaskCompletion, 6, 6, 1)

	update, err := env.engine.Streaks.UpdateStreak(context.Background(), "u1", models.StreakTaskCompletion)
	require.NoError(t, err)
	assert.Equal(t, 7, update.Streak.CurrentCount)
	assert.Zero(t, update.Bonus)
}

func TestUpdateStreak_DailyLoginMirrorsUser(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "u1")
	env.seedStreak(t, "u1", models.StreakDailyLogin, 2, 9, 1)

	_, err := env.engine.Streaks.UpdateStreak(context.Background(), "u1", models.StreakDailyLogin)
	require.NoError(t, err)

	user := env.reload(t, "u1")
	assert.Equal(t, 3, user.CurrentStreak)
	assert.Equal(t, 9, user.LongestStreak)
}

func TestUpdateStreak_UnknownUser(t *testing.T) {
	env := newTestEnv(t)

	update, err := env.engine.Streaks.UpdateStreak(context.Background(), "ghost", models.StreakDailyLogin)
	require.NoError(t, err)
	assert.False(t, update.Updated)
}
