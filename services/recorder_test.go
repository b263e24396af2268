package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"progression-engine/models"
	"progression-engine/workers"
)

func TestRecordTaskCompletion(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "u1")
	ctx := context.Background()

	result, err := env.engine.Recorder.RecordTaskCompletion(ctx, "u1", "task-1", "Write report")
	require.NoError(t, err)
	assert.Equal(t, int64(20), result.PointsAwarded)
	assert.Equal(t, int64(15), result.ExperienceAwarded)
	assert.False(t, result.LeveledUp)
	assert.Empty(t, result.UnlockedAchievementIDs)

	user := env.reload(t, "u1")
	assert.Equal(t, int64(20), user.Points)
	assert.Equal(t, int64(15), user.Experience)
	assert.Equal(t, int64(1), user.TotalTasksCompleted)
	require.NotNil(t, user.LastActivityDate)
	assert.True(t, user.LastActivityDate.Equal(wednesdayNoon))
	assert.Equal(t, 1, user.CurrentStreak)
	assert.Equal(t, user.Points, result.User.Points)

	txs := env.transactions(t, "u1", models.TxTaskCompleted)
	require.Len(t, txs, 1)
	assert.Equal(t, int64(20), txs[0].Points)
	require.NotNil(t, txs[0].RelatedID)
	assert.Equal(t, "task-1", *txs[0].RelatedID)

	streaks, err := env.engine.Streaks.Streaks(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, streaks, 2)
	for _, s := range streaks {
		assert.Contains(t, []models.StreakType{models.StreakTaskCompletion, models.StreakDailyLogin}, s.StreakType)
		assert.Equal(t, 1, s.CurrentCount)
	}

	total, err := env.engine.Leaderboards.UserRank(ctx, "u1", models.LeaderboardTotalPoints, models.PeriodAllTime)
	require.NoError(t, err)
	require.NotNil(t, total)
	assert.Equal(t, int64(20), total.Score)

	tasks, err := env.engine.Leaderboards.UserRank(ctx, "u1", models.LeaderboardTaskCompletion, models.PeriodDaily)
	require.NoError(t, err)
	require.NotNil(t, tasks)
	assert.Equal(t, int64(1), tasks.Score)
}

func TestRecordTaskCompletion_SecondTaskSameDay(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "u1")
	ctx := context.Background()

	_, err := env.engine.Recorder.RecordTaskCompletion(ctx, "u1", "task-1", "one")
	require.NoError(t, err)
	env.clock.Advance(time.Hour)
	result, err := env.engine.Recorder.RecordTaskCompletion(ctx, "u1", "task-2", "two")
	require.NoError(t, err)
	assert.Zero(t, result.StreakBonuses)

	user := env.reload(t, "u1")
	assert.Equal(t, int64(40), user.Points)
	assert.Equal(t, int64(2), user.TotalTasksCompleted)
	assert.Equal(t, 1, user.CurrentStreak)
}

func TestRecordTaskCompletion_LevelUp(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "u1")
	require.NoError(t, env.db.Model(&models.User{}).Where("id = ?", "u1").UpdateColumn("experience", 90).Error)

	result, err := env.engine.Recorder.RecordTaskCompletion(context.Background(), "u1", "task-1", "push over")
	require.NoError(t, err)
	assert.True(t, result.LeveledUp)
	assert.Equal(t, int64(120), result.PointsAwarded)
	assert.Equal(t, 2, result.User.Level)
	assert.Equal(t, env.ledgerSum(t, "u1"), result.User.Points)
}

func TestRecordTaskCompletion_CrossesTwoLevels(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "u1")
	require.NoError(t, env.db.Model(&models.User{}).Where("id = ?", "u1").UpdateColumn("experience", 140).Error)

	result, err := env.engine.Recorder.RecordTaskCompletion(context.Background(), "u1", "task-1", "big push")
	require.NoError(t, err)
	assert.True(t, result.LeveledUp)
	assert.Equal(t, 3, result.User.Level)
	assert.Equal(t, int64(TaskPoints+2*LevelUpBonusPerLevel), result.PointsAwarded)
	assert.Len(t, env.transactions(t, "u1", models.TxLevelUpBonus), 1)
}

func TestRecordTaskCompletion_UnlocksAchievement(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "u1")
	warrior := env.seed(t, catalogEntry(t, "Task Warrior"))["task-warrior"]
	require.NoError(t, env.db.Model(&models.User{}).Where("id = ?", "u1").UpdateColumn("total_tasks_completed", 9).Error)

	result, err := env.engine.Recorder.RecordTaskCompletion(context.Background(), "u1", "task-10", "tenth")
	require.NoError(t, err)
	assert.Equal(t, []string{warrior.ID}, result.UnlockedAchievementIDs)
	assert.Equal(t, int64(70), result.PointsAwarded)
	assert.Equal(t, int64(70), result.User.Points)
}

func TestRecordTaskCompletion_WeekendSecret(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "u1")
	def := catalogEntry(t, "Weekend Warrior")
	def.Requirement = 1
	weekend := env.seed(t, def)["weekend-warrior"]
	env.clock.Advance(3 * 24 * time.Hour) // Saturday noon

	result, err := env.engine.Recorder.RecordTaskCompletion(context.Background(), "u1", "task-1", "saturday")
	require.NoError(t, err)
	assert.Equal(t, []string{weekend.ID}, result.UnlockedAchievementIDs)
}

func TestRecord_UnknownUserIsNoop(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.engine.Recorder.RecordTaskCompletion(ctx, "ghost", "task-1", "nobody")
	require.NoError(t, err)
	assert.Nil(t, result.User)
	assert.Zero(t, result.PointsAwarded)

	result, err = env.engine.Recorder.RecordLogin(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, result.User)

	var rows int64
	require.NoError(t, env.db.Model(&models.PointTransaction{}).Count(&rows).Error)
	assert.Zero(t, rows)
	require.NoError(t, env.db.Model(&models.UserStreak{}).Count(&rows).Error)
	assert.Zero(t, rows)
}

func TestRecordDSAQuestionCompletion(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "u1")
	ctx := context.Background()

	result, err := env.engine.Recorder.RecordDSAQuestionCompletion(ctx, "u1", "q-1", "Two Sum", "hard")
	require.NoError(t, err)
	assert.Equal(t, int64(80), result.PointsAwarded)
	assert.Zero(t, result.ExperienceAwarded)

	user := env.reload(t, "u1")
	assert.Equal(t, int64(80), user.Points)
	assert.Zero(t, user.Experience)
	assert.Equal(t, int64(1), user.TotalDSASolved)

	txs := env.transactions(t, "u1", models.TxDSAQuestionCompleted)
	require.Len(t, txs, 1)
	require.NotNil(t, txs[0].RelatedID)
	assert.Equal(t, "q-1", *txs[0].RelatedID)

	for difficulty, points := range map[string]int64{"EASY": 30, "Medium": 50} {
		result, err := env.engine.Recorder.RecordDSAQuestionCompletion(ctx, "u1", "q-"+difficulty, "x", difficulty)
		require.NoError(t, err)
		assert.Equal(t, points, result.PointsAwarded)
	}
}

func TestRecordDSAQuestionCompletion_InvalidDifficultyWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "u1")

	_, err := env.engine.Recorder.RecordDSAQuestionCompletion(context.Background(), "u1", "q-1", "Two Sum", "impossible")
	assert.ErrorIs(t, err, ErrInvalidDifficulty)

	user := env.reload(t, "u1")
	assert.Zero(t, user.TotalDSASolved)
	assert.Zero(t, user.Points)
	assert.Nil(t, user.LastActivityDate)
}

func TestRecordPomodoroCompletion(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "u1")
	ctx := context.Background()

	result, err := env.engine.Recorder.RecordPomodoroCompletion(ctx, "u1", 120, "ws-1")
	require.NoError(t, err)
	assert.Equal(t, int64(29), result.PointsAwarded)
	assert.Equal(t, int64(20), result.ExperienceAwarded)

	user := env.reload(t, "u1")
	assert.Equal(t, int64(1), user.TotalPomodoros)
	assert.Equal(t, int64(120), user.TotalPomodoroMinutes)

	_, err = env.engine.Recorder.RecordPomodoroCompletion(ctx, "u1", 0, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	result, err = env.engine.Recorder.RecordPomodoroCompletion(ctx, "u1", 25, "")
	require.NoError(t, err)
	assert.Equal(t, int64(25), result.PointsAwarded)
}

func TestRecordActivity_DailyLimit(t *testing.T) {
	env := newTestEnv(t, func(s *models.GameSettings) { s.DailyPointsLimit = 30 })
	env.createUser(t, "u1")
	ctx := context.Background()

	_, err := env.engine.Recorder.RecordTaskCompletion(ctx, "u1", "task-1", "one")
	require.NoError(t, err)
	result, err := env.engine.Recorder.RecordTaskCompletion(ctx, "u1", "task-2", "two")
	require.NoError(t, err)
	assert.Equal(t, int64(10), result.PointsAwarded)
	assert.Equal(t, int64(2), result.User.TotalTasksCompleted)
}

func TestRecordLoginAndSocialEvents(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "u1")
	ctx := context.Background()

	result, err := env.engine.Recorder.RecordLogin(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, result.PointsAwarded)
	assert.Equal(t, 1, result.User.CurrentStreak)

	_, err = env.engine.Recorder.RecordWorkspaceJoined(ctx, "u1", "ws-1")
	require.NoError(t, err)
	_, err = env.engine.Recorder.RecordChatMessage(ctx, "u1")
	require.NoError(t, err)

	user := env.reload(t, "u1")
	assert.Equal(t, int64(1), user.TotalWorkspaces)
	assert.Equal(t, int64(1), user.TotalChatMessages)
	assert.Nil(t, user.LastActivityDate)
}

func TestRecorder_LeaderboardsThroughDispatcher(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "u1")
	dispatcher := workers.NewDispatcher(2, 16)
	dispatcher.Start(context.Background())
	t.Cleanup(func() { _ = dispatcher.Stop(context.Background()) })
	env.engine.Recorder.Dispatcher = dispatcher
	ctx := context.Background()

	_, err := env.engine.Recorder.RecordPomodoroCompletion(ctx, "u1", 60, "")
	require.NoError(t, err)
	dispatcher.Wait()

	entry, err := env.engine.Leaderboards.UserRank(ctx, "u1", models.LeaderboardPomodoroCompletion, models.PeriodWeekly)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, int64(1), entry.Score)

	total, err := env.engine.Leaderboards.UserRank(ctx, "u1", models.LeaderboardTotalPoints, models.PeriodWeekly)
	require.NoError(t, err)
	require.NotNil(t, total)
	assert.Equal(t, int64(27), total.Score)
}

func TestParseDifficulty(t *testing.T) {
	d, err := ParseDifficulty(" medium ")
	require.NoError(t, err)
	assert.Equal(t, DifficultyMedium, d)

	_, err = ParseDifficulty("")
	assert.ErrorIs(t, err, ErrInvalidDifficulty)
}
