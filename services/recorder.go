package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"progression-engine/logger"
	"progression-engine/models"
)

// Reward constants for activity events.
const (
	TaskPoints         = 20
	TaskExperience     = 15
	PomodoroBasePoints = 25
	PomodoroHourPoints = 2
	PomodoroExperience = 20
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

var dsaPoints = map[Difficulty]int64{
	DifficultyEasy:   30,
	DifficultyMedium: 50,
	DifficultyHard:   80,
}

// ParseDifficulty accepts EASY, MEDIUM or HARD in any case.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := dsaPoints[d]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidDifficulty, s)
	}
	return d, nil
}

// Dispatcher runs best-effort work off the request path.
type Dispatcher interface {
	Submit(name string, job func(ctx context.Context) error) bool
}

// ActivityResult is what an activity event did to the user. User is nil
// when the event named an unknown user and nothing was recorded.
type ActivityResult struct {
	User                   *models.User `json:"user"`
	PointsAwarded          int64        `json:"points_awarded"`
	ExperienceAwarded      int64        `json:"experience_awarded"`
	LeveledUp              bool         `json:"leveled_up"`
	UnlockedAchievementIDs []string     `json:"unlocked_achievement_ids"`
	CompletedChallengeIDs  []string     `json:"completed_challenge_ids"`
	StreakBonuses          int64        `json:"streak_bonuses"`
}

// activity describes one event for record.
type activity struct {
	action      ActivityAction
	counters    map[string]int64
	touch       bool // sets last_activity_date
	points      int64
	txType      models.TransactionType
	description string
	relatedID   *string
	experience  int64
	streaks     []models.StreakType
	leaderboard models.LeaderboardType
	metrics     map[models.Metric]int64
}

// ActivityRecorder is the entry point for activity events. Counters, the
// activity reward, experience and streaks commit together; achievements and
// challenges follow best-effort; leaderboards are updated in the background.
type ActivityRecorder struct {
	Core
	Ledger       *PointsLedger
	Experience   *ExperienceService
	Streaks      *StreakTracker
	Achievements *AchievementEngine
	Challenges   *ChallengeService
	Leaderboards *LeaderboardService
	Dispatcher   Dispatcher // nil runs leaderboard updates inline
}

func (r *ActivityRecorder) RecordTaskCompletion(ctx context.Context, userID, taskID, taskTitle string) (*ActivityResult, error) {
	return r.record(ctx, userID, activity{
		action:      ActionTaskCompleted,
		counters:    map[string]int64{"total_tasks_completed": 1},
		touch:       true,
		points:      TaskPoints,
		txType:      models.TxTaskCompleted,
		description: fmt.Sprintf("Completed task: %s", taskTitle),
		relatedID:   strPtr(taskID),
		experience:  TaskExperience,
		streaks:     []models.StreakType{models.StreakTaskCompletion, models.StreakDailyLogin},
		leaderboard: models.LeaderboardTaskCompletion,
		metrics:     map[models.Metric]int64{models.MetricTasksCompleted: 1},
	})
}

// RecordPomodoroCompletion pays 25 points plus 2 per full hour of focus.
func (r *ActivityRecorder) RecordPomodoroCompletion(ctx context.Context, userID string, durationMinutes int, workspaceID string) (*ActivityResult, error) {
	if durationMinutes <= 0 {
		return nil, ErrInvalidAmount
	}
	minutes := int64(durationMinutes)
	return r.record(ctx, userID, activity{
		action:      ActionPomodoroCompleted,
		counters:    map[string]int64{"total_pomodoros": 1, "total_pomodoro_minutes": minutes},
		touch:       true,
		points:      PomodoroBasePoints + (minutes/60)*PomodoroHourPoints,
		txType:      models.TxPomodoroCompleted,
		description: fmt.Sprintf("Completed %d minute Pomodoro session", durationMinutes),
		relatedID:   strPtr(workspaceID),
		experience:  PomodoroExperience,
		streaks:     []models.StreakType{models.StreakPomodoroSession, models.StreakDailyLogin},
		leaderboard: models.LeaderboardPomodoroCompletion,
		metrics: map[models.Metric]int64{
			models.MetricPomodorosCompleted: 1,
			models.MetricPomodoroMinutes:    minutes,
		},
	})
}

// RecordDSAQuestionCompletion pays by difficulty and grants no experience.
func (r *ActivityRecorder) RecordDSAQuestionCompletion(ctx context.Context, userID, questionID, questionTitle, difficulty string) (*ActivityResult, error) {
	d, err := ParseDifficulty(difficulty)
	if err != nil {
		return nil, err
	}
	return r.record(ctx, userID, activity{
		action:      ActionDSACompleted,
		counters:    map[string]int64{"total_dsa_solved": 1},
		touch:       true,
		points:      dsaPoints[d],
		txType:      models.TxDSAQuestionCompleted,
		description: fmt.Sprintf("Solved %s question: %s", strings.ToLower(string(d)), questionTitle),
		relatedID:   strPtr(questionID),
		streaks:     []models.StreakType{models.StreakDSAPractice, models.StreakDailyLogin},
		leaderboard: models.LeaderboardDSACompletion,
		metrics:     map[models.Metric]int64{models.MetricDSASolved: 1},
	})
}

// RecordLogin counts the day toward the DAILY_LOGIN streak.
func (r *ActivityRecorder) RecordLogin(ctx context.Context, userID string) (*ActivityResult, error) {
	return r.record(ctx, userID, activity{
		action:  ActionLogin,
		streaks: []models.StreakType{models.StreakDailyLogin},
	})
}

func (r *ActivityRecorder) RecordWorkspaceJoined(ctx context.Context, userID, workspaceID string) (*ActivityResult, error) {
	return r.record(ctx, userID, activity{
		counters: map[string]int64{"total_workspaces": 1},
		metrics:  map[models.Metric]int64{models.MetricWorkspaces: 1},
	})
}

func (r *ActivityRecorder) RecordChatMessage(ctx context.Context, userID string) (*ActivityResult, error) {
	return r.record(ctx, userID, activity{
		counters: map[string]int64{"total_chat_messages": 1},
		metrics:  map[models.Metric]int64{models.MetricChatMessages: 1},
	})
}

func (r *ActivityRecorder) record(ctx context.Context, userID string, a activity) (*ActivityResult, error) {
	now := r.now()
	result := &ActivityResult{}

	var user *models.User
	err := r.tx(ctx, func(tx *gorm.DB) error {
		var err error
		if user, err = lockUser(tx, userID); err != nil {
			return err
		}
		startPoints := user.Points

		if err := applyCounters(tx, userID, a, now); err != nil {
			return err
		}

		if a.points > 0 {
			awarded, err := r.Ledger.award(tx, userID, a.points, a.txType, a.description, a.relatedID)
			if err != nil {
				return err
			}
			user.Points += awarded
		}
		if a.experience > 0 {
			gained, err := r.Experience.awardExperience(tx, user, a.experience, a.description)
			if err != nil {
				return err
			}
			result.ExperienceAwarded = a.experience
			result.LeveledUp = gained > 0
		}
		for _, st := range a.streaks {
			update, err := r.Streaks.updateStreak(tx, user, st)
			if err != nil {
				return err
			}
			result.StreakBonuses += update.Bonus
		}

		result.PointsAwarded = user.Points - startPoints
		return nil
	})
	if errors.Is(err, ErrUserNotFound) {
		logger.Debug().Str("user_id", userID).Str("action", string(a.action)).Msg("Ignoring activity for unknown user")
		return &ActivityResult{}, nil
	}
	if err != nil {
		return nil, err
	}

	// Everything below is best-effort: the event is already committed.
	result.UnlockedAchievementIDs, result.CompletedChallengeIDs = r.evaluate(ctx, userID, a, now)
	result.PointsAwarded += r.rewardsFor(ctx, result.UnlockedAchievementIDs, result.CompletedChallengeIDs)

	r.submitLeaderboards(userID, a, result.PointsAwarded)

	fresh := &models.User{}
	if err := r.DB.WithContext(ctx).First(fresh, "id = ?", userID).Error; err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("Reloading user after activity")
		fresh = user
	}
	result.User = fresh
	return result, nil
}

func applyCounters(tx *gorm.DB, userID string, a activity, now time.Time) error {
	updates := make(map[string]any, len(a.counters)+1)
	for column, delta := range a.counters {
		updates[column] = gorm.Expr(column+" + ?", delta)
	}
	if a.touch {
		updates["last_activity_date"] = now.UTC()
	}
	if len(updates) == 0 {
		return nil
	}
	if err := tx.Model(&models.User{}).Where("id = ?", userID).UpdateColumns(updates).Error; err != nil {
		return fmt.Errorf("updating activity counters: %w", err)
	}
	return nil
}

func (r *ActivityRecorder) evaluate(ctx context.Context, userID string, a activity, now time.Time) ([]string, []string) {
	var unlocked, completed []string

	if r.Achievements != nil {
		ids, err := r.Achievements.CheckAchievements(ctx, userID)
		if err != nil {
			logger.Error().Err(err).Str("user_id", userID).Msg("❌ Achievement check failed")
		}
		unlocked = append(unlocked, ids...)

		if a.action != "" {
			local := now.In(r.Location)
			ev := EventContext{
				Action:    a.action,
				Timestamp: now,
				IsWeekend: local.Weekday() == time.Saturday || local.Weekday() == time.Sunday,
			}
			ids, err := r.Achievements.CheckSecretAchievements(ctx, userID, ev)
			if err != nil {
				logger.Error().Err(err).Str("user_id", userID).Msg("❌ Secret achievement check failed")
			}
			unlocked = append(unlocked, ids...)
		}
	}

	if r.Challenges != nil {
		for metric, delta := range a.metrics {
			ids, err := r.Challenges.RecordProgress(ctx, userID, metric, delta)
			if err != nil {
				logger.Error().Err(err).Str("user_id", userID).Str("metric", string(metric)).Msg("❌ Challenge progress failed")
			}
			completed = append(completed, ids...)
		}
	}
	return unlocked, completed
}

// rewardsFor sums the point rewards of the given unlocks and completions.
func (r *ActivityRecorder) rewardsFor(ctx context.Context, achievementIDs, challengeIDs []string) int64 {
	var total int64
	if len(achievementIDs) > 0 {
		var sum int64
		if err := r.DB.WithContext(ctx).Model(&models.Achievement{}).
			Select("COALESCE(SUM(points_reward), 0)").
			Where("id IN ?", achievementIDs).Scan(&sum).Error; err != nil {
			logger.Warn().Err(err).Msg("Summing achievement rewards")
		}
		total += sum
	}
	if len(challengeIDs) > 0 {
		var sum int64
		if err := r.DB.WithContext(ctx).Model(&models.Challenge{}).
			Select("COALESCE(SUM(points_reward), 0)").
			Where("id IN ?", challengeIDs).Scan(&sum).Error; err != nil {
			logger.Warn().Err(err).Msg("Summing challenge rewards")
		}
		total += sum
	}
	return total
}

func (r *ActivityRecorder) submitLeaderboards(userID string, a activity, points int64) {
	if r.Leaderboards == nil {
		return
	}
	type update struct {
		lbType models.LeaderboardType
		delta  int64
	}
	var updates []update
	if points > 0 {
		updates = append(updates, update{models.LeaderboardTotalPoints, points})
	}
	if a.leaderboard != "" {
		updates = append(updates, update{a.leaderboard, 1})
	}

	for _, u := range updates {
		u := u
		name := fmt.Sprintf("leaderboard:%s:%s", u.lbType, userID)
		job := func(ctx context.Context) error {
			return r.Leaderboards.UpdateLeaderboard(ctx, userID, u.lbType, u.delta)
		}
		if r.Dispatcher != nil {
			r.Dispatcher.Submit(name, job)
			continue
		}
		if err := job(context.Background()); err != nil {
			logger.Error().Err(err).Str("user_id", userID).Str("leaderboard_type", string(u.lbType)).Msg("❌ Leaderboard update failed")
		}
	}
}
