package services

import (
	"context"

	"progression-engine/models"
)

// UserStats is the read model behind the profile page.
type UserStats struct {
	UserID                    string              `json:"user_id"`
	Username                  string              `json:"username,omitempty"`
	Level                     int                 `json:"level"`
	Experience                int64               `json:"experience"`
	Points                    int64               `json:"points"`
	CurrentStreak             int                 `json:"current_streak"`
	LongestStreak             int                 `json:"longest_streak"`
	ProgressToNextLevel       float64             `json:"progress_to_next_level"`
	ExperienceForCurrentLevel int64               `json:"experience_for_current_level"`
	ExperienceForNextLevel    int64               `json:"experience_for_next_level"`
	TotalTasksCompleted       int64               `json:"total_tasks_completed"`
	TotalPomodoros            int64               `json:"total_pomodoros"`
	TotalPomodoroMinutes      int64               `json:"total_pomodoro_minutes"`
	TotalDSASolved            int64               `json:"total_dsa_solved"`
	Achievements              []string            `json:"achievements"`
	Badges                    []string            `json:"badges"`
	Streaks                   []models.UserStreak `json:"streaks"`
	GlobalRank                *int                `json:"global_rank,omitempty"`
}

// StatsService assembles UserStats from the individual components.
type StatsService struct {
	Users        *UserService
	Levels       LevelCalculator
	Streaks      *StreakTracker
	Achievements *AchievementEngine
	Leaderboards *LeaderboardService
}

func (s *StatsService) GetUserStats(ctx context.Context, userID string) (*UserStats, error) {
	user, err := s.Users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	achievements, err := s.Achievements.CompletedAchievementIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	badges, err := s.Achievements.Badges(ctx, userID)
	if err != nil {
		return nil, err
	}
	streaks, err := s.Streaks.Streaks(ctx, userID)
	if err != nil {
		return nil, err
	}
	entry, err := s.Leaderboards.UserRank(ctx, userID, models.LeaderboardTotalPoints, models.PeriodAllTime)
	if err != nil {
		return nil, err
	}

	next := user.Level + 1
	if next > s.Levels.MaxLevel() {
		next = s.Levels.MaxLevel()
	}
	stats := &UserStats{
		UserID:                    user.ID,
		Username:                  user.Username,
		Level:                     user.Level,
		Experience:                user.Experience,
		Points:                    user.Points,
		CurrentStreak:             user.CurrentStreak,
		LongestStreak:             user.LongestStreak,
		ProgressToNextLevel:       s.Levels.ProgressToNextLevel(user.Experience, user.Level),
		ExperienceForCurrentLevel: s.Levels.ExperienceForLevel(user.Level),
		ExperienceForNextLevel:    s.Levels.ExperienceForLevel(next),
		TotalTasksCompleted:       user.TotalTasksCompleted,
		TotalPomodoros:            user.TotalPomodoros,
		TotalPomodoroMinutes:      user.TotalPomodoroMinutes,
		TotalDSASolved:            user.TotalDSASolved,
		Achievements:              nonNil(achievements),
		Badges:                    nonNil(badges),
		Streaks:                   streaks,
	}
	if entry != nil && entry.Rank > 0 {
		rank := entry.Rank
		stats.GlobalRank = &rank
	}
	return stats, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
