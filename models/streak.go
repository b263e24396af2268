package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StreakType string

const (
	StreakTaskCompletion  StreakType = "TASK_COMPLETION"
	StreakPomodoroSession StreakType = "POMODORO_SESSION"
	StreakDSAPractice     StreakType = "DSA_PRACTICE"
	StreakDailyLogin      StreakType = "DAILY_LOGIN"
)

// UserStreak counts consecutive calendar days of one kind of activity.
// LastActiveDate is the local midnight of the last counted day, stored in UTC.
type UserStreak struct {
	ID             string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID         string     `gorm:"type:varchar(64);not null;uniqueIndex:idx_user_streak,priority:1" json:"user_id"`
	StreakType     StreakType `gorm:"type:varchar(32);not null;uniqueIndex:idx_user_streak,priority:2" json:"streak_type"`
	CurrentCount   int        `gorm:"not null;default:0" json:"current_count"`
	LongestCount   int        `gorm:"not null;default:0" json:"longest_count"`
	LastActiveDate time.Time  `gorm:"not null" json:"last_active_date"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *UserStreak) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
