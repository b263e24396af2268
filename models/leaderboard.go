package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LeaderboardType string

const (
	LeaderboardTotalPoints        LeaderboardType = "TOTAL_POINTS"
	LeaderboardTaskCompletion     LeaderboardType = "TASK_COMPLETION"
	LeaderboardPomodoroCompletion LeaderboardType = "POMODORO_COMPLETION"
	LeaderboardDSACompletion      LeaderboardType = "DSA_COMPLETION"
)

var LeaderboardTypes = []LeaderboardType{
	LeaderboardTotalPoints,
	LeaderboardTaskCompletion,
	LeaderboardPomodoroCompletion,
	LeaderboardDSACompletion,
}

type Period string

const (
	PeriodDaily   Period = "DAILY"
	PeriodWeekly  Period = "WEEKLY"
	PeriodMonthly Period = "MONTHLY"
	PeriodAllTime Period = "ALL_TIME"
)

var Periods = []Period{PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodAllTime}

// LeaderboardEntry is one user's score inside a bucket
// (leaderboard type + period + period start).
type LeaderboardEntry struct {
	ID              string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID          string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_lb_bucket_user,priority:4" json:"user_id"`
	LeaderboardType LeaderboardType `gorm:"type:varchar(32);not null;uniqueIndex:idx_lb_bucket_user,priority:1;index:idx_lb_bucket_rank,priority:1" json:"leaderboard_type"`
	Period          Period          `gorm:"type:varchar(16);not null;uniqueIndex:idx_lb_bucket_user,priority:2;index:idx_lb_bucket_rank,priority:2" json:"period"`
	PeriodStart     time.Time       `gorm:"not null;uniqueIndex:idx_lb_bucket_user,priority:3;index:idx_lb_bucket_rank,priority:3" json:"period_start"`
	PeriodEnd       time.Time       `gorm:"not null" json:"period_end"` // exclusive
	Score           int64           `gorm:"not null;default:0" json:"score"`
	Rank            int             `gorm:"not null;default:0;index:idx_lb_bucket_rank,priority:4" json:"rank"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (e *LeaderboardEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
