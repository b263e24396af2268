package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChallengeType string

const (
	ChallengeDaily   ChallengeType = "DAILY"
	ChallengeWeekly  ChallengeType = "WEEKLY"
	ChallengeMonthly ChallengeType = "MONTHLY"
)

// Challenge is a time-boxed objective. It follows the same progress and
// completion contract as an achievement but only counts inside [StartDate, EndDate).
type Challenge struct {
	ID           string        `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title        string        `gorm:"not null" json:"title"`
	Description  string        `gorm:"type:text" json:"description"`
	Type         ChallengeType `gorm:"type:varchar(16);not null" json:"type"`
	Metric       Metric        `gorm:"type:varchar(32);not null;index" json:"metric"`
	Requirement  int64         `gorm:"not null" json:"requirement"`
	PointsReward int64         `gorm:"not null;default:0" json:"points_reward"`
	StartDate    time.Time     `gorm:"not null;index" json:"start_date"`
	EndDate      time.Time     `gorm:"not null;index" json:"end_date"`
	TimeLimit    int           `gorm:"not null;default:0" json:"time_limit"` // minutes after joining, 0 = none
	IsActive     bool          `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time     `gorm:"autoCreateTime" json:"created_at"`
}

func (c *Challenge) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type UserChallenge struct {
	ID          string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID      string     `gorm:"type:varchar(64);not null;uniqueIndex:idx_user_challenge,priority:1" json:"user_id"`
	ChallengeID string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_challenge,priority:2" json:"challenge_id"`
	Challenge   *Challenge `gorm:"foreignKey:ChallengeID" json:"challenge,omitempty"`
	Progress    int64      `gorm:"not null;default:0" json:"progress"`
	IsCompleted bool       `gorm:"not null;default:false" json:"is_completed"`
	StartedAt   time.Time  `gorm:"not null" json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (u *UserChallenge) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
