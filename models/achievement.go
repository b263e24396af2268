package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AchievementCategory string

const (
	CategoryTasks    AchievementCategory = "TASKS"
	CategoryPomodoro AchievementCategory = "POMODORO"
	CategoryDSA      AchievementCategory = "DSA"
	CategorySocial   AchievementCategory = "SOCIAL"
	CategoryStreak   AchievementCategory = "STREAK"
	CategoryLevel    AchievementCategory = "LEVEL"
	CategorySpecial  AchievementCategory = "SPECIAL"
)

type AchievementType string

const (
	AchievementMilestone  AchievementType = "MILESTONE"
	AchievementCumulative AchievementType = "CUMULATIVE"
	AchievementStreak     AchievementType = "STREAK"
	AchievementRareEvent  AchievementType = "RARE_EVENT"
)

type Rarity string

const (
	RarityCommon    Rarity = "COMMON"
	RarityUncommon  Rarity = "UNCOMMON"
	RarityRare      Rarity = "RARE"
	RarityEpic      Rarity = "EPIC"
	RarityLegendary Rarity = "LEGENDARY"
)

// Metric names the live aggregate an achievement (or challenge) is measured against.
type Metric string

const (
	MetricTasksCompleted     Metric = "TASKS_COMPLETED"
	MetricPomodorosCompleted Metric = "POMODOROS_COMPLETED"
	MetricPomodoroMinutes    Metric = "POMODORO_MINUTES"
	MetricDSASolved          Metric = "DSA_SOLVED"
	MetricWorkspaces         Metric = "WORKSPACES_JOINED"
	MetricChatMessages       Metric = "CHAT_MESSAGES"
	MetricCurrentStreak      Metric = "CURRENT_STREAK"
	MetricLongestStreak      Metric = "LONGEST_STREAK"
	MetricLevel              Metric = "LEVEL"
	MetricPoints             Metric = "POINTS"

	// Event metrics are driven by EventContext, never by a stored aggregate.
	MetricEarlyBird    Metric = "EVENT_EARLY_BIRD"
	MetricNightOwl     Metric = "EVENT_NIGHT_OWL"
	MetricWeekendTasks Metric = "EVENT_WEEKEND_TASKS"
)

// Achievement is a catalog definition. Rows are seeded once and rarely change.
type Achievement struct {
	ID           string              `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Code         string              `gorm:"uniqueIndex;type:varchar(64);not null" json:"code"` // e.g. "task-warrior"
	Name         string              `gorm:"not null" json:"name"`
	Description  string              `gorm:"type:text" json:"description"`
	Category     AchievementCategory `gorm:"type:varchar(16);not null;index" json:"category"`
	Type         AchievementType     `gorm:"type:varchar(16);not null" json:"type"`
	Metric       Metric              `gorm:"type:varchar(32);not null" json:"metric"`
	Requirement  int64               `gorm:"not null" json:"requirement"`
	PointsReward int64               `gorm:"not null;default:0" json:"points_reward"`
	BadgeID      *string             `gorm:"type:varchar(64)" json:"badge_id,omitempty"`
	Rarity       Rarity              `gorm:"type:varchar(16);not null;default:'COMMON'" json:"rarity"`
	IsSecret     bool                `gorm:"not null;default:false" json:"is_secret"`
	CreatedAt    time.Time           `gorm:"autoCreateTime" json:"created_at"`
}

func (a *Achievement) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// UserAchievement tracks one user's progress toward one achievement.
// IsCompleted only ever flips false -> true.
type UserAchievement struct {
	ID            string       `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID        string       `gorm:"type:varchar(64);not null;uniqueIndex:idx_user_achievement,priority:1" json:"user_id"`
	AchievementID string       `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_achievement,priority:2" json:"achievement_id"`
	Achievement   *Achievement `gorm:"foreignKey:AchievementID" json:"achievement,omitempty"`
	Progress      int64        `gorm:"not null;default:0" json:"progress"`
	IsCompleted   bool         `gorm:"not null;default:false;index" json:"is_completed"`
	UnlockedAt    *time.Time   `json:"unlocked_at,omitempty"`
	CreatedAt     time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *UserAchievement) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
