package models

import (
	"time"

	"gorm.io/gorm"
)

// User carries the progression fields of an account. The account service owns
// identity; this row is created with zeros at account creation and mutated only
// by the ledger, experience service, streak tracker and activity recorder.
type User struct {
	ID       string `gorm:"primaryKey;type:varchar(64)" json:"id"` // account service id
	Username string `gorm:"index" json:"username,omitempty"`

	// Core progression
	Points     int64 `json:"points" gorm:"not null;default:0"`
	Experience int64 `json:"experience" gorm:"not null;default:0"`
	Level      int   `json:"level" gorm:"not null;default:1;index"`

	// Mirrors of the DAILY_LOGIN streak for fast reads
	CurrentStreak int `json:"current_streak" gorm:"not null;default:0"`
	LongestStreak int `json:"longest_streak" gorm:"not null;default:0"`

	// Activity counters
	TotalTasksCompleted  int64 `json:"total_tasks_completed" gorm:"not null;default:0"`
	TotalPomodoros       int64 `json:"total_pomodoros" gorm:"not null;default:0"`
	TotalPomodoroMinutes int64 `json:"total_pomodoro_minutes" gorm:"not null;default:0"`
	TotalDSASolved       int64 `json:"total_dsa_solved" gorm:"column:total_dsa_solved;not null;default:0"`
	TotalWorkspaces      int64 `json:"total_workspaces" gorm:"not null;default:0"`
	TotalChatMessages    int64 `json:"total_chat_messages" gorm:"not null;default:0"`

	LastActivityDate *time.Time `json:"last_activity_date,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
