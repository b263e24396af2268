package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TxTaskCompleted        TransactionType = "TASK_COMPLETED"
	TxPomodoroCompleted    TransactionType = "POMODORO_COMPLETED"
	TxDSAQuestionCompleted TransactionType = "DSA_QUESTION_COMPLETED"
	TxAchievementUnlocked  TransactionType = "ACHIEVEMENT_UNLOCKED"
	TxLevelUpBonus         TransactionType = "LEVEL_UP_BONUS"
	TxStreakBonus          TransactionType = "STREAK_BONUS"
	TxChallengeCompleted   TransactionType = "CHALLENGE_COMPLETED"
	TxManualAdjustment     TransactionType = "MANUAL_ADJUSTMENT"
)

// ActivityTypes are the transaction types that count toward the daily points limit.
var ActivityTypes = []TransactionType{TxTaskCompleted, TxPomodoroCompleted, TxDSAQuestionCompleted}

// IsActivity reports whether t is an activity reward (as opposed to a bonus or correction).
func (t TransactionType) IsActivity() bool {
	for _, a := range ActivityTypes {
		if a == t {
			return true
		}
	}
	return false
}

// PointTransaction is an immutable ledger row. users.points always converges
// to the sum of a user's transactions.
type PointTransaction struct {
	ID          string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID      string          `gorm:"type:varchar(64);not null;index:idx_point_tx_user_created,priority:1" json:"user_id"`
	Points      int64           `gorm:"not null" json:"points"`
	Type        TransactionType `gorm:"type:varchar(32);not null;index" json:"type"`
	Description string          `gorm:"type:text" json:"description"`
	RelatedID   *string         `gorm:"type:varchar(64)" json:"related_id,omitempty"`
	CreatedAt   time.Time       `gorm:"not null;index:idx_point_tx_user_created,priority:2" json:"created_at"`
}

func (t *PointTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
