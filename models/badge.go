package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserBadge is one member of a user's append-only profile badge set.
type UserBadge struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_user_badge,priority:1"`
	BadgeID   string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_user_badge,priority:2"` // e.g. "task-warrior"
	Source    string    `gorm:"type:varchar(64)"`                                                // achievement code that granted it
	AwardedAt time.Time `gorm:"not null"`
}

func (b *UserBadge) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
