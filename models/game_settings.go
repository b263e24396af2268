package models

import "time"

// GameSettingsID is the primary key of the singleton settings row.
const GameSettingsID = 1

// GameSettings holds the tunable progression constants.
type GameSettings struct {
	ID                    uint      `gorm:"primaryKey" json:"-"`
	ExperiencePerLevel    int64     `gorm:"not null" json:"experience_per_level"`
	ExperienceMultiplier  float64   `gorm:"not null" json:"experience_multiplier"`
	MaxLevel              int       `gorm:"not null" json:"max_level"`
	StreakBonusThreshold  int       `gorm:"not null" json:"streak_bonus_threshold"`
	StreakBonusMultiplier float64   `gorm:"not null" json:"streak_bonus_multiplier"`
	DailyPointsLimit      int64     `gorm:"not null;default:0" json:"daily_points_limit"` // 0 = unlimited
	UpdatedAt             time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// DefaultGameSettings are used when neither the database nor the environment provide values.
func DefaultGameSettings() GameSettings {
	return GameSettings{
		ID:                    GameSettingsID,
		ExperiencePerLevel:    100,
		ExperienceMultiplier:  1.5,
		MaxLevel:              100,
		StreakBonusThreshold:  7,
		StreakBonusMultiplier: 1.5,
		DailyPointsLimit:      1000,
	}
}
