package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"progression-engine/logger"
	"progression-engine/models"
)

// LoadGameSettings returns the singleton settings row, creating it from
// defaults when it does not exist yet. The returned value is meant to be
// passed to NewEngine; components never re-read it on their own.
func LoadGameSettings(ctx context.Context, db *gorm.DB, defaults models.GameSettings) (models.GameSettings, error) {
	var settings models.GameSettings
	err := db.WithContext(ctx).First(&settings, models.GameSettingsID).Error
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.GameSettings{}, fmt.Errorf("loading game settings: %w", err)
	}

	defaults.ID = models.GameSettingsID
	// Two instances booting at once may both miss the row; the first insert wins.
	if err := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&defaults).Error; err != nil {
		return models.GameSettings{}, fmt.Errorf("creating game settings: %w", err)
	}
	if err := db.WithContext(ctx).First(&settings, models.GameSettingsID).Error; err != nil {
		return models.GameSettings{}, fmt.Errorf("reloading game settings: %w", err)
	}
	logger.Info().
		Int64("experience_per_level", settings.ExperiencePerLevel).
		Float64("experience_multiplier", settings.ExperienceMultiplier).
		Int("max_level", settings.MaxLevel).
		Msg("⚙️ Game settings created with defaults")
	return settings, nil
}

// UpdateGameSettings validates and persists new settings and returns the
// stored row. Running engines keep the value they were constructed with
// until restart.
func UpdateGameSettings(ctx context.Context, db *gorm.DB, settings models.GameSettings) (models.GameSettings, error) {
	if err := validateGameSettings(settings); err != nil {
		return models.GameSettings{}, err
	}
	settings.ID = models.GameSettingsID
	if err := db.WithContext(ctx).Save(&settings).Error; err != nil {
		return models.GameSettings{}, fmt.Errorf("saving game settings: %w", err)
	}
	logger.Info().
		Int64("experience_per_level", settings.ExperiencePerLevel).
		Float64("experience_multiplier", settings.ExperienceMultiplier).
		Int("max_level", settings.MaxLevel).
		Int64("daily_points_limit", settings.DailyPointsLimit).
		Msg("⚙️ Game settings updated")
	return settings, nil
}

func validateGameSettings(s models.GameSettings) error {
	switch {
	case s.ExperiencePerLevel <= 0:
		return fmt.Errorf("%w: experience_per_level must be positive", ErrInvalidSettings)
	case s.ExperienceMultiplier <= 0:
		return fmt.Errorf("%w: experience_multiplier must be positive", ErrInvalidSettings)
	case s.MaxLevel < 1:
		return fmt.Errorf("%w: max_level must be at least 1", ErrInvalidSettings)
	case s.StreakBonusThreshold < 0, s.StreakBonusMultiplier < 0, s.DailyPointsLimit < 0:
		return fmt.Errorf("%w: streak and daily limit values cannot be negative", ErrInvalidSettings)
	}
	return nil
}
