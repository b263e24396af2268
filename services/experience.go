package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gorm.io/gorm"

	"progression-engine/logger"
	"progression-engine/models"
)

// LevelUpBonusPerLevel is paid once per level gained.
const LevelUpBonusPerLevel = 100

type ExperienceService struct {
	Core
	Ledger *PointsLedger
	Levels LevelCalculator
}

func NewExperienceService(core Core, ledger *PointsLedger) *ExperienceService {
	return &ExperienceService{Core: core, Ledger: ledger, Levels: NewLevelCalculator(core.Settings)}
}

// AwardExperience adds experience and reports whether the user leveled up.
// Unknown users are a no-op.
func (s *ExperienceService) AwardExperience(ctx context.Context, userID string, amount int64, description string) (bool, error) {
	if amount < 0 {
		return false, ErrInvalidAmount
	}
	var gained int
	err := s.tx(ctx, func(tx *gorm.DB) error {
		user, err := lockUser(tx, userID)
		if err != nil {
			return err
		}
		gained, err = s.awardExperience(tx, user, amount, description)
		return err
	})
	if errors.Is(err, ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return gained > 0, nil
}

// awardExperience runs under the user row lock and keeps user in sync with
// what it wrote. It returns the number of levels gained.
func (s *ExperienceService) awardExperience(tx *gorm.DB, user *models.User, amount int64, description string) (int, error) {
	if amount == 0 {
		return 0, nil
	}
	experience := user.Experience
	if experience > math.MaxInt64-amount {
		experience = math.MaxInt64
	} else {
		experience += amount
	}

	updates := map[string]any{"experience": experience}
	newLevel := s.Levels.LevelForExperience(experience)
	gained := 0
	// Level only ever moves up, even if the curve was retuned since.
	if newLevel > user.Level {
		gained = newLevel - user.Level
		updates["level"] = newLevel
	}
	if err := tx.Model(&models.User{}).Where("id = ?", user.ID).UpdateColumns(updates).Error; err != nil {
		return 0, fmt.Errorf("saving experience: %w", err)
	}
	user.Experience = experience
	if gained == 0 {
		return 0, nil
	}

	oldLevel := user.Level
	user.Level = newLevel
	bonus := int64(LevelUpBonusPerLevel * gained)
	awarded, err := s.Ledger.award(tx, user.ID, bonus, models.TxLevelUpBonus,
		fmt.Sprintf("Reached level %d", newLevel), nil)
	if err != nil {
		return 0, err
	}
	user.Points += awarded

	logger.Info().
		Str("user_id", user.ID).
		Int("from", oldLevel).
		Int("to", newLevel).
		Int64("bonus", awarded).
		Str("reason", description).
		Msg("🎮 Level up")
	return gained, nil
}
