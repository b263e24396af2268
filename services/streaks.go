package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"progression-engine/logger"
	"progression-engine/models"
)

// StreakBonusPoints is multiplied by the number of completed threshold cycles.
const StreakBonusPoints = 50

// StreakUpdate reports what UpdateStreak did. Updated is false when the
// streak was already counted today.
type StreakUpdate struct {
	Streak  models.UserStreak `json:"streak"`
	Updated bool              `json:"updated"`
	Bonus   int64             `json:"bonus"`
}

type StreakTracker struct {
	Core
	Ledger *PointsLedger
}

func NewStreakTracker(core Core, ledger *PointsLedger) *StreakTracker {
	return &StreakTracker{Core: core, Ledger: ledger}
}

// UpdateStreak counts today for the given streak type. Calling it again on
// the same calendar day changes nothing. Unknown users are a no-op.
func (s *StreakTracker) UpdateStreak(ctx context.Context, userID string, streakType models.StreakType) (StreakUpdate, error) {
	var update StreakUpdate
	err := s.tx(ctx, func(tx *gorm.DB) error {
		user, err := lockUser(tx, userID)
		if err != nil {
			return err
		}
		update, err = s.updateStreak(tx, user, streakType)
		return err
	})
	if errors.Is(err, ErrUserNotFound) {
		return StreakUpdate{}, nil
	}
	return update, err
}

func (s *StreakTracker) updateStreak(tx *gorm.DB, user *models.User, streakType models.StreakType) (StreakUpdate, error) {
	today := s.dayStart(s.now())

	var streak models.UserStreak
	err := tx.Where("user_id = ? AND streak_type = ?", user.ID, streakType).First(&streak).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		streak = models.UserStreak{
			UserID:         user.ID,
			StreakType:     streakType,
			CurrentCount:   1,
			LongestCount:   1,
			LastActiveDate: today.UTC(),
		}
		if err := tx.Create(&streak).Error; err != nil {
			return StreakUpdate{}, fmt.Errorf("creating %s streak: %w", streakType, err)
		}
		if err := s.mirror(tx, user, streak); err != nil {
			return StreakUpdate{}, err
		}
		return StreakUpdate{Streak: streak, Updated: true}, nil
	case err != nil:
		return StreakUpdate{}, err
	}

	// A clock that moved backwards counts as the same day.
	diff := s.dayDiff(streak.LastActiveDate, today)
	if diff <= 0 {
		return StreakUpdate{Streak: streak}, nil
	}

	var bonus int64
	if diff == 1 {
		streak.CurrentCount++
		bonus = s.bonusFor(streak.CurrentCount)
	} else {
		streak.CurrentCount = 1
	}
	if streak.CurrentCount > streak.LongestCount {
		streak.LongestCount = streak.CurrentCount
	}
	streak.LastActiveDate = today.UTC()

	if err := tx.Model(&streak).Select("current_count", "longest_count", "last_active_date").Updates(&streak).Error; err != nil {
		return StreakUpdate{}, fmt.Errorf("saving %s streak: %w", streakType, err)
	}
	if err := s.mirror(tx, user, streak); err != nil {
		return StreakUpdate{}, err
	}

	if bonus > 0 {
		awarded, err := s.Ledger.award(tx, user.ID, bonus, models.TxStreakBonus,
			fmt.Sprintf("%d-day %s streak", streak.CurrentCount, streakType), nil)
		if err != nil {
			return StreakUpdate{}, err
		}
		user.Points += awarded
		bonus = awarded
		logger.Info().Str("user_id", user.ID).Str("streak_type", string(streakType)).
			Int("count", streak.CurrentCount).Int64("bonus", bonus).Msg("🔥 Streak bonus")
	}
	return StreakUpdate{Streak: streak, Updated: true, Bonus: bonus}, nil
}

// bonusFor pays floor(count/threshold) * 50 on every multiple of the threshold.
func (s *StreakTracker) bonusFor(count int) int64 {
	threshold := s.Settings.StreakBonusThreshold
	if threshold <= 0 || count%threshold != 0 {
		return 0
	}
	return int64(count/threshold) * StreakBonusPoints
}

// mirror copies the DAILY_LOGIN streak onto the user row.
func (s *StreakTracker) mirror(tx *gorm.DB, user *models.User, streak models.UserStreak) error {
	if streak.StreakType != models.StreakDailyLogin {
		return nil
	}
	err := tx.Model(&models.User{}).Where("id = ?", user.ID).UpdateColumns(map[string]any{
		"current_streak": streak.CurrentCount,
		"longest_streak": streak.LongestCount,
	}).Error
	if err != nil {
		return fmt.Errorf("mirroring login streak: %w", err)
	}
	user.CurrentStreak = streak.CurrentCount
	user.LongestStreak = streak.LongestCount
	return nil
}

// Streaks lists every streak the user has started.
func (s *StreakTracker) Streaks(ctx context.Context, userID string) ([]models.UserStreak, error) {
	var streaks []models.UserStreak
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Order("streak_type").Find(&streaks).Error
	return streaks, err
}
