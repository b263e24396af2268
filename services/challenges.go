package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"progression-engine/logger"
	"progression-engine/models"
)

type ChallengeService struct {
	Core
	Ledger *PointsLedger
}

func NewChallengeService(core Core, ledger *PointsLedger) *ChallengeService {
	return &ChallengeService{Core: core, Ledger: ledger}
}

// challengeMetrics are the metrics activity events report progress on.
var challengeMetrics = map[models.Metric]bool{
	models.MetricTasksCompleted:     true,
	models.MetricPomodorosCompleted: true,
	models.MetricPomodoroMinutes:    true,
	models.MetricDSASolved:          true,
	models.MetricWorkspaces:         true,
	models.MetricChatMessages:       true,
}

func (s *ChallengeService) CreateChallenge(ctx context.Context, c *models.Challenge) error {
	if c.Requirement <= 0 || c.PointsReward < 0 || c.TimeLimit < 0 {
		return ErrInvalidAmount
	}
	switch c.Type {
	case models.ChallengeDaily, models.ChallengeWeekly, models.ChallengeMonthly:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidChallenge, c.Type)
	}
	if !challengeMetrics[c.Metric] {
		return fmt.Errorf("%w: unsupported metric %q", ErrInvalidChallenge, c.Metric)
	}
	if !c.EndDate.After(c.StartDate) {
		return fmt.Errorf("%w: must end after it starts", ErrInvalidChallenge)
	}
	c.StartDate = c.StartDate.UTC()
	c.EndDate = c.EndDate.UTC()
	c.IsActive = true
	return s.DB.WithContext(ctx).Create(c).Error
}

// ActiveChallenges lists challenges whose window contains t.
func (s *ChallengeService) ActiveChallenges(ctx context.Context, t time.Time) ([]models.Challenge, error) {
	var challenges []models.Challenge
	err := s.DB.WithContext(ctx).
		Where("is_active = ? AND start_date <= ? AND end_date > ?", true, t.UTC(), t.UTC()).
		Order("end_date ASC").
		Find(&challenges).Error
	return challenges, err
}

// CurrentChallenges lists the challenges active right now.
func (s *ChallengeService) CurrentChallenges(ctx context.Context) ([]models.Challenge, error) {
	return s.ActiveChallenges(ctx, s.now())
}

// UserChallenges lists the challenges the user has progress on.
func (s *ChallengeService) UserChallenges(ctx context.Context, userID string) ([]models.UserChallenge, error) {
	var rows []models.UserChallenge
	err := s.DB.WithContext(ctx).Preload("Challenge").
		Where("user_id = ?", userID).
		Order("started_at DESC").
		Find(&rows).Error
	return rows, err
}

// RecordProgress adds delta to every active challenge measured by metric and
// returns the ids completed by this call. Unknown users are a no-op.
func (s *ChallengeService) RecordProgress(ctx context.Context, userID string, metric models.Metric, delta int64) ([]string, error) {
	if delta <= 0 {
		return nil, nil
	}
	now := s.now()
	var challenges []models.Challenge
	if err := s.DB.WithContext(ctx).
		Where("is_active = ? AND metric = ? AND start_date <= ? AND end_date > ?", true, metric, now.UTC(), now.UTC()).
		Find(&challenges).Error; err != nil {
		return nil, err
	}

	var completed []string
	for _, c := range challenges {
		done, err := s.advance(ctx, userID, c, delta, now)
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil
		}
		if err != nil {
			return completed, fmt.Errorf("challenge %s: %w", c.ID, err)
		}
		if done {
			completed = append(completed, c.ID)
		}
	}
	return completed, nil
}

func (s *ChallengeService) advance(ctx context.Context, userID string, c models.Challenge, delta int64, now time.Time) (bool, error) {
	var completed bool
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if _, err := lockUser(tx, userID); err != nil {
			return err
		}
		joined := models.UserChallenge{UserID: userID, ChallengeID: c.ID, StartedAt: now.UTC()}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&joined).Error; err != nil {
			return err
		}
		var row models.UserChallenge
		if err := tx.Where("user_id = ? AND challenge_id = ?", userID, c.ID).First(&row).Error; err != nil {
			return err
		}
		if row.IsCompleted {
			return nil
		}
		if c.TimeLimit > 0 && !now.Before(row.StartedAt.Add(time.Duration(c.TimeLimit)*time.Minute)) {
			return nil
		}

		progress := row.Progress + delta
		updates := map[string]any{"progress": progress}
		if progress >= c.Requirement {
			updates["progress"] = c.Requirement
			updates["is_completed"] = true
			updates["completed_at"] = now.UTC()
		}
		res := tx.Model(&models.UserChallenge{}).
			Where("id = ? AND is_completed = ?", row.ID, false).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 || progress < c.Requirement {
			return nil
		}

		completed = true
		if c.PointsReward > 0 {
			if _, err := s.Ledger.award(tx, userID, c.PointsReward, models.TxChallengeCompleted,
				fmt.Sprintf("Completed challenge %s", c.Title), &c.ID); err != nil {
				return err
			}
		}
		logger.Info().Str("user_id", userID).Str("challenge_id", c.ID).Msg("🎯 Challenge completed")
		return nil
	})
	return completed, err
}
