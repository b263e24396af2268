package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"progression-engine/logger"
	"progression-engine/models"
)

// PointsLedger is the only writer of users.points. Every balance change is an
// appended PointTransaction plus an atomic increment in the same transaction.
type PointsLedger struct {
	Core
}

func NewPointsLedger(core Core) *PointsLedger {
	return &PointsLedger{Core: core}
}

// LedgerMismatch is a user whose balance drifted from the sum of their transactions.
type LedgerMismatch struct {
	UserID      string `json:"user_id"`
	Points      int64  `json:"points"`
	LedgerTotal int64  `json:"ledger_total"`
}

// Award records points for userID and returns the amount actually credited,
// which is lower than points when the daily limit clips an activity reward.
// Unknown users are a no-op.
func (l *PointsLedger) Award(ctx context.Context, userID string, points int64, txType models.TransactionType, description string, relatedID *string) (int64, error) {
	var awarded int64
	err := l.tx(ctx, func(tx *gorm.DB) error {
		if _, err := lockUser(tx, userID); err != nil {
			return err
		}
		var err error
		awarded, err = l.award(tx, userID, points, txType, description, relatedID)
		return err
	})
	if errors.Is(err, ErrUserNotFound) {
		return 0, nil
	}
	return awarded, err
}

// AdjustPoints applies a signed manual correction.
func (l *PointsLedger) AdjustPoints(ctx context.Context, userID string, delta int64, reason string) (int64, error) {
	if delta == 0 {
		return 0, ErrInvalidAmount
	}
	var awarded int64
	err := l.tx(ctx, func(tx *gorm.DB) error {
		if _, err := lockUser(tx, userID); err != nil {
			return err
		}
		var err error
		awarded, err = l.award(tx, userID, delta, models.TxManualAdjustment, reason, nil)
		return err
	})
	if err != nil {
		return 0, err
	}
	logger.Info().Str("user_id", userID).Int64("delta", delta).Str("reason", reason).Msg("🛠️ Manual points adjustment")
	return awarded, nil
}

// award must run inside tx with the user row already locked.
func (l *PointsLedger) award(tx *gorm.DB, userID string, points int64, txType models.TransactionType, description string, relatedID *string) (int64, error) {
	if points == 0 {
		return 0, nil
	}

	now := l.now()
	if points > 0 && txType.IsActivity() && l.Settings.DailyPointsLimit > 0 {
		earned, err := l.activityPointsOn(tx, userID, now)
		if err != nil {
			return 0, err
		}
		remaining := l.Settings.DailyPointsLimit - earned
		if remaining <= 0 {
			logger.Debug().Str("user_id", userID).Str("type", string(txType)).Msg("Daily points limit reached")
			return 0, nil
		}
		if points > remaining {
			points = remaining
		}
	}

	entry := models.PointTransaction{
		UserID:      userID,
		Points:      points,
		Type:        txType,
		Description: description,
		RelatedID:   relatedID,
		CreatedAt:   now.UTC(),
	}
	if err := tx.Create(&entry).Error; err != nil {
		return 0, fmt.Errorf("appending point transaction: %w", err)
	}
	if err := tx.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("points", gorm.Expr("points + ?", points)).Error; err != nil {
		return 0, fmt.Errorf("incrementing points: %w", err)
	}
	return points, nil
}

// activityPointsOn sums the capped reward types earned on the calendar day of t.
func (l *PointsLedger) activityPointsOn(tx *gorm.DB, userID string, t time.Time) (int64, error) {
	start := l.dayStart(t)
	end := start.AddDate(0, 0, 1)
	var total int64
	err := tx.Model(&models.PointTransaction{}).
		Select("COALESCE(SUM(points), 0)").
		Where("user_id = ? AND type IN ? AND created_at >= ? AND created_at < ?",
			userID, models.ActivityTypes, start.UTC(), end.UTC()).
		Scan(&total).Error
	return total, err
}

// History lists a user's transactions, newest first.
func (l *PointsLedger) History(ctx context.Context, userID string, limit, offset int) ([]models.PointTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	var txs []models.PointTransaction
	err := l.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&txs).Error
	return txs, err
}

// Audit returns every user whose points differ from their ledger sum.
func (l *PointsLedger) Audit(ctx context.Context) ([]LedgerMismatch, error) {
	var rows []LedgerMismatch
	err := l.DB.WithContext(ctx).Raw(`
		SELECT u.id AS user_id, u.points AS points, COALESCE(SUM(t.points), 0) AS ledger_total
		FROM users u
		LEFT JOIN point_transactions t ON t.user_id = u.id
		WHERE u.deleted_at IS NULL
		GROUP BY u.id, u.points
		HAVING u.points <> COALESCE(SUM(t.points), 0)`).
		Scan(&rows).Error
	return rows, err
}
