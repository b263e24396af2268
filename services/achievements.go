package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"progression-engine/logger"
	"progression-engine/models"
)

// ActivityAction names the event that triggered a secret achievement check.
type ActivityAction string

const (
	ActionTaskCompleted     ActivityAction = "TASK_COMPLETED"
	ActionPomodoroCompleted ActivityAction = "POMODORO_COMPLETED"
	ActionDSACompleted      ActivityAction = "DSA_QUESTION_COMPLETED"
	ActionLogin             ActivityAction = "LOGIN"
)

// EventContext describes the activity secret achievements are evaluated against.
type EventContext struct {
	Action    ActivityAction
	Timestamp time.Time
	IsWeekend bool
}

const (
	earlyBirdBeforeHour = 6
	nightOwlFromHour    = 22

	// Unlock rewards can push POINTS and LEVEL metrics over another threshold.
	maxCheckPasses = 3
)

// metricResolvers reads the live aggregate behind each stored metric.
// Event metrics are absent on purpose: only CheckSecretAchievements drives them.
var metricResolvers = map[models.Metric]func(u *models.User) int64{
	models.MetricTasksCompleted:     func(u *models.User) int64 { return u.TotalTasksCompleted },
	models.MetricPomodorosCompleted: func(u *models.User) int64 { return u.TotalPomodoros },
	models.MetricPomodoroMinutes:    func(u *models.User) int64 { return u.TotalPomodoroMinutes },
	models.MetricDSASolved:          func(u *models.User) int64 { return u.TotalDSASolved },
	models.MetricWorkspaces:         func(u *models.User) int64 { return u.TotalWorkspaces },
	models.MetricChatMessages:       func(u *models.User) int64 { return u.TotalChatMessages },
	models.MetricCurrentStreak:      func(u *models.User) int64 { return int64(u.CurrentStreak) },
	models.MetricLongestStreak:      func(u *models.User) int64 { return int64(u.LongestStreak) },
	models.MetricLevel:              func(u *models.User) int64 { return int64(u.Level) },
	models.MetricPoints:             func(u *models.User) int64 { return u.Points },
}

// AchievementView is a catalog entry joined with one user's progress.
type AchievementView struct {
	models.Achievement
	Progress    int64      `json:"progress"`
	IsCompleted bool       `json:"is_completed"`
	UnlockedAt  *time.Time `json:"unlocked_at,omitempty"`
}

type AchievementEngine struct {
	Core
	Ledger *PointsLedger
}

func NewAchievementEngine(core Core, ledger *PointsLedger) *AchievementEngine {
	return &AchievementEngine{Core: core, Ledger: ledger}
}

// SeedCatalog inserts definitions whose code is not present yet and returns
// how many were added. Existing rows are left untouched.
func (e *AchievementEngine) SeedCatalog(ctx context.Context, defs []models.Achievement) (int, error) {
	added := 0
	for _, def := range defs {
		if def.Code == "" {
			def.Code = slug.Make(def.Name)
		}
		if def.Rarity == "" {
			def.Rarity = models.RarityCommon
		}
		res := e.DB.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}).
			Create(&def)
		if res.Error != nil {
			return added, fmt.Errorf("seeding achievement %q: %w", def.Code, res.Error)
		}
		added += int(res.RowsAffected)
	}
	if added > 0 {
		logger.Info().Int("added", added).Msg("🏅 Achievement catalog seeded")
	}
	return added, nil
}

// CheckAchievements evaluates every non-secret achievement the user has not
// completed and returns the ids unlocked by this call. It is safe to call
// repeatedly. Unknown users yield nil.
func (e *AchievementEngine) CheckAchievements(ctx context.Context, userID string) ([]string, error) {
	var defs []models.Achievement
	if err := e.DB.WithContext(ctx).Where("is_secret = ?", false).
		Order("requirement ASC, code ASC").Find(&defs).Error; err != nil {
		return nil, err
	}

	var unlocked []string
	for pass := 0; pass < maxCheckPasses; pass++ {
		var user models.User
		if err := e.DB.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return unlocked, err
		}
		completed, err := e.completedSet(ctx, userID)
		if err != nil {
			return unlocked, err
		}

		newly := 0
		for _, def := range defs {
			if completed[def.ID] {
				continue
			}
			resolve, ok := metricResolvers[def.Metric]
			if !ok {
				continue
			}
			value := resolve(&user)
			if value >= def.Requirement {
				ok, err := e.unlockLocked(ctx, userID, def)
				if err != nil {
					return unlocked, err
				}
				if ok {
					unlocked = append(unlocked, def.ID)
					newly++
				}
				continue
			}
			if value > 0 {
				if err := e.raiseProgress(ctx, userID, def.ID, value); err != nil {
					return unlocked, err
				}
			}
		}
		if newly == 0 {
			break
		}
	}
	return unlocked, nil
}

// UnlockAchievement completes the achievement for the user exactly once.
// It returns true only for the call that performed the unlock. Unknown users
// and achievements are a no-op.
func (e *AchievementEngine) UnlockAchievement(ctx context.Context, userID, achievementID string) (bool, error) {
	var def models.Achievement
	if err := e.DB.WithContext(ctx).First(&def, "id = ?", achievementID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return e.unlockLocked(ctx, userID, def)
}

// CheckSecretAchievements evaluates time-of-day and weekend achievements
// against ev and returns the ids unlocked by this call.
func (e *AchievementEngine) CheckSecretAchievements(ctx context.Context, userID string, ev EventContext) ([]string, error) {
	var defs []models.Achievement
	if err := e.DB.WithContext(ctx).Where("is_secret = ?", true).Order("code ASC").Find(&defs).Error; err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return nil, nil
	}
	completed, err := e.completedSet(ctx, userID)
	if err != nil {
		return nil, err
	}

	at := ev.Timestamp
	if at.IsZero() {
		at = e.now()
	}
	hour := at.In(e.Location).Hour()

	var unlocked []string
	for _, def := range defs {
		if completed[def.ID] {
			continue
		}
		var ok bool
		switch def.Metric {
		case models.MetricEarlyBird:
			if hour < earlyBirdBeforeHour {
				ok, err = e.unlockLocked(ctx, userID, def)
			}
		case models.MetricNightOwl:
			if hour >= nightOwlFromHour {
				ok, err = e.unlockLocked(ctx, userID, def)
			}
		case models.MetricWeekendTasks:
			if ev.Action == ActionTaskCompleted && ev.IsWeekend {
				ok, err = e.countTowards(ctx, userID, def)
			}
		}
		if err != nil {
			return unlocked, err
		}
		if ok {
			unlocked = append(unlocked, def.ID)
		}
	}
	return unlocked, nil
}

// UserAchievements lists the catalog with the user's progress. Locked secret
// achievements keep their id and rarity but hide their text.
func (e *AchievementEngine) UserAchievements(ctx context.Context, userID string) ([]AchievementView, error) {
	var defs []models.Achievement
	if err := e.DB.WithContext(ctx).Order("category ASC, requirement ASC, code ASC").Find(&defs).Error; err != nil {
		return nil, err
	}
	var rows []models.UserAchievement
	if err := e.DB.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]models.UserAchievement, len(rows))
	for _, r := range rows {
		byID[r.AchievementID] = r
	}

	views := make([]AchievementView, 0, len(defs))
	for _, def := range defs {
		row := byID[def.ID]
		if def.IsSecret && !row.IsCompleted {
			def.Name = "???"
			def.Description = "Secret achievement"
			def.BadgeID = nil
		}
		views = append(views, AchievementView{
			Achievement: def,
			Progress:    row.Progress,
			IsCompleted: row.IsCompleted,
			UnlockedAt:  row.UnlockedAt,
		})
	}
	return views, nil
}

// CompletedAchievementIDs returns the ids the user has unlocked, oldest first.
func (e *AchievementEngine) CompletedAchievementIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := e.DB.WithContext(ctx).Model(&models.UserAchievement{}).
		Where("user_id = ? AND is_completed = ?", userID, true).
		Order("unlocked_at ASC").
		Pluck("achievement_id", &ids).Error
	return ids, err
}

// Badges returns the user's badge set in award order.
func (e *AchievementEngine) Badges(ctx context.Context, userID string) ([]string, error) {
	var badges []string
	err := e.DB.WithContext(ctx).Model(&models.UserBadge{}).
		Where("user_id = ?", userID).
		Order("awarded_at ASC, badge_id ASC").
		Pluck("badge_id", &badges).Error
	return badges, err
}

func (e *AchievementEngine) completedSet(ctx context.Context, userID string) (map[string]bool, error) {
	ids, err := e.CompletedAchievementIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// unlockLocked wraps unlock in a transaction holding the user row lock.
func (e *AchievementEngine) unlockLocked(ctx context.Context, userID string, def models.Achievement) (bool, error) {
	var unlocked bool
	err := e.tx(ctx, func(tx *gorm.DB) error {
		if _, err := lockUser(tx, userID); err != nil {
			return err
		}
		var err error
		unlocked, err = e.unlock(tx, userID, def)
		return err
	})
	if errors.Is(err, ErrUserNotFound) {
		return false, nil
	}
	return unlocked, err
}

// unlock flips is_completed on the unique (user_id, achievement_id) row with
// a conditional update. Only the caller whose update matched pays the reward.
func (e *AchievementEngine) unlock(tx *gorm.DB, userID string, def models.Achievement) (bool, error) {
	if err := ensureAchievementRow(tx, userID, def.ID); err != nil {
		return false, err
	}
	now := e.now().UTC()
	res := tx.Model(&models.UserAchievement{}).
		Where("user_id = ? AND achievement_id = ? AND is_completed = ?", userID, def.ID, false).
		Updates(map[string]any{
			"is_completed": true,
			"progress":     def.Requirement,
			"unlocked_at":  now,
		})
	if res.Error != nil {
		return false, fmt.Errorf("unlocking %s: %w", def.Code, res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	if def.PointsReward > 0 {
		if _, err := e.Ledger.award(tx, userID, def.PointsReward, models.TxAchievementUnlocked,
			fmt.Sprintf("Unlocked %s", def.Name), &def.ID); err != nil {
			return false, err
		}
	}
	if def.BadgeID != nil && *def.BadgeID != "" {
		badge := models.UserBadge{UserID: userID, BadgeID: *def.BadgeID, Source: def.Code, AwardedAt: now}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&badge).Error; err != nil {
			return false, fmt.Errorf("awarding badge %s: %w", *def.BadgeID, err)
		}
	}

	logger.Info().Str("user_id", userID).Str("achievement", def.Code).
		Int64("points", def.PointsReward).Msg("🏆 Achievement unlocked")
	return true, nil
}

// raiseProgress moves stored progress up to value, never down.
func (e *AchievementEngine) raiseProgress(ctx context.Context, userID, achievementID string, value int64) error {
	return e.tx(ctx, func(tx *gorm.DB) error {
		if err := ensureAchievementRow(tx, userID, achievementID); err != nil {
			return err
		}
		return tx.Model(&models.UserAchievement{}).
			Where("user_id = ? AND achievement_id = ? AND is_completed = ? AND progress < ?", userID, achievementID, false, value).
			Update("progress", value).Error
	})
}

// countTowards adds one to a counter-driven achievement and unlocks it once
// the requirement is met.
func (e *AchievementEngine) countTowards(ctx context.Context, userID string, def models.Achievement) (bool, error) {
	var unlocked bool
	err := e.tx(ctx, func(tx *gorm.DB) error {
		if _, err := lockUser(tx, userID); err != nil {
			return err
		}
		if err := ensureAchievementRow(tx, userID, def.ID); err != nil {
			return err
		}
		if err := tx.Model(&models.UserAchievement{}).
			Where("user_id = ? AND achievement_id = ? AND is_completed = ?", userID, def.ID, false).
			Update("progress", gorm.Expr("progress + ?", 1)).Error; err != nil {
			return err
		}
		var row models.UserAchievement
		if err := tx.Where("user_id = ? AND achievement_id = ?", userID, def.ID).First(&row).Error; err != nil {
			return err
		}
		if row.IsCompleted || row.Progress < def.Requirement {
			return nil
		}
		var err error
		unlocked, err = e.unlock(tx, userID, def)
		return err
	})
	if errors.Is(err, ErrUserNotFound) {
		return false, nil
	}
	return unlocked, err
}

func ensureAchievementRow(tx *gorm.DB, userID, achievementID string) error {
	row := models.UserAchievement{UserID: userID, AchievementID: achievementID}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("creating achievement progress: %w", err)
	}
	return nil
}
