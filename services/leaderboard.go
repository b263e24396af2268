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

// MaxTop is the largest page Top serves and the size of a cached bucket.
const MaxTop = 100

var (
	allTimeStart = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	allTimeEnd   = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
)

// TopCache caches the ranked head of a bucket. Implementations must be safe
// for concurrent use; a miss is never an error.
type TopCache interface {
	Get(ctx context.Context, key string) ([]models.LeaderboardEntry, bool)
	Set(ctx context.Context, key string, entries []models.LeaderboardEntry)
	Invalidate(ctx context.Context, key string)
}

// SnapshotStore receives archived leaderboard buckets.
type SnapshotStore interface {
	PutJSON(ctx context.Context, key string, v any) error
}

// Snapshot is the archived form of one closed bucket.
type Snapshot struct {
	LeaderboardType models.LeaderboardType    `json:"leaderboard_type"`
	Period          models.Period             `json:"period"`
	PeriodStart     time.Time                 `json:"period_start"`
	PeriodEnd       time.Time                 `json:"period_end"`
	GeneratedAt     time.Time                 `json:"generated_at"`
	Entries         []models.LeaderboardEntry `json:"entries"`
}

type LeaderboardService struct {
	Core
	Cache TopCache // optional
}

func NewLeaderboardService(core Core, cache TopCache) *LeaderboardService {
	return &LeaderboardService{Core: core, Cache: cache}
}

// PeriodBounds returns the [start, end) bucket of period containing t, cut in
// the service location and returned in UTC. Weeks start on Sunday.
func (s *LeaderboardService) PeriodBounds(period models.Period, t time.Time) (time.Time, time.Time) {
	day := s.dayStart(t)
	switch period {
	case models.PeriodDaily:
		return day.UTC(), day.AddDate(0, 0, 1).UTC()
	case models.PeriodWeekly:
		start := day.AddDate(0, 0, -int(day.Weekday()))
		return start.UTC(), start.AddDate(0, 0, 7).UTC()
	case models.PeriodMonthly:
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, s.Location)
		return start.UTC(), start.AddDate(0, 1, 0).UTC()
	default:
		return allTimeStart, allTimeEnd
	}
}

// UpdateLeaderboard adds delta to the user's score in the current bucket of
// every period and re-ranks those buckets. Unknown users are a no-op.
func (s *LeaderboardService) UpdateLeaderboard(ctx context.Context, userID string, lbType models.LeaderboardType, delta int64) error {
	if delta == 0 {
		return nil
	}
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return nil
	}

	now := s.now()
	var errs []error
	for _, period := range models.Periods {
		start, end := s.PeriodBounds(period, now)
		if err := s.upsert(ctx, userID, lbType, period, start, end, delta); err != nil {
			errs = append(errs, fmt.Errorf("%s/%s: %w", lbType, period, err))
			continue
		}
		if err := s.rerank(ctx, lbType, period, start); err != nil {
			errs = append(errs, fmt.Errorf("ranking %s/%s: %w", lbType, period, err))
		}
	}
	return errors.Join(errs...)
}

func (s *LeaderboardService) upsert(ctx context.Context, userID string, lbType models.LeaderboardType, period models.Period, start, end time.Time, delta int64) error {
	entry := models.LeaderboardEntry{
		UserID:          userID,
		LeaderboardType: lbType,
		Period:          period,
		PeriodStart:     start,
		PeriodEnd:       end,
		Score:           delta,
	}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "leaderboard_type"}, {Name: "period"}, {Name: "period_start"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"score":      gorm.Expr("leaderboard_entries.score + ?", delta),
			"updated_at": s.now().UTC(),
		}),
	}).Create(&entry).Error
}

// rerank assigns ranks 1..N by score, earliest entry first on ties. It only
// writes rows whose rank changed.
func (s *LeaderboardService) rerank(ctx context.Context, lbType models.LeaderboardType, period models.Period, start time.Time) error {
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var entries []models.LeaderboardEntry
		if err := tx.Select("id", "rank").
			Where("leaderboard_type = ? AND period = ? AND period_start = ?", lbType, period, start).
			Order("score DESC, created_at ASC, id ASC").
			Find(&entries).Error; err != nil {
			return err
		}
		for i, e := range entries {
			rank := i + 1
			if e.Rank == rank {
				continue
			}
			if err := tx.Model(&models.LeaderboardEntry{}).Where("id = ?", e.ID).
				UpdateColumn("rank", rank).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil && s.Cache != nil {
		s.Cache.Invalidate(ctx, bucketKey(lbType, period, start))
	}
	return err
}

// Top returns the current bucket's entries with rank <= n.
func (s *LeaderboardService) Top(ctx context.Context, lbType models.LeaderboardType, period models.Period, n int) ([]models.LeaderboardEntry, error) {
	if n <= 0 || n > MaxTop {
		n = 10
	}
	start, _ := s.PeriodBounds(period, s.now())
	key := bucketKey(lbType, period, start)

	entries, ok := []models.LeaderboardEntry(nil), false
	if s.Cache != nil {
		entries, ok = s.Cache.Get(ctx, key)
	}
	if !ok {
		if err := s.DB.WithContext(ctx).
			Where("leaderboard_type = ? AND period = ? AND period_start = ? AND rank BETWEEN 1 AND ?", lbType, period, start, MaxTop).
			Order("rank ASC").
			Find(&entries).Error; err != nil {
			return nil, err
		}
		if s.Cache != nil {
			s.Cache.Set(ctx, key, entries)
		}
	}

	top := make([]models.LeaderboardEntry, 0, n)
	for _, e := range entries {
		if e.Rank <= n {
			top = append(top, e)
		}
	}
	return top, nil
}

// UserRank returns the user's entry in the current bucket, or nil.
func (s *LeaderboardService) UserRank(ctx context.Context, userID string, lbType models.LeaderboardType, period models.Period) (*models.LeaderboardEntry, error) {
	start, _ := s.PeriodBounds(period, s.now())
	var entry models.LeaderboardEntry
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND leaderboard_type = ? AND period = ? AND period_start = ?", userID, lbType, period, start).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// RefreshRanks re-ranks the current bucket of every type and period.
func (s *LeaderboardService) RefreshRanks(ctx context.Context) error {
	now := s.now()
	var errs []error
	for _, lbType := range models.LeaderboardTypes {
		for _, period := range models.Periods {
			start, _ := s.PeriodBounds(period, now)
			if err := s.rerank(ctx, lbType, period, start); err != nil {
				errs = append(errs, fmt.Errorf("%s/%s: %w", lbType, period, err))
			}
		}
	}
	return errors.Join(errs...)
}

// ArchiveClosedBuckets uploads the bucket of period that ended most recently
// before t, one object per leaderboard type. It returns the number of
// objects written. ALL_TIME never closes.
func (s *LeaderboardService) ArchiveClosedBuckets(ctx context.Context, store SnapshotStore, period models.Period, t time.Time) (int, error) {
	if period == models.PeriodAllTime {
		return 0, nil
	}
	current, _ := s.PeriodBounds(period, t)
	start, end := s.PeriodBounds(period, current.Add(-time.Nanosecond))

	written := 0
	for _, lbType := range models.LeaderboardTypes {
		var entries []models.LeaderboardEntry
		if err := s.DB.WithContext(ctx).
			Where("leaderboard_type = ? AND period = ? AND period_start = ?", lbType, period, start).
			Order("rank ASC, score DESC").
			Find(&entries).Error; err != nil {
			return written, err
		}
		if len(entries) == 0 {
			continue
		}
		key := fmt.Sprintf("leaderboards/%s/%s/%s.json",
			period, lbType, start.In(s.Location).Format("2006-01-02"))
		snap := Snapshot{
			LeaderboardType: lbType,
			Period:          period,
			PeriodStart:     start,
			PeriodEnd:       end,
			GeneratedAt:     s.now().UTC(),
			Entries:         entries,
		}
		if err := store.PutJSON(ctx, key, snap); err != nil {
			return written, fmt.Errorf("archiving %s: %w", key, err)
		}
		written++
		logger.Info().Str("key", key).Int("entries", len(entries)).Msg("📦 Leaderboard bucket archived")
	}
	return written, nil
}

func bucketKey(lbType models.LeaderboardType, period models.Period, start time.Time) string {
	return fmt.Sprintf("leaderboard:%s:%s:%d", lbType, period, start.Unix())
}
