package services

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"

	"progression-engine/logger"
	"progression-engine/models"
)

// MaintenanceConfig controls the periodic jobs. A nil Archive disables the
// nightly leaderboard upload.
type MaintenanceConfig struct {
	Clock               clockwork.Clock
	Location            *time.Location
	RankRefreshInterval time.Duration
	LedgerAuditInterval time.Duration
	Archive             SnapshotStore
}

const maintenanceJobTimeout = 2 * time.Minute

// StartMaintenanceScheduler starts the rank refresh, ledger audit and
// archive jobs. Callers shut the returned scheduler down on exit.
func StartMaintenanceScheduler(e *Engine, cfg MaintenanceConfig) (gocron.Scheduler, error) {
	opts := []gocron.SchedulerOption{}
	if cfg.Clock != nil {
		opts = append(opts, gocron.WithClock(cfg.Clock))
	}
	if cfg.Location != nil {
		opts = append(opts, gocron.WithLocation(cfg.Location))
	}
	sched, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, err
	}

	if cfg.RankRefreshInterval > 0 {
		if _, err := sched.NewJob(
			gocron.DurationJob(cfg.RankRefreshInterval),
			gocron.NewTask(func() {
				ctx, cancel := context.WithTimeout(context.Background(), maintenanceJobTimeout)
				defer cancel()
				if err := e.Leaderboards.RefreshRanks(ctx); err != nil {
					logger.Error().Err(err).Msg("[Scheduler] Rank refresh failed")
				}
			}),
			gocron.WithName("rank-refresh"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		); err != nil {
			return nil, err
		}
	}

	if cfg.LedgerAuditInterval > 0 {
		if _, err := sched.NewJob(
			gocron.DurationJob(cfg.LedgerAuditInterval),
			gocron.NewTask(func() {
				ctx, cancel := context.WithTimeout(context.Background(), maintenanceJobTimeout)
				defer cancel()
				mismatches, err := e.Ledger.Audit(ctx)
				if err != nil {
					logger.Error().Err(err).Msg("[Scheduler] Ledger audit failed")
					return
				}
				for _, m := range mismatches {
					logger.Warn().Str("user_id", m.UserID).Int64("points", m.Points).
						Int64("ledger_total", m.LedgerTotal).Msg("⚠️ Points balance differs from ledger")
				}
			}),
			gocron.WithName("ledger-audit"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		); err != nil {
			return nil, err
		}
	}

	if cfg.Archive != nil {
		if _, err := sched.NewJob(
			gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 5, 0))),
			gocron.NewTask(func() {
				ctx, cancel := context.WithTimeout(context.Background(), maintenanceJobTimeout)
				defer cancel()
				n, err := e.Leaderboards.ArchiveClosedBuckets(ctx, cfg.Archive, models.PeriodDaily, e.Leaderboards.now())
				if err != nil {
					logger.Error().Err(err).Msg("[Scheduler] Leaderboard archive failed")
					return
				}
				logger.Info().Int("objects", n).Msg("✅ Daily leaderboards archived")
			}),
			gocron.WithName("leaderboard-archive"),
		); err != nil {
			return nil, err
		}
	}

	sched.Start()
	logger.Info().Int("jobs", len(sched.Jobs())).Msg("⏰ Maintenance scheduler started")
	return sched, nil
}
