package services

import (
	"time"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"

	"progression-engine/models"
)

// Options carries the optional collaborators of an Engine.
type Options struct {
	Clock      clockwork.Clock
	Location   *time.Location
	Cache      TopCache
	Dispatcher Dispatcher
}

// Engine wires every progression component around one database and one
// settings value.
type Engine struct {
	DB           *gorm.DB
	Settings     models.GameSettings
	Levels       LevelCalculator
	Users        *UserService
	Ledger       *PointsLedger
	Experience   *ExperienceService
	Streaks      *StreakTracker
	Achievements *AchievementEngine
	Leaderboards *LeaderboardService
	Challenges   *ChallengeService
	Recorder     *ActivityRecorder
	Stats        *StatsService
}

func NewEngine(db *gorm.DB, settings models.GameSettings, opts Options) *Engine {
	core := NewCore(db, settings, opts.Clock, opts.Location)

	ledger := NewPointsLedger(core)
	experience := NewExperienceService(core, ledger)
	streaks := NewStreakTracker(core, ledger)
	achievements := NewAchievementEngine(core, ledger)
	leaderboards := NewLeaderboardService(core, opts.Cache)
	challenges := NewChallengeService(core, ledger)
	users := NewUserService(core)

	return &Engine{
		DB:           db,
		Settings:     settings,
		Levels:       experience.Levels,
		Users:        users,
		Ledger:       ledger,
		Experience:   experience,
		Streaks:      streaks,
		Achievements: achievements,
		Leaderboards: leaderboards,
		Challenges:   challenges,
		Recorder: &ActivityRecorder{
			Core:         core,
			Ledger:       ledger,
			Experience:   experience,
			Streaks:      streaks,
			Achievements: achievements,
			Challenges:   challenges,
			Leaderboards: leaderboards,
			Dispatcher:   opts.Dispatcher,
		},
		Stats: &StatsService{
			Users:        users,
			Levels:       experience.Levels,
			Streaks:      streaks,
			Achievements: achievements,
			Leaderboards: leaderboards,
		},
	}
}
