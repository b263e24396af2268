package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jonboulle/clockwork"

	"progression-engine/config"
	"progression-engine/database"
	"progression-engine/handlers"
	"progression-engine/logger"
	"progression-engine/middleware"
	"progression-engine/models"
	"progression-engine/services"
	"progression-engine/utils"
	"progression-engine/workers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.Env)

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL, cfg.Env)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	settings, err := services.LoadGameSettings(ctx, db, models.GameSettings{
		ExperiencePerLevel:    cfg.ExperiencePerLevel,
		ExperienceMultiplier:  cfg.ExperienceMultiplier,
		MaxLevel:              cfg.MaxLevel,
		StreakBonusThreshold:  cfg.StreakBonusThreshold,
		StreakBonusMultiplier: cfg.StreakBonusMultiplier,
		DailyPointsLimit:      cfg.DailyPointsLimit,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load game settings")
	}

	dispatcher := workers.NewDispatcher(cfg.WorkerCount, cfg.WorkerQueueSize)
	// Jobs must outlive ctx so Stop can drain the queue.
	dispatcher.Start(context.Background())

	clock := clockwork.NewRealClock()
	opts := services.Options{Clock: clock, Location: loc, Dispatcher: dispatcher}
	if cfg.RedisAddr != "" {
		if client := database.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword); client != nil {
			defer client.Close()
			opts.Cache = database.NewLeaderboardCache(client, time.Minute)
		}
	}
	engine := services.NewEngine(db, settings, opts)

	if _, err := engine.Achievements.SeedCatalog(ctx, services.DefaultCatalog()); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed achievements")
	}

	maintenance := services.MaintenanceConfig{
		Clock:               clock,
		Location:            loc,
		RankRefreshInterval: cfg.RankRefreshInterval,
		LedgerAuditInterval: cfg.LedgerAuditInterval,
	}
	if cfg.R2Enabled() {
		store, err := utils.NewR2Store(ctx, utils.R2Endpoint(cfg.R2AccountID), cfg.R2AccessKeyID, cfg.R2AccessKeySecret, cfg.R2BucketName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize R2 client")
		}
		maintenance.Archive = store
	}
	sched, err := services.StartMaintenanceScheduler(engine, maintenance)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start scheduler")
	}

	app := fiber.New(fiber.Config{
		AppName:      "progression-engine",
		ErrorHandler: handlers.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// 🔐 Everything below the health check must come from the gateway.
	app.Use(middleware.GatewayAuthMiddleware(cfg.ServiceToken))
	handlers.SetupProgressionRoutes(app, engine)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error().Err(err).Msg("Server error")
		}
	}()
	logger.Info().Str("port", cfg.Port).Str("timezone", loc.String()).Msg("✅ Progression engine running")

	<-ctx.Done()
	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP shutdown failed")
	}
	if err := sched.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("Scheduler shutdown failed")
	}
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Dispatcher shutdown failed")
	}
	if err := database.Close(db); err != nil {
		logger.Error().Err(err).Msg("Database close failed")
	}
}
