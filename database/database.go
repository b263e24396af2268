// database/database.go - PostgreSQL connection and schema
package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"progression-engine/logger"
	"progression-engine/models"
)

// Connect opens the PostgreSQL pool. Query logging is only enabled in development.
func Connect(dsn, env string) (*gorm.DB, error) {
	level := gormlogger.Silent
	if env == "development" {
		level = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	logger.Info().Msg("✅ PostgreSQL database connected")
	return db, nil
}

// Models lists every table the engine owns, in creation order.
func Models() []any {
	return []any{
		&models.User{},
		&models.PointTransaction{},
		&models.Achievement{},
		&models.UserAchievement{},
		&models.UserBadge{},
		&models.UserStreak{},
		&models.LeaderboardEntry{},
		&models.GameSettings{},
		&models.Challenge{},
		&models.UserChallenge{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	logger.Info().Msg("✅ Database migrated")
	return nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
