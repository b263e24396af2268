package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"progression-engine/logger"
)

// Config holds everything the service reads from the environment.
type Config struct {
	Env          string `mapstructure:"APP_ENV"`
	Port         string `mapstructure:"PORT"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	ServiceToken string `mapstructure:"GAME_SERVICE_TOKEN"`
	Timezone     string `mapstructure:"TIMEZONE"`

	// Background work
	WorkerCount         int           `mapstructure:"WORKER_COUNT"`
	WorkerQueueSize     int           `mapstructure:"WORKER_QUEUE_SIZE"`
	RankRefreshInterval time.Duration `mapstructure:"RANK_REFRESH_INTERVAL"`
	LedgerAuditInterval time.Duration `mapstructure:"LEDGER_AUDIT_INTERVAL"`

	// Optional leaderboard cache
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	// Optional leaderboard archive (Cloudflare R2)
	R2AccountID       string `mapstructure:"CLOUDFLARE_ACCOUNT_ID"`
	R2AccessKeyID     string `mapstructure:"R2_ACCESS_KEY_ID"`
	R2AccessKeySecret string `mapstructure:"R2_ACCESS_KEY_SECRET"`
	R2BucketName      string `mapstructure:"R2_BUCKET_NAME"`

	// GameSettings used when the singleton row does not exist yet
	ExperiencePerLevel    int64   `mapstructure:"EXPERIENCE_PER_LEVEL"`
	ExperienceMultiplier  float64 `mapstructure:"EXPERIENCE_MULTIPLIER"`
	MaxLevel              int     `mapstructure:"MAX_LEVEL"`
	StreakBonusThreshold  int     `mapstructure:"STREAK_BONUS_THRESHOLD"`
	StreakBonusMultiplier float64 `mapstructure:"STREAK_BONUS_MULTIPLIER"`
	DailyPointsLimit      int64   `mapstructure:"DAILY_POINTS_LIMIT"`
}

var defaults = map[string]any{
	"APP_ENV":                 "production",
	"PORT":                    "5200",
	"DATABASE_URL":            "",
	"GAME_SERVICE_TOKEN":      "",
	"TIMEZONE":                "Local",
	"WORKER_COUNT":            4,
	"WORKER_QUEUE_SIZE":       1024,
	"RANK_REFRESH_INTERVAL":   "5m",
	"LEDGER_AUDIT_INTERVAL":   "1h",
	"REDIS_ADDR":              "",
	"REDIS_PASSWORD":          "",
	"CLOUDFLARE_ACCOUNT_ID":   "",
	"R2_ACCESS_KEY_ID":        "",
	"R2_ACCESS_KEY_SECRET":    "",
	"R2_BUCKET_NAME":          "",
	"EXPERIENCE_PER_LEVEL":    100,
	"EXPERIENCE_MULTIPLIER":   1.5,
	"MAX_LEVEL":               100,
	"STREAK_BONUS_THRESHOLD":  7,
	"STREAK_BONUS_MULTIPLIER": 1.5,
	"DAILY_POINTS_LIMIT":      1000,
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  No .env file found, reading environment variables directly")
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings the HTTP service cannot start without.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable not set")
	}
	if c.ServiceToken == "" {
		return fmt.Errorf("GAME_SERVICE_TOKEN environment variable not set")
	}
	return nil
}

// Location resolves TIMEZONE. Calendar days for streaks and leaderboard
// periods are computed in this location.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2AccessKeySecret != "" && c.R2BucketName != ""
}
