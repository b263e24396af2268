package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"progression-engine/database"
	"progression-engine/models"
)

// wednesdayNoon is a plain weekday, far from any day boundary.
var wednesdayNoon = time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.Models()...))
	return db
}

type testEnv struct {
	db     *gorm.DB
	clock  *clockwork.FakeClock
	engine *Engine
}

func newTestEnv(t *testing.T, mutate ...func(*models.GameSettings)) *testEnv {
	t.Helper()
	settings := models.DefaultGameSettings()
	for _, m := range mutate {
		m(&settings)
	}
	db := newTestDB(t)
	clock := clockwork.NewFakeClockAt(wednesdayNoon)
	engine := NewEngine(db, settings, Options{Clock: clock, Location: time.UTC})
	return &testEnv{db: db, clock: clock, engine: engine}
}

func (e *testEnv) createUser(t *testing.T, id string) *models.User {
	t.Helper()
	user, err := e.engine.Users.CreateUser(context.Background(), id, id)
	require.NoError(t, err)
	return user
}

func (e *testEnv) reload(t *testing.T, id string) models.User {
	t.Helper()
	var user models.User
	require.NoError(t, e.db.First(&user, "id = ?", id).Error)
	return user
}

func (e *testEnv) ledgerSum(t *testing.T, id string) int64 {
	t.Helper()
	var sum int64
	require.NoError(t, e.db.Model(&models.PointTransaction{}).
		Select("COALESCE(SUM(points), 0)").Where("user_id = ?", id).Scan(&sum).Error)
	return sum
}

func (e *testEnv) transactions(t *testing.T, id string, txType models.TransactionType) []models.PointTransaction {
	t.Helper()
	var txs []models.PointTransaction
	require.NoError(t, e.db.Where("user_id = ? AND type = ?", id, txType).Order("created_at").Find(&txs).Error)
	return txs
}

func (e *testEnv) seed(t *testing.T, defs ...models.Achievement) map[string]models.Achievement {
	t.Helper()
	_, err := e.engine.Achievements.SeedCatalog(context.Background(), defs)
	require.NoError(t, err)
	var stored []models.Achievement
	require.NoError(t, e.db.Find(&stored).Error)
	byCode := make(map[string]models.Achievement, len(stored))
	for _, a := range stored {
		byCode[a.Code] = a
	}
	return byCode
}

func catalogEntry(t *testing.T, name string) models.Achievement {
	t.Helper()
	for _, def := range DefaultCatalog() {
		if def.Name == name {
			return def
		}
	}
	t.Fatalf("no catalog entry named %q", name)
	return models.Achievement{}
}
