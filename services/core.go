package services

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"

	"progression-engine/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserExists        = errors.New("user already exists")
	ErrInvalidDifficulty = errors.New("invalid difficulty")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidChallenge  = errors.New("invalid challenge")
	ErrInvalidSettings   = errors.New("invalid game settings")
)

// Core is what every progression component is built from: the store, the
// injected game settings, a clock and the location calendar days are cut in.
type Core struct {
	DB       *gorm.DB
	Settings models.GameSettings
	Clock    clockwork.Clock
	Location *time.Location
}

// NewCore fills in a real clock and time.Local when clock or loc are nil.
func NewCore(db *gorm.DB, settings models.GameSettings, clock clockwork.Clock, loc *time.Location) Core {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if loc == nil {
		loc = time.Local
	}
	return Core{DB: db, Settings: settings, Clock: clock, Location: loc}
}

func (c Core) now() time.Time {
	return c.Clock.Now().In(c.Location)
}

// dayStart returns local midnight of the calendar day containing t.
func (c Core) dayStart(t time.Time) time.Time {
	t = t.In(c.Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.Location)
}

// dayDiff counts calendar days from a to b in the core's location,
// ignoring time of day and DST shifts.
func (c Core) dayDiff(a, b time.Time) int {
	a, b = a.In(c.Location), b.In(c.Location)
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

func (c Core) tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return c.DB.WithContext(ctx).Transaction(fn)
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
