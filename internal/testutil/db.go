// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/venuebook/internal/database"
	"github.com/example/venuebook/internal/models"
)

// TestDB returns a migrated in-memory SQLite database that lives for the
// duration of the test.
func TestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("test database handle: %v", err)
	}
	// Every connection to :memory: is a separate database.
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

// Clock is a settable time source.
type Clock struct {
	t time.Time
}

// NewClock returns a clock fixed at t (in UTC).
func NewClock(t time.Time) *Clock {
	return &Clock{t: t.UTC()}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	return c.t
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

// Address returns a valid venue address.
func Address() models.Address {
	return models.Address{
		Line1:   "12 MG Road",
		Line2:   "Near Metro Station",
		City:    "Bengaluru",
		State:   "Karnataka",
		PinCode: "560001",
	}
}
