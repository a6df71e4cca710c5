package testhelpers

import (
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"interview/internal/store"
)

// SetupTestDB creates an isolated in-memory SQLite database for tests.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to open test database: %v", err))
	}
	if err := store.AutoMigrate(db); err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}
	return db
}

// FailSessionWrites blocks updates to the sessions table to force
// persistence errors. Reads keep working, so a transition can load state
// and then fail at the save.
func FailSessionWrites(t *testing.T, db *gorm.DB) {
	t.Helper()
	err := db.Exec(`CREATE TRIGGER block_session_writes
		BEFORE UPDATE ON interview_sessions
		BEGIN SELECT RAISE(ABORT, 'session writes disabled'); END`).Error
	if err != nil {
		panic(fmt.Sprintf("failed to block session writes: %v", err))
	}
}

// RestoreSessionWrites lifts FailSessionWrites.
func RestoreSessionWrites(t *testing.T, db *gorm.DB) {
	t.Helper()
	if err := db.Exec(`DROP TRIGGER IF EXISTS block_session_writes`).Error; err != nil {
		panic(fmt.Sprintf("failed to restore session writes: %v", err))
	}
}
