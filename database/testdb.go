package database

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB swaps DB for a migrated in-memory sqlite database for the
// duration of the test.
func SetupTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to open sqlite")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a fresh database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, Migrate(db), "failed to migrate schema")

	prev := DB
	DB = db
	t.Cleanup(func() {
		DB = prev
		_ = sqlDB.Close()
	})
	return db
}
