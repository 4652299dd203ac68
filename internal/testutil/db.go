package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"sports-meetup/internal/database"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated and seeded sqlite database in a temp dir. Foreign keys
// are enforced and every transaction takes the write lock up front, so
// concurrent transactions serialize the way row locks make them on Postgres.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=10000&_txlock=immediate", path)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Discard,
		TranslateError: true,
	})
	require.NoError(t, err, "failed to connect database")

	require.NoError(t, database.Migrate(db), "failed to migrate database")
	require.NoError(t, database.Seed(db), "failed to seed database")

	t.Cleanup(func() {
		_ = database.Close(db)
	})
	return db
}

// VenueID returns the id of a seeded venue by name
func VenueID(t *testing.T, db *gorm.DB, name string) uint {
	t.Helper()

	var id uint
	err := db.Table("venues").Select("id").Where("name = ?", name).Scan(&id).Error
	require.NoError(t, err)
	require.NotZero(t, id, "venue %s not seeded", name)
	return id
}
