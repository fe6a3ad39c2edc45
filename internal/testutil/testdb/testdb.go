package testdb

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"landq-backend/internal/adapter/repository/ledger"
)

// Open returns a migrated in-memory ledger. The pool is pinned to one
// connection so every goroutine in a test sees the same database and
// transactions queue the way row locks would on a server database.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := ledger.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
