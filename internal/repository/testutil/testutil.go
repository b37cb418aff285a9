// Package testutil opens throwaway databases for repository and service tests.
package testutil

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/JonnyWalker81/restock/backend/internal/config"
	"github.com/JonnyWalker81/restock/backend/internal/repository"
)

// DB returns a migrated sqlite database in a per-test temp directory. It is
// closed when the test ends.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := filepath.Join(tb.TempDir(), "restock.db") + "?_busy_timeout=5000"
	db, err := repository.Open(config.DatabaseConfig{Driver: "sqlite", DSN: dsn, LogLevel: "silent"})
	if err != nil {
		tb.Fatalf("failed to open test db: %v", err)
	}
	if err := repository.Migrate(db); err != nil {
		tb.Fatalf("failed to migrate test db: %v", err)
	}
	tb.Cleanup(func() {
		_ = repository.Close(db)
	})
	return db
}
