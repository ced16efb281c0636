package sqlitedb

import (
	"fmt"
	"sync/atomic"
	"testing"

	"realestate-lifecycle/internal/infrastructure/db"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var seq atomic.Int64

// Open returns a private in-memory sqlite database opened the same way as production
// (translated errors, UTC clock). One connection only, so every statement sees the same memory DB.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:lifecycle_test_%d?mode=memory&cache=shared", seq.Add(1))
	gdb, err := db.OpenGormWithDialector(sqlite.Open(dsn))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return gdb
}
