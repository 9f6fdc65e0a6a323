// Package testutil builds throwaway databases that share the production gorm
// configuration, so error translation matches the MySQL pools.
package testutil

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"cims/internal/db"
	"cims/internal/model"
)

// CIMSModels are the tables of the CIMS database.
var CIMSModels = model.CIMSTables()

// ProjectModels are the tables of the Project database.
var ProjectModels = model.ProjectTables()

// NewSQLite opens a private in-memory database migrated with models.
// The pool is pinned to one connection because every new connection to
// ":memory:" would see an empty database.
func NewSQLite(t *testing.T, models ...interface{}) *gorm.DB {
	t.Helper()

	cfg := db.NewGormConfig()
	cfg.DisableForeignKeyConstraintWhenMigrating = true

	gdb, err := gorm.Open(sqlite.Open(":memory:"), cfg)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sqlite pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := gdb.AutoMigrate(models...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return gdb
}

// NewProvider returns a Provider backed by two independent in-memory databases.
func NewProvider(t *testing.T) *db.Provider {
	t.Helper()
	return &db.Provider{
		CIMS:    NewSQLite(t, CIMSModels...),
		Project: NewSQLite(t, ProjectModels...),
	}
}

// Closed returns a database whose pool has been closed, standing in for an
// unreachable server.
func Closed(t *testing.T, models ...interface{}) *gorm.DB {
	t.Helper()
	gdb := NewSQLite(t, models...)
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sqlite pool: %v", err)
	}
	_ = sqlDB.Close()
	return gdb
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
