// Package dbtest поднимает временную sqlite-базу с полной схемой для тестов.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/db"
	"github.com/Leganyst/clinic-booking/internal/model"
)

// New открывает sqlite-файл во временном каталоге теста и мигрирует схему.
// Файл, а не :memory:, нужен, чтобы несколько соединений пула видели одну базу.
func New(tb testing.TB) *gorm.DB {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "clinic.db")
	gdb, err := db.OpenSQLite(path, zerolog.Nop())
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	if err := model.AutoMigrate(gdb); err != nil {
		tb.Fatalf("automigrate: %v", err)
	}

	tb.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}
