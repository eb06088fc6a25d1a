// Package testdb opens an in-memory SQLite database carrying the service
// schema, for repository and usecase tests.
package testdb

import (
	"testing"

	"loan-service/internal/domain/application"
	"loan-service/internal/domain/document"
	"loan-service/internal/domain/loan"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a fresh database. The pool is pinned to one connection since
// every new :memory: connection is a separate empty database.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
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

	if err := db.AutoMigrate(
		&loan.Loan{},
		&loan.Sequence{},
		&document.Document{},
		&application.Application{},
	); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}
