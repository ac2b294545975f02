// Package testutil opens throwaway databases for repository tests.
package testutil

import (
	"fmt"

	"github.com/frahmantamala/store-auth/internal/core/datamodel"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenSQLite returns an in-memory database with the full schema, exposed
// through both gorm and sqlx. A single connection keeps the in-memory
// database alive and shared.
func OpenSQLite() (*gorm.DB, *sqlx.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(datamodel.Models()...); err != nil {
		return nil, nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return db, sqlx.NewDb(sqlDB, sqlite.DriverName), nil
}

// Close releases the connection behind db.
func Close(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
