// Package database stores the download history in SQLite through gorm
package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"github.com/justchokingaround/mangadl/internal/config"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

// DB is the global database instance
var DB *gorm.DB

// Init opens the database, applies the pragmas from cfg and migrates the
// schema. The connection is also kept in DB.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.Path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// Every connection to :memory: is a separate database
	conns := max(cfg.MaxConnections, 1)
	if cfg.Path == MemoryPath {
		conns = 1
	}
	sqlDB.SetMaxOpenConns(conns)
	sqlDB.SetMaxIdleConns(max(conns/2, 1))

	if cfg.WALMode && cfg.Path != MemoryPath {
		if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if cfg.AutoVacuum {
		if err := db.Exec("PRAGMA auto_vacuum=INCREMENTAL").Error; err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to enable auto vacuum: %w", err)
		}
	}

	if err := Migrate(db); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to run auto migrations: %w\n\n"+
			"Hint: if the database comes from an older version, delete it and try again:\n"+
			"  %s", err, cfg.Path)
	}

	DB = db
	return db, nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	DB = nil
	return sqlDB.Close()
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
