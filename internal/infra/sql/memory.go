package sql

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewMemoryORM opens a named sqlite database that lives only in memory.
// Connections opened with the same name share the data; it is gone once the
// last connection closes.
func NewMemoryORM(name string, timeout time.Duration) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite in-memory db: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sqlite connection pool: %w", err)
	}
	// sqlite serializes writers anyway; one connection avoids table locks
	sqlDB.SetMaxOpenConns(1)

	return &DB{DB: gormDB, system: "sqlite", timeout: timeout}, nil
}
