package storage

import (
	"context"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type SQLiteStorage struct {
	Connection *gorm.DB
}

// NewSQLiteStorage opens the database behind a single connection, so every
// transaction is serialized and foreign keys stay enabled for the session.
func NewSQLiteStorage(ctx context.Context, path string) (*SQLiteStorage, error) {
	conn, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("can't open database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("can't get database handle: %w", err)
	}

	sqlDB.SetMaxOpenConns(1)

	if err = sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("can't connect to database: %w", err)
	}

	if err = conn.WithContext(ctx).Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("can't enable foreign keys: %w", err)
	}

	return &SQLiteStorage{Connection: conn}, nil
}

func (that *SQLiteStorage) Close() error {
	sqlDB, err := that.Connection.DB()
	if err != nil {
		return fmt.Errorf("can't get database handle: %w", err)
	}

	if err = sqlDB.Close(); err != nil {
		return fmt.Errorf("can't close database: %w", err)
	}

	return nil
}
