package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Migrator is implemented by every package owning tables.
type Migrator func(db *gorm.DB) error

// Migrate runs the migrators in order and stops at the first failure.
func Migrate(ctx context.Context, db *gorm.DB, migrators ...Migrator) error {
	tx := db.WithContext(ctx)
	for i, m := range migrators {
		if err := m(tx); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

// Ping checks that the pool can reach the database.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
