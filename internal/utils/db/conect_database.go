package db

import (
	"context"
	"fmt"

	"github.com/dealdesk/api-deals/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectDataBase opens the postgres pool. Credentials come from the config
// when both are set, otherwise from AWS Secrets Manager.
func ConnectDataBase(ctx context.Context, cfg config.Database) (*gorm.DB, error) {
	var sslMode string
	if cfg.SSLModeDisable {
		sslMode = " sslmode=disable"
	}
	username, password, err := retrieveCredentials(ctx, cfg)
	if err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d%s",
		cfg.Host, username, password, cfg.Name, cfg.Port, sslMode)
	database, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres %s/%s: %w", cfg.Host, cfg.Name, err)
	}
	return database, nil
}
