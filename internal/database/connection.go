// internal/database/connection.go
package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javajoker/storefront/internal/config"
	"github.com/javajoker/storefront/internal/models"
)

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel(cfg.LogLevel)),
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"host":     cfg.Host,
		"database": cfg.Database,
	}).Info("Database connection established")
	return db, nil
}

func logLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	} else {
		logrus.Info("Database connection closed")
	}
}

// RunMigrations creates the session storage and order archive tables.
func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations...")

	if err := db.AutoMigrate(&models.StorageEntry{}, &models.OrderRecord{}, &models.OrderLineRecord{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_storefront_storage_updated_at ON storefront_storage(updated_at)",
	}
	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			logrus.WithError(err).WithField("index", index).Warn("Failed to create index")
		}
	}

	logrus.Info("Database migrations completed")
	return nil
}
