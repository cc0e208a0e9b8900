package database

import (
	"fmt"
	"time"

	"crypto-reporter/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Initialize opens the MySQL database used for the cycle audit log and
// migrates its schema.
func Initialize(databaseURL string, log *zap.SugaredLogger) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// one cycle every few minutes needs very little
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&models.CycleRun{}); err != nil {
		return nil, fmt.Errorf("failed to migrate cycle_runs: %w", err)
	}

	log.Info("Database initialized successfully")
	return db, nil
}
