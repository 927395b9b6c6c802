package database

import (
	"errors"
	"fmt"

	"risk-calculator-go/internal/config"
	"risk-calculator-go/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the configured database and migrates the schema.
func NewDatabase(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "", "sqlite":
		dialector = sqlite.Open(cfg.Database.DSN)
	case "postgres", "postgresql":
		dialector = postgres.Open(cfg.Database.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.Database.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(cfg.Database.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := AutoMigrate(db, &cfg.Subscription); err != nil {
		return nil, err
	}

	return db, nil
}

// AutoMigrate creates or updates the tables and seeds the app control row.
// Existing data is kept.
func AutoMigrate(db *gorm.DB, sub *config.Subscription) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.UserSettings{},
		&models.UserSubscription{},
		&models.CalculationHistory{},
		&models.DeviceSubscription{},
		&models.AppControl{},
		&models.StockData{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	var control models.AppControl
	err = db.First(&control).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		control = models.AppControl{
			Version:         sub.Version,
			MaintenanceMode: sub.MaintenanceMode,
			ForcePayment:    sub.ForcePayment,
			Message:         sub.Message,
		}
		if err := db.Create(&control).Error; err != nil {
			return fmt.Errorf("failed to seed app control: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load app control: %w", err)
	}
	return nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return logger.Silent
	}
}
