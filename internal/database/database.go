package database

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	approvalmodel "github.com/OpenKinder/kinder/internal/approval/model"
	canteenmodel "github.com/OpenKinder/kinder/internal/canteen/model"
	"github.com/OpenKinder/kinder/internal/config"
	directorymodel "github.com/OpenKinder/kinder/internal/directory/model"
	formmodel "github.com/OpenKinder/kinder/internal/form/model"
)

// New creates a new database connection using the provided configuration
func New(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config cannot be nil")
	}

	// Configure GORM logger
	gormLogger := logger.Default.LogMode(logger.Info)

	// Open database connection
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL database to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxConnLifetimeSeconds) * time.Second)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("database connection established",
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.Name,
	)

	return db, nil
}

// AutoMigrate creates or updates the database schema for all registered models.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database is nil")
	}

	err := db.AutoMigrate(
		&directorymodel.User{},
		&directorymodel.Role{},
		&directorymodel.Position{},
		&directorymodel.UserRole{},
		&directorymodel.UserPosition{},
		&formmodel.FormTemplate{},
		&approvalmodel.ApprovalFlow{},
		&approvalmodel.ApprovalNode{},
		&approvalmodel.Submission{},
		&approvalmodel.ApprovalRecord{},
		&canteenmodel.SupplierCategory{},
		&canteenmodel.Ingredient{},
		&canteenmodel.Dish{},
		&canteenmodel.DishIngredient{},
		&canteenmodel.Menu{},
		&canteenmodel.MenuSlot{},
		&canteenmodel.Class{},
		&canteenmodel.Student{},
		&canteenmodel.PurchasePlan{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	slog.Info("database connection closed")
	return nil
}

// HealthCheck performs a health check on the database connection
func HealthCheck(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database is nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}
