package config

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"frost_dispatch/internal/models"
)

var (
	// DB is the archive database handle; nil while archiving is disabled.
	DB *gorm.DB
)

// InitDB opens the archive database and migrates the archive tables.
func InitDB(cfg DBConfig) error {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, cfg.SSLMode, cfg.TimeZone,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("connect archive database: %w", err)
	}

	if err := db.AutoMigrate(&models.LocationHistory{}, &models.AssignmentRecord{}); err != nil {
		return fmt.Errorf("archive auto-migration: %w", err)
	}

	DB = db
	return nil
}

// GetDB returns the initialized DB handle
func GetDB() *gorm.DB {
	return DB
}
