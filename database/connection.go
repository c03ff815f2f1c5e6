package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/pulsefit/fitcrm-backend/internal/config"
	"github.com/pulsefit/fitcrm-backend/internal/logger"
)

var DB *gorm.DB

// Connect opens the Postgres connection and stores it in the package-level DB.
func Connect(cfg *config.AppConfig) error {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost, cfg.DBUser, cfg.DBPass, cfg.DBName, cfg.DBPort)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"host": cfg.DBHost,
		"db":   cfg.DBName,
	}).Info("Database connected")
	return nil
}
