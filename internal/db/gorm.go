package db

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/track-connections/connect-back/internal/config"
)

func NewGormClient(cfg *config.Config) (*gorm.DB, error) {
	newLogger := logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Info,
		Colorful:                  true,
		IgnoreRecordNotFoundError: false,
	})

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode)
	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	if err := Migrate(conn); err != nil {
		return nil, err
	}

	return conn, nil
}

// Migrate is shared with the service tests, which run the same schema on
// sqlite instead of postgres.
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(&User{}); err != nil {
		return errors.Wrap(err, "migrate user")
	}
	if err := conn.AutoMigrate(&Contact{}); err != nil {
		return errors.Wrap(err, "migrate contact")
	}
	if err := conn.AutoMigrate(&LogEntry{}); err != nil {
		return errors.Wrap(err, "migrate log entry")
	}
	if err := conn.AutoMigrate(&Tag{}); err != nil {
		return errors.Wrap(err, "migrate tag")
	}
	if err := conn.AutoMigrate(&LogEntryTag{}); err != nil {
		return errors.Wrap(err, "migrate log entry tag")
	}
	if err := conn.AutoMigrate(&Media{}); err != nil {
		return errors.Wrap(err, "migrate media")
	}
	if err := conn.AutoMigrate(&MessageTemplate{}); err != nil {
		return errors.Wrap(err, "migrate message template")
	}
	return nil
}
