package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gtm9/remi-ai-v1/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New creates a GORM database connection.
// When databaseURL is provided PostgreSQL is used, otherwise SQLite at sqlitePath.
func New(databaseURL, sqlitePath string, log *slog.Logger) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	if databaseURL != "" {
		db, err = gorm.Open(postgres.Open(databaseURL), gormConfig)
	} else {
		db, err = gorm.Open(sqlite.Open(sqlitePath), gormConfig)
	}
	if err != nil {
		return nil, fmt.Errorf("database: open: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	logBackend(db, log)
	return db, nil
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.Reminder{}); err != nil {
		return fmt.Errorf("database: migrate: %w", err)
	}
	return nil
}

// Pinger adapts a gorm connection for health checks.
type Pinger struct {
	DB *gorm.DB
}

// Ping checks the underlying connection.
func (p Pinger) Ping(ctx context.Context) error {
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func logBackend(db *gorm.DB, log *slog.Logger) {
	dialector := db.Dialector.Name()
	switch strings.ToLower(dialector) {
	case "postgres":
		log.Info("database: connected to PostgreSQL")
	case "sqlite":
		log.Info("database: using SQLite")
	default:
		log.Info("database: connected", slog.String("dialector", dialector))
	}
}
