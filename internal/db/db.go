package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"agencyblog/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

type Options struct {
	DSN          string
	MaxOpenConns int
	Tracing      bool
}

// Open connects to Postgres, retrying with backoff while the database comes up.
func Open(opts Options, log *slog.Logger) (*gorm.DB, error) {
	var (
		conn *gorm.DB
		err  error
	)
	sleep := time.Second
	for attempt := 1; attempt <= 6; attempt++ {
		conn, err = gorm.Open(postgres.Open(opts.DSN), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Warn),
			TranslateError: true,
		})
		if err == nil {
			err = Ping(context.Background(), conn)
			if err == nil {
				break
			}
		}
		log.Warn("database not ready", "attempt", attempt, "error", err)
		time.Sleep(sleep)
		if sleep < 8*time.Second {
			sleep *= 2
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
		sqlDB.SetMaxIdleConns(opts.MaxOpenConns / 2)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if opts.Tracing {
		if err := conn.Use(tracing.NewPlugin()); err != nil {
			log.Warn("gorm tracing plugin not installed", "error", err)
		}
	}

	log.Info("database connection established")
	return conn, nil
}

// Migrate creates or updates the engagement tables.
func Migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&models.User{},
		&models.Comment{},
		&models.Like{},
		&models.Notification{},
	)
}

func Ping(ctx context.Context, conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}
