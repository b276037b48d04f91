package database

import (
	"context"
	"fmt"
	"time"

	"github.com/justsurfingit/connect-jobs/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Options struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// ReadyTimeout bounds how long Connect waits for the server to accept connections.
	ReadyTimeout time.Duration
}

// Connect opens the pool and waits until Postgres answers a ping.
func Connect(ctx context.Context, opts Options, log *logrus.Entry) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(opts.DSN), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)

	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = 30 * time.Second
	}
	deadline := time.Now().Add(opts.ReadyTimeout)
	backoff := 500 * time.Millisecond
	for {
		err := sqlDB.PingContext(ctx)
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		log.WithError(err).WithField("retry_in", backoff).Warn("postgres not ready yet")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 5*time.Second {
			backoff *= 2
		}
	}
	log.Info("database connection established")
	return db, nil
}

// Migrate creates or updates the tables, including the unique (user, job) index on applications.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Notification{},
		&models.Job{},
		&models.Application{},
		&models.OutboxMessage{},
	)
}

// Ping is the health check for the pool.
func Ping(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
