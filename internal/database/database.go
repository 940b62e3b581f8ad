package database

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/emilythestrangee/recipe-votes/backend/internal/config"
	"github.com/emilythestrangee/recipe-votes/backend/internal/logging"
	"github.com/emilythestrangee/recipe-votes/backend/internal/models"
)

// Database owns the process-wide connection pool. It is opened once at start
// up and handed to every component that needs storage.
type Database struct {
	db     *gorm.DB
	name   string
	logger *zap.Logger
}

// New opens the connection pool and waits for the server to answer a ping,
// retrying with exponential backoff up to cfg.ConnectRetries times.
func New(ctx context.Context, cfg config.DBConfig, logger *zap.Logger) (*Database, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:               logging.GormLogger(logger, cfg.SlowThreshold),
		TranslateError:       true,
		DisableAutomaticPing: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("error getting database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(500*time.Millisecond),
		backoff.WithMaxInterval(5*time.Second),
		backoff.WithMaxElapsedTime(cfg.ConnectTimeout),
	), cfg.ConnectRetries)

	ping := func() error {
		return sqlDB.PingContext(ctx)
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn("Database not ready, retrying",
			zap.Error(err),
			zap.Duration("wait", wait),
		)
	}

	if err := backoff.RetryNotify(ping, backoff.WithContext(b, ctx), notify); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	logger.Info("Database connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Name),
	)

	return &Database{db: db, name: cfg.Name, logger: logger}, nil
}

// Wrap adopts an already opened GORM handle, as the integration tests do.
func Wrap(db *gorm.DB, logger *zap.Logger) *Database {
	return &Database{db: db, logger: logger}
}

// GetDB returns the GORM handle.
func (d *Database) GetDB() *gorm.DB {
	return d.db
}

// Migrate creates or updates the tables the vote engine relies on, including
// the unique (recipe_id, voter_id) index on the ledger.
func (d *Database) Migrate(ctx context.Context) error {
	err := d.db.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Recipe{},
		&models.Vote{},
	)
	if err != nil {
		return fmt.Errorf("error migrating database: %w", err)
	}

	d.logger.Info("Database migrations completed")
	return nil
}

// Health checks the health of the database connection by pinging the database.
func (d *Database) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	stats := make(map[string]string)

	sqlDB, err := d.db.DB()
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db error: %v", err)
		return stats
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"

	dbStats := sqlDB.Stats()
	stats["open_connections"] = fmt.Sprintf("%d", dbStats.OpenConnections)
	stats["in_use"] = fmt.Sprintf("%d", dbStats.InUse)
	stats["idle"] = fmt.Sprintf("%d", dbStats.Idle)

	return stats
}

// Close closes the database connection.
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}

	d.logger.Info("Disconnected from database", zap.String("database", d.name))
	return sqlDB.Close()
}
