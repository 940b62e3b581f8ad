// Package logging builds the zap loggers shared by the server, the storage
// layer and the CLI.
package logging

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"

	"github.com/emilythestrangee/recipe-votes/backend/internal/config"
)

// New returns a logger for the given config. Format "console" selects the
// human readable development encoder; anything else logs JSON.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	return zc.Build()
}

// GormLogger adapts a zap logger to GORM's logger interface. Slow queries and
// errors are reported at warn level; record-not-found is not an error here.
func GormLogger(logger *zap.Logger, slowThreshold time.Duration) gormlogger.Interface {
	std, err := zap.NewStdLogAt(logger.Named("gorm"), zapcore.WarnLevel)
	if err != nil {
		std = zap.NewStdLog(logger.Named("gorm"))
	}

	return gormlogger.New(
		std,
		gormlogger.Config{
			SlowThreshold:             slowThreshold,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
