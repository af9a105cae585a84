package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/openmakers/badgegate/pkg/logger"
)

// DefaultSlowQueryThreshold flags queries on the decision path that take longer than this.
const DefaultSlowQueryThreshold = 200 * time.Millisecond

// zapWriter forwards GORM log lines to the "database" zap logger.
type zapWriter struct {
	log *zap.SugaredLogger
}

func (w zapWriter) Printf(format string, args ...interface{}) {
	w.log.Warnf(format, args...)
}

func gormConfig(cfg Config) *gorm.Config {
	threshold := cfg.SlowQueryThreshold
	if threshold <= 0 {
		threshold = DefaultSlowQueryThreshold
	}
	return &gorm.Config{
		Logger: gormlogger.New(
			zapWriter{log: logger.WithModule("database").Sugar()},
			gormlogger.Config{
				SlowThreshold:             threshold,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: true,
				ParameterizedQueries:      true,
			},
		),
	}
}

// configurePool applies the connection limits. Zero values keep the driver defaults.
func configurePool(db *gorm.DB, cfg Config) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("database: connection pool: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return nil
}
