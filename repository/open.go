package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"saferoute-api/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns the repository selected by cfg.Driver and a function that
// releases it.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (Repository, func() error, error) {
	if cfg.Driver == "memory" {
		log.Warn("using in-memory repository, data is lost on exit")
		return NewMemoryRepository(), func() error { return nil }, nil
	}

	db, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("get sql db handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	log.Info("database connected", "host", cfg.Host, "name", cfg.Name)
	return NewGormRepository(db), sqlDB.Close, nil
}
