package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"Mansoor88-6/session-tracker/internal/config"
	"Mansoor88-6/session-tracker/internal/database"
)

// Open connects the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		db, err := database.New(cfg.Path, logger)
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(db), nil
	case config.DriverRedis:
		client, err := database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		logger.Info("Redis store connected", zap.String("prefix", cfg.KeyPrefix))
		return NewRedisStore(client, cfg.KeyPrefix), nil
	case config.DriverPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("Postgres store connected")
		return NewPostgresStore(pool), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
