package app

import (
	"context"

	"github.com/vanshpatelx/Opinex/internal/config"
	"github.com/vanshpatelx/Opinex/internal/db"
	"github.com/vanshpatelx/Opinex/internal/logger"
	"github.com/vanshpatelx/Opinex/internal/redis"
)

// Infra holds the process-wide connection singletons, constructed once
// here and injected into components. Nothing reaches for them globally.
type Infra struct {
	DB    *db.DB
	Redis *redis.Client
}

func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	database, err := db.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	if err := db.RunAccountsMigration(ctx, database.DB); err != nil {
		return nil, err
	}

	logger.Info("database ready", nil)

	redisClient, err := redis.New(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return nil, err
	}

	logger.Info("redis ready", nil)

	return &Infra{
		DB:    database,
		Redis: redisClient,
	}, nil
}
