package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/vanshpatelx/Opinex/internal/account"
	"github.com/vanshpatelx/Opinex/internal/config"
	"github.com/vanshpatelx/Opinex/internal/db"
	"github.com/vanshpatelx/Opinex/internal/logger"
	"github.com/vanshpatelx/Opinex/internal/pubsub"
)

// The consumer is the only writer of durable account rows. It drains
// the registration queue and applies each event idempotently.
func main() {
	logger.Init()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", map[string]any{
			"error": err.Error(),
		})
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	database, err := db.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("failed to connect to database", map[string]any{
			"error": err.Error(),
		})
	}
	defer database.Close()

	if err := db.RunAccountsMigration(ctx, database.DB); err != nil {
		logger.Fatal("failed to run migration", map[string]any{
			"error": err.Error(),
		})
	}

	logger.Info("database ready", nil)

	repo := account.NewPostgresRepository(database)
	consumer := pubsub.NewConsumer(cfg.BrokerURL, cfg.AuthExchange, cfg.AuthQueue, repo)

	logger.Info("consumer started", map[string]any{
		"queue":    cfg.AuthQueue,
		"exchange": cfg.AuthExchange,
	})

	if err := consumer.Run(ctx); err != nil {
		logger.Fatal("consumer failed", map[string]any{
			"error": err.Error(),
		})
	}

	logger.Info("consumer stopped cleanly", nil)
}
