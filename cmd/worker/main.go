// Package main is the entry point for the kitchenledger background worker:
// it relays the event outbox and audits stock counters for every tenant.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"kitchenledger/internal/config"
	"kitchenledger/internal/domain/events"
	"kitchenledger/internal/domain/inventory"
	"kitchenledger/internal/infrastructure/broker"
	"kitchenledger/internal/infrastructure/cache"
	"kitchenledger/internal/infrastructure/lock"
	"kitchenledger/internal/infrastructure/storage/postgres"
	"kitchenledger/internal/infrastructure/storage/postgres/register_repo"
	"kitchenledger/pkg/logger"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required by the worker")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalw("invalid configuration", "error", err)
	}

	ctx, cancel := context.WithCancel(logger.WithLogger(context.Background(), log))
	defer cancel()

	log.Info("starting kitchenledger worker")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL, cfg.DBMaxConns))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)
	stockRepo := register_repo.NewStockRepo(txManager)

	// --- Outbox handler ---
	var handler postgres.OutboxHandler = broker.LogHandler{}
	if cfg.PubSubProjectID != "" {
		ps, err := broker.NewPubSubHandler(ctx, broker.PubSubConfig{
			ProjectID:       cfg.PubSubProjectID,
			Topic:           cfg.PubSubTopic,
			CredentialsJSON: cfg.PubSubCredentialsJSON,
		})
		if err != nil {
			log.Fatalw("failed to connect to pubsub", "error", err)
		}
		defer ps.Close()
		handler = ps
		log.Infow("publishing events to pubsub", "project", cfg.PubSubProjectID, "topic", cfg.PubSubTopic)
	} else {
		log.Warn("PUBSUB_PROJECT_ID not set, events are only logged")
	}

	// --- Job lock ---
	var locker lock.Locker = lock.Local{}
	if cfg.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalw("failed to connect to redis", "error", err)
		}
		defer client.Close()
		locker = lock.NewRedisLocker(client)
	}

	w := &Worker{
		relay:     postgres.NewOutboxRelay(txManager, outboxBatchSize, handler),
		inventory: inventory.NewService(stockRepo, txManager, events.NoopPublisher{}),
		tenants:   stockRepo,
		locker:    locker,
		pool:      pool,
		cfg:       cfg,
		log:       log.WithComponent("worker"),
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}
