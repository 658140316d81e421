// Package main is the entry point for the kitchenledger API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kitchenledger/internal/config"
	corenumerator "kitchenledger/internal/core/numerator"
	"kitchenledger/internal/core/tx"
	"kitchenledger/internal/domain/costing"
	"kitchenledger/internal/domain/events"
	"kitchenledger/internal/domain/inventory"
	"kitchenledger/internal/domain/orders"
	"kitchenledger/internal/domain/procurement"
	"kitchenledger/internal/domain/recipe"
	"kitchenledger/internal/domain/reports"
	"kitchenledger/internal/infrastructure/cache"
	v1 "kitchenledger/internal/infrastructure/http/v1"
	"kitchenledger/internal/infrastructure/http/v1/handlers"
	"kitchenledger/internal/infrastructure/numerator"
	"kitchenledger/internal/infrastructure/storage/memory"
	"kitchenledger/internal/infrastructure/storage/postgres"
	"kitchenledger/internal/infrastructure/storage/postgres/catalog_repo"
	"kitchenledger/internal/infrastructure/storage/postgres/document_repo"
	"kitchenledger/internal/infrastructure/storage/postgres/register_repo"
	"kitchenledger/internal/infrastructure/storage/postgres/report_repo"
	"kitchenledger/pkg/logger"
)

const version = "0.1.0"

// storage bundles the repositories behind the domain services.
type storage struct {
	txManager tx.Manager
	publisher events.Publisher
	stock     inventory.Repository
	recipes   recipe.Repository
	orders    orders.Repository
	reports   reports.Repository
	labor     reports.LaborCostSource
	numbers   corenumerator.Generator
	db        handlers.Pinger
	close     func()
}

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

	if err := cfg.Validate(); err != nil {
		log.Fatalw("invalid configuration", "error", err)
	}

	ctx := logger.WithLogger(context.Background(), log)
	log.Infow("starting kitchenledger server", "version", version, "env", cfg.Env)

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to open storage", "error", err)
	}
	defer store.close()

	// --- Report cache ---
	var reportCache interface {
		reports.Cache
		procurement.Cache
	} = cache.Noop{}
	if cfg.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalw("failed to connect to redis", "error", err)
		}
		defer client.Close()
		reportCache = cache.NewRedisCache(client)
		log.Infow("report cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.ReportCacheTTL)
	}

	// --- Services ---
	inventoryService := inventory.NewService(store.stock, store.txManager, store.publisher)
	recipeService := recipe.NewService(store.recipes, store.txManager)

	costingCfg := costing.DefaultConfig()
	costingCfg.MaxRetries = cfg.CheckoutMaxRetries
	costingCfg.Idempotent = cfg.CostingIdempotent
	costingService := costing.NewService(store.orders, store.recipes, inventoryService, store.txManager, store.publisher, costingCfg)

	procurementService := procurement.NewService(store.stock, reportCache, cfg.ReportCacheTTL)
	reportsService := reports.NewService(store.reports, store.recipes, store.labor, cfg.Location(), reportCache, cfg.ReportCacheTTL)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:      log,
		DB:          store.db,
		Version:     version,
		Inventory:   inventoryService,
		Recipes:     recipeService,
		Orders:      store.orders,
		Numbers:     store.numbers,
		Costing:     costingService,
		Procurement: procurementService,
		Reports:     reportsService,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// openStorage connects to PostgreSQL, or falls back to the in-memory store
// in development when DATABASE_URL is empty.
func openStorage(ctx context.Context, cfg config.Config, log *logger.Logger) (*storage, error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory store; data is lost on restart")
		store := memory.New()
		return &storage{
			txManager: memory.NewTxManager(store),
			publisher: events.NoopPublisher{},
			stock:     store,
			recipes:   store,
			orders:    store,
			reports:   store,
			labor:     store,
			numbers:   store,
			close:     func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL, cfg.DBMaxConns))
	if err != nil {
		return nil, err
	}
	log.Info("database connection established")

	if cfg.DBAutoMigrate {
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info("database schema applied")
	}

	txManager := postgres.NewTxManager(pool)
	reportRepo := report_repo.NewReportRepo(txManager)
	return &storage{
		txManager: txManager,
		publisher: postgres.NewOutboxPublisher(txManager),
		stock:     register_repo.NewStockRepo(txManager),
		recipes:   catalog_repo.NewRecipeRepo(txManager),
		orders:    document_repo.NewOrderRepo(txManager),
		reports:   reportRepo,
		labor:     reportRepo,
		numbers:   numerator.New(txManager, numerator.StrategyCached, 0),
		db:        pool,
		close:     pool.Close,
	}, nil
}
