package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/meridian-erp/meridian-erp/internal/app"
	"github.com/meridian-erp/meridian-erp/internal/collections"
	"github.com/meridian-erp/meridian-erp/internal/contracts"
	"github.com/meridian-erp/meridian-erp/internal/customers"
	"github.com/meridian-erp/meridian-erp/internal/hr"
	"github.com/meridian-erp/meridian-erp/internal/income"
	"github.com/meridian-erp/meridian-erp/internal/inventory"
	"github.com/meridian-erp/meridian-erp/internal/legal"
	"github.com/meridian-erp/meridian-erp/internal/observability"
	"github.com/meridian-erp/meridian-erp/internal/platform/cache"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/reports"
	"github.com/meridian-erp/meridian-erp/internal/shared"
	"github.com/meridian-erp/meridian-erp/internal/users"
	"github.com/meridian-erp/meridian-erp/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	summaryCache := cache.New(redisClient, cfg.SummaryCacheTTL)
	auditLogger := shared.NewAuditLogger(pool)

	queueClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Warn("queue close", slog.Any("error", err))
		}
	}()
	notifier := jobs.NewPaymentNotifier(queueClient, logger)

	contractsRepo := contracts.NewRepository(pool)
	contractsService := contracts.NewService(contractsRepo, auditLogger, summaryCache, notifier, logger)
	contractsHandler := contracts.NewHandler(logger, contractsService)

	collectionsRepo := collections.NewRepository(pool)
	collectionsService := collections.NewService(collectionsRepo, auditLogger, summaryCache, logger)
	collectionsHandler := collections.NewHandler(logger, collectionsService)

	incomeRepo := income.NewRepository(pool)
	incomeService := income.NewService(incomeRepo, contractsService, auditLogger, logger)
	incomeHandler := income.NewHandler(logger, incomeService)

	customersRepo := customers.NewRepository(pool)
	customersService := customers.NewService(customersRepo, auditLogger, logger)
	customersHandler := customers.NewHandler(logger, customersService)

	hrRepo := hr.NewRepository(pool)
	hrService := hr.NewService(hrRepo, auditLogger, logger)
	hrHandler := hr.NewHandler(logger, hrService)

	inventoryRepo := inventory.NewRepository(pool)
	inventoryService := inventory.NewService(inventoryRepo, auditLogger, logger)
	inventoryHandler := inventory.NewHandler(logger, inventoryService)

	legalRepo := legal.NewRepository(pool)
	legalService := legal.NewService(legalRepo, auditLogger, logger)
	legalHandler := legal.NewHandler(logger, legalService)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo, auditLogger, logger)
	usersHandler := users.NewHandler(logger, usersService)

	reportsRepo := reports.NewRepository(pool)
	reportsService := reports.NewService(reportsRepo, summaryCache, logger)
	reportsHandler := reports.NewHandler(logger, reportsService)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Metrics:            metrics,
		ContractsHandler:   contractsHandler,
		CollectionsHandler: collectionsHandler,
		IncomeHandler:      incomeHandler,
		CustomersHandler:   customersHandler,
		HRHandler:          hrHandler,
		InventoryHandler:   inventoryHandler,
		LegalHandler:       legalHandler,
		UsersHandler:       usersHandler,
		ReportsHandler:     reportsHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
