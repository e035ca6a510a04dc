package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"bjt/internal/amqp"
	"bjt/internal/bootstrap"
	"bjt/internal/cache"
	"bjt/internal/cli"
	apphttp "bjt/internal/http"
	applog "bjt/internal/log"
	"bjt/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentApp)

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startCancel()

	store := cli.InitBackend(startCtx, logger.WithComponent(applog.ComponentBackend), cfg)

	if cfg.SeedDefaults {
		if err := bootstrap.SeedAssets(startCtx, store.Store, logger.WithComponent(applog.ComponentBootstrap)); err != nil {
			logger.Error("Failed to seed asset catalog", applog.FieldError, err)
			os.Exit(1)
		}
	}

	// Event publishing is optional: without AMQP the sheets mirror only
	// catches up through its pending poll.
	var publisher services.EventPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, ledger events disabled", applog.FieldError, err)
		} else {
			amqpClient = client
			publisher = client
			logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange)
		}
	}

	reports := services.NewReportService(store.Store, cfg.ReportCacheSize, cfg.ReportCacheTTL,
		logger.WithComponent(applog.ComponentReport))

	cacheManager := cache.NewManager(logger.Logger.With(applog.FieldComponent, applog.ComponentCache))
	if c := reports.Cache(); c != nil {
		cacheManager.Register(c)
	}
	cacheManager.StartCleanup(5 * time.Minute)

	svc := apphttp.Services{
		Transactions: services.NewTransactionService(store.Store, publisher, reports,
			logger.WithComponent(applog.ComponentTransaction)),
		MonthlyExpenses: services.NewMonthlyExpenseService(store.Store, publisher, reports,
			logger.WithComponent(applog.ComponentExpense)),
		Reports: reports,
		Assets:  store.Store,
		Health:  store.Store,
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger.WithComponent(applog.ComponentHTTP),
	})

	parent, stop := context.WithCancel(context.Background())
	defer stop()

	ctx, done := cli.GracefulShutdown(parent, logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		cacheManager.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", applog.FieldError, err)
			}
		}
		if store.Cleanup != nil {
			if err := store.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", applog.FieldError, err)
			}
		}
	})

	go func() {
		logger.Info("Starting bjt server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
			stop()
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
