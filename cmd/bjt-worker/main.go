package main

import (
	"context"
	"errors"
	"os"
	"time"

	"bjt/internal/amqp"
	"bjt/internal/cli"
	applog "bjt/internal/log"
	gsheet "bjt/internal/sheets/google"
	"bjt/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentWorker)

	logger.Info("Starting bjt-worker")

	if !cfg.SheetsMirrorEnabled() {
		logger.Error("Sheets mirror is not configured: set GOOGLE_SPREADSHEET_ID and service account credentials")
		os.Exit(1)
	}

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startCancel()

	store := cli.InitBackend(startCtx, logger.WithComponent(applog.ComponentBackend), cfg)

	sheetsClient, err := gsheet.New(startCtx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	syncWorker := worker.NewSyncWorker(store.Store, store.Tracker, sheetsClient, sheetsClient, cfg.SyncBatchSize)

	parent, stop := context.WithCancel(context.Background())
	defer stop()

	// Rows written while the worker was down are found by the startup
	// check, later misses by the poller.
	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(parent); err != nil {
		logger.Error("Failed startup sync check", applog.FieldError, err)
	}

	var poller *worker.Poller
	if store.Tracker != nil {
		poller = worker.NewPoller(syncWorker, cfg.SyncInterval)
		if err := poller.Start(parent); err != nil {
			logger.Error("Failed to start pending sync poller", applog.FieldError, err)
		}
	} else {
		logger.Info("Backend does not track sync state, pending poll disabled", "backend", cfg.DataBackend)
	}

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		go func() {
			if err := amqpClient.ConsumeWithReconnect(parent, syncWorker.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", applog.FieldError, err)
				stop()
			}
		}()
	} else {
		logger.Info("Skipping AMQP message consumption - no AMQP_URL provided")
	}

	ctx, done := cli.GracefulShutdown(parent, logger, 30*time.Second, func(shutdownCtx context.Context) {
		logger.Info("Shutting down worker...")
		if poller != nil {
			if err := poller.Stop(shutdownCtx); err != nil {
				logger.Warn("Poller stop error", applog.FieldError, err)
			}
		}
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

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
