package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/suportemr7bank/speedseven/internal/api_gateway"
	"github.com/suportemr7bank/speedseven/internal/api_gateway/service"
	"github.com/suportemr7bank/speedseven/internal/config"
	"github.com/suportemr7bank/speedseven/internal/data/postgres"
	"github.com/suportemr7bank/speedseven/internal/domain/policy"
	"github.com/suportemr7bank/speedseven/internal/ledgerops"
	"github.com/suportemr7bank/speedseven/internal/logger"
	"github.com/suportemr7bank/speedseven/internal/platform/messaging/producers"
	"github.com/suportemr7bank/speedseven/internal/platform/persistence"
	"github.com/suportemr7bank/speedseven/internal/products"
	"github.com/suportemr7bank/speedseven/internal/transfers"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize database with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producer for income run requests
	incomeRunProducer, err := producers.NewTopicProducer(appCtx, log, &cfg.Kafka, cfg.Kafka.IncomeRunTopic)
	if err != nil {
		log.Error("Failed to initialize income run Kafka producer", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	ledgerRepo := postgres.NewOperationRepository(log, postgresDB)
	appRepo := postgres.NewApplicationRepository(log, postgresDB)
	settingsRepo := postgres.NewSettingsRepository(log, postgresDB)
	fundDepositRepo := postgres.NewFundDepositRepository(log, postgresDB)
	transferRepo := postgres.NewTransferRepository(log, postgresDB)
	scheduleRepo := postgres.NewScheduleRepository(log, postgresDB)
	incomeRepo := postgres.NewIncomeRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)

	// Initialize product policies
	registry, err := policy.NewRegistry(
		products.NewPoolAccount(),
		products.NewCrowdfunding(),
	)
	if err != nil {
		log.Error("Failed to build product registry", "error", err)
		os.Exit(1)
	}

	// Initialize ledger writer and transfer workflow
	writer := ledgerops.NewWriter(postgresDB, accountRepo, ledgerRepo, outboxRepo, log)
	transferWorkflow := transfers.NewService(
		postgresDB,
		writer,
		transferRepo,
		scheduleRepo,
		accountRepo,
		ledgerRepo,
		appRepo,
		settingsRepo,
		fundDepositRepo,
		registry,
		cfg.Scheduler.MaxTrials,
		log,
	)

	// Initialize services
	accountService := service.NewAccountService(log, postgresDB, accountRepo, appRepo, settingsRepo, ledgerRepo, registry, writer)
	transferService := service.NewTransferService(transferWorkflow, transferRepo)
	incomeService := service.NewIncomeService(log, incomeRepo, appRepo, incomeRunProducer)
	applicationService := service.NewApplicationService(log, postgresDB, appRepo, settingsRepo, registry)

	// Initialize REST server
	server := api_gateway.NewServer(log, cfg, accountService, transferService, incomeService, applicationService)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	if err = incomeRunProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
