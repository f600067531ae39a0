package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/suportemr7bank/speedseven/internal/config"
	"github.com/suportemr7bank/speedseven/internal/data/mongo"
	"github.com/suportemr7bank/speedseven/internal/data/postgres"
	"github.com/suportemr7bank/speedseven/internal/domain/policy"
	"github.com/suportemr7bank/speedseven/internal/income"
	"github.com/suportemr7bank/speedseven/internal/ledgerops"
	"github.com/suportemr7bank/speedseven/internal/logger"
	"github.com/suportemr7bank/speedseven/internal/platform/messaging/consumers"
	"github.com/suportemr7bank/speedseven/internal/platform/messaging/producers"
	"github.com/suportemr7bank/speedseven/internal/platform/persistence"
	"github.com/suportemr7bank/speedseven/internal/products"
	"github.com/suportemr7bank/speedseven/internal/transfers"
	"github.com/suportemr7bank/speedseven/internal/worker/consumer"
	"github.com/suportemr7bank/speedseven/internal/worker/outbox_poller"
	"github.com/suportemr7bank/speedseven/internal/worker/scheduler"
	"github.com/suportemr7bank/speedseven/internal/worker/service"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("worker")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Worker",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
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
	eventArchive := mongo.NewEventArchive(log, mongoDB.Database())

	// Initialize product policies
	registry, err := policy.NewRegistry(
		products.NewPoolAccount(),
		products.NewCrowdfunding(),
	)
	if err != nil {
		log.Error("Failed to build product registry", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producers
	progressProducer, err := producers.NewTopicProducer(appCtx, log, &cfg.Kafka, cfg.Kafka.ProgressTopic)
	if err != nil {
		log.Error("Failed to initialize progress Kafka producer", "error", err)
		os.Exit(1)
	}

	operationProducer, err := producers.NewTopicProducer(appCtx, log, &cfg.Kafka, cfg.Kafka.OperationTopic)
	if err != nil {
		log.Error("Failed to initialize operation event Kafka producer", "error", err)
		os.Exit(1)
	}

	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}
	// dlqProducer might be nil if DLQTopic is not configured. Handler should be nil-safe.

	// Initialize income run processing
	collector := income.NewCollector(accountRepo, ledgerRepo)
	runner := income.NewRunner(postgresDB, incomeRepo, ledgerRepo, collector, cfg.Income.BatchSize, log)
	runService := service.NewRunService(log, runner, progressProducer)

	poolService, err := service.NewWorkerPoolRunService(
		runService,
		service.WorkerPoolConfig{Size: cfg.WorkerPool.Size},
		log,
	)
	if err != nil {
		log.Error("Failed to initialize worker pool", "error", err)
		os.Exit(1)
	}

	// A nil *DLQProducer must stay a nil interface inside the handler
	var deadLetters producers.DeadLetterPublisher
	if dlqProducer != nil {
		deadLetters = dlqProducer
	}

	incomeRunHandler := consumer.NewIncomeRunHandler(log, poolService, deadLetters)
	operationEventHandler := consumer.NewOperationEventHandler(log, eventArchive)

	// Initialize Kafka consumers
	incomeRunConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka, cfg.Kafka.IncomeRunTopic, cfg.Kafka.ConsumerGroup)
	archiveGroup := cfg.Kafka.ConsumerGroup + ".archive"
	operationEventConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka, cfg.Kafka.OperationTopic, archiveGroup)

	// Initialize outbox poller
	eventPublisher := outbox_poller.NewEventPublisher(outboxRepo, operationProducer, log)
	poller := outbox_poller.NewPoller(&cfg.Outbox, outboxRepo, eventPublisher, log)

	// Initialize deferred transfer scheduler
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
	scheduleRunner := scheduler.NewRunner(&cfg.Scheduler, transferWorkflow, log)

	// Create error channel for service errors
	errChan := make(chan error, 2)

	// Create wait group for graceful shutdown
	var wg sync.WaitGroup

	// Start income run consumer in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting income run consumer",
			"topic", cfg.Kafka.IncomeRunTopic,
			"group", cfg.Kafka.ConsumerGroup,
		)
		if err := incomeRunConsumer.Subscribe(appCtx, cfg.Kafka.IncomeRunTopic, cfg.Kafka.ConsumerGroup, incomeRunHandler.HandleMessage); err != nil {
			errChan <- fmt.Errorf("income run consumer error: %w", err)
		}
	}()

	// Start operation event archive consumer in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting operation event archive consumer",
			"topic", cfg.Kafka.OperationTopic,
			"group", archiveGroup,
		)
		if err := operationEventConsumer.Subscribe(appCtx, cfg.Kafka.OperationTopic, archiveGroup, operationEventHandler.HandleMessage); err != nil {
			errChan <- fmt.Errorf("operation event consumer error: %w", err)
		}
	}()

	// Start outbox poller in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting outbox poller",
			"interval", cfg.Outbox.PollingInterval.String(),
			"batch_size", cfg.Outbox.BatchSize,
		)
		poller.Start(appCtx)
	}()

	// Start schedule runner in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting schedule runner",
			"interval", cfg.Scheduler.PollingInterval.String(),
			"batch_limit", cfg.Scheduler.BatchLimit,
		)
		scheduleRunner.Start(appCtx)
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Shutdown the worker pool
	log.Info("Shutting down worker pool", "running_workers", poolService.Running())
	poolService.Shutdown()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Wait for all goroutines to finish
	log.Info("Waiting for services to stop...")
	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	// Close DLQ Kafka producer
	if dlqProducer != nil { // dlqProducer can be nil if DLQTopic was not configured
		if err = dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ Kafka producer", "error", err)
		}
	}

	// Close Kafka producers
	if err = progressProducer.Close(); err != nil {
		log.Error("Error closing progress Kafka producer", "error", err)
	}
	if err = operationProducer.Close(); err != nil {
		log.Error("Error closing operation event Kafka producer", "error", err)
	}

	// Close Kafka consumers
	if err = incomeRunConsumer.Close(); err != nil {
		log.Error("Error closing income run consumer", "error", err)
	}
	if err = operationEventConsumer.Close(); err != nil {
		log.Error("Error closing operation event consumer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Close MongoDB connection
	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serviceErr != nil {
		log.Error("Worker shutdown with errors", "error", serviceErr)
	}
	if err != nil {
		log.Error("Worker shutdown completed with errors")
	} else {
		log.Info("Worker shutdown completed successfully")
	}
}
