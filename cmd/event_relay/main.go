package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/credits-ledger/internal/config"
	"github.com/credits-ledger/internal/data/mongo"
	"github.com/credits-ledger/internal/data/postgres"
	"github.com/credits-ledger/internal/ledger"
	"github.com/credits-ledger/internal/logger"
	"github.com/credits-ledger/internal/platform/messaging/consumers"
	"github.com/credits-ledger/internal/platform/messaging/producers"
	"github.com/credits-ledger/internal/platform/persistence"
	"github.com/credits-ledger/internal/relay/activity"
	"github.com/credits-ledger/internal/relay/archiver"
	"github.com/credits-ledger/internal/relay/outbox_poller"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("event_relay")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Event Relay",
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
	walletRepo := postgres.NewWalletRepository(log, postgresDB)
	transactionRepo := postgres.NewTransactionRepository(log, postgresDB)
	ruleRepo := postgres.NewEarningRuleRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	archiveRepo := mongo.NewArchiveRepository(log, mongoDB.Database())

	// Initialize Kafka producers
	eventProducer, err := producers.NewTransactionEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize transaction event producer", "error", err)
		os.Exit(1)
	}

	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}
	// dlqProducer might be nil if DLQTopic is not configured. Handler is nil-safe.

	// Initialize Kafka consumers, one per topic
	transactionConsumer := consumers.NewKafkaConsumer(log, &cfg.Kafka, cfg.Kafka.TransactionTopic)
	activityConsumer := consumers.NewKafkaConsumer(log, &cfg.Kafka, cfg.Kafka.ActivityTopic)

	// Initialize the award pipeline: activity events run through the
	// core ledger behind a bounded worker pool.
	ledgerService := ledger.NewService(postgresDB.Pool(), walletRepo, transactionRepo, ruleRepo, outboxRepo, log)
	baseAwardService := activity.NewAwardService(log, ledgerService)
	awardService, err := activity.NewWorkerPoolAwardService(
		baseAwardService,
		activity.WorkerPoolConfig{Size: cfg.WorkerPool.Size},
		log,
	)
	if err != nil {
		log.Error("Failed to initialize award worker pool", "error", err)
		os.Exit(1)
	}
	activityHandler := activity.NewEventHandler(log, awardService, dlqProducer)

	// Initialize the archiver for transaction events
	archiveHandler := archiver.NewArchiver(log, archiveRepo)

	// Initialize outbox poller
	eventPublisher := outbox_poller.NewEventPublisher(outboxRepo, eventProducer, log)
	poller := outbox_poller.NewPoller(&cfg.Outbox, outboxRepo, eventPublisher, log)

	// Create error channel for service errors
	errChan := make(chan error, 3)

	// Create wait group for graceful shutdown
	var wg sync.WaitGroup

	// Start the transaction event consumer
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting transaction event consumer",
			"topic", cfg.Kafka.TransactionTopic,
			"group", cfg.Kafka.ConsumerGroup,
		)
		if err := transactionConsumer.Subscribe(appCtx, archiveHandler.HandleMessage); err != nil {
			errChan <- fmt.Errorf("transaction consumer error: %w", err)
		}
	}()

	// Start the activity event consumer
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting activity event consumer",
			"topic", cfg.Kafka.ActivityTopic,
			"group", cfg.Kafka.ConsumerGroup,
		)
		if err := activityConsumer.Subscribe(appCtx, activityHandler.HandleMessage); err != nil {
			errChan <- fmt.Errorf("activity consumer error: %w", err)
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

	// Shut down the award worker pool
	awardService.Shutdown()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

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

	// Close Kafka producers and consumers
	if dlqProducer != nil { // dlqProducer can be nil if DLQTopic was not configured
		if err = dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ Kafka producer", "error", err)
		}
	}
	if err = eventProducer.Close(); err != nil {
		log.Error("Error closing transaction event producer", "error", err)
	}
	if err = transactionConsumer.Close(); err != nil {
		log.Error("Error closing transaction consumer", "error", err)
	}
	if err = activityConsumer.Close(); err != nil {
		log.Error("Error closing activity consumer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Close MongoDB connection
	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serviceErr != nil {
		log.Error("Event Relay shutdown with errors", "error", serviceErr)
	}
	if err != nil {
		log.Error("Event Relay shutdown completed with errors")
	} else {
		log.Info("Event Relay shutdown completed successfully")
	}
}
