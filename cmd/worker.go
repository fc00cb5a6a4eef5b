package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nfrais/notes-de-frais/internal/core/events"
	"github.com/nfrais/notes-de-frais/internal/receipt"
	receiptpostgres "github.com/nfrais/notes-de-frais/internal/receipt/postgres"
	"github.com/nfrais/notes-de-frais/internal/scanning"
	scanningpostgres "github.com/nfrais/notes-de-frais/internal/scanning/postgres"
	"github.com/nfrais/notes-de-frais/internal/storage"
	"github.com/nfrais/notes-de-frais/internal/uploadqueue"
	queuepostgres "github.com/nfrais/notes-de-frais/internal/uploadqueue/postgres"
	"github.com/nfrais/notes-de-frais/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start and manage background workers for receipt scanning and offline queue syncing.`,
}

var scanWorkerCmd = &cobra.Command{
	Use:   "scan",
	Short: "Start the receipt scan worker pool",
	Long:  `Start the worker pool that drains queued scan jobs through the extraction API`,
	Run: func(cmd *cobra.Command, args []string) {
		startScanWorker()
	},
}

var queueWorkerCmd = &cobra.Command{
	Use:   "queue",
	Short: "Start the offline upload sync worker",
	Long:  `Periodically turn pending offline uploads into receipts`,
	Run: func(cmd *cobra.Command, args []string) {
		startQueueWorker()
	},
}

var (
	maxWorkers   int
	jobQueueSize int
	apiURL       string
	apiKey       string
	resumeLimit  int
)

func startScanWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(os.Getenv("APP_ENV"))
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init db: %v\n", err)
		os.Exit(1)
	}
	gormDB, err := initGorm(db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init orm: %v\n", err)
		os.Exit(1)
	}

	store, err := storage.NewLocalStorage(config.Storage.BasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init storage: %v\n", err)
		os.Exit(1)
	}

	scanConfig := scanning.ClientConfig{
		APIURL:      getStringFlag(apiURL, config.OCR.APIURL),
		APIKey:      getStringFlag(apiKey, config.OCR.APIKey),
		ScanTimeout: config.OCR.ScanTimeout,
	}
	poolConfig := scanning.PoolConfig{
		MaxWorkers:     getIntFlag(maxWorkers, config.OCR.MaxWorkers),
		JobQueueSize:   getIntFlag(jobQueueSize, config.OCR.JobQueueSize),
		WorkerPoolSize: config.OCR.WorkerPoolSize,
	}

	lg.Info("starting scan worker",
		"max_workers", poolConfig.MaxWorkers,
		"job_queue_size", poolConfig.JobQueueSize,
		"api_url", scanConfig.APIURL)

	eventBus := events.NewEventBus(lg)
	receiptRepo := receiptpostgres.NewReceiptRepository(gormDB)
	receiptService := receipt.NewService(receiptRepo, store, eventBus, lg)

	client := scanning.NewClient(scanConfig, lg)
	jobRepo := scanningpostgres.NewScanJobRepository(gormDB)
	processor := scanning.NewProcessor(client, store, receiptService, jobRepo, poolConfig, lg)
	processor.RegisterHandlers(eventBus)

	// Pick up jobs left behind by a crashed run, then poll for new ones.
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	done := make(chan struct{})
	go func() {
		for {
			if err := processor.Resume(resumeLimit); err != nil {
				lg.Error("failed to resume pending scan jobs", "error", err)
			}
			select {
			case <-ticker.C:
			case <-done:
				return
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	lg.Info("scan worker is running. Press Ctrl+C to stop.")

	sig := <-sigChan
	lg.Info("received signal, shutting down scan worker", "signal", sig)
	close(done)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shutdownDone := make(chan struct{})
	go func() {
		processor.Shutdown()
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		lg.Info("scan worker shutdown complete")
	case <-ctx.Done():
		lg.Warn("shutdown timeout reached, forcing exit")
	}
}

func startQueueWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(os.Getenv("APP_ENV"))
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init db: %v\n", err)
		os.Exit(1)
	}
	gormDB, err := initGorm(db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init orm: %v\n", err)
		os.Exit(1)
	}

	store, err := storage.NewLocalStorage(config.Storage.BasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init storage: %v\n", err)
		os.Exit(1)
	}

	eventBus := events.NewEventBus(lg)
	receiptRepo := receiptpostgres.NewReceiptRepository(gormDB)
	receiptService := receipt.NewService(receiptRepo, store, eventBus, lg)

	queueRepo := queuepostgres.NewQueueRepository(gormDB)
	queueService := uploadqueue.NewService(queueRepo, receiptService, config.Queue.MaxRetries, lg)

	interval := config.Queue.SyncInterval
	if interval <= 0 {
		interval = time.Minute
	}

	lg.Info("starting queue sync worker", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			if _, err := queueService.SyncAll(); err != nil {
				lg.Error("queue sync pass failed", "error", err)
			}
		case sig := <-sigChan:
			lg.Info("received signal, shutting down queue worker", "signal", sig)
			return
		}
	}
}

func getStringFlag(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func getIntFlag(flagValue, configValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func init() {
	scanWorkerCmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "Maximum number of workers (overrides config)")
	scanWorkerCmd.Flags().IntVar(&jobQueueSize, "job-queue-size", 0, "Job queue buffer size (overrides config)")
	scanWorkerCmd.Flags().StringVar(&apiURL, "api-url", "", "Extraction API URL (overrides config)")
	scanWorkerCmd.Flags().StringVar(&apiKey, "api-key", "", "Extraction API key (overrides config)")
	scanWorkerCmd.Flags().IntVar(&resumeLimit, "resume-limit", 50, "Maximum pending jobs picked up per pass")

	workerCmd.AddCommand(scanWorkerCmd)
	workerCmd.AddCommand(queueWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
