package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/nfrais/notes-de-frais/internal"
	"github.com/nfrais/notes-de-frais/internal/auth"
	authpostgres "github.com/nfrais/notes-de-frais/internal/auth/postgres"
	"github.com/nfrais/notes-de-frais/internal/category"
	"github.com/nfrais/notes-de-frais/internal/core/events"
	"github.com/nfrais/notes-de-frais/internal/export"
	exportpostgres "github.com/nfrais/notes-de-frais/internal/export/postgres"
	"github.com/nfrais/notes-de-frais/internal/receipt"
	receiptpostgres "github.com/nfrais/notes-de-frais/internal/receipt/postgres"
	"github.com/nfrais/notes-de-frais/internal/scanning"
	scanningpostgres "github.com/nfrais/notes-de-frais/internal/scanning/postgres"
	"github.com/nfrais/notes-de-frais/internal/storage"
	"github.com/nfrais/notes-de-frais/internal/transport/rest"
	"github.com/nfrais/notes-de-frais/internal/uploadqueue"
	queuepostgres "github.com/nfrais/notes-de-frais/internal/uploadqueue/postgres"
	"github.com/nfrais/notes-de-frais/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config    *internal.Config
	DB        *sqlx.DB
	Router    *chi.Mux
	Processor *scanning.Processor
	Logger    *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		deps.Processor.Shutdown()
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	store, err := storage.NewLocalStorage(config.Storage.BasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	eventBus := events.NewEventBus(lg)

	// auth
	authRepo := authpostgres.NewRepository(gormDB)
	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authRepo, tokenGen, config.Security.BCryptCost)
	authHandler := auth.NewHandler(authService)

	// receipts
	receiptRepo := receiptpostgres.NewReceiptRepository(gormDB)
	receiptService := receipt.NewService(receiptRepo, store, eventBus, lg)
	receiptHandler := receipt.NewHandler(receiptService)

	// scanning: the processor subscribes to scan.queued so uploads trigger
	// extraction without the handler waiting on it.
	scanClient := scanning.NewClient(scanning.ClientConfig{
		APIURL:      config.OCR.APIURL,
		APIKey:      config.OCR.APIKey,
		ScanTimeout: config.OCR.ScanTimeout,
	}, lg)
	scanJobRepo := scanningpostgres.NewScanJobRepository(gormDB)
	processor := scanning.NewProcessor(scanClient, store, receiptService, scanJobRepo, scanning.PoolConfig{
		MaxWorkers:     config.OCR.MaxWorkers,
		JobQueueSize:   config.OCR.JobQueueSize,
		WorkerPoolSize: config.OCR.WorkerPoolSize,
	}, lg)
	processor.RegisterHandlers(eventBus)
	callbackHandler := scanning.NewCallbackHandler(receiptService)

	// exports
	exportRepo := exportpostgres.NewExportRepository(gormDB)
	exportService := export.NewService(receiptService, authService, exportRepo, store, lg)
	exportHandler := export.NewHandler(exportService)

	// offline upload queue
	queueRepo := queuepostgres.NewQueueRepository(gormDB)
	queueService := uploadqueue.NewService(queueRepo, receiptService, config.Queue.MaxRetries, lg)
	queueHandler := uploadqueue.NewHandler(queueService)

	categoryHandler := category.NewHandler()

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, db.DB, config.Server.AllowedOrigins,
		authHandler, categoryHandler, receiptHandler, exportHandler,
		queueHandler, callbackHandler, lg)

	return &Dependencies{
		Config:    config,
		DB:        db,
		Router:    router,
		Processor: processor,
		Logger:    lg,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm layers the ORM over the already-open pgx connection pool.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
}
