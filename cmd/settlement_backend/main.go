package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/SscSPs/booking_settlement/internal/adapters/alerts"
	"github.com/SscSPs/booking_settlement/internal/adapters/cache"
	"github.com/SscSPs/booking_settlement/internal/adapters/processor"
	"github.com/SscSPs/booking_settlement/internal/core/ports/gateways"
	"github.com/SscSPs/booking_settlement/internal/core/services"
	"github.com/SscSPs/booking_settlement/internal/handlers"
	"github.com/SscSPs/booking_settlement/internal/middleware"
	"github.com/SscSPs/booking_settlement/internal/platform/clock"
	"github.com/SscSPs/booking_settlement/internal/platform/config"
	"github.com/SscSPs/booking_settlement/internal/repositories/database/pgsql"
	"github.com/SscSPs/booking_settlement/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// @title Booking Settlement API
// @version 1.0
// @description Booking payments, security deposits, host wallets and payouts.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, database.PoolOptions{ConnectTimeout: 5 * time.Second})
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.ClosePgxPool(dbPool)

	if err := runMigrations(logger, cfg.DatabaseURL); err != nil {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("Failed to connect to redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()
		logger.Info("Rate limiter uses the shared redis store")
	}

	alertPublisher, closeAlerts := setupAlerts(cfg, logger)
	defer closeAlerts()

	var paymentProcessor gateways.PaymentProcessor
	if cfg.UsesStubProcessor() {
		paymentProcessor = processor.NewStubProcessor()
	} else {
		paymentProcessor = processor.NewHTTPClient(processor.ClientConfig{
			BaseURL:      cfg.ProcessorBaseURL,
			ClientID:     cfg.ProcessorClientID,
			ClientSecret: cfg.ProcessorClientSecret,
			TokenURL:     cfg.ProcessorTokenURL,
			Timeout:      cfg.ProcessorTimeout,
		}, logger.With(slog.String("component", "processor_client")))
	}

	settings := services.Settings{
		HostFeeRate:          cfg.HostFeeRate,
		DepositFeeRate:       cfg.DepositFeeRate,
		ProcessorTimeout:     cfg.ProcessorTimeout,
		PayoutAllowConfirmed: cfg.PayoutAllowConfirmed,
		HoldStaleAfter:       cfg.HoldPollStaleAfter,
		DepositClaimWindow:   cfg.DepositClaimWindow,
		WorkerBatchSize:      50,
	}
	clk := clock.NewSystem()
	repos := pgsql.NewRepositoryProvider(dbPool)
	serviceContainer := services.NewServiceContainer(settings, repos, paymentProcessor, alertPublisher, clk)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := handlers.RegisterValidators(); err != nil {
		logger.Error("Failed to register validators", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rateLimiter, err := middleware.NewRateLimiter(cfg.RateLimit, redisClient)
	if err != nil {
		logger.Error("Failed to create rate limiter", slog.String("error", err.Error()))
		os.Exit(1)
	}

	r := gin.New()

	// Global middleware (logging, recovery, CORS, rate limiting)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimit(rateLimiter))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer)

	worker := services.NewDepositWorker(logger, repos.DepositRepo, serviceContainer.Deposit, settings, cfg.HoldPollInterval, services.BaseService{Clock: clk})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Deposit worker stopped", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", slog.String("error", err.Error()))
	}
	wg.Wait()
	logger.Info("Server stopped")
}

// setupAlerts returns the kafka publisher with log fallback when brokers are
// configured, and the log publisher otherwise.
func setupAlerts(cfg *config.Config, logger *slog.Logger) (gateways.AlertPublisher, func()) {
	logPublisher := alerts.NewLogPublisher(logger.With(slog.String("component", "alerts")))
	if len(cfg.KafkaBrokers) == 0 {
		return logPublisher, func() {}
	}
	kafkaPublisher, err := alerts.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaAlertTopic)
	if err != nil {
		logger.Warn("Kafka alerts disabled", slog.String("error", err.Error()))
		return logPublisher, func() {}
	}
	return alerts.NewFallbackPublisher(kafkaPublisher, logPublisher), func() {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("Error closing kafka alert writer", slog.String("error", err.Error()))
		}
	}
}

// runMigrations applies all pending "up" migrations from ./migrations.
func runMigrations(logger *slog.Logger, databaseURL string) error {
	logger.Info("Running database migrations...")
	// Using pgx/v5/stdlib driver to be compatible with the main pool
	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	upErr := m.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return upErr
	}

	// Check for dirty migrations after running Up.
	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if errors.Is(upErr, migrate.ErrNoChange) {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
