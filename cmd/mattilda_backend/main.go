package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mativs/mattilda/internal/core/services"
	"github.com/mativs/mattilda/internal/handlers"
	"github.com/mativs/mattilda/internal/middleware"
	"github.com/mativs/mattilda/internal/platform/cache"
	"github.com/mativs/mattilda/internal/platform/config"
	"github.com/mativs/mattilda/internal/platform/lock"
	"github.com/mativs/mattilda/internal/platform/redisclient"
	"github.com/mativs/mattilda/internal/platform/tasks"
	"github.com/mativs/mattilda/internal/repositories/database/pgsql"
	"github.com/mativs/mattilda/pkg/database"
)

// @title Mattilda Billing API
// @version 1.0
// @description Billing allocation and reconciliation engine for schools.

// @host localhost:8080
// @BasePath /api/v1
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("Database connection pool established.")

	if err := runMigrations(logger, cfg.DatabaseURL); err != nil {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Redis backs the advisory locks, the balance cache and the task queue
	redisClient, err := redisclient.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("Failed to connect to redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redisClient.Close()
	logger.Info("Redis connection established.")

	repos := pgsql.NewRepositoryProvider(dbPool)
	locker := lock.NewRedisLocker(redisClient)
	summaryCache := cache.NewRedisSummaryCache(redisClient)
	dispatcher := tasks.NewRedisDispatcher(redisClient)

	serviceContainer := services.NewContainer(&repos, locker, summaryCache, dispatcher, services.Settings{
		MonthlyInterestRate:    cfg.MonthlyInterestRate,
		LockTTL:                cfg.LockTTL,
		BalanceCacheTTL:        cfg.BalanceCacheTTL,
		DuplicatePaymentWindow: cfg.DuplicatePaymentWindow,
	})

	// Background workers consume school generation and reconciliation tasks
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	worker := tasks.NewWorker(redisClient, serviceContainer, logger, cfg.WorkerCount)
	go worker.Run(workerCtx)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, cors, rate limiting)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.Default())

	rate, err := limiter.NewRateFromFormatted("300-M")
	if err != nil {
		logger.Error("Failed to parse rate limit", slog.String("error", err.Error()))
		os.Exit(1)
	}
	r.Use(middleware.RateLimit(limiter.New(memory.NewStore(), rate)))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer, dispatcher)

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// runMigrations applies every pending "up" migration before the server
// accepts traffic, over a temporary database/sql connection.
func runMigrations(logger *slog.Logger, databaseURL string) error {
	logger.Info("Running database migrations...")

	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	if err := migrationDB.Ping(); err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	upErr := m.Up()
	if upErr != nil && upErr != migrate.ErrNoChange {
		return upErr
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if upErr == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
