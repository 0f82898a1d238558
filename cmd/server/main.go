package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/viajora/leadnotify/internal/config"
	"github.com/viajora/leadnotify/internal/handler"
	"github.com/viajora/leadnotify/internal/infra/postgresql"
	"github.com/viajora/leadnotify/internal/infra/postgresql/migrations"
	infraredis "github.com/viajora/leadnotify/internal/infra/redis"
	"github.com/viajora/leadnotify/internal/observability"
	"github.com/viajora/leadnotify/internal/provider"
	"github.com/viajora/leadnotify/internal/queue"
	"github.com/viajora/leadnotify/internal/ratelimit"
	"github.com/viajora/leadnotify/internal/repository"
	"github.com/viajora/leadnotify/internal/service"
	"github.com/viajora/leadnotify/internal/template"
	"github.com/viajora/leadnotify/internal/transport"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics()

	var (
		db    *gorm.DB
		sqlDB *sql.DB
	)
	if cfg.DatabaseDSN != "" {
		db, err = postgresql.NewPostgres(cfg.DatabaseDSN)
		if err != nil {
			logger.Fatal("postgres initialization failed", zap.Error(err))
		}

		if err := migrations.Migrate(db); err != nil {
			logger.Fatal("database migrations failed", zap.Error(err))
		}

		sqlDB, err = db.DB()
		if err != nil {
			logger.Fatal("postgres underlying db init failed", zap.Error(err))
		}
		defer sqlDB.Close()
	}

	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		rdb, err = infraredis.NewRedis(cfg.RedisURL)
		if err != nil {
			logger.Fatal("redis initialization failed", zap.Error(err))
		}
		defer rdb.Close()
	}

	pool, err := buildProviderPool(cfg)
	if err != nil {
		logger.Fatal("provider pool initialization failed", zap.Error(err))
	}

	registry := template.NewRegistry()
	if err := template.RegisterBuiltinTemplates(registry); err != nil {
		logger.Fatal("builtin template registration failed", zap.Error(err))
	}
	renderer, err := template.NewRenderer(registry)
	if err != nil {
		logger.Fatal("renderer initialization failed", zap.Error(err))
	}

	jobQueue, err := queue.New(pool, renderer, queue.Config{
		TickInterval:       cfg.QueueTickInterval,
		BatchSize:          cfg.QueueBatchSize,
		DefaultMaxAttempts: cfg.MaxAttempts,
		From:               cfg.EmailFrom,
	}, logger)
	if err != nil {
		logger.Fatal("queue initialization failed", zap.Error(err))
	}
	jobQueue.SetMetrics(metrics)

	var limiter ratelimit.RateLimiter
	if rdb != nil {
		limiter, err = infraredis.NewRedisRateLimiter(rdb, cfg.RateLimitPerMinute)
		if err != nil {
			logger.Fatal("redis rate limiter initialization failed", zap.Error(err))
		}
	} else {
		limiter = ratelimit.NewLocalRateLimiter(cfg.RateLimitPerMinute)
	}
	jobQueue.SetRateLimiter(limiter)

	var (
		leadRepo    repository.LeadRepository
		outcomeRepo repository.OutcomeRepository
	)
	if db != nil {
		leadRepo = repository.NewGormLeadRepo(db)
		outcomeRepo = repository.NewGormOutcomeRepo(db)
		jobQueue.SetOutcomeRecorder(outcomeRepo)
	}

	notifier, err := service.NewNotificationService(registry, jobQueue, cfg.AdminEmailList(), cfg.AnalyticsFlushInterval, logger)
	if err != nil {
		logger.Fatal("notification service initialization failed", zap.Error(err))
	}

	monitor, err := service.NewHealthMonitor(pool, cfg.HealthCheckInterval, logger)
	if err != nil {
		logger.Fatal("health monitor initialization failed", zap.Error(err))
	}
	monitor.SetMetrics(metrics)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	monitor.Start(ctx)
	defer monitor.Stop()
	jobQueue.Start(ctx)
	defer jobQueue.Stop()
	notifier.Start(ctx)
	defer notifier.Stop()

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, sqlDB, rdb, pool)
	app.Get("/metrics", metrics.FiberHandler())

	if err := handler.RegisterNotificationRoutes(app, notifier); err != nil {
		logger.Fatal("notification route registration failed", zap.Error(err))
	}
	if err := handler.RegisterLeadRoutes(app, notifier, leadRepo); err != nil {
		logger.Fatal("lead route registration failed", zap.Error(err))
	}
	handler.RegisterOutcomeRoutes(app, outcomeRepo)

	go func() {
		<-ctx.Done()
		logger.Info("shutdown signal received")
		if err := app.Shutdown(); err != nil {
			logger.Error("server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("leadnotify api started", zap.Int("port", cfg.APIPort))
	if err := app.Listen(fmt.Sprintf(":%d", cfg.APIPort)); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func buildProviderPool(cfg *config.Config) (*provider.Pool, error) {
	var adapters []provider.Adapter

	if cfg.WebhookRelayURL != "" {
		webhook, err := provider.NewWebhookAdapter(cfg.WebhookRelayURL, cfg.EmailFrom, 3, 100)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, webhook)
	}
	if cfg.ResendAPIKey != "" {
		resend, err := provider.NewResendAdapter(cfg.ResendAPIKey, cfg.EmailFrom, 2, 100)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, resend)
	}
	if cfg.SMTPHost != "" {
		smtp, err := provider.NewSMTPAdapter(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFrom, 1, 60)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, smtp)
	}

	return provider.NewPool(adapters...)
}
