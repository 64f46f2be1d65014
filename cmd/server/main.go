package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	httpAdapter "github.com/credipos/engine/internal/adapter/http"
	"github.com/credipos/engine/internal/adapter/http/handler"
	"github.com/credipos/engine/internal/adapter/http/middleware"
	postgresRepo "github.com/credipos/engine/internal/adapter/repository/postgres"
	redisRepo "github.com/credipos/engine/internal/adapter/repository/redis"
	"github.com/credipos/engine/internal/infrastructure/config"
	"github.com/credipos/engine/internal/infrastructure/eventpublisher"
	"github.com/credipos/engine/internal/infrastructure/logger"
	"github.com/credipos/engine/internal/infrastructure/metrics"
	"github.com/credipos/engine/internal/infrastructure/postgres"
	"github.com/credipos/engine/internal/infrastructure/redis"
	"github.com/credipos/engine/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Logger = logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	overpayTolerance, err := cfg.ParseOverpayTolerance()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid overpay tolerance")
	}

	ctx := context.Background()

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DatabaseMaxConns,
		MinConns:    cfg.DatabaseMinConns,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	log.Info().Msg("migrations applied")

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	m := metrics.New()
	clock := usecase.SystemClock{}

	txManager := postgresRepo.NewTxManager(pool)
	loanRepo := postgresRepo.NewLoanRepository(pool)
	installmentRepo := postgresRepo.NewInstallmentRepository(pool)
	receivableRepo := postgresRepo.NewReceivableRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier()

	cache := redisRepo.NewCache(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)

	loanUC := usecase.NewLoanUseCase(usecase.LoanUseCaseConfig{
		TxManager:        txManager,
		LoanRepo:         loanRepo,
		InstallmentRepo:  installmentRepo,
		OutboxRepo:       outboxRepo,
		AuditRepo:        auditRepo,
		IDGen:            idGen,
		Clock:            clock,
		Metrics:          m,
		OverpayTolerance: overpayTolerance,
		GraceDays:        cfg.GracePeriodDays,
	}).WithRetrier(retrier)

	receivableUC := usecase.NewReceivableUseCase(usecase.ReceivableUseCaseConfig{
		TxManager:      txManager,
		ReceivableRepo: receivableRepo,
		OutboxRepo:     outboxRepo,
		AuditRepo:      auditRepo,
		IDGen:          idGen,
		Clock:          clock,
		Metrics:        m,
	}).WithRetrier(retrier)

	reportingUC := usecase.NewReportingUseCase(loanRepo, receivableRepo, cache, clock, m, cfg.GracePeriodDays)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		Logger:            log.Logger,
		LoanHandler:       handler.NewLoanHandler(loanUC, clock, cfg.GracePeriodDays),
		ReceivableHandler: handler.NewReceivableHandler(receivableUC),
		ReportHandler:     handler.NewReportHandler(reportingUC, clock, cfg.GracePeriodDays),
		AuditHandler:      handler.NewAuditHandler(auditRepo),
		HealthHandler:     handler.NewHealthHandler(pool, redisClient),
		IdempotencyStore:  idempotencyStore,
		RateLimiter:       rateLimiter,
	})

	publisherCtx, stopPublisher := context.WithCancel(ctx)
	defer stopPublisher()

	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-publisherCtx.Done():
				return
			case <-ticker.C:
				rateLimiter.Cleanup(time.Hour)
			}
		}
	}()

	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  eventpublisher.NewRedisPublisher(redisClient, ""),
		Logger:     slog.Default(),
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxPollInterval,
		Retention:  cfg.OutboxRetention,
	})
	go func() {
		if err := publisher.Start(publisherCtx); err != nil && publisherCtx.Err() == nil {
			log.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	server := &http.Server{
		Addr:         listenAddr(cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stopPublisher()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// listenAddr accepts either a bare port or a full host:port.
func listenAddr(port string) string {
	if strings.Contains(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}
