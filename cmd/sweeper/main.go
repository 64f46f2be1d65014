package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	postgresRepo "github.com/credipos/engine/internal/adapter/repository/postgres"
	redisRepo "github.com/credipos/engine/internal/adapter/repository/redis"
	"github.com/credipos/engine/internal/domain"
	"github.com/credipos/engine/internal/infrastructure/config"
	"github.com/credipos/engine/internal/infrastructure/metrics"
	"github.com/credipos/engine/internal/infrastructure/postgres"
	"github.com/credipos/engine/internal/infrastructure/redis"
	"github.com/credipos/engine/internal/usecase"
)

const snapshotTTL = 7 * 24 * time.Hour

// The sweeper walks the active portfolio once a day, derives which
// loans have fallen past their grace window, and stores the result as
// a dated snapshot. Delinquency is never written back to the loans
// themselves.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := connectPostgres(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect to postgres", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("failed to connect to redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redisClient.Close()

	sweeper := newSweeper(cfg, pool, redisClient, logger)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(":"+cfg.SweepMetricsPort, mux); err != nil {
			logger.Error("metrics listener failed", slog.String("error", err.Error()))
		}
	}()

	c := cron.New()
	if _, err := c.AddFunc(cfg.SweepSchedule, func() {
		if err := sweeper.sweep(ctx); err != nil {
			logger.Error("sweep failed", slog.String("error", err.Error()))
		}
	}); err != nil {
		logger.Error("invalid sweep schedule",
			slog.String("schedule", cfg.SweepSchedule),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Run once at startup so a restart never loses the day's snapshot.
	if err := sweeper.sweep(ctx); err != nil {
		logger.Error("initial sweep failed", slog.String("error", err.Error()))
	}

	c.Start()
	logger.Info("sweeper started", slog.String("schedule", cfg.SweepSchedule))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cronCtx := c.Stop()
	<-cronCtx.Done()
	logger.Info("sweeper stopped")
}

func connectPostgres(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	return postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DatabaseMaxConns,
		MinConns:    cfg.DatabaseMinConns,
	})
}

func newSweeper(cfg *config.Config, pool *pgxpool.Pool, redisClient *goredis.Client, logger *slog.Logger) *sweeper {
	loanRepo := postgresRepo.NewLoanRepository(pool)
	receivableRepo := postgresRepo.NewReceivableRepository(pool)
	clock := usecase.SystemClock{}
	m := metrics.New()

	return &sweeper{
		reportingUC: usecase.NewReportingUseCase(loanRepo, receivableRepo, nil, clock, m, cfg.GracePeriodDays),
		snapshots:   redisRepo.NewSnapshotStore(redisClient),
		clock:       clock,
		metrics:     m,
		logger:      logger,
	}
}

type sweeper struct {
	reportingUC *usecase.ReportingUseCase
	snapshots   *redisRepo.SnapshotStore
	clock       usecase.Clock
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

func (s *sweeper) sweep(ctx context.Context) error {
	start := s.clock.Now()

	loans, err := s.reportingUC.DelinquentLoans(ctx)
	if err != nil {
		return err
	}

	snapshot := &redisRepo.DelinquencySnapshot{
		SweptAt: start,
		LoanIDs: loanIDs(loans),
	}

	if err := s.snapshots.Save(ctx, snapshot, snapshotTTL); err != nil {
		return err
	}

	s.metrics.DelinquentLoans.Set(float64(len(loans)))

	s.logger.Info("sweep complete",
		slog.Int("delinquent", len(loans)),
		slog.Duration("took", s.clock.Now().Sub(start)))

	return nil
}

func loanIDs(loans []*domain.Loan) []string {
	ids := make([]string, 0, len(loans))
	for _, loan := range loans {
		ids = append(ids, loan.ID)
	}
	return ids
}
