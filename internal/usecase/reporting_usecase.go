package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/credipos/engine/internal/domain"
	"github.com/credipos/engine/internal/infrastructure/metrics"
)

// ReportingUseCase produces read-only rollups over the two ledgers.
// It never mutates ledger state; loading full aggregates and folding
// them in memory is acceptable at single-store portfolio sizes, which
// top out in the low thousands of loans.
type ReportingUseCase struct {
	loanRepo       LoanRepository
	receivableRepo ReceivableRepository
	cache          Cache
	clock          Clock
	metrics        *metrics.Metrics
	graceDays      int
}

// NewReportingUseCase creates a new ReportingUseCase. cache may be nil,
// in which case every report is computed fresh.
func NewReportingUseCase(
	loanRepo LoanRepository,
	receivableRepo ReceivableRepository,
	cache Cache,
	clock Clock,
	m *metrics.Metrics,
	graceDays int,
) *ReportingUseCase {
	if clock == nil {
		clock = SystemClock{}
	}

	if graceDays <= 0 {
		graceDays = DefaultGraceDays
	}

	return &ReportingUseCase{
		loanRepo:       loanRepo,
		receivableRepo: receivableRepo,
		cache:          cache,
		clock:          clock,
		metrics:        m,
		graceDays:      graceDays,
	}
}

// PortfolioReportInput bounds the interest-collection window. The
// window is half-open, [From, To).
type PortfolioReportInput struct {
	From time.Time
	To   time.Time
}

type cachedReport struct {
	From                 time.Time `json:"from"`
	To                   time.Time `json:"to"`
	GeneratedAt          time.Time `json:"generated_at"`
	InterestCollected    string    `json:"interest_collected"`
	OutstandingPortfolio string    `json:"outstanding_portfolio"`
	ReceivablesPending   string    `json:"receivables_pending"`
	ActiveLoans          int       `json:"active_loans"`
	DelinquentLoans      int       `json:"delinquent_loans"`
	SettledLoans         int       `json:"settled_loans"`
}

// PortfolioReport builds the full rollup for the given window, serving
// a cached copy when one is fresh enough. Delinquency counts use the
// current clock reading, so a cached report can lag reality by at most
// the cache TTL.
func (uc *ReportingUseCase) PortfolioReport(ctx context.Context, input PortfolioReportInput) (*domain.PortfolioReport, error) {
	cacheKey := fmt.Sprintf("report:portfolio:%s:%s",
		input.From.UTC().Format("2006-01-02"), input.To.UTC().Format("2006-01-02"))

	if uc.cache != nil {
		if raw, err := uc.cache.Get(ctx, cacheKey); err == nil && raw != "" {
			if report, err := decodeReport(raw); err == nil {
				return report, nil
			}
		}
	}

	loans, err := uc.loanRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	receivables, err := uc.receivableRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	report := domain.BuildPortfolioReport(loans, receivables, input.From, input.To, now, uc.graceDays)

	if uc.cache != nil {
		if raw, err := encodeReport(report); err == nil {
			_ = uc.cache.Set(ctx, cacheKey, raw, ReportCacheTTL)
		}
	}

	uc.observe(report)

	return report, nil
}

// DelinquentLoans returns the loans that are atrasado as of now. Unlike
// PortfolioReport this is never cached; the sweeper and collections
// staff both need the live view.
func (uc *ReportingUseCase) DelinquentLoans(ctx context.Context) ([]*domain.Loan, error) {
	loans, err := uc.loanRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()

	delinquent := make([]*domain.Loan, 0)
	for _, loan := range loans {
		if loan.IsDelinquent(now, uc.graceDays) {
			delinquent = append(delinquent, loan)
		}
	}

	return delinquent, nil
}

func (uc *ReportingUseCase) observe(report *domain.PortfolioReport) {
	if uc.metrics == nil {
		return
	}

	outstanding, _ := report.OutstandingPortfolio.Float64()
	pending, _ := report.ReceivablesPending.Float64()

	uc.metrics.OutstandingPortfolio.Set(outstanding)
	uc.metrics.ReceivablesPending.Set(pending)
	uc.metrics.DelinquentLoans.Set(float64(report.DelinquentLoans))
}

func encodeReport(report *domain.PortfolioReport) (string, error) {
	data, err := json.Marshal(cachedReport{
		From:                 report.From,
		To:                   report.To,
		GeneratedAt:          report.GeneratedAt,
		InterestCollected:    report.InterestCollected.String(),
		OutstandingPortfolio: report.OutstandingPortfolio.String(),
		ReceivablesPending:   report.ReceivablesPending.String(),
		ActiveLoans:          report.ActiveLoans,
		DelinquentLoans:      report.DelinquentLoans,
		SettledLoans:         report.SettledLoans,
	})
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func decodeReport(raw string) (*domain.PortfolioReport, error) {
	var cached cachedReport
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return nil, err
	}

	interest, err := decimal.NewFromString(cached.InterestCollected)
	if err != nil {
		return nil, err
	}

	outstanding, err := decimal.NewFromString(cached.OutstandingPortfolio)
	if err != nil {
		return nil, err
	}

	pending, err := decimal.NewFromString(cached.ReceivablesPending)
	if err != nil {
		return nil, err
	}

	return &domain.PortfolioReport{
		From:                 cached.From,
		To:                   cached.To,
		GeneratedAt:          cached.GeneratedAt,
		InterestCollected:    interest,
		OutstandingPortfolio: outstanding,
		ReceivablesPending:   pending,
		ActiveLoans:          cached.ActiveLoans,
		DelinquentLoans:      cached.DelinquentLoans,
		SettledLoans:         cached.SettledLoans,
	}, nil
}
