package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/credipos/engine/internal/domain"
	"github.com/credipos/engine/internal/usecase"
)

const loanColumns = `id, sale_id, customer_id, principal, down_payment, monthly_rate,
	cadence, term, payment, paid_amount, status, start_date, version, created_at, updated_at`

// LoanRepository implements usecase.LoanRepository. Every read that
// returns a loan also loads its installments ordered by sequence, so
// the aggregate is always complete in memory.
type LoanRepository struct {
	pool         *pgxpool.Pool
	installments *InstallmentRepository
}

// NewLoanRepository creates a new LoanRepository.
func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{
		pool:         pool,
		installments: NewInstallmentRepository(pool),
	}
}

// Create inserts a new loan. Its installments are inserted separately
// by the installment repository inside the same transaction.
func (r *LoanRepository) Create(ctx context.Context, tx usecase.Transaction, loan *domain.Loan) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
		INSERT INTO loans (`+loanColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		loan.ID,
		loan.SaleID,
		loan.CustomerID,
		decimalToNumeric(loan.Principal),
		decimalToNumeric(loan.DownPayment),
		decimalToNumeric(loan.MonthlyRate),
		string(loan.Cadence),
		loan.Term,
		decimalToNumeric(loan.Payment),
		decimalToNumeric(loan.PaidAmount),
		string(loan.Status),
		timeToPgTimestamptz(loan.StartDate),
		loan.Version,
		timeToPgTimestamptz(loan.CreatedAt),
		timeToPgTimestamptz(loan.UpdatedAt),
	)

	return err
}

// GetByID retrieves a loan with its installments.
func (r *LoanRepository) GetByID(ctx context.Context, id string) (*domain.Loan, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1`, id)

	loan, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}

	loan.Installments, err = r.installments.ListByLoan(ctx, loan.ID)
	if err != nil {
		return nil, err
	}

	return loan, nil
}

// GetByIDForUpdate retrieves a loan with a FOR UPDATE lock on the loan
// row. The lock serializes payment application per loan.
func (r *LoanRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Loan, error) {
	pgxTx := tx.(*Tx).PgxTx()

	row := pgxTx.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1 FOR UPDATE`, id)

	loan, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}

	loan.Installments, err = r.installments.listByLoanTx(ctx, pgxTx, loan.ID)
	if err != nil {
		return nil, err
	}

	return loan, nil
}

// UpdateState persists the loan's mutable fields and bumps the version.
func (r *LoanRepository) UpdateState(ctx context.Context, tx usecase.Transaction, loan *domain.Loan) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
		UPDATE loans
		SET paid_amount = $2, status = $3, version = version + 1, updated_at = $4
		WHERE id = $1`,
		loan.ID,
		decimalToNumeric(loan.PaidAmount),
		string(loan.Status),
		timeToPgTimestamptz(loan.UpdatedAt),
	)

	return err
}

// List lists loans with pagination, newest first.
func (r *LoanRepository) List(ctx context.Context, limit, offset int) ([]*domain.Loan, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+loanColumns+` FROM loans
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.collectLoans(ctx, rows)
}

// ListAll loads every loan with installments. Reporting rollups fold
// over the result in memory.
func (r *LoanRepository) ListAll(ctx context.Context) ([]*domain.Loan, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+loanColumns+` FROM loans ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.collectLoans(ctx, rows)
}

func (r *LoanRepository) collectLoans(ctx context.Context, rows pgx.Rows) ([]*domain.Loan, error) {
	var loans []*domain.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, loan := range loans {
		installments, err := r.installments.ListByLoan(ctx, loan.ID)
		if err != nil {
			return nil, err
		}
		loan.Installments = installments
	}

	return loans, nil
}

func scanLoan(row pgx.Row) (*domain.Loan, error) {
	var (
		loan        domain.Loan
		principal   pgtype.Numeric
		downPayment pgtype.Numeric
		monthlyRate pgtype.Numeric
		payment     pgtype.Numeric
		paidAmount  pgtype.Numeric
		cadence     string
		status      string
		startDate   pgtype.Timestamptz
		createdAt   pgtype.Timestamptz
		updatedAt   pgtype.Timestamptz
	)

	err := row.Scan(
		&loan.ID,
		&loan.SaleID,
		&loan.CustomerID,
		&principal,
		&downPayment,
		&monthlyRate,
		&cadence,
		&loan.Term,
		&payment,
		&paidAmount,
		&status,
		&startDate,
		&loan.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	loan.Principal = numericToDecimal(principal)
	loan.DownPayment = numericToDecimal(downPayment)
	loan.MonthlyRate = numericToDecimal(monthlyRate)
	loan.Payment = numericToDecimal(payment)
	loan.PaidAmount = numericToDecimal(paidAmount)
	loan.Cadence = domain.Cadence(cadence)
	loan.Status = domain.LoanStatus(status)
	loan.StartDate = startDate.Time
	loan.CreatedAt = createdAt.Time
	loan.UpdatedAt = updatedAt.Time

	return &loan, nil
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
