package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/credipos/engine/internal/domain"
	"github.com/credipos/engine/internal/usecase"
)

const installmentColumns = `id, loan_id, sequence, due_date, opening_balance, interest,
	principal, closing_balance, payment, paid_amount, paid, paid_at, created_at`

// InstallmentRepository implements usecase.InstallmentRepository.
type InstallmentRepository struct {
	pool *pgxpool.Pool
}

// NewInstallmentRepository creates a new InstallmentRepository.
func NewInstallmentRepository(pool *pgxpool.Pool) *InstallmentRepository {
	return &InstallmentRepository{pool: pool}
}

// CreateBatch inserts all schedule rows of a loan in one batch.
func (r *InstallmentRepository) CreateBatch(ctx context.Context, tx usecase.Transaction, installments []*domain.Installment) error {
	pgxTx := tx.(*Tx).PgxTx()

	batch := &pgx.Batch{}
	for _, inst := range installments {
		batch.Queue(`
			INSERT INTO installments (`+installmentColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			inst.ID,
			inst.LoanID,
			inst.Sequence,
			timeToPgTimestamptz(inst.DueDate),
			decimalToNumeric(inst.OpeningBalance),
			decimalToNumeric(inst.Interest),
			decimalToNumeric(inst.Principal),
			decimalToNumeric(inst.ClosingBalance),
			decimalToNumeric(inst.Payment),
			decimalToNumeric(inst.PaidAmount),
			inst.Paid,
			timePtrToPgTimestamptz(inst.PaidAt),
			timeToPgTimestamptz(inst.CreatedAt),
		)
	}

	results := pgxTx.SendBatch(ctx, batch)
	defer results.Close()

	for range installments {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}

	return nil
}

// Update persists the mutable payment fields of one schedule row.
func (r *InstallmentRepository) Update(ctx context.Context, tx usecase.Transaction, installment *domain.Installment) error {
	pgxTx := tx.(*Tx).PgxTx()

	return execUpdateInstallment(ctx, pgxTx, installment)
}

// UpdateBatch persists the mutable fields of many rows at once, used by
// early payoff which rewrites every unpaid row.
func (r *InstallmentRepository) UpdateBatch(ctx context.Context, tx usecase.Transaction, installments []*domain.Installment) error {
	pgxTx := tx.(*Tx).PgxTx()

	batch := &pgx.Batch{}
	for _, inst := range installments {
		batch.Queue(`
			UPDATE installments
			SET interest = $2, payment = $3, paid_amount = $4, paid = $5, paid_at = $6
			WHERE id = $1`,
			inst.ID,
			decimalToNumeric(inst.Interest),
			decimalToNumeric(inst.Payment),
			decimalToNumeric(inst.PaidAmount),
			inst.Paid,
			timePtrToPgTimestamptz(inst.PaidAt),
		)
	}

	results := pgxTx.SendBatch(ctx, batch)
	defer results.Close()

	for range installments {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}

	return nil
}

// ListByLoan lists a loan's installments ordered by sequence.
func (r *InstallmentRepository) ListByLoan(ctx context.Context, loanID string) ([]*domain.Installment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+installmentColumns+` FROM installments
		WHERE loan_id = $1
		ORDER BY sequence`,
		loanID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectInstallments(rows)
}

func (r *InstallmentRepository) listByLoanTx(ctx context.Context, pgxTx pgx.Tx, loanID string) ([]*domain.Installment, error) {
	rows, err := pgxTx.Query(ctx, `
		SELECT `+installmentColumns+` FROM installments
		WHERE loan_id = $1
		ORDER BY sequence`,
		loanID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectInstallments(rows)
}

func execUpdateInstallment(ctx context.Context, pgxTx pgx.Tx, inst *domain.Installment) error {
	_, err := pgxTx.Exec(ctx, `
		UPDATE installments
		SET interest = $2, payment = $3, paid_amount = $4, paid = $5, paid_at = $6
		WHERE id = $1`,
		inst.ID,
		decimalToNumeric(inst.Interest),
		decimalToNumeric(inst.Payment),
		decimalToNumeric(inst.PaidAmount),
		inst.Paid,
		timePtrToPgTimestamptz(inst.PaidAt),
	)

	return err
}

func collectInstallments(rows pgx.Rows) ([]*domain.Installment, error) {
	var installments []*domain.Installment
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, err
		}
		installments = append(installments, inst)
	}

	return installments, rows.Err()
}

func scanInstallment(row pgx.Row) (*domain.Installment, error) {
	var (
		inst           domain.Installment
		dueDate        pgtype.Timestamptz
		openingBalance pgtype.Numeric
		interest       pgtype.Numeric
		principal      pgtype.Numeric
		closingBalance pgtype.Numeric
		payment        pgtype.Numeric
		paidAmount     pgtype.Numeric
		paidAt         pgtype.Timestamptz
		createdAt      pgtype.Timestamptz
	)

	err := row.Scan(
		&inst.ID,
		&inst.LoanID,
		&inst.Sequence,
		&dueDate,
		&openingBalance,
		&interest,
		&principal,
		&closingBalance,
		&payment,
		&paidAmount,
		&inst.Paid,
		&paidAt,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	inst.DueDate = dueDate.Time
	inst.OpeningBalance = numericToDecimal(openingBalance)
	inst.Interest = numericToDecimal(interest)
	inst.Principal = numericToDecimal(principal)
	inst.ClosingBalance = numericToDecimal(closingBalance)
	inst.Payment = numericToDecimal(payment)
	inst.PaidAmount = numericToDecimal(paidAmount)
	inst.CreatedAt = createdAt.Time

	if paidAt.Valid {
		t := paidAt.Time
		inst.PaidAt = &t
	}

	return &inst, nil
}

func timePtrToPgTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}

	return pgtype.Timestamptz{Time: *t, Valid: true}
}
