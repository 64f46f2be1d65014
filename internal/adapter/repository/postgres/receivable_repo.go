package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/credipos/engine/internal/domain"
	"github.com/credipos/engine/internal/usecase"
)

const receivableColumns = `id, sale_id, customer_id, original_amount, paid_amount,
	status, version, created_at, updated_at`

// ReceivableRepository implements usecase.ReceivableRepository.
type ReceivableRepository struct {
	pool *pgxpool.Pool
}

// NewReceivableRepository creates a new ReceivableRepository.
func NewReceivableRepository(pool *pgxpool.Pool) *ReceivableRepository {
	return &ReceivableRepository{pool: pool}
}

// Create inserts a new receivable.
func (r *ReceivableRepository) Create(ctx context.Context, tx usecase.Transaction, receivable *domain.Receivable) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
		INSERT INTO receivables (`+receivableColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		receivable.ID,
		receivable.SaleID,
		receivable.CustomerID,
		decimalToNumeric(receivable.OriginalAmount),
		decimalToNumeric(receivable.PaidAmount),
		string(receivable.Status),
		receivable.Version,
		timeToPgTimestamptz(receivable.CreatedAt),
		timeToPgTimestamptz(receivable.UpdatedAt),
	)

	return err
}

// GetByID retrieves a receivable by ID.
func (r *ReceivableRepository) GetByID(ctx context.Context, id string) (*domain.Receivable, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+receivableColumns+` FROM receivables WHERE id = $1`, id)

	receivable, err := scanReceivable(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReceivableNotFound
		}
		return nil, err
	}

	return receivable, nil
}

// GetByIDForUpdate retrieves a receivable with a FOR UPDATE lock.
func (r *ReceivableRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Receivable, error) {
	pgxTx := tx.(*Tx).PgxTx()

	row := pgxTx.QueryRow(ctx, `SELECT `+receivableColumns+` FROM receivables WHERE id = $1 FOR UPDATE`, id)

	receivable, err := scanReceivable(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReceivableNotFound
		}
		return nil, err
	}

	return receivable, nil
}

// Update persists the receivable's mutable fields and bumps the
// version.
func (r *ReceivableRepository) Update(ctx context.Context, tx usecase.Transaction, receivable *domain.Receivable) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
		UPDATE receivables
		SET paid_amount = $2, status = $3, version = version + 1, updated_at = $4
		WHERE id = $1`,
		receivable.ID,
		decimalToNumeric(receivable.PaidAmount),
		string(receivable.Status),
		timeToPgTimestamptz(receivable.UpdatedAt),
	)

	return err
}

// List lists receivables with pagination, newest first.
func (r *ReceivableRepository) List(ctx context.Context, limit, offset int) ([]*domain.Receivable, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+receivableColumns+` FROM receivables
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectReceivables(rows)
}

// ListAll loads every receivable for reporting rollups.
func (r *ReceivableRepository) ListAll(ctx context.Context) ([]*domain.Receivable, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+receivableColumns+` FROM receivables ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectReceivables(rows)
}

func collectReceivables(rows pgx.Rows) ([]*domain.Receivable, error) {
	var receivables []*domain.Receivable
	for rows.Next() {
		receivable, err := scanReceivable(rows)
		if err != nil {
			return nil, err
		}
		receivables = append(receivables, receivable)
	}

	return receivables, rows.Err()
}

func scanReceivable(row pgx.Row) (*domain.Receivable, error) {
	var (
		receivable     domain.Receivable
		originalAmount pgtype.Numeric
		paidAmount     pgtype.Numeric
		status         string
		createdAt      pgtype.Timestamptz
		updatedAt      pgtype.Timestamptz
	)

	err := row.Scan(
		&receivable.ID,
		&receivable.SaleID,
		&receivable.CustomerID,
		&originalAmount,
		&paidAmount,
		&status,
		&receivable.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	receivable.OriginalAmount = numericToDecimal(originalAmount)
	receivable.PaidAmount = numericToDecimal(paidAmount)
	receivable.Status = domain.ReceivableStatus(status)
	receivable.CreatedAt = createdAt.Time
	receivable.UpdatedAt = updatedAt.Time

	return &receivable, nil
}
