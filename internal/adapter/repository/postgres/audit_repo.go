package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/credipos/engine/internal/domain"
	"github.com/credipos/engine/internal/usecase"
)

const auditColumns = `id, actor, action, resource_type, resource_id, request_id,
	before_state, after_state, status, error_message, created_at`

// AuditRepository implements usecase.AuditRepository.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Create inserts an audit log entry outside any transaction.
func (r *AuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	return insertAuditLog(ctx, r.pool, log)
}

// CreateTx inserts an audit log entry inside the caller's transaction,
// so the entry commits or rolls back with the ledger mutation it
// records.
func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	return insertAuditLog(ctx, tx.(*Tx).PgxTx(), log)
}

// GetByResourceID retrieves all audit logs for a specific resource,
// newest first.
func (r *AuditRepository) GetByResourceID(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+auditColumns+` FROM audit_logs
		WHERE resource_type = $1 AND resource_id = $2
		ORDER BY created_at DESC`,
		resourceType, resourceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*domain.AuditLog
	for rows.Next() {
		log, err := scanAuditLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}

	return logs, rows.Err()
}

type auditExecer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func insertAuditLog(ctx context.Context, db auditExecer, log *domain.AuditLog) error {
	if log.ID == "" {
		log.ID = ulid.Make().String()
	}

	var beforeState, afterState []byte
	var err error

	if log.BeforeState != nil {
		beforeState, err = json.Marshal(log.BeforeState)
		if err != nil {
			return err
		}
	}

	if log.AfterState != nil {
		afterState, err = json.Marshal(log.AfterState)
		if err != nil {
			return err
		}
	}

	_, err = db.Exec(ctx, `
		INSERT INTO audit_logs (`+auditColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		log.ID,
		log.Actor,
		log.Action,
		log.ResourceType,
		log.ResourceID,
		log.RequestID,
		beforeState,
		afterState,
		log.Status,
		log.ErrorMessage,
		log.CreatedAt,
	)

	return err
}

func scanAuditLog(row pgx.Row) (*domain.AuditLog, error) {
	var (
		log         domain.AuditLog
		beforeState []byte
		afterState  []byte
	)

	err := row.Scan(
		&log.ID,
		&log.Actor,
		&log.Action,
		&log.ResourceType,
		&log.ResourceID,
		&log.RequestID,
		&beforeState,
		&afterState,
		&log.Status,
		&log.ErrorMessage,
		&log.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if beforeState != nil {
		_ = json.Unmarshal(beforeState, &log.BeforeState)
	}

	if afterState != nil {
		_ = json.Unmarshal(afterState, &log.AfterState)
	}

	return &log, nil
}
