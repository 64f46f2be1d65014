package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/credipos/engine/internal/domain"
	"github.com/credipos/engine/internal/usecase"
)

// OutboxRepository implements usecase.OutboxRepository. Events are
// written in the same transaction as the ledger mutation they describe
// and picked up later by the polling publisher.
type OutboxRepository struct {
	pool *pgxpool.Pool
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{pool: pool}
}

// Create creates a new outbox event within a transaction.
func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	pgxTx := tx.(*Tx).PgxTx()

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	_, err = pgxTx.Exec(ctx, `
		INSERT INTO outbox_events (id, aggregate_id, aggregate_type, event_type, payload, published, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID,
		event.AggregateID,
		event.AggregateType,
		event.EventType,
		payload,
		event.Published,
		timeToPgTimestamptz(event.CreatedAt),
	)

	return err
}

// GetUnpublished retrieves unpublished events in creation order.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, aggregate_id, aggregate_type, event_type, payload, published, published_at, created_at
		FROM outbox_events
		WHERE published = false
		ORDER BY created_at
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.OutboxEvent
	for rows.Next() {
		event, err := scanOutboxEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

// MarkPublished marks an event as published.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE outbox_events
		SET published = true, published_at = $2
		WHERE id = $1`,
		id,
		timeToPgTimestamptz(publishedAt),
	)

	return err
}

// DeletePublished deletes published events older than the given time.
func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM outbox_events
		WHERE published = true AND published_at < $1`,
		timeToPgTimestamptz(before),
	)

	return err
}

func scanOutboxEvent(row pgx.Row) (*domain.OutboxEvent, error) {
	var (
		event       domain.OutboxEvent
		payload     []byte
		publishedAt pgtype.Timestamptz
		createdAt   pgtype.Timestamptz
	)

	err := row.Scan(
		&event.ID,
		&event.AggregateID,
		&event.AggregateType,
		&event.EventType,
		&payload,
		&event.Published,
		&publishedAt,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if payload != nil {
		_ = json.Unmarshal(payload, &event.Payload)
	}

	if publishedAt.Valid {
		t := publishedAt.Time
		event.PublishedAt = &t
	}

	event.CreatedAt = createdAt.Time

	return &event, nil
}
