package eventpublisher

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/credipos/engine/internal/domain"
	"github.com/credipos/engine/internal/usecase"
)

// EventPublisher drains the outbox: it polls for unpublished ledger
// events, hands them to a Publisher, and marks them published. Events
// already delivered are pruned after the retention window.
type EventPublisher struct {
	outboxRepo usecase.OutboxRepository
	publisher  Publisher
	logger     *slog.Logger
	batchSize  int
	interval   time.Duration
	retention  time.Duration
}

// Publisher delivers a ledger event to an external consumer. Delivery
// is at-least-once; consumers deduplicate by event ID.
type Publisher interface {
	Publish(ctx context.Context, event *domain.OutboxEvent) error
}

// Config for EventPublisher.
type Config struct {
	OutboxRepo usecase.OutboxRepository
	Publisher  Publisher
	Logger     *slog.Logger
	BatchSize  int
	Interval   time.Duration
	Retention  time.Duration
}

// NewEventPublisher creates a new EventPublisher.
func NewEventPublisher(cfg Config) *EventPublisher {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.Retention == 0 {
		cfg.Retention = 7 * 24 * time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &EventPublisher{
		outboxRepo: cfg.OutboxRepo,
		publisher:  cfg.Publisher,
		logger:     cfg.Logger,
		batchSize:  cfg.BatchSize,
		interval:   cfg.Interval,
		retention:  cfg.Retention,
	}
}

// Start runs the publishing loop until the context is cancelled.
func (ep *EventPublisher) Start(ctx context.Context) error {
	ep.logger.Info("event publisher started",
		slog.Int("batch_size", ep.batchSize),
		slog.Duration("interval", ep.interval))

	ticker := time.NewTicker(ep.interval)
	defer ticker.Stop()

	if err := ep.processEvents(ctx); err != nil {
		ep.logger.Error("error processing events on start", slog.String("error", err.Error()))
	}

	for {
		select {
		case <-ctx.Done():
			ep.logger.Info("event publisher shutting down")
			return ctx.Err()
		case <-ticker.C:
			if err := ep.processEvents(ctx); err != nil {
				ep.logger.Error("error processing events", slog.String("error", err.Error()))
			}
		}
	}
}

// processEvents fetches and publishes one batch, then prunes delivered
// events past retention.
func (ep *EventPublisher) processEvents(ctx context.Context) error {
	events, err := ep.outboxRepo.GetUnpublished(ctx, ep.batchSize)
	if err != nil {
		return err
	}

	if len(events) > 0 {
		ep.logger.Info("processing events", slog.Int("count", len(events)))
	}

	for _, event := range events {
		if err := ep.publishEvent(ctx, event); err != nil {
			ep.logger.Error("failed to publish event",
				slog.String("event_id", event.ID),
				slog.String("event_type", event.EventType),
				slog.String("error", err.Error()))
			// Leave it unpublished for the next cycle.
			continue
		}

		if err := ep.outboxRepo.MarkPublished(ctx, event.ID, time.Now()); err != nil {
			ep.logger.Error("failed to mark event as published",
				slog.String("event_id", event.ID),
				slog.String("error", err.Error()))
		}
	}

	if err := ep.outboxRepo.DeletePublished(ctx, time.Now().Add(-ep.retention)); err != nil {
		ep.logger.Error("failed to prune published events", slog.String("error", err.Error()))
	}

	return nil
}

func (ep *EventPublisher) publishEvent(ctx context.Context, event *domain.OutboxEvent) error {
	if err := ep.publisher.Publish(ctx, event); err != nil {
		return err
	}

	ep.logger.Info("event published",
		slog.String("event_id", event.ID),
		slog.String("event_type", event.EventType),
		slog.String("aggregate_id", event.AggregateID))

	return nil
}

// RedisPublisher pushes ledger events onto a Redis pub/sub channel,
// where the POS frontend and the notifications worker subscribe.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher creates a new RedisPublisher.
func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = "credipos:events"
	}

	return &RedisPublisher{client: client, channel: channel}
}

type wireEvent struct {
	ID            string         `json:"id"`
	AggregateID   string         `json:"aggregate_id"`
	AggregateType string         `json:"aggregate_type"`
	EventType     string         `json:"event_type"`
	Payload       map[string]any `json:"payload"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Publish serializes the event and publishes it on the channel.
func (p *RedisPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	data, err := json.Marshal(wireEvent{
		ID:            event.ID,
		AggregateID:   event.AggregateID,
		AggregateType: event.AggregateType,
		EventType:     event.EventType,
		Payload:       event.Payload,
		CreatedAt:     event.CreatedAt,
	})
	if err != nil {
		return err
	}

	return p.client.Publish(ctx, p.channel, data).Err()
}

// LogPublisher logs events instead of delivering them, for local
// development.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a new LogPublisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

// Publish logs the event.
func (p *LogPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	p.logger.Info("EVENT PUBLISHED",
		slog.String("event_id", event.ID),
		slog.String("event_type", event.EventType),
		slog.String("aggregate_type", event.AggregateType),
		slog.String("aggregate_id", event.AggregateID),
		slog.String("payload", string(payload)))

	return nil
}
