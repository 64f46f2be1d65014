package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DelinquencySnapshot is the sweeper's daily record of loans that were
// atrasado at sweep time, kept for the collections dashboard.
type DelinquencySnapshot struct {
	SweptAt time.Time `json:"swept_at"`
	LoanIDs []string  `json:"loan_ids"`
}

// SnapshotStore persists delinquency sweeps in Redis, one key per day.
type SnapshotStore struct {
	client *redis.Client
	prefix string
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(client *redis.Client) *SnapshotStore {
	return &SnapshotStore{
		client: client,
		prefix: "credipos:delinquency:",
	}
}

// Save stores the snapshot under its sweep date.
func (s *SnapshotStore) Save(ctx context.Context, snapshot *DelinquencySnapshot, ttl time.Duration) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	key := s.prefix + snapshot.SweptAt.UTC().Format("2006-01-02")

	return s.client.Set(ctx, key, data, ttl).Err()
}

// Load retrieves the snapshot for a given day, or nil when no sweep ran
// that day.
func (s *SnapshotStore) Load(ctx context.Context, day time.Time) (*DelinquencySnapshot, error) {
	key := s.prefix + day.UTC().Format("2006-01-02")

	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snapshot DelinquencySnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, err
	}

	return &snapshot, nil
}
