package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore implements usecase.IdempotencyStore using Redis.
// Cashiers on flaky store connections retry payment submissions; the
// stored response lets a retry return the original outcome instead of
// double-applying.
type IdempotencyStore struct {
	client *redis.Client
	prefix string
}

// NewIdempotencyStore creates a new IdempotencyStore.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{
		client: client,
		prefix: "credipos:idempotency:",
	}
}

// CheckAndSet atomically checks if key exists, sets if not. When the
// key is new and no response is given yet, a placeholder locks the key
// so concurrent duplicates observe the in-flight request.
func (s *IdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	fullKey := s.prefix + key

	existing, err := s.client.Get(ctx, fullKey).Bytes()
	if err == nil {
		return true, existing, nil
	}
	if !errors.Is(err, redis.Nil) {
		return false, nil, err
	}

	if response != nil {
		if err := s.client.Set(ctx, fullKey, response, ttl).Err(); err != nil {
			return false, nil, err
		}

		return false, nil, nil
	}

	set, err := s.client.SetNX(ctx, fullKey, "processing", ttl).Result()
	if err != nil {
		return false, nil, err
	}

	if !set {
		existing, err := s.client.Get(ctx, fullKey).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return false, nil, err
		}

		return true, existing, nil
	}

	return false, nil, nil
}

// Update updates an existing idempotency key with the final response.
func (s *IdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, response, ttl).Err()
}
