package redistore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/halcyon-dev/authtrail"
)

// CounterStore persists one counter document per user.
type CounterStore struct {
	redis redis.UniversalClient
	keys  keyBuilder
}

// NewCounterStore creates a store under the given key prefix.
func NewCounterStore(client redis.UniversalClient, prefix string) *CounterStore {
	return &CounterStore{redis: client, keys: newKeyBuilder(prefix)}
}

var _ authtrail.CounterStore = (*CounterStore)(nil)

func (s *CounterStore) Get(ctx context.Context, userID string) (*authtrail.Counter, error) {
	data, err := s.redis.Get(ctx, s.keys.counter(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	var counter authtrail.Counter
	if err := json.Unmarshal(data, &counter); err != nil {
		return nil, fmt.Errorf("decode counter for %q: %w", userID, err)
	}
	return &counter, nil
}

func (s *CounterStore) Put(ctx context.Context, counter authtrail.Counter) error {
	data, err := json.Marshal(counter)
	if err != nil {
		return fmt.Errorf("encode counter: %w", err)
	}
	if err := s.redis.Set(ctx, s.keys.counter(counter.UserID), data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (s *CounterStore) DeleteByUser(ctx context.Context, userID string) (int, error) {
	n, err := s.redis.Del(ctx, s.keys.counter(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return int(n), nil
}
