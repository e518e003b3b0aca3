package redistore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/halcyon-dev/authtrail"
)

// UsernameIndex tracks taken usernames in a Redis set. Membership is
// checked against the normalized (lowercase) form.
type UsernameIndex struct {
	redis redis.UniversalClient
	keys  keyBuilder
}

// NewUsernameIndex creates an index under the given key prefix.
func NewUsernameIndex(client redis.UniversalClient, prefix string) *UsernameIndex {
	return &UsernameIndex{redis: client, keys: newKeyBuilder(prefix)}
}

var _ authtrail.UsernameIndex = (*UsernameIndex)(nil)

func (s *UsernameIndex) UsernameExists(ctx context.Context, username string) (bool, error) {
	taken, err := s.redis.SIsMember(ctx, s.keys.usernameSet(), authtrail.NormalizeUsername(username)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return taken, nil
}

// Add marks a username as taken.
func (s *UsernameIndex) Add(ctx context.Context, username string) error {
	if err := s.redis.SAdd(ctx, s.keys.usernameSet(), authtrail.NormalizeUsername(username)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Remove frees a username, typically after account deletion.
func (s *UsernameIndex) Remove(ctx context.Context, username string) error {
	if err := s.redis.SRem(ctx, s.keys.usernameSet(), authtrail.NormalizeUsername(username)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
