package redistore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/halcyon-dev/authtrail"
)

// AppUserStore persists application-user projections in Redis. Each
// document lives under an opaque id with a SETNX-guarded secondary
// index from auth user id to document id, so at most one projection
// exists per auth user.
type AppUserStore struct {
	redis redis.UniversalClient
	keys  keyBuilder
}

// NewAppUserStore creates a store under the given key prefix.
func NewAppUserStore(client redis.UniversalClient, prefix string) *AppUserStore {
	return &AppUserStore{redis: client, keys: newKeyBuilder(prefix)}
}

var _ authtrail.AppUserStore = (*AppUserStore)(nil)

type appUserBlob struct {
	ID string `json:"id"`
	authtrail.AppUser
}

func (s *AppUserStore) Get(ctx context.Context, id string) (*authtrail.AppUser, error) {
	data, err := s.redis.Get(ctx, s.keys.appUserDoc(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	var blob appUserBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, fmt.Errorf("decode app user %q: %w", id, err)
	}
	doc := blob.AppUser
	doc.ID = blob.ID
	return &doc, nil
}

func (s *AppUserStore) GetByAuthUserID(ctx context.Context, authUserID string) (*authtrail.AppUser, error) {
	id, err := s.redis.Get(ctx, s.keys.appUserIndex(authUserID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return s.Get(ctx, id)
}

func (s *AppUserStore) Insert(ctx context.Context, doc authtrail.AppUser) (string, error) {
	id := uuid.NewString()
	doc.ID = id
	data, err := json.Marshal(appUserBlob{ID: id, AppUser: doc})
	if err != nil {
		return "", fmt.Errorf("encode app user: %w", err)
	}

	// The index SETNX is the uniqueness guard; the document write only
	// proceeds once this store owns the auth user id.
	ok, err := s.redis.SetNX(ctx, s.keys.appUserIndex(doc.AuthUserID), id, 0).Result()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if !ok {
		return "", fmt.Errorf("%w: auth user %q", ErrAppUserExists, doc.AuthUserID)
	}
	if err := s.redis.Set(ctx, s.keys.appUserDoc(id), data, 0).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return id, nil
}

func (s *AppUserStore) Patch(ctx context.Context, id string, doc authtrail.AppUser) error {
	key := s.keys.appUserDoc(id)
	exists, err := s.redis.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %q", ErrAppUserMissing, id)
	}
	doc.ID = id
	data, err := json.Marshal(appUserBlob{ID: id, AppUser: doc})
	if err != nil {
		return fmt.Errorf("encode app user: %w", err)
	}
	if err := s.redis.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (s *AppUserStore) DeleteByAuthUserID(ctx context.Context, authUserID string) (int, error) {
	indexKey := s.keys.appUserIndex(authUserID)
	id, err := s.redis.Get(ctx, indexKey).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	pipe := s.redis.TxPipeline()
	docDel := pipe.Del(ctx, s.keys.appUserDoc(id))
	pipe.Del(ctx, indexKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return int(docDel.Val()), nil
}
