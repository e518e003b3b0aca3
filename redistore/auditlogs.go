package redistore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/halcyon-dev/authtrail"
)

// AuditLogStore persists audit documents as JSON blobs with a per-user
// sorted set scored by CreatedAt. Entries are never updated; the only
// delete is the bulk per-user purge.
type AuditLogStore struct {
	redis redis.UniversalClient
	keys  keyBuilder
}

// NewAuditLogStore creates a store under the given key prefix.
func NewAuditLogStore(client redis.UniversalClient, prefix string) *AuditLogStore {
	return &AuditLogStore{redis: client, keys: newKeyBuilder(prefix)}
}

var _ authtrail.AuditLogStore = (*AuditLogStore)(nil)

func (s *AuditLogStore) Insert(ctx context.Context, doc authtrail.AuditDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode audit log: %w", err)
	}
	id := uuid.NewString()
	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, s.keys.auditDoc(id), data, 0)
	pipe.ZAdd(ctx, s.keys.auditUser(doc.UserID), redis.Z{
		Score:  float64(doc.CreatedAt),
		Member: id,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (s *AuditLogStore) ListByUser(ctx context.Context, userID string, limit int) ([]authtrail.AuditDocument, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	ids, err := s.redis.ZRevRange(ctx, s.keys.auditUser(userID), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	docs := make([]authtrail.AuditDocument, 0, len(ids))
	for _, id := range ids {
		data, err := s.redis.Get(ctx, s.keys.auditDoc(id)).Bytes()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		var doc authtrail.AuditDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode audit log %q: %w", id, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *AuditLogStore) DeleteByUser(ctx context.Context, userID string) (int, error) {
	userKey := s.keys.auditUser(userID)
	ids, err := s.redis.ZRange(ctx, userKey, 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	pipe := s.redis.TxPipeline()
	for _, id := range ids {
		pipe.Del(ctx, s.keys.auditDoc(id))
	}
	pipe.Del(ctx, userKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return len(ids), nil
}
