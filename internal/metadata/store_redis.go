package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	platformredis "fundgate/internal/platform/redis"
	"fundgate/pkg/domain"
	"fundgate/pkg/platform/sentinel"
)

const keyPrefix = "fundgate:metadata:"

// RedisStore keeps metadata in Redis so multiple engine instances share one
// view. Records carry a TTL; stale entries simply disappear and the caller
// falls back to rendering without metadata.
type RedisStore struct {
	client *platformredis.Client
	ttl    time.Duration
}

func NewRedisStore(client *platformredis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, id domain.ProposalID) (Metadata, error) {
	raw, err := s.client.Get(ctx, keyPrefix+id.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return Metadata{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Metadata{}, fmt.Errorf("reading metadata: %w", err)
	}

	var md Metadata
	if err := json.Unmarshal(raw, &md); err != nil {
		return Metadata{}, fmt.Errorf("decoding metadata: %w", err)
	}
	return md, nil
}

func (s *RedisStore) Put(ctx context.Context, id domain.ProposalID, md Metadata) error {
	raw, err := json.Marshal(md)
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+id.String(), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}
	return nil
}
