package challenge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nimbusapp/nimbus-api/internal/domain"
	"github.com/nimbusapp/nimbus-api/internal/pkg/id"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "vch:"

// RedisStore keeps challenges server-side in Redis with a TTL slightly past
// the challenge expiry, so the orchestrator still sees just-expired records
// and can report expiry distinctly.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Set(ctx context.Context, handle string, ch *domain.VerificationChallenge) (string, error) {
	if handle == "" {
		handle = id.New()
	}
	b, err := json.Marshal(ch)
	if err != nil {
		return "", fmt.Errorf("encode challenge: %w", err)
	}
	ttl := ttlUntil(ch, time.Now()) + ttlGrace
	if err := s.client.Set(ctx, redisKeyPrefix+handle, b, ttl).Err(); err != nil {
		return "", fmt.Errorf("store challenge: %w", err)
	}
	return handle, nil
}

func (s *RedisStore) Get(ctx context.Context, handle string) (*domain.VerificationChallenge, error) {
	if handle == "" {
		return nil, fmt.Errorf("no challenge record: %w", domain.ErrNotFound)
	}
	b, err := s.client.Get(ctx, redisKeyPrefix+handle).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("no challenge record: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("read challenge: %w", err)
	}
	var ch domain.VerificationChallenge
	if err := json.Unmarshal(b, &ch); err != nil {
		return nil, fmt.Errorf("decode challenge: %w", err)
	}
	return &ch, nil
}

func (s *RedisStore) Delete(ctx context.Context, handle string) error {
	return s.client.Del(ctx, redisKeyPrefix+handle).Err()
}

var _ Store = (*RedisStore)(nil)
