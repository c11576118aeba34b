package noncestore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix is prepended to every nonce key in the durable backend.
const DefaultKeyPrefix = "x402:nonce:"

// defaultTTL bounds storage under adversarial nonce churn; validBefore -
// validAfter is always much smaller than this in practice (§4.4).
const defaultTTL = 24 * time.Hour

// RedisStore is the durable, external nonce backend. MarkIfAbsent is a
// single SET key value NX EX command: the CAS is performed server-side by
// Redis, so no client-side locking is needed.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisStore builds a RedisStore over an existing client. An empty
// keyPrefix falls back to DefaultKeyPrefix.
func NewRedisStore(client *redis.Client, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix, ttl: defaultTTL}
}

func (s *RedisStore) key(nonce string) string { return s.keyPrefix + nonce }

func (s *RedisStore) Has(ctx context.Context, nonce string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(nonce)).Result()
	if err != nil {
		return false, NewUnavailableError(err)
	}
	return n > 0, nil
}

func (s *RedisStore) MarkIfAbsent(ctx context.Context, nonce string) error {
	ok, err := s.client.SetNX(ctx, s.key(nonce), "1", s.ttl).Result()
	if err != nil {
		return NewUnavailableError(err)
	}
	if !ok {
		return ErrAlreadyPresent
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, nonce string) error {
	if err := s.client.Del(ctx, s.key(nonce)).Err(); err != nil {
		return NewUnavailableError(err)
	}
	return nil
}
