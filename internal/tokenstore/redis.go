package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/initBasti/plenty-cli/internal/api"
)

// RedisStore keeps the token under one key that expires with the token.
// Several machines sharing the server then share one login.
type RedisStore struct {
	client  *redis.Client
	key     string
	timeout time.Duration
	now     func() time.Time
}

// NewRedisStore connects to a redis:// or rediss:// URL.
func NewRedisStore(url, key string, timeout time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return NewRedisStoreWithClient(redis.NewClient(opts), key, timeout), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, key string, timeout time.Duration) *RedisStore {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &RedisStore{client: client, key: key, timeout: timeout, now: time.Now}
}

// LoadToken implements api.TokenStore.
func (s *RedisStore) LoadToken(ctx context.Context) (*api.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading token from redis: %w", err)
	}
	return decodeToken(data, s.now())
}

// StoreToken implements api.TokenStore. Already expired tokens are not written.
func (s *RedisStore) StoreToken(ctx context.Context, token api.Token) error {
	ttl := token.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	data, err := encodeToken(token)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.Set(ctx, s.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("storing token in redis: %w", err)
	}
	return nil
}

// ClearToken deletes the key.
func (s *RedisStore) ClearToken(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clearing token in redis: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
