package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/justsurfingit/job-board/internal/cache"
	"github.com/redis/go-redis/v9"
)

// Store is a cache.Store on a single Redis server.
type Store struct {
	client    *redis.Client
	namespace string
}

func New(cfg cache.RedisConfig) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Store{client: client, namespace: cfg.Namespace}
}

// Ping verifies the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.namespace+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cache.ErrMiss
	}
	return val, err
}

// Put stores value for ttl. Entries without an expiry are refused.
func (s *Store) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("cache entry %q needs a positive ttl, got %s", key, ttl)
	}
	return s.client.Set(ctx, s.namespace+key, value, ttl).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}
