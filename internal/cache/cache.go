// Package cache keeps short-lived lookups, such as resolved sessions, in a
// key/value store shared by every API replica.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store holds opaque values until their ttl runs out. Callers own the
// encoding of what they store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// RedisConfig addresses the store backing the session cache. Every key is
// written under Namespace so replicas of other services can share the server.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	Namespace string
}
