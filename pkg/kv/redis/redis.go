// Package redis provides a Redis-backed kv.Store for deployments that share
// saga state across processes.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sagaflow/sagaflow/pkg/kv"
)

// Store persists entries in Redis using plain string keys with optional
// expiry.
type Store struct {
	client *redis.Client
}

// New wraps an existing Redis client.
func New(client *redis.Client) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	return &Store{client: client}, nil
}

// Connect dials Redis and verifies the connection with a ping.
func Connect(ctx context.Context, addr, password string, db int) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis at %s: %w", addr, err)
	}
	return &Store{client: client}, nil
}

// Put stores value at key, with an optional ttl.
func (s *Store) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// Get loads the value at key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, &kv.NotFoundError{Key: key}
		}
		return nil, err
	}
	return value, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
