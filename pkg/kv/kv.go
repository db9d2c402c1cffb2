// Package kv defines the durable key-value store contract the saga
// orchestrator persists executions through, with memory, badger and redis
// backends in subpackages.
package kv

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Store is a durable key-value store. A zero ttl means the entry never
// expires; a positive ttl lets the backend purge the entry after the
// retention window.
type Store interface {
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// NotFoundError is returned by Get when a key does not exist or has expired.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("key not found: %s", e.Key)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}
