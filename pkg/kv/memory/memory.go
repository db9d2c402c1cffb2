// Package memory provides an in-memory kv.Store for tests and single-node
// development.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sagaflow/sagaflow/pkg/kv"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Store is a thread-safe in-memory store with lazy ttl expiry plus a
// background janitor.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry

	stopOnce sync.Once
	stopCh   chan struct{}
}

// New creates an in-memory store and starts its expiry janitor.
func New() *Store {
	s := &Store{
		entries: make(map[string]entry),
		stopCh:  make(chan struct{}),
	}
	go s.janitor()
	return s
}

// Put stores value at key, with an optional ttl.
func (s *Store) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return nil
}

// Get loads the value at key. Expired entries count as missing.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || e.expired(time.Now()) {
		return nil, &kv.NotFoundError{Key: key}
	}
	return append([]byte(nil), e.value...), nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Close stops the janitor.
func (s *Store) Close() error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	return nil
}

// Len reports the number of live entries.
func (s *Store) Len() int {
	now := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.entries {
		if !e.expired(now) {
			n++
		}
	}
	return n
}

func (s *Store) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep(time.Now())
		case <-s.stopCh:
			return
		}
	}
}

func (s *Store) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, key)
		}
	}
}
