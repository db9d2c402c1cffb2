// Package badger provides a Badger-backed kv.Store.
package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/sagaflow/sagaflow/pkg/kv"
)

// Store persists entries in an embedded Badger database. Entries written
// with a ttl rely on Badger's native expiry.
type Store struct {
	db *badger.DB
}

// New wraps an open Badger database.
func New(db *badger.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("badger db cannot be nil")
	}
	return &Store{db: db}, nil
}

// Open opens a Badger database at dir with logging disabled and wraps it.
func Open(dir string) (*Store, error) {
	return OpenWithOptions(dir, true)
}

// OpenWithOptions opens a Badger database at dir with the given sync mode.
func OpenWithOptions(dir string, syncWrites bool) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil).WithSyncWrites(syncWrites)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// Put stores value at key, with an optional ttl.
func (s *Store) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.db.Update(func(txn *badger.Txn) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		entry := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Get loads the value at key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		item, err := txn.Get([]byte(key))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return &kv.NotFoundError{Key: key}
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		return txn.Delete([]byte(key))
	})
}

// Close runs a final value-log GC pass and closes the database.
func (s *Store) Close() error {
	for {
		if err := s.db.RunValueLogGC(0.5); err != nil {
			break
		}
	}
	return s.db.Close()
}
