package badger

import (
	"context"
	"testing"

	"github.com/sagaflow/sagaflow/pkg/kv"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStorePutGetDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "execution:s-1", []byte(`{"status":"running"}`), 0); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	value, err := store.Get(ctx, "execution:s-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(value) != `{"status":"running"}` {
		t.Fatalf("Get() = %q", value)
	}

	if err := store.Delete(ctx, "execution:s-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, "execution:s-1"); !kv.IsNotFound(err) {
		t.Fatalf("expected NotFoundError after delete, got %v", err)
	}
}

func TestStoreGetMissingKey(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "missing")
	if !kv.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestStoreOverwrite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "k", []byte("v1"), 0); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.Put(ctx, "k", []byte("v2"), 0); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	value, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(value) != "v2" {
		t.Fatalf("Get() = %q, want v2", value)
	}
}

func TestStoreCancelledContext(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Put(ctx, "k", []byte("v"), 0); err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if _, err := store.Get(ctx, "k"); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
