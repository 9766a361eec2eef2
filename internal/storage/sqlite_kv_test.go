package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func setupKV(t *testing.T, driver string) *SQLiteKV {
	t.Helper()
	db, err := OpenSQLite(driver, filepath.Join(t.TempDir(), "hydrate-test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	kv, err := NewSQLiteKV(db, ScopeHydrate)
	if err != nil {
		t.Fatalf("new kv: %v", err)
	}
	return kv
}

func TestSQLiteKVGetSetRemove(t *testing.T) {
	for _, driver := range []string{DriverCGO, DriverPureGo} {
		t.Run(driver, func(t *testing.T) {
			kv := setupKV(t, driver)
			ctx := context.Background()

			if _, err := kv.Get(ctx, "logs"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if err := kv.Set(ctx, "logs", []byte(`[1]`)); err != nil {
				t.Fatalf("set: %v", err)
			}
			if err := kv.Set(ctx, "logs", []byte(`[1,2]`)); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			got, err := kv.Get(ctx, "logs")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if string(got) != `[1,2]` {
				t.Fatalf("expected last write to win, got %q", got)
			}

			if err := kv.Remove(ctx, "logs"); err != nil {
				t.Fatalf("remove: %v", err)
			}
			if err := kv.Remove(ctx, "logs"); err != nil {
				t.Fatalf("remove of absent key should succeed: %v", err)
			}
			if _, err := kv.Get(ctx, "logs"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound after remove, got %v", err)
			}
		})
	}
}

func TestSQLiteKVScopesAreIsolated(t *testing.T) {
	kv := setupKV(t, DriverCGO)
	sched := kv.WithScope(ScopeScheduler)
	ctx := context.Background()

	if err := kv.Set(ctx, "interval", []byte(`{"minutes":60}`)); err != nil {
		t.Fatalf("set hydrate: %v", err)
	}
	if err := sched.Set(ctx, "interval", []byte(`{"kind":"interval"}`)); err != nil {
		t.Fatalf("set scheduler: %v", err)
	}

	got, err := kv.Get(ctx, "interval")
	if err != nil || string(got) != `{"minutes":60}` {
		t.Fatalf("unexpected hydrate payload: %q %v", got, err)
	}
	keys, err := sched.Keys(ctx)
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 1 || keys[0] != "interval" {
		t.Fatalf("unexpected scheduler keys: %v", keys)
	}
	if sched.Scope() != ScopeScheduler {
		t.Fatalf("unexpected scope: %s", sched.Scope())
	}
}

func TestSQLiteKVUpdatedAt(t *testing.T) {
	kv := setupKV(t, DriverPureGo)
	fixed := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	kv.now = func() time.Time { return fixed }

	if err := kv.Set(t.Context(), "profile", []byte(`null`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := kv.UpdatedAt(t.Context(), "profile")
	if err != nil {
		t.Fatalf("updated at: %v", err)
	}
	if !got.Equal(fixed) {
		t.Fatalf("unexpected updated_at: %s", got)
	}
	if _, err := kv.UpdatedAt(t.Context(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenSQLiteRejectsUnknownDriver(t *testing.T) {
	if _, err := OpenSQLite("postgres", filepath.Join(t.TempDir(), "x.db")); err == nil {
		t.Fatal("expected unsupported driver error")
	}
}

func TestMemoryKVCopiesValues(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()
	value := []byte("abc")
	if err := kv.Set(ctx, "k", value); err != nil {
		t.Fatalf("set: %v", err)
	}
	value[0] = 'z'
	got, err := kv.Get(ctx, "k")
	if err != nil || string(got) != "abc" {
		t.Fatalf("unexpected value: %q %v", got, err)
	}
	if err := kv.Remove(ctx, "k"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := kv.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
