package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/speedwagon-io/relicwatch/internal/config"
	"github.com/speedwagon-io/relicwatch/internal/lib/logger/sl"
)

func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	if _, err := kv.Get(ctx, "options"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty store, got %v", err)
	}

	if err := kv.Put(ctx, "options", []byte(`{"apiKey":"a"}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := kv.Put(ctx, "options", []byte(`{"apiKey":"b"}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, err := kv.Get(ctx, "options")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"apiKey":"b"}` {
		t.Errorf("expected last write to win, got %s", got)
	}

	if err := kv.Ping(ctx); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestMemoryKV(t *testing.T) {
	exerciseKV(t, NewMemoryKV())
}

func TestMemoryKVCopiesValues(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()
	buf := []byte("abc")
	_ = kv.Put(ctx, "k", buf)
	buf[0] = 'z'

	got, _ := kv.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("stored value aliased caller buffer: %s", got)
	}
}

func TestSQLiteKV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "options.db")
	kv, err := NewSQLiteKV(sl.Discard(), path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer kv.Close()

	exerciseKV(t, kv)
}

func TestSQLiteKVPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.db")
	ctx := context.Background()

	kv, err := NewSQLiteKV(sl.Discard(), path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := kv.Put(ctx, "options", []byte(`{"updateFreq":7}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	kv.Close()

	reopened, err := NewSQLiteKV(sl.Discard(), path)
	if err != nil {
		t.Fatalf("reopen sqlite: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "options")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if string(got) != `{"updateFreq":7}` {
		t.Errorf("unexpected value after reopen: %s", got)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		kv, err := Open(ctx, sl.Discard(), config.StoreConfig{Driver: config.StoreMemory})
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		if _, ok := kv.(*MemoryKV); !ok {
			t.Errorf("expected *MemoryKV, got %T", kv)
		}
	})

	t.Run("unknown driver", func(t *testing.T) {
		if _, err := Open(ctx, sl.Discard(), config.StoreConfig{Driver: "etcd"}); err == nil {
			t.Fatal("expected error for unknown driver")
		}
	})
}
