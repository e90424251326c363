package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("record not found")

// KV persists small opaque records by key. Put overwrites any previous value.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
	Close() error
}
