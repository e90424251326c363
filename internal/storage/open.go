package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/speedwagon-io/relicwatch/internal/config"
)

// Open returns the KV backend selected by cfg.Driver.
func Open(ctx context.Context, log *slog.Logger, cfg config.StoreConfig) (KV, error) {
	switch cfg.Driver {
	case config.StoreSQLite, "":
		kv, err := NewSQLiteKV(log, cfg.Path)
		if err != nil {
			return nil, err
		}
		return kv, nil
	case config.StoreDynamoDB:
		kv, err := NewDynamoDBKV(ctx, log, cfg.DynamoDB)
		if err != nil {
			return nil, err
		}
		return kv, nil
	case config.StoreMemory:
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
