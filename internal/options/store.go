package options

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/speedwagon-io/relicwatch/internal/lib/logger/sl"
	"github.com/speedwagon-io/relicwatch/internal/storage"
)

const recordKey = "options"

// Store persists the single Options record.
type Store struct {
	log *slog.Logger
	kv  storage.KV
}

func NewStore(log *slog.Logger, kv storage.KV) *Store {
	return &Store{log: log, kv: kv}
}

// Load returns the saved Options. A missing or unreadable record yields empty
// credentials and the default interval.
func (s *Store) Load(ctx context.Context) Options {
	data, err := s.kv.Get(ctx, recordKey)
	if errors.Is(err, storage.ErrNotFound) {
		s.log.Debug("no saved options, using defaults")
		return New("", "", 0)
	}
	if err != nil {
		s.log.Warn("failed to read saved options, using defaults", sl.Err(err))
		return New("", "", 0)
	}

	opts, err := Parse(data)
	if err != nil {
		s.log.Warn("saved options are unreadable, using defaults", sl.Err(err))
		return New("", "", 0)
	}
	opts.Sanitize()
	return opts
}

// Save sanitizes o in place and overwrites the saved record with it.
func (s *Store) Save(ctx context.Context, o *Options) error {
	o.Sanitize()

	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to marshal options: %w", err)
	}

	if err := s.kv.Put(ctx, recordKey, data); err != nil {
		return fmt.Errorf("failed to save options: %w", err)
	}

	s.log.Info("saved options",
		slog.String("app_id", o.AppID),
		slog.Int("update_freq", o.UpdateFreq),
		slog.Bool("api_key_set", o.APIKey != ""),
	)
	return nil
}

// Ping reports whether the underlying store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.kv.Ping(ctx)
}
