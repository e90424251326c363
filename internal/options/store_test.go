package options

import (
	"context"
	"errors"
	"testing"

	"github.com/speedwagon-io/relicwatch/internal/lib/logger/sl"
	"github.com/speedwagon-io/relicwatch/internal/storage"
)

type brokenKV struct{ storage.KV }

func (brokenKV) Get(context.Context, string) ([]byte, error) { return nil, errors.New("disk on fire") }

func TestStoreLoadEmpty(t *testing.T) {
	s := NewStore(sl.Discard(), storage.NewMemoryKV())

	got := s.Load(context.Background())
	want := Options{UpdateFreq: DefaultUpdateFreq}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore(sl.Discard(), storage.NewMemoryKV())

	inputs := []Options{
		{APIKey: "abc123", AppID: "456", UpdateFreq: 10},
		{APIKey: "", AppID: "", UpdateFreq: 1},
		{APIKey: "ZZZ", AppID: "0", UpdateFreq: 1440},
	}

	for _, in := range inputs {
		in.Sanitize()
		saved := in
		if err := s.Save(ctx, &saved); err != nil {
			t.Fatalf("save: %v", err)
		}
		if got := s.Load(ctx); got != in {
			t.Errorf("expected %+v, got %+v", in, got)
		}
	}
}

func TestStoreSaveSanitizes(t *testing.T) {
	ctx := context.Background()
	s := NewStore(sl.Discard(), storage.NewMemoryKV())

	o := Options{APIKey: "ab-c 1", AppID: "#45x6", UpdateFreq: -4}
	if err := s.Save(ctx, &o); err != nil {
		t.Fatalf("save: %v", err)
	}

	want := Options{APIKey: "abc1", AppID: "456", UpdateFreq: DefaultUpdateFreq}
	if o != want {
		t.Errorf("expected caller's value sanitized to %+v, got %+v", want, o)
	}
	if got := s.Load(ctx); got != want {
		t.Errorf("expected loaded %+v, got %+v", want, got)
	}
}

func TestStoreSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewStore(sl.Discard(), storage.NewMemoryKV())

	first := Options{APIKey: "one", AppID: "1", UpdateFreq: 2}
	second := Options{APIKey: "two", AppID: "2", UpdateFreq: 3}
	_ = s.Save(ctx, &first)
	_ = s.Save(ctx, &second)

	if got := s.Load(ctx); got != second {
		t.Errorf("expected %+v, got %+v", second, got)
	}
}

func TestStoreLoadCorruptRecord(t *testing.T) {
	ctx := context.Background()
	for _, record := range []string{"not json", `{"apiKey":"a","appId":"1"} junk`} {
		kv := storage.NewMemoryKV()
		_ = kv.Put(ctx, recordKey, []byte(record))

		got := NewStore(sl.Discard(), kv).Load(ctx)
		if got != (Options{UpdateFreq: DefaultUpdateFreq}) {
			t.Errorf("%q: expected defaults for corrupt record, got %+v", record, got)
		}
	}
}

func TestStoreLoadReadError(t *testing.T) {
	got := NewStore(sl.Discard(), brokenKV{}).Load(context.Background())
	if got != (Options{UpdateFreq: DefaultUpdateFreq}) {
		t.Errorf("expected defaults on read error, got %+v", got)
	}
}
