// Package configsync keeps the watch's polling interval in line with the
// saved options. The link to the watch drops messages silently, so the
// interval is resent until the watch acknowledges it. Every attempt re-reads
// the saved options, which makes retries idempotent: the watch only ever
// receives the current value.
package configsync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/speedwagon-io/relicwatch/internal/lib/logger/sl"
	"github.com/speedwagon-io/relicwatch/internal/model"
	"github.com/speedwagon-io/relicwatch/internal/options"
	"github.com/speedwagon-io/relicwatch/internal/transport"
)

type OptionsLoader interface {
	Load(ctx context.Context) options.Options
}

type Engine struct {
	log        *slog.Logger
	opts       OptionsLoader
	channel    transport.Channel
	retryDelay time.Duration

	mu      sync.Mutex
	running bool
	again   bool
	nudge   chan struct{}
	wg      sync.WaitGroup
}

func New(log *slog.Logger, opts OptionsLoader, channel transport.Channel, retryDelay time.Duration) *Engine {
	return &Engine{
		log:        log,
		opts:       opts,
		channel:    channel,
		retryDelay: retryDelay,
		nudge:      make(chan struct{}, 1),
	}
}

// Trigger starts a sync in the background and returns immediately.
func (e *Engine) Trigger(ctx context.Context) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := e.Sync(ctx); err != nil {
			e.log.Debug("interval sync stopped before ack", sl.Err(err))
		}
	}()
}

// Sync sends the saved interval to the watch and blocks until the watch acks
// it or ctx is done. Failed attempts are retried after the retry delay with
// no upper bound. If a sync is already in progress, Sync makes that loop
// resend the latest value and returns nil at once.
func (e *Engine) Sync(ctx context.Context) error {
	if !e.claim() {
		return nil
	}

	for attempt := 1; ; attempt++ {
		e.mu.Lock()
		e.again = false
		e.mu.Unlock()
		select {
		case <-e.nudge:
		default:
		}

		if e.attempt(ctx, attempt) {
			if e.finish() {
				return nil
			}
			continue
		}

		e.log.Warn("watch failed to acknowledge update frequency, will retry",
			slog.Int("attempt", attempt),
			slog.Duration("retry_in", e.retryDelay),
		)

		select {
		case <-ctx.Done():
			e.mu.Lock()
			e.running = false
			e.mu.Unlock()
			return ctx.Err()
		case <-time.After(e.retryDelay):
		case <-e.nudge:
		}
	}
}

// attempt reports whether the sync is done: acked, or nothing to send.
func (e *Engine) attempt(ctx context.Context, n int) bool {
	mins := e.opts.Load(ctx).UpdateFreq
	if mins <= 0 {
		e.log.Debug("no update frequency to sync")
		return true
	}

	msg := model.NewMessage(model.UpdateFreqMessage{Minutes: mins}.Payload())
	e.log.Debug("sending update frequency to watch",
		slog.Int("minutes", mins),
		slog.Int("attempt", n),
		slog.String("id", msg.ID),
	)

	if err := e.channel.Send(ctx, msg); err != nil {
		e.log.Debug("update frequency send failed", sl.Err(err))
		return false
	}

	e.log.Info("watch acked update frequency", slog.Int("minutes", mins))
	return true
}

func (e *Engine) claim() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		e.again = true
		select {
		case e.nudge <- struct{}{}:
		default:
		}
		return false
	}
	e.running = true
	return true
}

// finish marks the loop idle unless a newer sync was requested while the
// last attempt was in flight.
func (e *Engine) finish() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.again {
		return false
	}
	e.running = false
	return true
}

// Pending reports whether a sync is waiting for an acknowledgment.
func (e *Engine) Pending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Wait blocks until every triggered sync has returned.
func (e *Engine) Wait() {
	e.wg.Wait()
}
