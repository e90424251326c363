// Package relay wires watch and settings events to interval sync and
// metrics polling.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/speedwagon-io/relicwatch/internal/lib/logger/sl"
	"github.com/speedwagon-io/relicwatch/internal/model"
	"github.com/speedwagon-io/relicwatch/internal/options"
	"github.com/speedwagon-io/relicwatch/internal/transport"
)

var ErrMalformedSettings = errors.New("malformed settings payload")

type OptionsStore interface {
	Load(ctx context.Context) options.Options
	Save(ctx context.Context, o *options.Options) error
}

type Syncer interface {
	Trigger(ctx context.Context)
	Wait()
}

type Poller interface {
	PollAndRelay(ctx context.Context) error
}

type Relay struct {
	log         *slog.Logger
	store       OptionsStore
	syncer      Syncer
	poller      Poller
	channel     transport.Channel
	settingsURL string

	// ctx outlives individual requests; background work started by a
	// trigger runs under it.
	ctx context.Context

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

func New(
	log *slog.Logger,
	store OptionsStore,
	syncer Syncer,
	poller Poller,
	channel transport.Channel,
	settingsURL string,
) *Relay {
	return &Relay{
		log:         log,
		store:       store,
		syncer:      syncer,
		poller:      poller,
		channel:     channel,
		settingsURL: settingsURL,
		ctx:         context.Background(),
	}
}

// Start registers for watch messages and then runs the ready trigger. Work
// started by any trigger is bound to ctx.
func (r *Relay) Start(ctx context.Context) error {
	r.ctx = ctx

	if err := r.channel.Subscribe(r.OnMessage); err != nil {
		return fmt.Errorf("failed to subscribe to watch messages: %w", err)
	}

	r.OnReady()
	return nil
}

// OnReady pushes the interval and fresh data once the channel is up.
func (r *Relay) OnReady() {
	r.log.Info("relay ready")
	r.refresh("ready")
}

// OnSettingsClosed persists the options the settings page returned and
// pushes them to the watch. It reports whether anything was saved. An empty
// or cancelled response changes nothing; a malformed one leaves the saved
// options untouched.
func (r *Relay) OnSettingsClosed(ctx context.Context, response string) (bool, error) {
	response = strings.TrimSpace(response)
	if response == "" || response == "{}" || response == "CANCELLED" {
		r.log.Info("no options returned from settings")
		return false, nil
	}

	opts, err := options.FromFragment(response)
	if err != nil {
		r.log.Warn("failed to decode settings", sl.Err(err))
		return false, fmt.Errorf("%w: %v", ErrMalformedSettings, err)
	}

	if err := r.store.Save(ctx, &opts); err != nil {
		return false, err
	}

	r.refresh("settings saved")
	return true, nil
}

// OnMessage handles a message from the watch.
func (r *Relay) OnMessage(msg *model.Message) {
	if !msg.RefreshRequested() {
		r.log.Debug("ignoring watch message", slog.String("id", msg.ID))
		return
	}
	r.refresh("watch request")
}

// SettingsURL returns the settings page address carrying the saved options.
func (r *Relay) SettingsURL(ctx context.Context) (string, error) {
	frag, err := r.store.Load(ctx).Fragment()
	if err != nil {
		return "", err
	}
	return r.settingsURL + "#" + frag, nil
}

// refresh starts a sync and a poll. Once Wait has been called or the base
// context is done, triggers are dropped.
func (r *Relay) refresh(reason string) {
	ctx := r.ctx

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped || ctx.Err() != nil {
		r.log.Debug("relay stopping, ignoring trigger", slog.String("reason", reason))
		return
	}

	r.log.Debug("refreshing watch", slog.String("reason", reason))

	r.syncer.Trigger(ctx)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.poller.PollAndRelay(ctx); err != nil {
			r.log.Error("failed to relay metrics",
				slog.String("reason", reason),
				sl.Err(err),
			)
		}
	}()
}

// Wait stops accepting triggers and blocks until in-flight polls and syncs
// have returned.
func (r *Relay) Wait() {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()

	r.wg.Wait()
	r.syncer.Wait()
}
