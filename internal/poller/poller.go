// Package poller fetches the monitored application's summary and relays it
// to the watch. Each call is independent; nothing is retried here because the
// next scheduled poll supersedes a failed one.
package poller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/speedwagon-io/relicwatch/internal/model"
	"github.com/speedwagon-io/relicwatch/internal/newrelic"
	"github.com/speedwagon-io/relicwatch/internal/options"
	"github.com/speedwagon-io/relicwatch/internal/transport"
)

type OptionsLoader interface {
	Load(ctx context.Context) options.Options
}

type Fetcher interface {
	Application(ctx context.Context, apiKey, appID string) (*newrelic.Application, error)
}

type Poller struct {
	log     *slog.Logger
	opts    OptionsLoader
	fetcher Fetcher
	channel transport.Channel
}

func New(log *slog.Logger, opts OptionsLoader, fetcher Fetcher, channel transport.Channel) *Poller {
	return &Poller{
		log:     log,
		opts:    opts,
		fetcher: fetcher,
		channel: channel,
	}
}

// PollAndRelay fetches the current summary once and posts it to the watch.
// Incomplete configuration is not an error: nothing is fetched or sent.
func (p *Poller) PollAndRelay(ctx context.Context) error {
	opts := p.opts.Load(ctx)
	if !opts.Complete() {
		p.log.Info("skipping poll, api key or app id not configured")
		return nil
	}

	p.log.Debug("polling New Relic", slog.String("app_id", opts.AppID))

	app, err := p.fetcher.Application(ctx, opts.APIKey, opts.AppID)
	if err != nil {
		return fmt.Errorf("failed to fetch application %s: %w", opts.AppID, err)
	}

	msg := BuildDeviceMessage(app)
	if err := p.channel.Post(ctx, model.NewMessage(msg.Payload())); err != nil {
		return fmt.Errorf("failed to send metrics to watch: %w", err)
	}

	p.log.Info("sent metrics to watch",
		slog.String("app_name", msg.AppName),
		slog.String("response_time", msg.ResponseTime),
		slog.Int("throughput", int(msg.Throughput)),
		slog.String("error_rate", msg.ErrorRate),
		slog.String("apdex", msg.ApdexScore),
	)
	return nil
}

// BuildDeviceMessage converts an application record into the watch format.
// An application without a summary is not reporting and gets zeroed values;
// a missing apdex (no traffic) becomes 0.
func BuildDeviceMessage(app *newrelic.Application) model.DeviceMessage {
	if app.Summary == nil {
		return model.IdleDeviceMessage(app.Name)
	}

	s := app.Summary
	return model.DeviceMessage{
		AppName:      app.Name,
		ResponseTime: model.Decimal(value(s.ResponseTime)),
		Throughput:   model.Int32(value(s.Throughput)),
		ErrorRate:    model.Decimal(value(s.ErrorRate)),
		ApdexScore:   model.Fixed2(value(s.ApdexScore)),
	}
}

func value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
