package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/speedwagon-io/relicwatch/internal/config"
	"github.com/speedwagon-io/relicwatch/internal/configsync"
	"github.com/speedwagon-io/relicwatch/internal/health"
	"github.com/speedwagon-io/relicwatch/internal/lib/logger/sl"
	"github.com/speedwagon-io/relicwatch/internal/newrelic"
	"github.com/speedwagon-io/relicwatch/internal/options"
	"github.com/speedwagon-io/relicwatch/internal/poller"
	"github.com/speedwagon-io/relicwatch/internal/relay"
	"github.com/speedwagon-io/relicwatch/internal/settings"
	"github.com/speedwagon-io/relicwatch/internal/storage"
	"github.com/speedwagon-io/relicwatch/internal/transport"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to config file")
	dryRun := flag.Bool("dry-run", false, "log watch messages instead of publishing them")
	flag.Parse()

	cfg := config.MustLoad(*configPath)

	log := sl.SetupLogger(cfg.Log.Level, cfg.Log.Format)

	log.Info("starting relicwatch relay",
		slog.String("env", cfg.Env),
		slog.String("store", cfg.Store.Driver),
		slog.Bool("dry_run", *dryRun),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received signal, shutting down", slog.String("signal", sig.String()))
		cancel()
	}()

	kv, err := storage.Open(ctx, log, cfg.Store)
	if err != nil {
		log.Error("failed to open store", sl.Err(err))
		os.Exit(1)
	}
	store := options.NewStore(log, kv)

	var channel transport.Channel
	if *dryRun {
		channel = transport.NewLogChannel(log)
		log.Info("dry-run mode: watch messages will be logged instead of published")
	} else {
		mc := transport.NewMQTTChannel(log, &cfg.Device)
		if err := mc.Connect(ctx); err != nil {
			log.Error("failed to connect device channel", sl.Err(err))
			os.Exit(1)
		}
		channel = mc
	}

	client := newrelic.NewClient(log, cfg.NewRelic.BaseURL, cfg.NewRelic.Timeout)

	engine := configsync.New(log, store, channel, cfg.Sync.RetryDelay)
	poll := poller.New(log, store, client, channel)
	rl := relay.New(log, store, engine, poll, channel, cfg.Settings.PageURL)

	if err := rl.Start(ctx); err != nil {
		log.Error("failed to start relay", sl.Err(err))
		os.Exit(1)
	}

	server := health.NewServer(log, cfg.Health.Address)
	server.Mount("/settings", settings.NewHandler(log, rl).Routes())
	server.AddChecker(health.NewChannelChecker(channel.Connected))
	server.AddChecker(health.NewStoreChecker(store.Ping))
	server.AddChecker(health.NewSyncChecker(engine.Pending))

	if err := server.Start(); err != nil {
		log.Error("failed to start http server", sl.Err(err))
		os.Exit(1)
	}

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("failed to stop http server", sl.Err(err))
	}

	rl.Wait()

	if err := channel.Close(); err != nil {
		log.Error("failed to close device channel", sl.Err(err))
	}
	if err := client.Close(); err != nil {
		log.Error("failed to close new relic client", sl.Err(err))
	}
	if err := kv.Close(); err != nil {
		log.Error("failed to close store", sl.Err(err))
	}

	log.Info("relay stopped")
}
