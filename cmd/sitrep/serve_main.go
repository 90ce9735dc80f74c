package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sitroom/sitrep/internal/engine"
	httpserver "github.com/sitroom/sitrep/internal/interfaces/http"
	"github.com/sitroom/sitrep/internal/metrics"
	"github.com/sitroom/sitrep/internal/monitor"
	"github.com/sitroom/sitrep/internal/sched"
	"github.com/sitroom/sitrep/internal/sources"
	"github.com/sitroom/sitrep/internal/store"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.HTTP.Addr = addr
	}
	if feeds, _ := cmd.Flags().GetStringSlice("feeds"); len(feeds) > 0 {
		cfg.Sources.Feeds = feeds
	}
	if spec, _ := cmd.Flags().GetString("schedule"); spec != "" {
		cfg.Scheduler.Spec = spec
	}

	ctx := context.Background()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	engineMetrics := metrics.New(registry)

	eng := engine.New(cfg, engine.WithMetrics(engineMetrics))
	defer eng.Close()

	var monitorOpts []monitor.Option
	var schedOpts []sched.Option
	var serverOpts []httpserver.Option
	schedOpts = append(schedOpts, sched.WithMetrics(engineMetrics))
	if cfg.Redis.Addr != "" {
		rs := store.NewRedisStore(cfg.Redis.Addr, cfg.Redis.DB)
		defer rs.Close()
		monitorOpts = append(monitorOpts, monitor.WithAlertSink(rs))
		schedOpts = append(schedOpts, sched.WithResultMirror(rs, cfg.Cache.TTL))
		serverOpts = append(serverOpts, httpserver.WithResultMirror(rs))
	}

	monitors, closeStore, err := openRegistry(ctx, cfg, monitorOpts...)
	if err != nil {
		return err
	}
	defer closeStore()

	var news sources.NewsSource
	if len(cfg.Sources.Feeds) > 0 {
		news = sources.NewRSSSource(cfg.Sources.Feeds, cfg.Sources.RatePerSecond, cfg.Sources.FetchTimeout)
	}
	var market sources.MarketSource
	if cfg.Sources.MarketEndpoint != "" {
		market = sources.NewHTTPMarketSource(cfg.Sources.MarketEndpoint, cfg.Sources.RatePerSecond, cfg.Sources.FetchTimeout)
	}

	scheduler := sched.New(eng, monitors, news, market, cfg.Sources.FetchTimeout, schedOpts...)
	if err := scheduler.Start(cfg.Scheduler.Spec); err != nil {
		return err
	}
	defer scheduler.Stop()

	server := httpserver.NewServer(httpserver.DefaultServerConfig(cfg.HTTP.Addr), eng, monitors, registry, serverOpts...)

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
