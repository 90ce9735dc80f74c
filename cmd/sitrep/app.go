package main

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sitroom/sitrep/internal/config"
	"github.com/sitroom/sitrep/internal/domain"
	"github.com/sitroom/sitrep/internal/monitor"
	"github.com/sitroom/sitrep/internal/store"
)

// loadConfig resolves the --config flag; defaults apply when it is unset.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path, _ = cmd.Root().PersistentFlags().GetString("config")
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// openMonitorStore picks the configured backend: postgres when a DSN is
// set, redis when an address is set, the JSON file otherwise.
func openMonitorStore(cfg *config.Config) (store.MonitorStore, func(), error) {
	if cfg.Postgres.DSN != "" {
		pg, err := store.NewPostgresStore(cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		return pg, func() { pg.Close() }, nil
	}
	if cfg.Redis.Addr != "" {
		rs := store.NewRedisStore(cfg.Redis.Addr, cfg.Redis.DB)
		return rs, func() { rs.Close() }, nil
	}
	return store.NewFileStore(cfg.MonitorsFile), func() {}, nil
}

// openRegistry builds the monitor registry over the configured store. A
// load failure degrades to an empty list rather than failing the command.
func openRegistry(ctx context.Context, cfg *config.Config, opts ...monitor.Option) (*monitor.Registry, func(), error) {
	st, closeStore, err := openMonitorStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	registry, err := monitor.NewRegistry(ctx, st, cfg.Monitor, opts...)
	if err != nil {
		var perr *domain.MonitorPersistenceError
		if !errors.As(err, &perr) {
			closeStore()
			return nil, nil, err
		}
		log.Warn().Err(err).Msg("continuing with empty monitor list")
	}
	return registry, closeStore, nil
}
