// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthPlay Contributors

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/authplay/authplay/internal/auth"
	"github.com/authplay/authplay/internal/auth/postgres"
	"github.com/authplay/authplay/internal/config"
	"github.com/authplay/authplay/internal/logging"
	"github.com/authplay/authplay/internal/observability"
	"github.com/authplay/authplay/internal/store"
	"github.com/authplay/authplay/internal/xdg"
)

// Pool is the part of pgxpool.Pool the commands use.
type Pool interface {
	postgres.Beginner
	Ping(ctx context.Context) error
	Close()
}

// Migrator wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (uint, bool, error)
	Pending() ([]uint, error)
	Close() error
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

// Deps contains injectable dependencies for the commands.
// All fields with nil values will use their default implementations.
type Deps struct {
	// PoolFactory opens the connection pool.
	// Default: store.NewPool
	PoolFactory func(ctx context.Context, cfg store.PoolConfig) (Pool, error)

	// MigratorFactory creates a schema migrator from a database URL.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (Migrator, error)

	// ObservabilityServerFactory creates the metrics and health server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, ready observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer

	// Environ supplies the process environment to the config loader.
	// Default: os.Environ
	Environ func() []string
}

func (d *Deps) withDefaults() *Deps {
	out := Deps{}
	if d != nil {
		out = *d
	}
	if out.PoolFactory == nil {
		out.PoolFactory = func(ctx context.Context, cfg store.PoolConfig) (Pool, error) {
			return store.NewPool(ctx, cfg)
		}
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = func(url string) (Migrator, error) {
			return store.NewMigrator(url)
		}
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, ready observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer {
			return observability.NewServer(addr, ready, logger)
		}
	}
	return &out
}

// loadConfig reads the config file named by --config (or the per-user
// XDG config file), the environment and the command's changed flags.
func (d *Deps) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	environ := d.Environ
	if environ == nil {
		environ = os.Environ
	}
	path, err := cmd.Flags().GetString("config")
	if err != nil || path == "" {
		path = xdg.DefaultConfigFile(xdg.FromEnviron(environ()))
	}
	cfg, err := config.Loader{Path: path, Flags: cmd.Flags(), Environ: environ}.Load()
	if err != nil {
		return nil, oops.With("operation", "load config").Wrap(err)
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	return logging.New(logging.Options{
		Service: "authplay",
		Version: version,
		Format:  cfg.Log.Format,
		Level:   logging.ParseLevel(cfg.Log.Level),
		Writer:  cmd.ErrOrStderr(),
	})
}

// runtime is an opened pool plus the auth service built on it.
type runtime struct {
	cfg     *config.Config
	logger  *slog.Logger
	pool    Pool
	service *auth.Service[postgres.Querier]
}

// open loads config and connects. A nil metrics disables recording.
func (d *Deps) open(ctx context.Context, cmd *cobra.Command, metrics *observability.Metrics) (*runtime, error) {
	cfg, err := d.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return d.openWith(ctx, cfg, newLogger(cmd, cfg), metrics)
}

func (d *Deps) openWith(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*runtime, error) {
	pool, err := d.PoolFactory(ctx, cfg.PoolConfig())
	if err != nil {
		return nil, oops.With("operation", "connect to database").Wrap(err)
	}

	svcOpts := []auth.Option{auth.WithLogger(logger)}
	sessOpts := []postgres.SessionOption{postgres.WithIDAttempts(cfg.Sessions.IDAttempts)}
	if metrics != nil {
		svcOpts = append(svcOpts, auth.WithMetrics(metrics))
		sessOpts = append(sessOpts, postgres.WithCollisionRecorder(metrics))
	}

	service, err := auth.NewService[postgres.Querier](
		postgres.NewTransactor(pool),
		postgres.NewUserAdapter(auth.NewArgon2idHasher(cfg.Argon2Params())),
		postgres.NewSessionAdapter(sessOpts...),
		svcOpts...,
	)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &runtime{cfg: cfg, logger: logger, pool: pool, service: service}, nil
}

func (r *runtime) Close() {
	r.pool.Close()
}

// migrateUp applies pending migrations.
func (d *Deps) migrateUp(databaseURL string, logger *slog.Logger) error {
	m, err := d.MigratorFactory(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			logger.Warn("failed to close migrator", "error", closeErr)
		}
	}()

	pending, err := m.Pending()
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil {
		return err
	}
	if len(pending) > 0 {
		logger.Info("migrations applied", "versions", pending)
	}
	return nil
}
