// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthPlay Contributors

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/authplay/authplay/internal/errutil"
	"github.com/authplay/authplay/internal/observability"
	"github.com/authplay/authplay/internal/store"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(d *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the auth store: migrations, health and metrics, session cleanup",
		Long: `Connect to PostgreSQL, apply pending migrations, expose metrics and
health probes, and periodically delete expired sessions until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return d.runServe(ctx, cmd)
		},
	}

	cmd.Flags().String("metrics-addr", "127.0.0.1:9100", "metrics and health listen address (empty disables)")
	cmd.Flags().Duration("session-purge-interval", 10*time.Minute, "expired session cleanup interval (0 disables)")
	cmd.Flags().Bool("auto-migrate", true, "apply pending migrations on startup")
	cmd.Flags().Int32("db-min-conns", store.DefaultMinConns, "minimum pooled connections")
	cmd.Flags().Int32("db-max-conns", store.DefaultMaxConns, "maximum pooled connections")

	return cmd
}

func (d *Deps) runServe(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := d.loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	logger.InfoContext(ctx, "starting authplay",
		"version", version,
		"metrics_addr", cfg.Metrics.Addr,
		"purge_interval", cfg.Sessions.PurgeInterval,
	)

	if cfg.Database.AutoMigrate {
		if err := d.migrateUp(cfg.Database.URL, logger); err != nil {
			return oops.With("operation", "auto-migrate").Wrap(err)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		obsServer ObservabilityServer
		metrics   *observability.Metrics
		rt        *runtime
	)
	if cfg.Metrics.Addr != "" {
		obsServer = d.ObservabilityServerFactory(cfg.Metrics.Addr, func(ctx context.Context) error {
			if rt == nil {
				return oops.Errorf("database not connected")
			}
			return rt.pool.Ping(ctx)
		}, logger)
		metrics = obsServer.Metrics()
	}

	rt, err = d.openWith(ctx, cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer rt.Close()

	if obsServer != nil {
		errCh, err := obsServer.Start()
		if err != nil {
			return oops.With("operation", "start observability server").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, errCh, logger)
	}

	purgeDone := make(chan struct{})
	go func() {
		defer close(purgeDone)
		runPurgeLoop(ctx, rt.service, cfg.Sessions.PurgeInterval, logger)
	}()

	cmd.Println("authplay ready")
	<-ctx.Done()
	logger.Info("shutting down")
	<-purgeDone

	if obsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return nil
}

// purger deletes expired sessions.
type purger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// runPurgeLoop purges every interval until ctx is done. Failures are
// logged and retried on the next tick. A non-positive interval disables it.
func runPurgeLoop(ctx context.Context, p purger, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.PurgeExpiredSessions(ctx); err != nil && ctx.Err() == nil {
				errutil.LogError(ctx, logger, "expired session purge failed", err)
			}
		}
	}
}

// monitorServerErrors cancels the process context when a server fails.
// It exits when an error arrives, the channel closes or ctx is done.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			logger.Error("observability server failed, shutting down", "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
