// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthPlay Contributors

// Package store owns the PostgreSQL connection pool and schema migrations.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
)

// Pool bounds used when the configuration leaves them unset.
const (
	DefaultMinConns = 5
	DefaultMaxConns = 100
)

// PoolConfig bounds the shared connection pool. The pool is the only
// admission control: when all MaxConns are busy, new transactions wait
// for a free connection until their context is done.
type PoolConfig struct {
	URL         string
	MinConns    int32
	MaxConns    int32
	MaxConnIdle time.Duration
}

// NewPool opens a pool and verifies connectivity.
func NewPool(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").With("operation", "parse database url").Wrap(err)
	}

	pc.MaxConns = cfg.MaxConns
	if pc.MaxConns <= 0 {
		pc.MaxConns = DefaultMaxConns
	}
	pc.MinConns = cfg.MinConns
	if pc.MinConns <= 0 {
		pc.MinConns = min(DefaultMinConns, pc.MaxConns)
	}
	if pc.MinConns > pc.MaxConns {
		return nil, oops.Code("DB_CONFIG_INVALID").
			With("min_conns", pc.MinConns).
			With("max_conns", pc.MaxConns).
			Errorf("min_conns exceeds max_conns")
	}
	if cfg.MaxConnIdle > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdle
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "ping database").Wrap(err)
	}
	return pool, nil
}
