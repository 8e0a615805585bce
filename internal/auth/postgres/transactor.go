// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthPlay Contributors

// Package postgres provides PostgreSQL implementations of the auth adapters
// and the transaction manager they run under.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/authplay/authplay/internal/auth"
)

// Querier is the subset of pgx used by the adapters. pgx.Tx satisfies it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Beginner starts transactions. *pgxpool.Pool and pgxmock pools satisfy it.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Transactor implements auth.Transactor over a connection pool.
type Transactor struct {
	pool Beginner
}

// NewTransactor creates a Transactor backed by the given pool.
func NewTransactor(pool Beginner) *Transactor {
	return &Transactor{pool: pool}
}

// InTransaction begins a transaction and calls fn with it. If fn returns
// nil the transaction is committed, otherwise it is rolled back. A panic
// in fn rolls back before propagating. Rollback runs on a context detached
// from cancellation so a cancelled request never leaves the transaction open.
func (t *Transactor) InTransaction(ctx context.Context, fn func(ctx context.Context, q Querier) error) (err error) {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return auth.NewDatabaseError("TX_BEGIN_FAILED", "begin transaction", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		_ = tx.Rollback(context.WithoutCancel(ctx)) //nolint:errcheck // the unit of work error takes precedence
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return auth.NewDatabaseError("TX_COMMIT_FAILED", "commit transaction", err)
	}
	committed = true
	return nil
}

// Compile-time interface check.
var _ auth.Transactor[Querier] = (*Transactor)(nil)
