// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthPlay Contributors

package auth

import "context"

// Transactor runs a unit of work inside a single storage transaction.
// Implementations commit when fn returns nil and roll back on an error,
// a panic, or a cancelled context.
type Transactor[Tx any] interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Transact runs fn inside one transaction of tm and returns its value.
// The zero T is returned alongside any error.
func Transact[T, Tx any](ctx context.Context, tm Transactor[Tx], fn func(ctx context.Context, tx Tx) (T, error)) (T, error) {
	var out T
	err := tm.InTransaction(ctx, func(ctx context.Context, tx Tx) error {
		v, err := fn(ctx, tx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
