// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthPlay Contributors

//go:build integration

package store_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/authplay/authplay/internal/store"
)

var _ = Describe("NewPool", Ordered, func() {
	var (
		ctx       context.Context
		container *postgres.PostgresContainer
		connStr   string
	)

	BeforeAll(func() {
		ctx = context.Background()
		var err error
		container, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("authplay_test"),
			postgres.WithUsername("authplay"),
			postgres.WithPassword("authplay"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second),
			),
		)
		Expect(err).NotTo(HaveOccurred())

		connStr, err = container.ConnectionString(ctx, "sslmode=disable")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		_ = container.Terminate(ctx)
	})

	It("applies the default pool bounds", func() {
		pool, err := store.NewPool(ctx, store.PoolConfig{URL: connStr})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(pool.Close)

		Expect(pool.Config().MinConns).To(Equal(int32(store.DefaultMinConns)))
		Expect(pool.Config().MaxConns).To(Equal(int32(store.DefaultMaxConns)))
	})

	It("honours explicit bounds", func() {
		pool, err := store.NewPool(ctx, store.PoolConfig{URL: connStr, MinConns: 1, MaxConns: 4})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(pool.Close)

		Expect(pool.Config().MaxConns).To(Equal(int32(4)))
	})

	It("creates the schema the adapters expect", func() {
		m, err := store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = m.Close() })
		Expect(m.Up()).To(Succeed())

		pool, err := store.NewPool(ctx, store.PoolConfig{URL: connStr, MinConns: 1, MaxConns: 2})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(pool.Close)

		for _, table := range []string{"users", "sessions"} {
			Expect(tableExists(ctx, pool, table)).To(BeTrue(), table)
		}
	})

	It("rejects an unreachable server", func() {
		cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		_, err := store.NewPool(cctx, store.PoolConfig{URL: "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1"})
		Expect(err).To(HaveOccurred())
	})
})

func tableExists(ctx context.Context, pool *pgxpool.Pool, name string) bool {
	var exists bool
	err := pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`, name,
	).Scan(&exists)
	Expect(err).NotTo(HaveOccurred())
	return exists
}
