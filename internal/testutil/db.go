// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/udisondev/l2pledge/internal/db/migrations"
)

const postgresImage = "postgres:16-alpine"

// SetupTestDB returns a pool on a fresh migrated PostgreSQL container.
// Skipped under -short.
func SetupTestDB(tb testing.TB) *pgxpool.Pool {
	tb.Helper()
	if testing.Short() {
		tb.Skip("skipping database test in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx, postgresImage,
		postgres.WithDatabase("l2pledge_test"),
		postgres.WithUsername("l2pledge"),
		postgres.WithPassword("l2pledge"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(tb, container)
	if err != nil {
		tb.Fatalf("starting %s: %v", postgresImage, err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		tb.Fatalf("connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		tb.Fatalf("connecting to test db: %v", err)
	}
	tb.Cleanup(pool.Close)

	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()
	if _, err := migrations.Up(ctx, sqlDB); err != nil {
		tb.Fatalf("migrating test db: %v", err)
	}
	return pool
}

// Exec runs ad hoc SQL against the pool, failing the test on error.
func Exec(tb testing.TB, pool *pgxpool.Pool, query string, args ...any) {
	tb.Helper()
	if _, err := pool.Exec(context.Background(), query, args...); err != nil {
		tb.Fatalf("exec %q: %v", query, err)
	}
}
