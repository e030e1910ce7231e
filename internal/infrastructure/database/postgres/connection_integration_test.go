//go:build integration

// Package postgres_test provides integration tests for the PostgreSQL
// connection management functionality.
package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticeforge/kernel/internal/config"
	"github.com/latticeforge/kernel/internal/infrastructure/database/postgres"
	"github.com/latticeforge/kernel/internal/infrastructure/monitoring/logging"
)

// ─────────────────────────────────────────────────────────────────────────────
// TestWithTransaction — transaction behavior (requires database)
// ─────────────────────────────────────────────────────────────────────────────

func TestWithTransaction_CommitsOnSuccess(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	err := postgres.WithTransaction(ctx, pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, "CREATE TEMP TABLE test_commit (id INT)")
		require.NoError(t, err)
		_, err = tx.Exec(ctx, "INSERT INTO test_commit VALUES (1)")
		return err
	})

	require.NoError(t, err)

	var count int
	err = pool.QueryRow(ctx, "SELECT COUNT(*) FROM test_commit").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	_, err := pool.Exec(ctx, "CREATE TEMP TABLE test_rollback (id INT PRIMARY KEY)")
	require.NoError(t, err)

	err = postgres.WithTransaction(ctx, pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, "INSERT INTO test_rollback VALUES (1)")
		require.NoError(t, err)
		return fmt.Errorf("intentional error for rollback test")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "intentional error")

	var count int
	err = pool.QueryRow(ctx, "SELECT COUNT(*) FROM test_rollback").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestWithTransaction_RollsBackOnPanic(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	_, err := pool.Exec(ctx, "CREATE TEMP TABLE test_panic (id INT)")
	require.NoError(t, err)

	assert.Panics(t, func() {
		_ = postgres.WithTransaction(ctx, pool, func(tx pgx.Tx) error {
			_, _ = tx.Exec(ctx, "INSERT INTO test_panic VALUES (1)")
			panic("intentional panic")
		})
	})

	var count int
	err = pool.QueryRow(ctx, "SELECT COUNT(*) FROM test_panic").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestWithTransaction_NestedTransactions(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	_, err := pool.Exec(ctx, "CREATE TEMP TABLE test_nested (id INT)")
	require.NoError(t, err)

	err = postgres.WithTransaction(ctx, pool, func(outerTx pgx.Tx) error {
		_, err := outerTx.Exec(ctx, "INSERT INTO test_nested VALUES (1)")
		require.NoError(t, err)

		innerErr := postgres.WithTransaction(ctx, pool, func(innerTx pgx.Tx) error {
			_, err := innerTx.Exec(ctx, "INSERT INTO test_nested VALUES (2)")
			require.NoError(t, err)
			return fmt.Errorf("inner transaction error")
		})
		assert.Error(t, innerErr)

		return nil
	})

	require.NoError(t, err)

	var count int
	err = pool.QueryRow(ctx, "SELECT COUNT(*) FROM test_nested").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

// ─────────────────────────────────────────────────────────────────────────────
// Test helpers
// ─────────────────────────────────────────────────────────────────────────────

func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()

	dbURL := os.Getenv("INTEGRATION_TEST_DB_URL")
	if dbURL == "" {
		t.Skip("INTEGRATION_TEST_DB_URL not set; skipping integration test")
	}

	cfg := config.PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "test",
		Password: "test",
		DBName:   "test_latticeforge",
		SSLMode:  "disable",
	}

	logger := logging.NewNopLogger()
	pool, err := postgres.NewConnectionPool(cfg, logger)
	require.NoError(t, err)

	cleanup := func() {
		postgres.Close(pool)
	}

	return pool, cleanup
}
