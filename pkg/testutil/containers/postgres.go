// Package containers spins up throwaway backing services for integration
// tests. Build-tagged tests use these; unit tests stay on the in-memory
// stores.
package containers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer wraps a running Postgres instance with a connected pool.
type PostgresContainer struct {
	DSN  string
	Pool *pgxpool.Pool
}

// StartPostgres launches a Postgres container, waits for readiness, and
// registers cleanup with the test. The caller runs migrations itself so the
// test controls the schema version.
func StartPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("studbook_test"),
		tcpostgres.WithUsername("studbook"),
		tcpostgres.WithPassword("studbook"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("postgres connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect to postgres container: %v", err)
	}
	t.Cleanup(pool.Close)

	return &PostgresContainer{DSN: dsn, Pool: pool}
}

// TruncateTables clears the listed tables between test cases.
func (c *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if _, err := c.Pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	return nil
}
