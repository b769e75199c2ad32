// Package databasetest starts throwaway PostgreSQL containers for tests.
package databasetest

import (
	"context"
	"testing"
	"time"

	"github.com/Vishal2827/pern-stack/internal/config"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Postgres describes a running test database.
type Postgres struct {
	Container *postgres.PostgresContainer
	ConnStr   string
	Config    config.DatabaseConfig
}

// Start runs a postgres:16-alpine container and registers its termination with t.Cleanup.
// Integration tests calling Start are skipped under -short.
func Start(t *testing.T) *Postgres {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	parsed, err := pgconn.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("failed to parse connection string: %v", err)
	}

	return &Postgres{
		Container: pgContainer,
		ConnStr:   connStr,
		Config: config.DatabaseConfig{
			Host:            parsed.Host,
			Port:            int(parsed.Port),
			User:            "testuser",
			Password:        "testpass",
			Database:        "testdb",
			SSLMode:         "disable",
			MaxConnections:  10,
			MinConnections:  2,
			MaxConnLifetime: 300,
		},
	}
}
