//go:build integration

package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mmynk/currentsee/internal/storage"
	"github.com/mmynk/currentsee/internal/storage/storetest"
)

var (
	testPool        *pgxpool.Pool
	testDatabaseURL string
)

func TestMain(m *testing.M) {
	os.Exit(runMain(m))
}

func runMain(m *testing.M) int {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:18-alpine",
		tcpostgres.WithDatabase("currentsee"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start postgres container: %v\n", err)
		return 1
	}
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to terminate postgres container: %v\n", err)
		}
	}()

	testDatabaseURL, err = container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get connection string: %v\n", err)
		return 1
	}

	testPool, err = Connect(ctx, testDatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to test database: %v\n", err)
		return 1
	}
	defer testPool.Close()

	if err := RunMigrationsWithLock(ctx, testPool); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to run migrations: %v\n", err)
		return 1
	}

	return m.Run()
}

// setupTestStore returns a store over the shared pool with every table emptied.
func setupTestStore(t *testing.T) storage.Store {
	t.Helper()

	_, err := testPool.Exec(context.Background(),
		"TRUNCATE members, admins, distribution_runs, artifacts")
	require.NoError(t, err)

	return NewFromPool(testPool)
}

func TestPostgresStore(t *testing.T) {
	storetest.Run(t, setupTestStore)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	ctx := context.Background()

	require.NoError(t, RunMigrationsWithLock(ctx, testPool))
	require.NoError(t, RunMigrationsWithLock(ctx, testPool))
}

func TestNewRunsMigrations(t *testing.T) {
	ctx := context.Background()

	store, err := New(ctx, testDatabaseURL)
	require.NoError(t, err)
	defer store.Close()

	assert.NoError(t, store.Ping(ctx))
}
