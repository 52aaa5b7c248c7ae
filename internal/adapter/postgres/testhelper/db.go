package testhelper

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/heartmarshall/board-planner/internal/adapter/postgres"
)

// DSNEnv points the suite at an already running database (CI service
// container) instead of starting one. Migrations are applied either way.
const DSNEnv = "TEST_DATABASE_DSN"

const (
	image    = "postgres:17-alpine"
	dbUser   = "planner"
	dbName   = "planner_test"
	startTTL = 2 * time.Minute
)

var shared struct {
	once sync.Once
	dsn  string
	err  error
}

// SetupTestDB returns a pool on the migrated test database, closed on
// t.Cleanup. The database is prepared once per test binary and never
// truncated: tests keep out of each other's way by using fresh project IDs.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("testhelper: database tests are skipped in -short mode")
	}

	shared.once.Do(func() {
		shared.dsn, shared.err = prepare()
	})
	if shared.err != nil {
		t.Fatalf("testhelper: prepare database: %v", shared.err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, shared.dsn)
	if err != nil {
		t.Fatalf("testhelper: open pool: %v", err)
	}
	t.Cleanup(pool.Close)

	return pool
}

func prepare() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), startTTL)
	defer cancel()

	dsn := os.Getenv(DSNEnv)
	if dsn == "" {
		var err error
		if dsn, err = startContainer(ctx); err != nil {
			return "", err
		}
	}

	if err := postgres.Migrate(ctx, dsn, nil); err != nil {
		return "", fmt.Errorf("migrate: %w", err)
	}
	return dsn, nil
}

// startContainer leaves the container running until the process exits; the
// testcontainers reaper removes it afterwards.
func startContainer(ctx context.Context) (string, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     dbUser,
				"POSTGRES_PASSWORD": dbUser,
				"POSTGRES_DB":       dbName,
			},
			// Postgres logs readiness twice: once for the init server, once
			// for the real one.
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		return "", fmt.Errorf("start %s: %w", image, err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("container port: %w", err)
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", dbUser, dbUser, host, port.Port(), dbName), nil
}
