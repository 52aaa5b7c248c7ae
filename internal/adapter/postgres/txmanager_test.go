package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/board-planner/internal/adapter/postgres"
	"github.com/heartmarshall/board-planner/internal/adapter/postgres/testhelper"
)

const insertCardSQL = `
INSERT INTO cards (id, project_id, title, status, lane_key)
VALUES ($1, $2, 'tx test', 'PLANNING', 'ROLE:QA')`

// cardExists checks whether a card row with the given ID exists in the database.
func cardExists(t *testing.T, pool *pgxpool.Pool, cardID uuid.UUID) bool {
	t.Helper()
	var exists bool
	err := pool.QueryRow(
		context.Background(),
		`SELECT EXISTS(SELECT 1 FROM cards WHERE id = $1)`,
		cardID,
	).Scan(&exists)
	if err != nil {
		t.Fatalf("cardExists query: %v", err)
	}
	return exists
}

func TestRunInTx_Commit(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	cardID := uuid.New()

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		_, err := postgres.QuerierFromCtx(ctx, pool).Exec(ctx, insertCardSQL, cardID, uuid.New())
		return err
	})
	if err != nil {
		t.Fatalf("RunInTx returned error: %v", err)
	}

	if !cardExists(t, pool, cardID) {
		t.Fatal("expected card to exist after committed transaction")
	}
}

func TestRunInTx_RollbackOnError(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	cardID := uuid.New()
	sentinel := errors.New("business logic error")

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		if _, execErr := postgres.QuerierFromCtx(ctx, pool).Exec(ctx, insertCardSQL, cardID, uuid.New()); execErr != nil {
			t.Fatalf("insert inside tx failed: %v", execErr)
		}
		return sentinel
	})

	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got: %v", err)
	}
	if cardExists(t, pool, cardID) {
		t.Fatal("expected card NOT to exist after rolled-back transaction")
	}
}

func TestRunInTx_RollbackOnPanic(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	cardID := uuid.New()

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Fatal("expected panic to propagate")
			}
		}()
		_ = tm.RunInTx(context.Background(), func(ctx context.Context) error {
			if _, err := postgres.QuerierFromCtx(ctx, pool).Exec(ctx, insertCardSQL, cardID, uuid.New()); err != nil {
				t.Fatalf("insert inside tx failed: %v", err)
			}
			panic("boom")
		})
	}()

	if cardExists(t, pool, cardID) {
		t.Fatal("expected card NOT to exist after panic")
	}
}

func TestRunInTx_NestedJoinsOuter(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	cardID := uuid.New()
	sentinel := errors.New("outer failure")

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		innerErr := tm.RunInTx(ctx, func(ctx context.Context) error {
			_, err := postgres.QuerierFromCtx(ctx, pool).Exec(ctx, insertCardSQL, cardID, uuid.New())
			return err
		})
		if innerErr != nil {
			t.Fatalf("inner RunInTx: %v", innerErr)
		}
		return sentinel
	})

	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got: %v", err)
	}
	if cardExists(t, pool, cardID) {
		t.Fatal("inner write must roll back with the outer transaction")
	}
}

func TestRunInReadOnlyTx_RejectsWrites(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	err := tm.RunInReadOnlyTx(context.Background(), func(ctx context.Context) error {
		_, err := postgres.QuerierFromCtx(ctx, pool).Exec(ctx, insertCardSQL, uuid.New(), uuid.New())
		return err
	})
	if err == nil {
		t.Fatal("expected write inside read-only transaction to fail")
	}
}

func TestQuerierFromCtx_NoTx(t *testing.T) {
	pool := testhelper.SetupTestDB(t)

	if postgres.InTx(context.Background()) {
		t.Fatal("InTx(background) = true, want false")
	}
	if q := postgres.QuerierFromCtx(context.Background(), pool); q != pool {
		t.Fatal("expected pool outside a transaction")
	}
}
