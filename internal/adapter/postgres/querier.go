package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNoTransaction is returned by operations whose effect only lasts for the
// enclosing transaction (advisory locks, FOR UPDATE claims). Run in
// autocommit mode they would release immediately.
var ErrNoTransaction = errors.New("operation requires an active transaction")

// Querier is satisfied by *pgxpool.Pool and pgx.Tx, so repositories work the
// same inside and outside TxManager.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type txCtxKey struct{}

func withTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txCtxKey{}, tx)
}

func txFromCtx(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txCtxKey{}).(pgx.Tx)
	return tx, ok
}

// InTx reports whether ctx carries a transaction started by TxManager.
func InTx(ctx context.Context) bool {
	_, ok := txFromCtx(ctx)
	return ok
}

// RequireTx returns the transaction carried by ctx or ErrNoTransaction.
func RequireTx(ctx context.Context) (Querier, error) {
	tx, ok := txFromCtx(ctx)
	if !ok {
		return nil, ErrNoTransaction
	}
	return tx, nil
}

// QuerierFromCtx prefers the transaction in ctx and falls back to db.
func QuerierFromCtx(ctx context.Context, db Querier) Querier {
	if tx, ok := txFromCtx(ctx); ok {
		return tx
	}
	return db
}
