package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Beginner starts transactions. *pgxpool.Pool satisfies it.
type Beginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// TxManager manages database transactions using the context pattern.
// A RunInTx call made while the context already carries a transaction joins
// that transaction: the outermost call owns commit and rollback. This lets a
// service compose ledger operations into its own transaction.
type TxManager struct {
	db          Beginner
	lockTimeout time.Duration
}

// TxOption configures a TxManager.
type TxOption func(*TxManager)

// WithLockTimeout bounds every lock wait (row locks and advisory locks) in
// read-write transactions. On expiry PostgreSQL aborts the statement and
// MapError reports domain.ConcurrentModificationError. Zero leaves the
// server default.
func WithLockTimeout(d time.Duration) TxOption {
	return func(m *TxManager) { m.lockTimeout = d }
}

// NewTxManager creates a new TxManager.
func NewTxManager(db Beginner, opts ...TxOption) *TxManager {
	m := &TxManager{db: db}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RunInTx executes fn within a read-write transaction.
// Isolation level: Read Committed (PostgreSQL default); ordering operations
// serialize on explicit locks instead of isolation.
// On success: commits.
// On error from fn: rolls back and returns the error.
// On panic from fn: rolls back and re-panics.
func (m *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, pgx.TxOptions{}, fn)
}

// RunInReadOnlyTx executes fn in a read-only repeatable-read transaction, so
// every query inside fn sees the same snapshot. No locks are taken.
func (m *TxManager) RunInReadOnlyTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	}, fn)
}

func (m *TxManager) run(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context) error) (err error) {
	if InTx(ctx) {
		return fn(ctx)
	}

	tx, err := m.db.BeginTx(ctx, opts)
	if err != nil {
		return MapError(fmt.Errorf("begin transaction: %w", err), "transaction")
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(r)
		}
	}()

	txCtx := withTx(ctx, tx)

	err = m.boundLocks(txCtx, tx, opts)
	if err == nil {
		err = fn(txCtx)
	}
	if err != nil {
		// Rollback must run even when ctx was cancelled mid-transaction.
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			return fmt.Errorf("rollback failed: %w (original error: %v)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return MapError(fmt.Errorf("commit transaction: %w", err), "transaction")
	}

	return nil
}

// boundLocks runs before fn so the first row lock of the transaction is
// already bounded. The setting is transaction-local.
func (m *TxManager) boundLocks(ctx context.Context, tx pgx.Tx, opts pgx.TxOptions) error {
	if m.lockTimeout <= 0 || opts.AccessMode == pgx.ReadOnly {
		return nil
	}
	if _, err := tx.Exec(ctx, setLockTimeoutSQL, formatTimeout(m.lockTimeout)); err != nil {
		return MapError(err, "set lock timeout")
	}
	return nil
}
