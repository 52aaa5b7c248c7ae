package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/heartmarshall/board-planner/internal/domain"
)

// PostgreSQL error codes the ordering core reacts to.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeExclusionViolation   = "23P01"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeQueryCanceled        = "57014"
)

// MapError converts pgx/pgconn errors to domain errors. op names the failing
// operation and is used as the error prefix.
// context.DeadlineExceeded and context.Canceled are not mapped; they pass through.
func MapError(err error, op string) error {
	if err == nil {
		return nil
	}

	// context errors pass through as-is
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}

	// pgx.ErrNoRows → domain.ErrNotFound
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%s: %w", op, domain.ErrAlreadyExists)
		case codeForeignKeyViolation:
			return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		case codeCheckViolation:
			return fmt.Errorf("%s: %w", op, domain.ErrValidation)
		case codeExclusionViolation:
			// Deferred position exclusion fired at commit: two alive rows
			// share a position.
			return &domain.ContiguityViolationError{Scope: op + ": " + pgErr.ConstraintName}
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable, codeQueryCanceled:
			return &domain.ConcurrentModificationError{Op: op, Err: err}
		}
	}

	// Everything else: wrap with context
	return fmt.Errorf("%s: %w", op, err)
}
