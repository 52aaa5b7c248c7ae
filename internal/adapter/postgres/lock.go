package postgres

import (
	"context"
	"fmt"
	"slices"
	"time"
)

const (
	setLockTimeoutSQL = `SELECT set_config('lock_timeout', $1, true)`
	advisoryLockSQL   = `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`
)

// Locker takes transaction-scoped advisory locks keyed by string. Locks are
// released automatically at commit or rollback. How long a lock may be
// waited for is the transaction's lock_timeout (see WithLockTimeout).
type Locker struct{}

// NewLocker creates a Locker.
func NewLocker() *Locker {
	return &Locker{}
}

// Lock acquires one advisory lock per distinct key. Keys are sorted and
// de-duplicated first so every caller acquires a given set in the same
// global order.
func (l *Locker) Lock(ctx context.Context, keys ...string) error {
	q, err := RequireTx(ctx)
	if err != nil {
		return err
	}

	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	for _, key := range sorted {
		if _, err := q.Exec(ctx, advisoryLockSQL, key); err != nil {
			return MapError(err, "lock "+key)
		}
	}
	return nil
}

func formatTimeout(d time.Duration) string {
	return fmt.Sprintf("%dms", d.Milliseconds())
}
