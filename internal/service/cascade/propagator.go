// Package cascade propagates a card's soft-delete and restore to the closed
// set of dependents listed by domain.CascadeKinds.
package cascade

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/board-planner/internal/domain"
)

type dependentRepo interface {
	SoftDeleteByCard(ctx context.Context, kind domain.DependentKind, cardID uuid.UUID, at time.Time) (int64, error)
	RestoreByCard(ctx context.Context, kind domain.DependentKind, cardID uuid.UUID, at time.Time) (int64, error)
}

// Counts holds the number of rows affected per dependent kind.
type Counts map[domain.DependentKind]int64

// Total sums every kind.
func (c Counts) Total() int64 {
	var n int64
	for _, v := range c {
		n += v
	}
	return n
}

// Propagator applies a card lifecycle change to its dependents. It opens no
// transaction of its own; callers run it inside the card's transaction.
type Propagator struct {
	deps dependentRepo
	log  *slog.Logger
}

// NewPropagator creates a new Propagator.
func NewPropagator(log *slog.Logger, deps dependentRepo) *Propagator {
	return &Propagator{
		deps: deps,
		log:  log.With("service", "cascade"),
	}
}

// SoftDelete stamps every alive dependent of cardID with at. at must be the
// card's own deleted_at so that Restore can find the same band later.
func (p *Propagator) SoftDelete(ctx context.Context, cardID uuid.UUID, at time.Time) (Counts, error) {
	return p.apply(ctx, "soft delete", cardID, at, p.deps.SoftDeleteByCard)
}

// Restore revives dependents whose deleted_at equals at. Dependents removed
// on their own before the card was deleted stay deleted.
func (p *Propagator) Restore(ctx context.Context, cardID uuid.UUID, at time.Time) (Counts, error) {
	return p.apply(ctx, "restore", cardID, at, p.deps.RestoreByCard)
}

type cascadeFunc func(ctx context.Context, kind domain.DependentKind, cardID uuid.UUID, at time.Time) (int64, error)

func (p *Propagator) apply(ctx context.Context, op string, cardID uuid.UUID, at time.Time, fn cascadeFunc) (Counts, error) {
	counts := make(Counts, len(domain.CascadeKinds()))
	for _, kind := range domain.CascadeKinds() {
		n, err := fn(ctx, kind, cardID, at)
		if err != nil {
			return nil, fmt.Errorf("cascade %s %s: %w", op, kind, err)
		}
		counts[kind] = n
	}

	attrs := []any{
		slog.String("card_id", cardID.String()),
		slog.String("op", op),
	}
	for _, kind := range domain.CascadeKinds() {
		attrs = append(attrs, slog.Int64(string(kind), counts[kind]))
	}
	p.log.DebugContext(ctx, "cascade applied", attrs...)

	return counts, nil
}
