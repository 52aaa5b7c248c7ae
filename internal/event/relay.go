package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/heartmarshall/board-planner/internal/domain"
)

type outbox interface {
	ClaimUnpublished(ctx context.Context, limit int) ([]domain.BoardEvent, error)
	MarkPublished(ctx context.Context, ids []ulid.ULID, at time.Time) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type dispatcher interface {
	Dispatch(ctx context.Context, events ...domain.BoardEvent) int
}

// RelayConfig controls outbox polling.
type RelayConfig struct {
	Interval  time.Duration
	BatchSize int
}

// Relay moves committed events from the outbox to the dispatcher. Several
// relays may run against one database; each claims disjoint rows.
type Relay struct {
	outbox     outbox
	tx         txManager
	dispatcher dispatcher
	cfg        RelayConfig
	log        *slog.Logger
	now        func() time.Time
}

// NewRelay creates a Relay.
func NewRelay(log *slog.Logger, outbox outbox, tx txManager, d dispatcher, cfg RelayConfig) *Relay {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Relay{
		outbox:     outbox,
		tx:         tx,
		dispatcher: d,
		cfg:        cfg,
		log:        log.With("component", "event_relay"),
		now:        time.Now,
	}
}

// Run polls until ctx is cancelled. A full batch is followed immediately by
// another poll.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		for {
			n, err := r.Flush(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				r.log.ErrorContext(ctx, "relay flush failed", slog.String("error", err.Error()))
				break
			}
			if n < r.cfg.BatchSize {
				break
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Flush publishes one batch and returns how many events it claimed.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	var claimed int
	err := r.tx.RunInTx(ctx, func(txCtx context.Context) error {
		events, err := r.outbox.ClaimUnpublished(txCtx, r.cfg.BatchSize)
		if err != nil {
			return fmt.Errorf("claim events: %w", err)
		}
		if len(events) == 0 {
			return nil
		}
		claimed = len(events)

		if failed := r.dispatcher.Dispatch(txCtx, events...); failed > 0 {
			r.log.WarnContext(ctx, "events delivered with subscriber failures",
				slog.Int("events", len(events)),
				slog.Int("failed", failed),
			)
		}

		ids := make([]ulid.ULID, len(events))
		for i, e := range events {
			ids[i] = e.ID
		}
		if err := r.outbox.MarkPublished(txCtx, ids, r.now().UTC()); err != nil {
			return fmt.Errorf("mark published: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return claimed, nil
}
