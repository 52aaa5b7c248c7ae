package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/heartmarshall/board-planner/internal/domain"
	"github.com/heartmarshall/board-planner/internal/ordering"
	"github.com/heartmarshall/board-planner/pkg/ctxutil"
)

// MoveWithinPartition relocates cardID to target inside p. target must be in
// [0, N-1]. Moving a card onto its own index writes nothing.
func (s *Service) MoveWithinPartition(ctx context.Context, p domain.Partition, cardID uuid.UUID, target int) error {
	var moved bool
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.lockPartitions(txCtx, p); err != nil {
			return err
		}

		rows, err := s.ledger.ListAlive(txCtx, p)
		if err != nil {
			return fmt.Errorf("list partition: %w", err)
		}
		order := cardIDs(rows)
		if !slices.Contains(order, cardID) {
			return fmt.Errorf("card %s in %s: %w", cardID, p, domain.ErrNotFound)
		}

		next, changed, err := ordering.Move(order, cardID, target)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		moved = true

		if _, err := s.writeChanges(txCtx, rows, next); err != nil {
			return err
		}
		if err := s.verify(txCtx, p); err != nil {
			return err
		}

		e := domain.NewBoardEvent(domain.ChangeKindReordered, p, cardID, ctxutil.ActorRef(txCtx), s.now())
		if err := s.events.Append(txCtx, e); err != nil {
			return fmt.Errorf("append event: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if moved {
		s.log.DebugContext(ctx, "card reordered",
			slog.String("partition", p.String()),
			slog.String("card_id", cardID.String()),
			slog.Int("target", target),
		)
	}
	return nil
}

// MoveAcrossPartition moves cardID from src to index target of dst. The old
// ledger row is soft-deleted and a new one inserted; src closes the gap and
// dst rows at or after target shift down by one. target must be in [0, M]
// where M is the alive count of dst.
func (s *Service) MoveAcrossPartition(ctx context.Context, src, dst domain.Partition, cardID uuid.UUID, target int) (domain.LedgerRow, error) {
	if src == dst {
		if err := s.MoveWithinPartition(ctx, src, cardID, target); err != nil {
			return domain.LedgerRow{}, err
		}
		return s.aliveRow(ctx, cardID)
	}
	return s.moveAcross(ctx, src, dst, cardID, func(int) int { return target })
}

// MoveToTail moves cardID from src to the end of dst. When src equals dst
// the card stays where it is.
func (s *Service) MoveToTail(ctx context.Context, src, dst domain.Partition, cardID uuid.UUID) (domain.LedgerRow, error) {
	if src == dst {
		return s.aliveRow(ctx, cardID)
	}
	return s.moveAcross(ctx, src, dst, cardID, func(alive int) int { return alive })
}

func (s *Service) aliveRow(ctx context.Context, cardID uuid.UUID) (domain.LedgerRow, error) {
	row, err := s.ledger.FindAliveByCard(ctx, cardID)
	if err != nil {
		return domain.LedgerRow{}, fmt.Errorf("find ledger row: %w", err)
	}
	return row, nil
}

// moveAcross resolves the target index from the alive count of dst once both
// partitions are locked.
func (s *Service) moveAcross(ctx context.Context, src, dst domain.Partition, cardID uuid.UUID, targetOf func(alive int) int) (domain.LedgerRow, error) {
	if src.ProjectID != dst.ProjectID {
		return domain.LedgerRow{}, domain.NewValidationError("partition", "cannot move a card across projects")
	}

	var (
		row    domain.LedgerRow
		target int
	)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.lockPartitions(txCtx, src, dst); err != nil {
			return err
		}

		old, err := s.ledger.FindAliveByCard(txCtx, cardID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("card %s in %s: %w", cardID, src, domain.ErrNotFound)
			}
			return fmt.Errorf("find ledger row: %w", err)
		}
		if old.Partition() != src {
			return fmt.Errorf("card %s in %s: %w", cardID, src, domain.ErrNotFound)
		}

		dstRows, err := s.ledger.ListAlive(txCtx, dst)
		if err != nil {
			return fmt.Errorf("list target partition: %w", err)
		}
		target = targetOf(len(dstRows))
		if target < 0 || target > len(dstRows) {
			return &domain.OutOfRangeError{Index: target, Max: len(dstRows)}
		}
		if err := s.checkCapacity(len(dstRows)); err != nil {
			return err
		}

		at := s.now()
		if err := s.ledger.SoftDelete(txCtx, old.ID, at); err != nil {
			return fmt.Errorf("retire ledger row: %w", err)
		}
		if err := s.ledger.Shift(txCtx, src, old.Position+1, -1); err != nil {
			return fmt.Errorf("densify source: %w", err)
		}
		if err := s.ledger.Shift(txCtx, dst, target, 1); err != nil {
			return fmt.Errorf("open target slot: %w", err)
		}
		row, err = s.ledger.Insert(txCtx, dst, cardID, target, at)
		if err != nil {
			return fmt.Errorf("insert ledger row: %w", err)
		}

		if err := s.verify(txCtx, src); err != nil {
			return err
		}
		if err := s.verify(txCtx, dst); err != nil {
			return err
		}

		e := domain.NewBoardEvent(domain.ChangeKindMoved, dst, cardID, ctxutil.ActorRef(txCtx), at)
		if err := s.events.Append(txCtx, e); err != nil {
			return fmt.Errorf("append event: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.LedgerRow{}, err
	}

	s.log.DebugContext(ctx, "card moved",
		slog.String("from", src.String()),
		slog.String("to", dst.String()),
		slog.String("card_id", cardID.String()),
		slog.Int("target", target),
	)

	return row, nil
}
