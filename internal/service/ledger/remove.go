package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/board-planner/internal/domain"
)

// RemoveCard retires the alive ledger row of cardID, if any, and closes the
// gap it leaves. A card with no alive row is not an error.
func (s *Service) RemoveCard(ctx context.Context, projectID, cardID uuid.UUID) error {
	var removed *domain.LedgerRow
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		row, err := s.ledger.FindAliveByCard(txCtx, cardID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("find ledger row: %w", err)
		}
		if row.ProjectID != projectID {
			return fmt.Errorf("card %s in project %s: %w", cardID, projectID, domain.ErrNotFound)
		}

		p := row.Partition()
		if err := s.lockPartitions(txCtx, p); err != nil {
			return err
		}

		// The row may have moved between the unlocked read and the lock.
		locked, err := s.ledger.FindAliveByCard(txCtx, cardID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("find ledger row: %w", err)
		}
		if locked.Partition() != p {
			return &domain.ConcurrentModificationError{
				Op:  "remove card " + cardID.String(),
				Err: errors.New("card moved while waiting for partition lock"),
			}
		}

		if err := s.ledger.SoftDelete(txCtx, locked.ID, s.now()); err != nil {
			return fmt.Errorf("retire ledger row: %w", err)
		}
		if err := s.ledger.Shift(txCtx, p, locked.Position+1, -1); err != nil {
			return fmt.Errorf("densify partition: %w", err)
		}
		removed = &locked

		return s.verify(txCtx, p)
	})
	if err != nil {
		return err
	}

	if removed != nil {
		s.log.DebugContext(ctx, "card removed from ledger",
			slog.String("partition", removed.Partition().String()),
			slog.String("card_id", cardID.String()),
			slog.Int("position", removed.Position),
		)
	}
	return nil
}
