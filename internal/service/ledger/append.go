package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/board-planner/internal/domain"
)

// Append places cardID at the tail of p. The card must not have an alive row
// anywhere else.
func (s *Service) Append(ctx context.Context, p domain.Partition, cardID uuid.UUID) (domain.LedgerRow, error) {
	var row domain.LedgerRow
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.lockPartitions(txCtx, p); err != nil {
			return err
		}

		rows, err := s.ledger.ListAlive(txCtx, p)
		if err != nil {
			return fmt.Errorf("list partition: %w", err)
		}
		if err := s.checkCapacity(len(rows)); err != nil {
			return err
		}

		row, err = s.ledger.Insert(txCtx, p, cardID, len(rows), s.now())
		if err != nil {
			return fmt.Errorf("insert ledger row: %w", err)
		}

		return s.verify(txCtx, p)
	})
	if err != nil {
		return domain.LedgerRow{}, err
	}

	s.log.DebugContext(ctx, "card appended",
		slog.String("partition", p.String()),
		slog.String("card_id", cardID.String()),
		slog.Int("position", row.Position),
	)

	return row, nil
}
