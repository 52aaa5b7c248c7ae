package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/board-planner/internal/domain"
	"github.com/heartmarshall/board-planner/internal/ordering"
	"github.com/heartmarshall/board-planner/pkg/ctxutil"
)

// BulkReplace rewrites the order of p to exactly orderedCardIDs. The list
// must be a permutation of the alive membership; otherwise nothing is
// written and a *domain.PartitionMembershipMismatchError is returned.
// It returns the number of rows whose position changed.
func (s *Service) BulkReplace(ctx context.Context, p domain.Partition, orderedCardIDs []uuid.UUID) (int, error) {
	var changed int
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.lockPartitions(txCtx, p); err != nil {
			return err
		}

		rows, err := s.ledger.ListAlive(txCtx, p)
		if err != nil {
			return fmt.Errorf("list partition: %w", err)
		}

		next, err := ordering.Replace(cardIDs(rows), orderedCardIDs)
		if err != nil {
			return err
		}

		changes, err := s.writeChanges(txCtx, rows, next)
		if err != nil {
			return err
		}
		changed = len(changes)
		if changed == 0 {
			return nil
		}

		if err := s.verify(txCtx, p); err != nil {
			return err
		}

		at := s.now()
		actor := ctxutil.ActorRef(txCtx)
		events := make([]domain.BoardEvent, len(changes))
		for i, c := range changes {
			events[i] = domain.NewBoardEvent(domain.ChangeKindReordered, p, c.ID, actor, at)
		}
		if err := s.events.Append(txCtx, events...); err != nil {
			return fmt.Errorf("append events: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.DebugContext(ctx, "partition reordered",
		slog.String("partition", p.String()),
		slog.Int("cards", len(orderedCardIDs)),
		slog.Int("changed", changed),
	)

	return changed, nil
}
