package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/heartmarshall/board-planner/internal/domain"
)

// Partition returns the ordered alive card IDs of p.
func (s *Service) Partition(ctx context.Context, p domain.Partition) (domain.PartitionView, error) {
	rows, err := s.ledger.ListAlive(ctx, p)
	if err != nil {
		return domain.PartitionView{}, fmt.Errorf("list partition: %w", err)
	}
	return domain.PartitionView{Partition: p, CardIDs: cardIDs(rows)}, nil
}

// Board returns every non-empty partition of a project, each in position
// order. Partitions are sorted by lane, then status.
func (s *Service) Board(ctx context.Context, projectID uuid.UUID) ([]domain.PartitionView, error) {
	rows, err := s.ledger.Board(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load board: %w", err)
	}
	return groupPartitions(rows), nil
}

// groupPartitions splits rows already sorted by (lane, status, position).
func groupPartitions(rows []domain.LedgerRow) []domain.PartitionView {
	var views []domain.PartitionView
	for _, r := range rows {
		p := r.Partition()
		if n := len(views); n == 0 || views[n-1].Partition != p {
			views = append(views, domain.PartitionView{Partition: p})
		}
		last := &views[len(views)-1]
		last.CardIDs = append(last.CardIDs, r.CardID)
	}
	return views
}

// History returns every ledger row the card ever had, oldest first.
func (s *Service) History(ctx context.Context, cardID uuid.UUID) ([]domain.LedgerRow, error) {
	rows, err := s.ledger.History(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("load ledger history: %w", err)
	}
	return rows, nil
}
