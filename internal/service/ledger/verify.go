package ledger

import (
	"context"
	"fmt"

	"github.com/heartmarshall/board-planner/internal/domain"
	"github.com/heartmarshall/board-planner/internal/ordering"
)

// VerifyAll scans every partition with alive rows and returns one violation
// per partition whose positions are not 0..N-1.
func (s *Service) VerifyAll(ctx context.Context) ([]domain.ContiguityViolationError, error) {
	partitions, err := s.ledger.Partitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list partitions: %w", err)
	}

	var violations []domain.ContiguityViolationError
	for _, p := range partitions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := s.ledger.ListAlive(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("list partition %s: %w", p, err)
		}
		positions := make([]int, len(rows))
		for i, r := range rows {
			positions[i] = r.Position
		}
		if !ordering.Verify(positions) {
			violations = append(violations, domain.ContiguityViolationError{Scope: p.String(), Positions: positions})
		}
	}
	return violations, nil
}
