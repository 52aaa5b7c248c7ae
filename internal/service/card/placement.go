package card

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/board-planner/internal/domain"
)

// ChangeStatus moves the card to the tail of the same lane under a new
// status. Setting the current status is a no-op.
func (s *Service) ChangeStatus(ctx context.Context, projectID, cardID uuid.UUID, status domain.CardStatus) (domain.Card, error) {
	if !status.IsValid() {
		return domain.Card{}, domain.NewValidationError("status", fmt.Sprintf("unknown status %q", status))
	}
	return s.relocateToTail(ctx, projectID, cardID, func(c domain.Card) domain.Partition {
		return domain.Partition{ProjectID: c.ProjectID, Lane: c.Lane, Status: status}
	})
}

// ChangeLane moves the card to the tail of another lane keeping its status.
// Assigning the current lane is a no-op.
func (s *Service) ChangeLane(ctx context.Context, projectID, cardID uuid.UUID, lane domain.LaneAssignment) (domain.Card, error) {
	key, err := domain.ResolveLaneKey(lane)
	if err != nil {
		return domain.Card{}, err
	}
	return s.relocateToTail(ctx, projectID, cardID, func(c domain.Card) domain.Partition {
		return domain.Partition{ProjectID: c.ProjectID, Lane: key, Status: c.Status}
	})
}

func (s *Service) relocateToTail(ctx context.Context, projectID, cardID uuid.UUID, target func(domain.Card) domain.Partition) (domain.Card, error) {
	var (
		card    domain.Card
		changed bool
	)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.lockAlive(txCtx, projectID, cardID)
		if err != nil {
			return fmt.Errorf("lock card: %w", err)
		}
		card = c

		src, dst := c.Partition(), target(c)
		if src == dst {
			return nil
		}
		changed = true

		if _, err := s.ledger.MoveToTail(txCtx, src, dst, c.ID); err != nil {
			return fmt.Errorf("move in ledger: %w", err)
		}
		return s.place(txCtx, &card, dst)
	})
	if err != nil {
		return domain.Card{}, err
	}

	if changed {
		s.log.InfoContext(ctx, "card relocated",
			slog.String("card_id", card.ID.String()),
			slog.String("lane", string(card.Lane)),
			slog.String("status", string(card.Status)),
		)
	}
	return card, nil
}

// MoveCard is the drag-and-drop entry point: it reorders inside the current
// partition when lane and status are unchanged, and moves across otherwise.
func (s *Service) MoveCard(ctx context.Context, input MoveCardInput) (domain.Card, error) {
	if err := input.Validate(); err != nil {
		return domain.Card{}, err
	}

	var card domain.Card
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.lockAlive(txCtx, input.ProjectID, input.CardID)
		if err != nil {
			return fmt.Errorf("lock card: %w", err)
		}
		card = c

		dst := domain.Partition{ProjectID: c.ProjectID, Lane: c.Lane, Status: input.Status}
		if input.Lane != nil {
			if dst.Lane, err = domain.ResolveLaneKey(*input.Lane); err != nil {
				return err
			}
		}

		src := c.Partition()
		if src == dst {
			if err := s.ledger.MoveWithinPartition(txCtx, src, c.ID, input.TargetIndex); err != nil {
				return fmt.Errorf("reorder in ledger: %w", err)
			}
			return nil
		}

		if _, err := s.ledger.MoveAcrossPartition(txCtx, src, dst, c.ID, input.TargetIndex); err != nil {
			return fmt.Errorf("move in ledger: %w", err)
		}
		return s.place(txCtx, &card, dst)
	})
	if err != nil {
		return domain.Card{}, err
	}

	s.log.DebugContext(ctx, "card moved",
		slog.String("card_id", card.ID.String()),
		slog.String("lane", string(card.Lane)),
		slog.String("status", string(card.Status)),
		slog.Int("target", input.TargetIndex),
	)

	return card, nil
}

// place records dst on the card row and on c.
func (s *Service) place(ctx context.Context, c *domain.Card, dst domain.Partition) error {
	now := s.now()
	if err := s.cards.SetPlacement(ctx, c.ID, dst.Lane, dst.Status, now); err != nil {
		return fmt.Errorf("set placement: %w", err)
	}
	c.Lane, c.Status, c.UpdatedAt = dst.Lane, dst.Status, now
	return nil
}
