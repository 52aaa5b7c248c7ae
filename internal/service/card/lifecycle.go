package card

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/board-planner/internal/domain"
	"github.com/heartmarshall/board-planner/internal/service/cascade"
	"github.com/heartmarshall/board-planner/pkg/ctxutil"
)

// SoftDeleteCard marks the card dead, removes it from the ledger and
// soft-deletes its dependents with the same timestamp. Deleting a dead card
// is a no-op.
func (s *Service) SoftDeleteCard(ctx context.Context, projectID, cardID uuid.UUID) error {
	var (
		counts  cascade.Counts
		deleted bool
	)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.cards.GetForUpdate(txCtx, projectID, cardID)
		if err != nil {
			return fmt.Errorf("lock card: %w", err)
		}
		if !c.IsAlive() {
			return nil
		}
		deleted = true

		at := s.now()
		if err := s.cards.SoftDelete(txCtx, c.ID, at); err != nil {
			return fmt.Errorf("soft delete card: %w", err)
		}
		if err := s.ledger.RemoveCard(txCtx, projectID, c.ID); err != nil {
			return fmt.Errorf("remove from ledger: %w", err)
		}
		if counts, err = s.cascade.SoftDelete(txCtx, c.ID, at); err != nil {
			return err
		}

		e := domain.NewBoardEvent(domain.ChangeKindDeleted, c.Partition(), c.ID, ctxutil.ActorRef(txCtx), at)
		if err := s.events.Append(txCtx, e); err != nil {
			return fmt.Errorf("append event: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if deleted {
		s.log.InfoContext(ctx, "card deleted",
			slog.String("project_id", projectID.String()),
			slog.String("card_id", cardID.String()),
			slog.Int64("dependents", counts.Total()),
		)
	}
	return nil
}

// RestoreCard revives a soft-deleted card at the tail of the partition it
// last belonged to, together with the dependents deleted alongside it.
// Restoring an alive card returns it unchanged.
func (s *Service) RestoreCard(ctx context.Context, projectID, cardID uuid.UUID) (domain.Card, error) {
	var (
		card     domain.Card
		counts   cascade.Counts
		restored bool
	)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.cards.GetForUpdate(txCtx, projectID, cardID)
		if err != nil {
			return fmt.Errorf("lock card: %w", err)
		}
		card = c
		if c.IsAlive() {
			return nil
		}
		restored = true

		deletedAt := *c.DeletedAt
		now := s.now()
		if err := s.cards.Restore(txCtx, c.ID, now); err != nil {
			return fmt.Errorf("restore card: %w", err)
		}
		if _, err := s.ledger.Append(txCtx, c.Partition(), c.ID); err != nil {
			return fmt.Errorf("append to ledger: %w", err)
		}
		if counts, err = s.cascade.Restore(txCtx, c.ID, deletedAt); err != nil {
			return err
		}

		e := domain.NewBoardEvent(domain.ChangeKindRestored, c.Partition(), c.ID, ctxutil.ActorRef(txCtx), now)
		if err := s.events.Append(txCtx, e); err != nil {
			return fmt.Errorf("append event: %w", err)
		}

		card.DeletedAt = nil
		card.UpdatedAt = now
		return nil
	})
	if err != nil {
		return domain.Card{}, err
	}

	if restored {
		s.log.InfoContext(ctx, "card restored",
			slog.String("project_id", projectID.String()),
			slog.String("card_id", cardID.String()),
			slog.Int64("dependents", counts.Total()),
		)
	}
	return card, nil
}
