package card

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/board-planner/internal/domain"
	"github.com/heartmarshall/board-planner/pkg/ctxutil"
)

// CreateCard creates a card at the tail of its partition.
func (s *Service) CreateCard(ctx context.Context, input CreateCardInput) (domain.Card, error) {
	if err := input.Validate(); err != nil {
		return domain.Card{}, err
	}
	lane, err := domain.ResolveLaneKey(input.Lane)
	if err != nil {
		return domain.Card{}, err
	}

	now := s.now()
	payload := input.payload()

	var card domain.Card
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var createErr error
		card, createErr = s.cards.Create(txCtx, domain.Card{
			ID:        uuid.New(),
			ProjectID: input.ProjectID,
			Title:     payload.Title,
			Body:      payload.Body,
			Status:    input.Status,
			Lane:      lane,
			StartDate: payload.StartDate,
			EndDate:   payload.EndDate,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if createErr != nil {
			return fmt.Errorf("create card: %w", createErr)
		}

		if _, err := s.ledger.Append(txCtx, card.Partition(), card.ID); err != nil {
			return fmt.Errorf("append to ledger: %w", err)
		}

		e := domain.NewBoardEvent(domain.ChangeKindCreated, card.Partition(), card.ID, ctxutil.ActorRef(txCtx), now)
		if err := s.events.Append(txCtx, e); err != nil {
			return fmt.Errorf("append event: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Card{}, err
	}

	s.log.InfoContext(ctx, "card created",
		slog.String("project_id", card.ProjectID.String()),
		slog.String("card_id", card.ID.String()),
		slog.String("lane", string(card.Lane)),
		slog.String("status", string(card.Status)),
	)

	return card, nil
}
