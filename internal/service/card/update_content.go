package card

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/heartmarshall/board-planner/internal/domain"
)

// UpdateContent applies a partial edit to the card's title, body and dates.
// Placement is never touched.
func (s *Service) UpdateContent(ctx context.Context, input UpdateContentInput) (domain.Card, error) {
	if err := input.Validate(); err != nil {
		return domain.Card{}, err
	}

	var updated domain.Card
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.lockAlive(txCtx, input.ProjectID, input.CardID)
		if err != nil {
			return fmt.Errorf("lock card: %w", err)
		}

		payload := input.Patch.Apply(&c)
		payload.Title = strings.TrimSpace(payload.Title)
		if errs := validatePayload(payload); len(errs) > 0 {
			return domain.NewValidationErrors(errs)
		}

		updated, err = s.cards.UpdateContent(txCtx, c.ID, payload, s.now())
		if err != nil {
			return fmt.Errorf("update card: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Card{}, err
	}

	s.log.DebugContext(ctx, "card content updated",
		slog.String("card_id", updated.ID.String()),
	)

	return updated, nil
}
