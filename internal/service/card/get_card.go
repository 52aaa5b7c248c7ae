package card

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/heartmarshall/board-planner/internal/domain"
)

// GetCard returns an alive card. Soft-deleted cards are reported as not found.
func (s *Service) GetCard(ctx context.Context, projectID, cardID uuid.UUID) (domain.Card, error) {
	c, err := s.cards.Get(ctx, projectID, cardID)
	if err != nil {
		return domain.Card{}, fmt.Errorf("get card: %w", err)
	}
	if !c.IsAlive() {
		return domain.Card{}, fmt.Errorf("get card: %w", domain.ErrNotFound)
	}
	return c, nil
}

// ListCards returns the alive cards of a project.
func (s *Service) ListCards(ctx context.Context, projectID uuid.UUID) ([]domain.Card, error) {
	cards, err := s.cards.ListAlive(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return cards, nil
}
