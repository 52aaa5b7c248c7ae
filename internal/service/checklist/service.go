// Package checklist orders the checklist items of one card. Every operation
// locks the owning card row first and requires the card to be alive.
package checklist

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/board-planner/internal/domain"
	"github.com/heartmarshall/board-planner/internal/ordering"
)

type itemRepo interface {
	ListAlive(ctx context.Context, cardID uuid.UUID) ([]domain.ChecklistItem, error)
	GetAlive(ctx context.Context, itemID uuid.UUID) (domain.ChecklistItem, error)

	Insert(ctx context.Context, item domain.ChecklistItem) (domain.ChecklistItem, error)
	SetDone(ctx context.Context, itemID uuid.UUID, done bool, doneAt *time.Time, at time.Time) (domain.ChecklistItem, error)
	UpdateContent(ctx context.Context, itemID uuid.UUID, content string, at time.Time) (domain.ChecklistItem, error)
	SoftDelete(ctx context.Context, itemID uuid.UUID, at time.Time) error
	UpdatePositions(ctx context.Context, updates []domain.PositionUpdate) error
}

type cardRepo interface {
	Get(ctx context.Context, projectID, cardID uuid.UUID) (domain.Card, error)
	GetForUpdate(ctx context.Context, projectID, cardID uuid.UUID) (domain.Card, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	RunInReadOnlyTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// DefaultMaxItems caps the alive items of one card when no limit is set.
const DefaultMaxItems = 100

// Service provides checklist operations.
type Service struct {
	items    itemRepo
	cards    cardRepo
	tx       txManager
	maxItems int
	log      *slog.Logger
	now      func() time.Time
}

// NewService creates a new checklist service. maxItems <= 0 uses
// DefaultMaxItems.
func NewService(log *slog.Logger, items itemRepo, cards cardRepo, tx txManager, maxItems int) *Service {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	return &Service{
		items:    items,
		cards:    cards,
		tx:       tx,
		maxItems: maxItems,
		log:      log.With("service", "checklist"),
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// lockCard serializes checklist writers on the card row.
func (s *Service) lockCard(ctx context.Context, ref CardRef) error {
	c, err := s.cards.GetForUpdate(ctx, ref.ProjectID, ref.CardID)
	if err != nil {
		return fmt.Errorf("lock card: %w", err)
	}
	return requireAlive(c, ref)
}

// requireAlive hides soft-deleted cards.
func requireAlive(c domain.Card, ref CardRef) error {
	if !c.IsAlive() {
		return fmt.Errorf("card %s: %w", ref.CardID, domain.ErrNotFound)
	}
	return nil
}

// itemOf loads an alive item and checks that it belongs to the card.
func (s *Service) itemOf(ctx context.Context, ref CardRef, itemID uuid.UUID) (domain.ChecklistItem, error) {
	item, err := s.items.GetAlive(ctx, itemID)
	if err != nil {
		return domain.ChecklistItem{}, fmt.Errorf("get checklist item: %w", err)
	}
	if item.CardID != ref.CardID {
		return domain.ChecklistItem{}, fmt.Errorf("checklist item %s: %w", itemID, domain.ErrNotFound)
	}
	return item, nil
}

// writeOrder persists the positions of items that differ from order.
func (s *Service) writeOrder(ctx context.Context, items []domain.ChecklistItem, order []uuid.UUID) (int, error) {
	before := make(map[uuid.UUID]int, len(items))
	for _, it := range items {
		before[it.ID] = it.Position
	}

	changes := ordering.Changes(before, order)
	updates := make([]domain.PositionUpdate, len(changes))
	for i, c := range changes {
		updates[i] = domain.PositionUpdate{ID: c.ID, Position: c.Position}
	}
	if err := s.items.UpdatePositions(ctx, updates); err != nil {
		return 0, fmt.Errorf("update checklist positions: %w", err)
	}
	return len(changes), nil
}

func itemIDs(items []domain.ChecklistItem) []uuid.UUID {
	ids := make([]uuid.UUID, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}
