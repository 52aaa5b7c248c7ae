package checklist

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/board-planner/internal/domain"
	"github.com/heartmarshall/board-planner/internal/ordering"
)

// List returns the alive items of a card in order. It reads one snapshot
// and takes no row locks.
func (s *Service) List(ctx context.Context, ref CardRef) ([]domain.ChecklistItem, error) {
	var items []domain.ChecklistItem
	err := s.tx.RunInReadOnlyTx(ctx, func(txCtx context.Context) error {
		c, err := s.cards.Get(txCtx, ref.ProjectID, ref.CardID)
		if err != nil {
			return fmt.Errorf("get card: %w", err)
		}
		if err := requireAlive(c, ref); err != nil {
			return err
		}
		items, err = s.items.ListAlive(txCtx, ref.CardID)
		if err != nil {
			return fmt.Errorf("list checklist: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Append adds an item at the end of the checklist.
func (s *Service) Append(ctx context.Context, ref CardRef, content string) (domain.ChecklistItem, error) {
	if fe := validateContent(content); fe != nil {
		return domain.ChecklistItem{}, domain.NewValidationErrors([]domain.FieldError{*fe})
	}

	var item domain.ChecklistItem
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.lockCard(txCtx, ref); err != nil {
			return err
		}

		items, err := s.items.ListAlive(txCtx, ref.CardID)
		if err != nil {
			return fmt.Errorf("list checklist: %w", err)
		}
		if len(items) >= s.maxItems {
			return domain.NewValidationError("checklist", fmt.Sprintf("limit reached (max %d items)", s.maxItems))
		}

		now := s.now()
		item, err = s.items.Insert(txCtx, domain.ChecklistItem{
			ID:        uuid.New(),
			CardID:    ref.CardID,
			Content:   strings.TrimSpace(content),
			Position:  len(items),
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("insert checklist item: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.ChecklistItem{}, err
	}

	s.log.DebugContext(ctx, "checklist item added",
		slog.String("card_id", ref.CardID.String()),
		slog.String("item_id", item.ID.String()),
		slog.Int("position", item.Position),
	)

	return item, nil
}

// Reorder rewrites the checklist order. orderedItemIDs must be exactly the
// alive items; otherwise nothing is written.
func (s *Service) Reorder(ctx context.Context, ref CardRef, orderedItemIDs []uuid.UUID) ([]domain.ChecklistItem, error) {
	var (
		result  []domain.ChecklistItem
		changed int
	)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.lockCard(txCtx, ref); err != nil {
			return err
		}

		items, err := s.items.ListAlive(txCtx, ref.CardID)
		if err != nil {
			return fmt.Errorf("list checklist: %w", err)
		}
		next, err := ordering.Replace(itemIDs(items), orderedItemIDs)
		if err != nil {
			return err
		}
		if changed, err = s.writeOrder(txCtx, items, next); err != nil {
			return err
		}

		result = reordered(items, next)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.DebugContext(ctx, "checklist reordered",
		slog.String("card_id", ref.CardID.String()),
		slog.Int("changed", changed),
	)

	return result, nil
}

// Remove soft-deletes an item and closes the gap it leaves.
func (s *Service) Remove(ctx context.Context, ref CardRef, itemID uuid.UUID) error {
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.lockCard(txCtx, ref); err != nil {
			return err
		}
		if _, err := s.itemOf(txCtx, ref, itemID); err != nil {
			return err
		}

		if err := s.items.SoftDelete(txCtx, itemID, s.now()); err != nil {
			return fmt.Errorf("soft delete checklist item: %w", err)
		}

		rest, err := s.items.ListAlive(txCtx, ref.CardID)
		if err != nil {
			return fmt.Errorf("list checklist: %w", err)
		}
		_, err = s.writeOrder(txCtx, rest, itemIDs(rest))
		return err
	})
	if err != nil {
		return err
	}

	s.log.DebugContext(ctx, "checklist item removed",
		slog.String("card_id", ref.CardID.String()),
		slog.String("item_id", itemID.String()),
	)

	return nil
}

// Update sets the done flag and/or the text of an item. Position never
// changes. done_at is stamped when an item becomes done and cleared when it
// is reopened.
func (s *Service) Update(ctx context.Context, input UpdateItemInput) (domain.ChecklistItem, error) {
	if err := input.Validate(); err != nil {
		return domain.ChecklistItem{}, err
	}

	var item domain.ChecklistItem
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.lockCard(txCtx, input.Card); err != nil {
			return err
		}
		current, err := s.itemOf(txCtx, input.Card, input.ItemID)
		if err != nil {
			return err
		}
		item = current
		now := s.now()

		if input.Content != nil {
			item, err = s.items.UpdateContent(txCtx, item.ID, strings.TrimSpace(*input.Content), now)
			if err != nil {
				return fmt.Errorf("update checklist item: %w", err)
			}
		}

		if input.Done != nil && *input.Done != current.Done {
			var doneAt *time.Time
			if *input.Done {
				doneAt = &now
			}
			item, err = s.items.SetDone(txCtx, item.ID, *input.Done, doneAt, now)
			if err != nil {
				return fmt.Errorf("set checklist item done: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return domain.ChecklistItem{}, err
	}

	s.log.DebugContext(ctx, "checklist item updated",
		slog.String("item_id", item.ID.String()),
		slog.Bool("done", item.Done),
	)

	return item, nil
}

// reordered returns items arranged by order with positions rewritten.
func reordered(items []domain.ChecklistItem, order []uuid.UUID) []domain.ChecklistItem {
	byID := make(map[uuid.UUID]domain.ChecklistItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	out := make([]domain.ChecklistItem, len(order))
	for i, id := range order {
		it := byID[id]
		it.Position = i
		out[i] = it
	}
	return out
}
