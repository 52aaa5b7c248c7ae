// Package dependent manages the rows that hang off a card: links, feedback,
// document attachments and mentions. Writes lock the owning card row and
// require the card to be alive so they cannot race a soft delete.
package dependent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/board-planner/internal/domain"
)

type dependentRepo interface {
	AddLink(ctx context.Context, l domain.Link) (domain.Link, error)
	ListLinks(ctx context.Context, cardID uuid.UUID) ([]domain.Link, error)
	AddFeedback(ctx context.Context, f domain.Feedback) (domain.Feedback, error)
	ListFeedback(ctx context.Context, cardID uuid.UUID) ([]domain.Feedback, error)
	Attach(ctx context.Context, a domain.Attachment) (domain.Attachment, error)
	ListAttachments(ctx context.Context, cardID uuid.UUID) ([]domain.Attachment, error)
	AddMention(ctx context.Context, m domain.Mention) (domain.Mention, error)
	ListMentions(ctx context.Context, cardID uuid.UUID) ([]domain.Mention, error)

	Remove(ctx context.Context, kind domain.DependentKind, cardID, id uuid.UUID, at time.Time) error
}

type cardRepo interface {
	Get(ctx context.Context, projectID, cardID uuid.UUID) (domain.Card, error)
	GetForUpdate(ctx context.Context, projectID, cardID uuid.UUID) (domain.Card, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service provides dependent-row operations.
type Service struct {
	deps  dependentRepo
	cards cardRepo
	tx    txManager
	log   *slog.Logger
	now   func() time.Time
}

// NewService creates a new dependent service.
func NewService(log *slog.Logger, deps dependentRepo, cards cardRepo, tx txManager) *Service {
	return &Service{
		deps:  deps,
		cards: cards,
		tx:    tx,
		log:   log.With("service", "dependent"),
		now:   func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// CardRef addresses a card inside its project.
type CardRef struct {
	ProjectID uuid.UUID
	CardID    uuid.UUID
}

// withAliveCard runs fn in a transaction holding the card row lock.
func (s *Service) withAliveCard(ctx context.Context, ref CardRef, fn func(txCtx context.Context) error) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.cards.GetForUpdate(txCtx, ref.ProjectID, ref.CardID)
		if err != nil {
			return fmt.Errorf("lock card: %w", err)
		}
		if !c.IsAlive() {
			return fmt.Errorf("card %s: %w", ref.CardID, domain.ErrNotFound)
		}
		return fn(txCtx)
	})
}

// requireAlive is the read-side counterpart of withAliveCard and takes no lock.
func (s *Service) requireAlive(ctx context.Context, ref CardRef) error {
	c, err := s.cards.Get(ctx, ref.ProjectID, ref.CardID)
	if err != nil {
		return fmt.Errorf("get card: %w", err)
	}
	if !c.IsAlive() {
		return fmt.Errorf("card %s: %w", ref.CardID, domain.ErrNotFound)
	}
	return nil
}
