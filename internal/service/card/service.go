// Package card manages the card lifecycle: creation, content edits,
// placement changes, soft-delete and restore. Every structural change is
// delegated to the ledger service inside the card's transaction.
package card

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/board-planner/internal/domain"
	"github.com/heartmarshall/board-planner/internal/service/cascade"
)

type cardRepo interface {
	Get(ctx context.Context, projectID, cardID uuid.UUID) (domain.Card, error)
	GetForUpdate(ctx context.Context, projectID, cardID uuid.UUID) (domain.Card, error)
	ListAlive(ctx context.Context, projectID uuid.UUID) ([]domain.Card, error)

	Create(ctx context.Context, card domain.Card) (domain.Card, error)
	UpdateContent(ctx context.Context, cardID uuid.UUID, p domain.CardPayload, at time.Time) (domain.Card, error)
	SetPlacement(ctx context.Context, cardID uuid.UUID, lane domain.LaneKey, status domain.CardStatus, at time.Time) error
	SoftDelete(ctx context.Context, cardID uuid.UUID, at time.Time) error
	Restore(ctx context.Context, cardID uuid.UUID, at time.Time) error
}

type ledgerService interface {
	Append(ctx context.Context, p domain.Partition, cardID uuid.UUID) (domain.LedgerRow, error)
	MoveWithinPartition(ctx context.Context, p domain.Partition, cardID uuid.UUID, target int) error
	MoveAcrossPartition(ctx context.Context, src, dst domain.Partition, cardID uuid.UUID, target int) (domain.LedgerRow, error)
	MoveToTail(ctx context.Context, src, dst domain.Partition, cardID uuid.UUID) (domain.LedgerRow, error)
	RemoveCard(ctx context.Context, projectID, cardID uuid.UUID) error
}

type cascader interface {
	SoftDelete(ctx context.Context, cardID uuid.UUID, at time.Time) (cascade.Counts, error)
	Restore(ctx context.Context, cardID uuid.UUID, at time.Time) (cascade.Counts, error)
}

type eventStore interface {
	Append(ctx context.Context, events ...domain.BoardEvent) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service provides card lifecycle operations.
type Service struct {
	cards   cardRepo
	ledger  ledgerService
	cascade cascader
	events  eventStore
	tx      txManager
	log     *slog.Logger
	now     func() time.Time
}

// NewService creates a new card service.
func NewService(
	log *slog.Logger,
	cards cardRepo,
	ledger ledgerService,
	cascade cascader,
	events eventStore,
	tx txManager,
) *Service {
	return &Service{
		cards:   cards,
		ledger:  ledger,
		cascade: cascade,
		events:  events,
		tx:      tx,
		log:     log.With("service", "card"),
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// lockAlive locks the card row and fails with ErrNotFound when the card is
// soft-deleted.
func (s *Service) lockAlive(ctx context.Context, projectID, cardID uuid.UUID) (domain.Card, error) {
	c, err := s.cards.GetForUpdate(ctx, projectID, cardID)
	if err != nil {
		return domain.Card{}, err
	}
	if !c.IsAlive() {
		return domain.Card{}, domain.ErrNotFound
	}
	return c, nil
}
