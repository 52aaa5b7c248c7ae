// Package ledger orchestrates partition reorders: it serializes writers on
// partition locks, computes the new order with package ordering, persists
// only the rows that moved, and re-checks contiguity before commit.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/board-planner/internal/domain"
	"github.com/heartmarshall/board-planner/internal/ordering"
)

type ledgerRepo interface {
	ListAlive(ctx context.Context, p domain.Partition) ([]domain.LedgerRow, error)
	FindAliveByCard(ctx context.Context, cardID uuid.UUID) (domain.LedgerRow, error)
	Board(ctx context.Context, projectID uuid.UUID) ([]domain.LedgerRow, error)
	Partitions(ctx context.Context) ([]domain.Partition, error)
	History(ctx context.Context, cardID uuid.UUID) ([]domain.LedgerRow, error)

	Insert(ctx context.Context, p domain.Partition, cardID uuid.UUID, position int, at time.Time) (domain.LedgerRow, error)
	SoftDelete(ctx context.Context, rowID uuid.UUID, at time.Time) error
	Shift(ctx context.Context, p domain.Partition, from, delta int) error
	UpdatePositions(ctx context.Context, updates []domain.PositionUpdate) error
}

type locker interface {
	Lock(ctx context.Context, keys ...string) error
}

type eventStore interface {
	Append(ctx context.Context, events ...domain.BoardEvent) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Config tunes the ledger service.
type Config struct {
	// VerifyContiguity re-reads every touched partition before commit.
	VerifyContiguity bool
	// MaxCardsPerPartition rejects inserts into a full partition. 0 = no limit.
	MaxCardsPerPartition int
}

// Service provides order ledger operations.
type Service struct {
	ledger ledgerRepo
	locks  locker
	events eventStore
	tx     txManager
	cfg    Config
	log    *slog.Logger
	now    func() time.Time
}

// NewService creates a new ledger service.
func NewService(
	log *slog.Logger,
	ledger ledgerRepo,
	locks locker,
	events eventStore,
	tx txManager,
	cfg Config,
) *Service {
	return &Service{
		ledger: ledger,
		locks:  locks,
		events: events,
		tx:     tx,
		cfg:    cfg,
		log:    log.With("service", "ledger"),
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// lockPartitions takes the advisory locks of every partition in ps.
func (s *Service) lockPartitions(ctx context.Context, ps ...domain.Partition) error {
	keys := make([]string, len(ps))
	for i, p := range ps {
		keys[i] = p.LockKey()
	}
	if err := s.locks.Lock(ctx, keys...); err != nil {
		return fmt.Errorf("lock partitions: %w", err)
	}
	return nil
}

// verify re-reads p and fails when its alive positions are not 0..N-1.
func (s *Service) verify(ctx context.Context, p domain.Partition) error {
	if !s.cfg.VerifyContiguity {
		return nil
	}

	rows, err := s.ledger.ListAlive(ctx, p)
	if err != nil {
		return fmt.Errorf("verify partition: %w", err)
	}
	positions := make([]int, len(rows))
	for i, r := range rows {
		positions[i] = r.Position
	}
	if !ordering.Verify(positions) {
		s.log.ErrorContext(ctx, "contiguity violated",
			slog.String("partition", p.String()),
			slog.Any("positions", positions),
		)
		return &domain.ContiguityViolationError{Scope: p.String(), Positions: positions}
	}
	return nil
}

func (s *Service) checkCapacity(alive int) error {
	if s.cfg.MaxCardsPerPartition > 0 && alive >= s.cfg.MaxCardsPerPartition {
		return domain.NewValidationError("partition",
			fmt.Sprintf("limit reached (max %d cards)", s.cfg.MaxCardsPerPartition))
	}
	return nil
}

// writeChanges persists only the rows whose position differs between rows
// and order.
func (s *Service) writeChanges(ctx context.Context, rows []domain.LedgerRow, order []uuid.UUID) ([]ordering.Change, error) {
	before := make(map[uuid.UUID]int, len(rows))
	rowIDs := make(map[uuid.UUID]uuid.UUID, len(rows))
	for _, r := range rows {
		before[r.CardID] = r.Position
		rowIDs[r.CardID] = r.ID
	}

	changes := ordering.Changes(before, order)
	updates := make([]domain.PositionUpdate, len(changes))
	for i, c := range changes {
		updates[i] = domain.PositionUpdate{ID: rowIDs[c.ID], Position: c.Position}
	}
	if err := s.ledger.UpdatePositions(ctx, updates); err != nil {
		return nil, fmt.Errorf("update positions: %w", err)
	}
	return changes, nil
}

func cardIDs(rows []domain.LedgerRow) []uuid.UUID {
	ids := make([]uuid.UUID, len(rows))
	for i, r := range rows {
		ids[i] = r.CardID
	}
	return ids
}
