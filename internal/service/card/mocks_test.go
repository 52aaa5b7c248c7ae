package card

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/board-planner/internal/domain"
	"github.com/heartmarshall/board-planner/internal/service/cascade"
)

var (
	_ cardRepo      = &cardRepoMock{}
	_ ledgerService = &ledgerServiceMock{}
	_ cascader      = &cascaderMock{}
	_ eventStore    = &eventStoreMock{}
	_ txManager     = &txManagerMock{}
)

// callLog records method names in call order, shared across mocks.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(name string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.calls = append(l.calls, name)
	l.mu.Unlock()
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type cardRepoMock struct {
	log *callLog

	GetFunc           func(ctx context.Context, projectID, cardID uuid.UUID) (domain.Card, error)
	GetForUpdateFunc  func(ctx context.Context, projectID, cardID uuid.UUID) (domain.Card, error)
	ListAliveFunc     func(ctx context.Context, projectID uuid.UUID) ([]domain.Card, error)
	CreateFunc        func(ctx context.Context, card domain.Card) (domain.Card, error)
	UpdateContentFunc func(ctx context.Context, cardID uuid.UUID, p domain.CardPayload, at time.Time) (domain.Card, error)
	SetPlacementFunc  func(ctx context.Context, cardID uuid.UUID, lane domain.LaneKey, status domain.CardStatus, at time.Time) error
	SoftDeleteFunc    func(ctx context.Context, cardID uuid.UUID, at time.Time) error
	RestoreFunc       func(ctx context.Context, cardID uuid.UUID, at time.Time) error
}

func (m *cardRepoMock) Get(ctx context.Context, projectID, cardID uuid.UUID) (domain.Card, error) {
	m.log.add("cards.Get")
	return m.GetFunc(ctx, projectID, cardID)
}

func (m *cardRepoMock) GetForUpdate(ctx context.Context, projectID, cardID uuid.UUID) (domain.Card, error) {
	m.log.add("cards.GetForUpdate")
	return m.GetForUpdateFunc(ctx, projectID, cardID)
}

func (m *cardRepoMock) ListAlive(ctx context.Context, projectID uuid.UUID) ([]domain.Card, error) {
	m.log.add("cards.ListAlive")
	return m.ListAliveFunc(ctx, projectID)
}

func (m *cardRepoMock) Create(ctx context.Context, card domain.Card) (domain.Card, error) {
	m.log.add("cards.Create")
	return m.CreateFunc(ctx, card)
}

func (m *cardRepoMock) UpdateContent(ctx context.Context, cardID uuid.UUID, p domain.CardPayload, at time.Time) (domain.Card, error) {
	m.log.add("cards.UpdateContent")
	return m.UpdateContentFunc(ctx, cardID, p, at)
}

func (m *cardRepoMock) SetPlacement(ctx context.Context, cardID uuid.UUID, lane domain.LaneKey, status domain.CardStatus, at time.Time) error {
	m.log.add("cards.SetPlacement")
	if m.SetPlacementFunc == nil {
		return nil
	}
	return m.SetPlacementFunc(ctx, cardID, lane, status, at)
}

func (m *cardRepoMock) SoftDelete(ctx context.Context, cardID uuid.UUID, at time.Time) error {
	m.log.add("cards.SoftDelete")
	if m.SoftDeleteFunc == nil {
		return nil
	}
	return m.SoftDeleteFunc(ctx, cardID, at)
}

func (m *cardRepoMock) Restore(ctx context.Context, cardID uuid.UUID, at time.Time) error {
	m.log.add("cards.Restore")
	if m.RestoreFunc == nil {
		return nil
	}
	return m.RestoreFunc(ctx, cardID, at)
}

type ledgerServiceMock struct {
	log *callLog

	AppendFunc              func(ctx context.Context, p domain.Partition, cardID uuid.UUID) (domain.LedgerRow, error)
	MoveWithinPartitionFunc func(ctx context.Context, p domain.Partition, cardID uuid.UUID, target int) error
	MoveAcrossPartitionFunc func(ctx context.Context, src, dst domain.Partition, cardID uuid.UUID, target int) (domain.LedgerRow, error)
	MoveToTailFunc          func(ctx context.Context, src, dst domain.Partition, cardID uuid.UUID) (domain.LedgerRow, error)
	RemoveCardFunc          func(ctx context.Context, projectID, cardID uuid.UUID) error
}

func (m *ledgerServiceMock) Append(ctx context.Context, p domain.Partition, cardID uuid.UUID) (domain.LedgerRow, error) {
	m.log.add("ledger.Append")
	if m.AppendFunc == nil {
		return domain.LedgerRow{CardID: cardID}, nil
	}
	return m.AppendFunc(ctx, p, cardID)
}

func (m *ledgerServiceMock) MoveWithinPartition(ctx context.Context, p domain.Partition, cardID uuid.UUID, target int) error {
	m.log.add("ledger.MoveWithinPartition")
	if m.MoveWithinPartitionFunc == nil {
		return nil
	}
	return m.MoveWithinPartitionFunc(ctx, p, cardID, target)
}

func (m *ledgerServiceMock) MoveAcrossPartition(ctx context.Context, src, dst domain.Partition, cardID uuid.UUID, target int) (domain.LedgerRow, error) {
	m.log.add("ledger.MoveAcrossPartition")
	if m.MoveAcrossPartitionFunc == nil {
		return domain.LedgerRow{CardID: cardID, Position: target}, nil
	}
	return m.MoveAcrossPartitionFunc(ctx, src, dst, cardID, target)
}

func (m *ledgerServiceMock) MoveToTail(ctx context.Context, src, dst domain.Partition, cardID uuid.UUID) (domain.LedgerRow, error) {
	m.log.add("ledger.MoveToTail")
	if m.MoveToTailFunc == nil {
		return domain.LedgerRow{CardID: cardID}, nil
	}
	return m.MoveToTailFunc(ctx, src, dst, cardID)
}

func (m *ledgerServiceMock) RemoveCard(ctx context.Context, projectID, cardID uuid.UUID) error {
	m.log.add("ledger.RemoveCard")
	if m.RemoveCardFunc == nil {
		return nil
	}
	return m.RemoveCardFunc(ctx, projectID, cardID)
}

type cascaderMock struct {
	log *callLog

	SoftDeleteFunc func(ctx context.Context, cardID uuid.UUID, at time.Time) (cascade.Counts, error)
	RestoreFunc    func(ctx context.Context, cardID uuid.UUID, at time.Time) (cascade.Counts, error)
}

func (m *cascaderMock) SoftDelete(ctx context.Context, cardID uuid.UUID, at time.Time) (cascade.Counts, error) {
	m.log.add("cascade.SoftDelete")
	if m.SoftDeleteFunc == nil {
		return cascade.Counts{}, nil
	}
	return m.SoftDeleteFunc(ctx, cardID, at)
}

func (m *cascaderMock) Restore(ctx context.Context, cardID uuid.UUID, at time.Time) (cascade.Counts, error) {
	m.log.add("cascade.Restore")
	if m.RestoreFunc == nil {
		return cascade.Counts{}, nil
	}
	return m.RestoreFunc(ctx, cardID, at)
}

type eventStoreMock struct {
	mu     sync.Mutex
	events []domain.BoardEvent
}

func (m *eventStoreMock) Append(ctx context.Context, events ...domain.BoardEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *eventStoreMock) kinds() []domain.ChangeKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ChangeKind, len(m.events))
	for i, e := range m.events {
		out[i] = e.Kind
	}
	return out
}

type txManagerMock struct {
	RunInTxFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *txManagerMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.RunInTxFunc(ctx, fn)
}
