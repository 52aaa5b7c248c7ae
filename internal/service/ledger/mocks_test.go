package ledger

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/board-planner/internal/domain"
)

var (
	_ ledgerRepo = &memLedger{}
	_ locker     = &lockerMock{}
	_ eventStore = &eventStoreMock{}
	_ txManager  = &txManagerMock{}
)

// memLedger is an in-memory ledger with the same row semantics as the
// PostgreSQL repository. failOn makes the named method return the error.
type memLedger struct {
	mu     sync.Mutex
	rows   []domain.LedgerRow
	writes int
	failOn map[string]error
}

func (m *memLedger) fail(method string) error {
	if m.failOn == nil {
		return nil
	}
	return m.failOn[method]
}

func (m *memLedger) ListAlive(ctx context.Context, p domain.Partition) ([]domain.LedgerRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListAlive"); err != nil {
		return nil, err
	}
	var out []domain.LedgerRow
	for _, r := range m.rows {
		if r.DeletedAt == nil && r.Partition() == p {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b domain.LedgerRow) int { return cmp.Compare(a.Position, b.Position) })
	return out, nil
}

func (m *memLedger) FindAliveByCard(ctx context.Context, cardID uuid.UUID) (domain.LedgerRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.DeletedAt == nil && r.CardID == cardID {
			return r, nil
		}
	}
	return domain.LedgerRow{}, domain.ErrNotFound
}

func (m *memLedger) Board(ctx context.Context, projectID uuid.UUID) ([]domain.LedgerRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.LedgerRow
	for _, r := range m.rows {
		if r.DeletedAt == nil && r.ProjectID == projectID {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b domain.LedgerRow) int {
		return cmp.Or(
			cmp.Compare(a.Lane, b.Lane),
			cmp.Compare(a.Status, b.Status),
			cmp.Compare(a.Position, b.Position),
		)
	})
	return out, nil
}

func (m *memLedger) Partitions(ctx context.Context) ([]domain.Partition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Partition
	for _, r := range m.rows {
		if r.DeletedAt == nil && !slices.Contains(out, r.Partition()) {
			out = append(out, r.Partition())
		}
	}
	return out, nil
}

func (m *memLedger) History(ctx context.Context, cardID uuid.UUID) ([]domain.LedgerRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.LedgerRow
	for _, r := range m.rows {
		if r.CardID == cardID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memLedger) Insert(ctx context.Context, p domain.Partition, cardID uuid.UUID, position int, at time.Time) (domain.LedgerRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("Insert"); err != nil {
		return domain.LedgerRow{}, err
	}
	for _, r := range m.rows {
		if r.DeletedAt == nil && r.CardID == cardID {
			return domain.LedgerRow{}, domain.ErrAlreadyExists
		}
	}
	row := domain.LedgerRow{
		ID:        uuid.New(),
		ProjectID: p.ProjectID,
		CardID:    cardID,
		Lane:      p.Lane,
		Status:    p.Status,
		Position:  position,
		CreatedAt: at,
	}
	m.rows = append(m.rows, row)
	m.writes++
	return row, nil
}

func (m *memLedger) SoftDelete(ctx context.Context, rowID uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == rowID && m.rows[i].DeletedAt == nil {
			m.rows[i].DeletedAt = &at
			m.writes++
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memLedger) Shift(ctx context.Context, p domain.Partition, from, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		r := &m.rows[i]
		if r.DeletedAt == nil && r.Partition() == p && r.Position >= from {
			r.Position += delta
			m.writes++
		}
	}
	return nil
}

func (m *memLedger) UpdatePositions(ctx context.Context, updates []domain.PositionUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdatePositions"); err != nil {
		return err
	}
	for _, u := range updates {
		for i := range m.rows {
			if m.rows[i].ID == u.ID {
				m.rows[i].Position = u.Position
				m.writes++
			}
		}
	}
	return nil
}

// seed places ids at positions 0..n-1 of p.
func (m *memLedger) seed(p domain.Partition, ids ...uuid.UUID) {
	for i, id := range ids {
		m.rows = append(m.rows, domain.LedgerRow{
			ID: uuid.New(), ProjectID: p.ProjectID, CardID: id,
			Lane: p.Lane, Status: p.Status, Position: i, CreatedAt: time.Now(),
		})
	}
}

// order returns the alive card IDs of p by position.
func (m *memLedger) order(p domain.Partition) []uuid.UUID {
	rows, _ := m.ListAlive(context.Background(), p)
	return cardIDs(rows)
}

// ---------------------------------------------------------------------------
// moq-style mocks
// ---------------------------------------------------------------------------

type lockerMock struct {
	LockFunc func(ctx context.Context, keys ...string) error

	calls struct {
		Lock []struct {
			Ctx  context.Context
			Keys []string
		}
	}
	lockLock sync.RWMutex
}

func (mock *lockerMock) Lock(ctx context.Context, keys ...string) error {
	mock.lockLock.Lock()
	mock.calls.Lock = append(mock.calls.Lock, struct {
		Ctx  context.Context
		Keys []string
	}{Ctx: ctx, Keys: keys})
	mock.lockLock.Unlock()
	if mock.LockFunc == nil {
		return nil
	}
	return mock.LockFunc(ctx, keys...)
}

func (mock *lockerMock) LockCalls() []struct {
	Ctx  context.Context
	Keys []string
} {
	mock.lockLock.RLock()
	defer mock.lockLock.RUnlock()
	return mock.calls.Lock
}

type eventStoreMock struct {
	AppendFunc func(ctx context.Context, events ...domain.BoardEvent) error

	calls struct {
		Append []struct {
			Ctx    context.Context
			Events []domain.BoardEvent
		}
	}
	lockAppend sync.RWMutex
}

func (mock *eventStoreMock) Append(ctx context.Context, events ...domain.BoardEvent) error {
	mock.lockAppend.Lock()
	mock.calls.Append = append(mock.calls.Append, struct {
		Ctx    context.Context
		Events []domain.BoardEvent
	}{Ctx: ctx, Events: events})
	mock.lockAppend.Unlock()
	if mock.AppendFunc == nil {
		return nil
	}
	return mock.AppendFunc(ctx, events...)
}

func (mock *eventStoreMock) AppendCalls() []struct {
	Ctx    context.Context
	Events []domain.BoardEvent
} {
	mock.lockAppend.RLock()
	defer mock.lockAppend.RUnlock()
	return mock.calls.Append
}

// events flattens every appended event.
func (mock *eventStoreMock) events() []domain.BoardEvent {
	var out []domain.BoardEvent
	for _, c := range mock.AppendCalls() {
		out = append(out, c.Events...)
	}
	return out
}

type txManagerMock struct {
	RunInTxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

	calls struct {
		RunInTx []struct {
			Ctx context.Context
		}
	}
	lockRunInTx sync.RWMutex
}

func (mock *txManagerMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if mock.RunInTxFunc == nil {
		panic("txManagerMock.RunInTxFunc: method is nil but txManager.RunInTx was just called")
	}
	mock.lockRunInTx.Lock()
	mock.calls.RunInTx = append(mock.calls.RunInTx, struct{ Ctx context.Context }{Ctx: ctx})
	mock.lockRunInTx.Unlock()
	return mock.RunInTxFunc(ctx, fn)
}

func (mock *txManagerMock) RunInTxCalls() []struct{ Ctx context.Context } {
	mock.lockRunInTx.RLock()
	defer mock.lockRunInTx.RUnlock()
	return mock.calls.RunInTx
}
