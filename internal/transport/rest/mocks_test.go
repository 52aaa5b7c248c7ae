package rest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/heartmarshall/board-planner/internal/config"
	"github.com/heartmarshall/board-planner/internal/domain"
	"github.com/heartmarshall/board-planner/internal/service/card"
	"github.com/heartmarshall/board-planner/internal/service/checklist"
	"github.com/heartmarshall/board-planner/internal/service/dependent"
	"github.com/heartmarshall/board-planner/internal/transport/middleware"
)

var errUnexpectedCall = errors.New("unexpected call")

// ---------------------------------------------------------------------------
// Service mocks
// ---------------------------------------------------------------------------

type cardServiceMock struct {
	CreateCardFunc     func(ctx context.Context, input card.CreateCardInput) (domain.Card, error)
	GetCardFunc        func(ctx context.Context, projectID, cardID uuid.UUID) (domain.Card, error)
	ListCardsFunc      func(ctx context.Context, projectID uuid.UUID) ([]domain.Card, error)
	UpdateContentFunc  func(ctx context.Context, input card.UpdateContentInput) (domain.Card, error)
	ChangeStatusFunc   func(ctx context.Context, projectID, cardID uuid.UUID, status domain.CardStatus) (domain.Card, error)
	ChangeLaneFunc     func(ctx context.Context, projectID, cardID uuid.UUID, lane domain.LaneAssignment) (domain.Card, error)
	MoveCardFunc       func(ctx context.Context, input card.MoveCardInput) (domain.Card, error)
	SoftDeleteCardFunc func(ctx context.Context, projectID, cardID uuid.UUID) error
	RestoreCardFunc    func(ctx context.Context, projectID, cardID uuid.UUID) (domain.Card, error)
}

func (m *cardServiceMock) CreateCard(ctx context.Context, input card.CreateCardInput) (domain.Card, error) {
	if m.CreateCardFunc == nil {
		return domain.Card{}, errUnexpectedCall
	}
	return m.CreateCardFunc(ctx, input)
}

func (m *cardServiceMock) GetCard(ctx context.Context, projectID, cardID uuid.UUID) (domain.Card, error) {
	if m.GetCardFunc == nil {
		return domain.Card{}, errUnexpectedCall
	}
	return m.GetCardFunc(ctx, projectID, cardID)
}

func (m *cardServiceMock) ListCards(ctx context.Context, projectID uuid.UUID) ([]domain.Card, error) {
	if m.ListCardsFunc == nil {
		return nil, errUnexpectedCall
	}
	return m.ListCardsFunc(ctx, projectID)
}

func (m *cardServiceMock) UpdateContent(ctx context.Context, input card.UpdateContentInput) (domain.Card, error) {
	if m.UpdateContentFunc == nil {
		return domain.Card{}, errUnexpectedCall
	}
	return m.UpdateContentFunc(ctx, input)
}

func (m *cardServiceMock) ChangeStatus(ctx context.Context, projectID, cardID uuid.UUID, status domain.CardStatus) (domain.Card, error) {
	if m.ChangeStatusFunc == nil {
		return domain.Card{}, errUnexpectedCall
	}
	return m.ChangeStatusFunc(ctx, projectID, cardID, status)
}

func (m *cardServiceMock) ChangeLane(ctx context.Context, projectID, cardID uuid.UUID, lane domain.LaneAssignment) (domain.Card, error) {
	if m.ChangeLaneFunc == nil {
		return domain.Card{}, errUnexpectedCall
	}
	return m.ChangeLaneFunc(ctx, projectID, cardID, lane)
}

func (m *cardServiceMock) MoveCard(ctx context.Context, input card.MoveCardInput) (domain.Card, error) {
	if m.MoveCardFunc == nil {
		return domain.Card{}, errUnexpectedCall
	}
	return m.MoveCardFunc(ctx, input)
}

func (m *cardServiceMock) SoftDeleteCard(ctx context.Context, projectID, cardID uuid.UUID) error {
	if m.SoftDeleteCardFunc == nil {
		return errUnexpectedCall
	}
	return m.SoftDeleteCardFunc(ctx, projectID, cardID)
}

func (m *cardServiceMock) RestoreCard(ctx context.Context, projectID, cardID uuid.UUID) (domain.Card, error) {
	if m.RestoreCardFunc == nil {
		return domain.Card{}, errUnexpectedCall
	}
	return m.RestoreCardFunc(ctx, projectID, cardID)
}

type ledgerServiceMock struct {
	BoardFunc       func(ctx context.Context, projectID uuid.UUID) ([]domain.PartitionView, error)
	PartitionFunc   func(ctx context.Context, p domain.Partition) (domain.PartitionView, error)
	BulkReplaceFunc func(ctx context.Context, p domain.Partition, orderedCardIDs []uuid.UUID) (int, error)
	HistoryFunc     func(ctx context.Context, cardID uuid.UUID) ([]domain.LedgerRow, error)
}

func (m *ledgerServiceMock) Board(ctx context.Context, projectID uuid.UUID) ([]domain.PartitionView, error) {
	if m.BoardFunc == nil {
		return nil, errUnexpectedCall
	}
	return m.BoardFunc(ctx, projectID)
}

func (m *ledgerServiceMock) Partition(ctx context.Context, p domain.Partition) (domain.PartitionView, error) {
	if m.PartitionFunc == nil {
		return domain.PartitionView{}, errUnexpectedCall
	}
	return m.PartitionFunc(ctx, p)
}

func (m *ledgerServiceMock) BulkReplace(ctx context.Context, p domain.Partition, orderedCardIDs []uuid.UUID) (int, error) {
	if m.BulkReplaceFunc == nil {
		return 0, errUnexpectedCall
	}
	return m.BulkReplaceFunc(ctx, p, orderedCardIDs)
}

func (m *ledgerServiceMock) History(ctx context.Context, cardID uuid.UUID) ([]domain.LedgerRow, error) {
	if m.HistoryFunc == nil {
		return nil, errUnexpectedCall
	}
	return m.HistoryFunc(ctx, cardID)
}

type eventFeedMock struct {
	ListByProjectFunc func(ctx context.Context, projectID uuid.UUID, after int64, limit int) ([]domain.BoardEvent, error)
}

func (m *eventFeedMock) ListByProject(ctx context.Context, projectID uuid.UUID, after int64, limit int) ([]domain.BoardEvent, error) {
	if m.ListByProjectFunc == nil {
		return nil, errUnexpectedCall
	}
	return m.ListByProjectFunc(ctx, projectID, after, limit)
}

type checklistServiceMock struct {
	ListFunc    func(ctx context.Context, ref checklist.CardRef) ([]domain.ChecklistItem, error)
	AppendFunc  func(ctx context.Context, ref checklist.CardRef, content string) (domain.ChecklistItem, error)
	ReorderFunc func(ctx context.Context, ref checklist.CardRef, orderedItemIDs []uuid.UUID) ([]domain.ChecklistItem, error)
	RemoveFunc  func(ctx context.Context, ref checklist.CardRef, itemID uuid.UUID) error
	UpdateFunc  func(ctx context.Context, input checklist.UpdateItemInput) (domain.ChecklistItem, error)
}

func (m *checklistServiceMock) List(ctx context.Context, ref checklist.CardRef) ([]domain.ChecklistItem, error) {
	if m.ListFunc == nil {
		return nil, errUnexpectedCall
	}
	return m.ListFunc(ctx, ref)
}

func (m *checklistServiceMock) Append(ctx context.Context, ref checklist.CardRef, content string) (domain.ChecklistItem, error) {
	if m.AppendFunc == nil {
		return domain.ChecklistItem{}, errUnexpectedCall
	}
	return m.AppendFunc(ctx, ref, content)
}

func (m *checklistServiceMock) Reorder(ctx context.Context, ref checklist.CardRef, orderedItemIDs []uuid.UUID) ([]domain.ChecklistItem, error) {
	if m.ReorderFunc == nil {
		return nil, errUnexpectedCall
	}
	return m.ReorderFunc(ctx, ref, orderedItemIDs)
}

func (m *checklistServiceMock) Remove(ctx context.Context, ref checklist.CardRef, itemID uuid.UUID) error {
	if m.RemoveFunc == nil {
		return errUnexpectedCall
	}
	return m.RemoveFunc(ctx, ref, itemID)
}

func (m *checklistServiceMock) Update(ctx context.Context, input checklist.UpdateItemInput) (domain.ChecklistItem, error) {
	if m.UpdateFunc == nil {
		return domain.ChecklistItem{}, errUnexpectedCall
	}
	return m.UpdateFunc(ctx, input)
}

type dependentServiceMock struct {
	AddLinkFunc      func(ctx context.Context, in dependent.AddLinkInput) (domain.Link, error)
	AddFeedbackFunc  func(ctx context.Context, in dependent.AddFeedbackInput) (domain.Feedback, error)
	AttachFunc       func(ctx context.Context, in dependent.AttachInput) (domain.Attachment, error)
	AddMentionFunc   func(ctx context.Context, in dependent.MentionInput) (domain.Mention, error)
	ListLinksFunc    func(ctx context.Context, ref dependent.CardRef) ([]domain.Link, error)
	ListMentionsFunc func(ctx context.Context, ref dependent.CardRef) ([]domain.Mention, error)
	RemoveFunc       func(ctx context.Context, ref dependent.CardRef, kind domain.DependentKind, id uuid.UUID) error
}

func (m *dependentServiceMock) AddLink(ctx context.Context, in dependent.AddLinkInput) (domain.Link, error) {
	if m.AddLinkFunc == nil {
		return domain.Link{}, errUnexpectedCall
	}
	return m.AddLinkFunc(ctx, in)
}

func (m *dependentServiceMock) ListLinks(ctx context.Context, ref dependent.CardRef) ([]domain.Link, error) {
	if m.ListLinksFunc == nil {
		return nil, errUnexpectedCall
	}
	return m.ListLinksFunc(ctx, ref)
}

func (m *dependentServiceMock) AddFeedback(ctx context.Context, in dependent.AddFeedbackInput) (domain.Feedback, error) {
	if m.AddFeedbackFunc == nil {
		return domain.Feedback{}, errUnexpectedCall
	}
	return m.AddFeedbackFunc(ctx, in)
}

func (m *dependentServiceMock) ListFeedback(ctx context.Context, ref dependent.CardRef) ([]domain.Feedback, error) {
	return nil, nil
}

func (m *dependentServiceMock) Attach(ctx context.Context, in dependent.AttachInput) (domain.Attachment, error) {
	if m.AttachFunc == nil {
		return domain.Attachment{}, errUnexpectedCall
	}
	return m.AttachFunc(ctx, in)
}

func (m *dependentServiceMock) ListAttachments(ctx context.Context, ref dependent.CardRef) ([]domain.Attachment, error) {
	return nil, nil
}

func (m *dependentServiceMock) AddMention(ctx context.Context, in dependent.MentionInput) (domain.Mention, error) {
	if m.AddMentionFunc == nil {
		return domain.Mention{}, errUnexpectedCall
	}
	return m.AddMentionFunc(ctx, in)
}

func (m *dependentServiceMock) ListMentions(ctx context.Context, ref dependent.CardRef) ([]domain.Mention, error) {
	if m.ListMentionsFunc == nil {
		return nil, errUnexpectedCall
	}
	return m.ListMentionsFunc(ctx, ref)
}

func (m *dependentServiceMock) Remove(ctx context.Context, ref dependent.CardRef, kind domain.DependentKind, id uuid.UUID) error {
	if m.RemoveFunc == nil {
		return errUnexpectedCall
	}
	return m.RemoveFunc(ctx, ref, kind, id)
}

type progressServiceMock struct {
	OverviewFunc     func(ctx context.Context, projectID uuid.UUID) (domain.ProjectOverview, error)
	CardProgressFunc func(ctx context.Context, projectID, cardID uuid.UUID) (domain.ChecklistProgress, error)
}

func (m *progressServiceMock) Overview(ctx context.Context, projectID uuid.UUID) (domain.ProjectOverview, error) {
	if m.OverviewFunc == nil {
		return domain.ProjectOverview{}, errUnexpectedCall
	}
	return m.OverviewFunc(ctx, projectID)
}

func (m *progressServiceMock) CardProgress(ctx context.Context, projectID, cardID uuid.UUID) (domain.ChecklistProgress, error) {
	if m.CardProgressFunc == nil {
		return domain.ChecklistProgress{}, errUnexpectedCall
	}
	return m.CardProgressFunc(ctx, projectID, cardID)
}

// ---------------------------------------------------------------------------
// Router harness
// ---------------------------------------------------------------------------

// testAPI is the full router backed by mocks. Tests set the mock funcs they
// need before calling do.
type testAPI struct {
	cards     *cardServiceMock
	ledger    *ledgerServiceMock
	events    *eventFeedMock
	checklist *checklistServiceMock
	deps      *dependentServiceMock
	progress  *progressServiceMock
	db        *dbPingerMock
	outbox    *outboxBacklogMock

	cfg     RouterConfig
	limiter *middleware.RateLimiter
	handler http.Handler
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	return &testAPI{
		cards:     &cardServiceMock{},
		ledger:    &ledgerServiceMock{},
		events:    &eventFeedMock{},
		checklist: &checklistServiceMock{},
		deps:      &dependentServiceMock{},
		progress:  &progressServiceMock{},
		db:        &dbPingerMock{},
		outbox:    &outboxBacklogMock{},
		cfg: RouterConfig{CORS: config.CORSConfig{
			AllowedOrigins: "http://localhost:3000",
			AllowedMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
			AllowedHeaders: "Content-Type,X-User-Id,X-Request-Id",
			MaxAge:         600,
		}},
	}
}

func (a *testAPI) router() http.Handler {
	if a.handler == nil {
		log := discardLogger()
		a.handler = NewRouter(Handlers{
			Health:    NewHealthHandler(a.db, a.outbox, "test"),
			Cards:     NewCardHandler(a.cards, log),
			Board:     NewBoardHandler(a.ledger, a.events, log),
			Checklist: NewChecklistHandler(a.checklist, log),
			Dependent: NewDependentHandler(a.deps, log),
			Progress:  NewProgressHandler(a.progress, log),
		}, a.cfg, a.limiter, log)
	}
	return a.handler
}

// do sends a request through the router. Header pairs are given as
// alternating name, value.
func (a *testAPI) do(method, path, body string, header ...string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	a.router().ServeHTTP(rec, req)
	return rec
}
