package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/heartmarshall/board-planner/internal/domain"
)

type ledgerService interface {
	Board(ctx context.Context, projectID uuid.UUID) ([]domain.PartitionView, error)
	Partition(ctx context.Context, p domain.Partition) (domain.PartitionView, error)
	BulkReplace(ctx context.Context, p domain.Partition, orderedCardIDs []uuid.UUID) (int, error)
	History(ctx context.Context, cardID uuid.UUID) ([]domain.LedgerRow, error)
}

type eventFeed interface {
	ListByProject(ctx context.Context, projectID uuid.UUID, after int64, limit int) ([]domain.BoardEvent, error)
}

const (
	defaultEventLimit = 100
	maxEventLimit     = 500
)

// BoardHandler serves board layout, bulk ordering and the event feed.
type BoardHandler struct {
	ledger ledgerService
	events eventFeed
	log    *slog.Logger
}

// NewBoardHandler creates a BoardHandler.
func NewBoardHandler(ledger ledgerService, events eventFeed, logger *slog.Logger) *BoardHandler {
	return &BoardHandler{ledger: ledger, events: events, log: logger.With("handler", "board")}
}

type orderRequest struct {
	CardIDs []uuid.UUID `json:"cardIds"`
}

type orderResponse struct {
	partitionResponse
	Changed int `json:"changed"`
}

type eventsResponse struct {
	Events []domain.BoardEvent `json:"events"`
	// Next is the cursor for the following page, empty when this page was
	// not full.
	Next string `json:"next,omitempty"`
}

// Board handles GET /projects/{projectID}/board.
func (h *BoardHandler) Board(w http.ResponseWriter, r *http.Request) {
	projectID, ok := uuidParam(w, r, "projectID")
	if !ok {
		return
	}

	views, err := h.ledger.Board(r.Context(), projectID)
	if err != nil {
		writeDomainError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, boardResponse{
		ProjectID:  projectID,
		Partitions: mapSlice(views, toPartitionResponse),
	})
}

// Partition handles GET /projects/{projectID}/partitions/{laneKey}/{status}.
func (h *BoardHandler) Partition(w http.ResponseWriter, r *http.Request) {
	p, ok := partitionParam(w, r)
	if !ok {
		return
	}

	view, err := h.ledger.Partition(r.Context(), p)
	if err != nil {
		writeDomainError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toPartitionResponse(view))
}

// ReplaceOrder handles PUT /projects/{projectID}/partitions/{laneKey}/{status}/order.
// The body must list exactly the partition's alive cards.
func (h *BoardHandler) ReplaceOrder(w http.ResponseWriter, r *http.Request) {
	p, ok := partitionParam(w, r)
	if !ok {
		return
	}
	var req orderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	changed, err := h.ledger.BulkReplace(r.Context(), p, req.CardIDs)
	if err != nil {
		writeDomainError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse{
		partitionResponse: toPartitionResponse(domain.PartitionView{Partition: p, CardIDs: req.CardIDs}),
		Changed:           changed,
	})
}

// History handles GET /projects/{projectID}/cards/{cardID}/history: every
// ledger row the card ever had, oldest first.
func (h *BoardHandler) History(w http.ResponseWriter, r *http.Request) {
	projectID, cardID, ok := cardRef(w, r)
	if !ok {
		return
	}

	rows, err := h.ledger.History(r.Context(), cardID)
	if err != nil {
		writeDomainError(w, r, h.log, err)
		return
	}

	out := make([]ledgerRowResponse, 0, len(rows))
	for _, row := range rows {
		if row.ProjectID != projectID {
			continue
		}
		out = append(out, ledgerRowResponse{
			LaneKey:   row.Lane,
			Status:    row.Status,
			Position:  row.Position,
			CreatedAt: row.CreatedAt,
			DeletedAt: row.DeletedAt,
		})
	}
	if len(out) == 0 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Events handles GET /projects/{projectID}/events?after=<seq>&limit=<n>.
// Only published events are listed, in commit order.
func (h *BoardHandler) Events(w http.ResponseWriter, r *http.Request) {
	projectID, ok := uuidParam(w, r, "projectID")
	if !ok {
		return
	}

	var after int64
	if v := r.URL.Query().Get("after"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "after must be a feed position")
			return
		}
		after = n
	}
	limit, err := queryInt(r, "limit", defaultEventLimit, 1, maxEventLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	events, err := h.events.ListByProject(r.Context(), projectID, after, limit)
	if err != nil {
		writeDomainError(w, r, h.log, err)
		return
	}

	resp := eventsResponse{Events: events}
	if resp.Events == nil {
		resp.Events = []domain.BoardEvent{}
	}
	if len(events) == limit {
		resp.Next = strconv.FormatInt(events[len(events)-1].Seq, 10)
	}
	writeJSON(w, http.StatusOK, resp)
}
