package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/heartmarshall/board-planner/internal/domain"
)

func TestBoard(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	projectID, c1 := uuid.New(), uuid.New()
	api.ledger.BoardFunc = func(ctx context.Context, id uuid.UUID) ([]domain.PartitionView, error) {
		return []domain.PartitionView{
			{Partition: domain.Partition{ProjectID: id, Lane: "ROLE:BACKEND", Status: domain.CardStatusPlanning}, CardIDs: []uuid.UUID{c1}},
			{Partition: domain.Partition{ProjectID: id, Lane: "ROLE:BACKEND", Status: domain.CardStatusDone}},
		}, nil
	}

	rec := api.do(http.MethodGet, fmt.Sprintf("/api/v1/projects/%s/board", projectID), "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var resp boardResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ProjectID != projectID || len(resp.Partitions) != 2 {
		t.Fatalf("board: got %+v", resp)
	}
	if !slices.Equal(resp.Partitions[0].CardIDs, []uuid.UUID{c1}) {
		t.Errorf("first partition: got %v", resp.Partitions[0].CardIDs)
	}
	if resp.Partitions[1].CardIDs == nil {
		t.Error("empty partition must encode as [], got null")
	}
}

func TestPartition_LaneKeyFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		segment string
		want    domain.LaneKey
	}{
		{segment: "ROLE:BACKEND", want: "ROLE:BACKEND"},
		{segment: "CUSTOM:Ops%20Team", want: "CUSTOM:Ops Team"},
		{segment: url.PathEscape("CUSTOM:50% off"), want: "CUSTOM:50% off"},
		{segment: url.PathEscape("CUSTOM:a%41b"), want: "CUSTOM:a%41b"},
		{segment: url.PathEscape("CUSTOM:R&D/QA"), want: "CUSTOM:R&D/QA"},
		{segment: "CUSTOM:Ops%2fTeam", want: "CUSTOM:Ops/Team"},
	}

	for _, tt := range tests {
		t.Run(tt.segment, func(t *testing.T) {
			t.Parallel()

			api := newTestAPI(t)
			projectID := uuid.New()
			var got domain.Partition
			api.ledger.PartitionFunc = func(ctx context.Context, p domain.Partition) (domain.PartitionView, error) {
				got = p
				return domain.PartitionView{Partition: p}, nil
			}

			rec := api.do(http.MethodGet, fmt.Sprintf("/api/v1/projects/%s/partitions/%s/IN_PROGRESS", projectID, tt.segment), "")

			if rec.Code != http.StatusOK {
				t.Fatalf("status: got %d, body %s", rec.Code, rec.Body)
			}
			want := domain.Partition{ProjectID: projectID, Lane: tt.want, Status: domain.CardStatusInProgress}
			if got != want {
				t.Errorf("partition: got %+v, want %+v", got, want)
			}
		})
	}
}

func TestPartition_BadPath(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	projectID := uuid.New()

	for _, path := range []string{
		fmt.Sprintf("/api/v1/projects/%s/partitions/BACKEND/DONE", projectID),
		fmt.Sprintf("/api/v1/projects/%s/partitions/ROLE:JANITOR/DONE", projectID),
		fmt.Sprintf("/api/v1/projects/%s/partitions/ROLE:QA/ARCHIVED", projectID),
	} {
		if rec := api.do(http.MethodGet, path, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s: got %d, want 400", path, rec.Code)
		}
	}
}

func TestReplaceOrder(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	projectID := uuid.New()
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	var got []uuid.UUID
	api.ledger.BulkReplaceFunc = func(ctx context.Context, p domain.Partition, ordered []uuid.UUID) (int, error) {
		got = ordered
		return 2, nil
	}

	body, _ := json.Marshal(orderRequest{CardIDs: ids})
	rec := api.do(http.MethodPut, fmt.Sprintf("/api/v1/projects/%s/partitions/ROLE:QA/DONE/order", projectID), string(body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body)
	}
	if !slices.Equal(got, ids) {
		t.Errorf("ordered ids: got %v", got)
	}
	var resp orderResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Changed != 2 || !slices.Equal(resp.CardIDs, ids) || resp.Status != domain.CardStatusDone {
		t.Errorf("response: got %+v", resp)
	}
}

func TestReplaceOrder_Mismatch(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	missing, extra := uuid.New(), uuid.New()
	api.ledger.BulkReplaceFunc = func(ctx context.Context, p domain.Partition, ordered []uuid.UUID) (int, error) {
		return 0, &domain.PartitionMembershipMismatchError{Missing: []uuid.UUID{missing}, Unexpected: []uuid.UUID{extra}}
	}

	rec := api.do(http.MethodPut, fmt.Sprintf("/api/v1/projects/%s/partitions/ROLE:QA/DONE/order", uuid.New()),
		fmt.Sprintf(`{"cardIds":[%q]}`, extra))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want 409", rec.Code)
	}
	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !slices.Equal(resp.Missing, []uuid.UUID{missing}) || !slices.Equal(resp.Unexpected, []uuid.UUID{extra}) {
		t.Errorf("diff: missing %v unexpected %v", resp.Missing, resp.Unexpected)
	}
	if resp.Retryable {
		t.Error("mismatch must not be retryable")
	}
}

func TestHistory_FiltersByProject(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	projectID, cardID := uuid.New(), uuid.New()
	retired := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	api.ledger.HistoryFunc = func(ctx context.Context, id uuid.UUID) ([]domain.LedgerRow, error) {
		return []domain.LedgerRow{
			{ProjectID: projectID, CardID: id, Lane: "ROLE:QA", Status: domain.CardStatusPlanning, Position: 0, DeletedAt: &retired},
			{ProjectID: projectID, CardID: id, Lane: "ROLE:QA", Status: domain.CardStatusDone, Position: 3},
		}, nil
	}

	rec := api.do(http.MethodGet, cardPath(projectID, cardID)+"/history", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var rows []ledgerRowResponse
	if err := json.NewDecoder(rec.Body).Decode(&rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 2 || rows[0].DeletedAt == nil || rows[1].Position != 3 {
		t.Errorf("rows: got %+v", rows)
	}

	// The same card looked up under another project is not visible.
	rec = api.do(http.MethodGet, cardPath(uuid.New(), cardID)+"/history", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign project: got %d, want 404", rec.Code)
	}
}

func TestEvents_Pagination(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	projectID := uuid.New()

	var gotAfter int64
	var gotLimit int
	api.events.ListByProjectFunc = func(ctx context.Context, id uuid.UUID, after int64, limit int) ([]domain.BoardEvent, error) {
		gotAfter, gotLimit = after, limit
		out := make([]domain.BoardEvent, limit)
		for i := range out {
			// Feed positions need not follow ID order.
			out[i] = domain.BoardEvent{ID: ulid.Make(), ProjectID: id, Kind: domain.ChangeKindMoved, Seq: after + int64(limit-i)*10}
		}
		return out, nil
	}

	rec := api.do(http.MethodGet, fmt.Sprintf("/api/v1/projects/%s/events?after=41&limit=2", projectID), "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body)
	}
	if gotAfter != 41 || gotLimit != 2 {
		t.Errorf("query: after=%d limit=%d", gotAfter, gotLimit)
	}
	var resp eventsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Events) != 2 || resp.Next != "51" {
		t.Errorf("page: %d events, next %q, want 51", len(resp.Events), resp.Next)
	}
}

func TestEvents_LastPage(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	api.events.ListByProjectFunc = func(ctx context.Context, id uuid.UUID, after int64, limit int) ([]domain.BoardEvent, error) {
		if after != 0 || limit != defaultEventLimit {
			t.Errorf("defaults: after=%d limit=%d", after, limit)
		}
		return nil, nil
	}

	rec := api.do(http.MethodGet, fmt.Sprintf("/api/v1/projects/%s/events", uuid.New()), "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var resp eventsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Events == nil || len(resp.Events) != 0 || resp.Next != "" {
		t.Errorf("last page: got %+v", resp)
	}
}

func TestEvents_BadQuery(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	base := fmt.Sprintf("/api/v1/projects/%s/events", uuid.New())

	for _, q := range []string{"?after=nope", "?after=-1", "?after=" + ulid.Make().String(), "?limit=0", "?limit=100000"} {
		if rec := api.do(http.MethodGet, base+q, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s: got %d, want 400", q, rec.Code)
		}
	}
}
