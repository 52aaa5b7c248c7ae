package progress_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/board-planner/internal/adapter/postgres/progress"
	"github.com/heartmarshall/board-planner/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/board-planner/internal/domain"
)

func newRepo(t *testing.T) (*progress.Repo, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return progress.New(pool), pool
}

func exec(t *testing.T, pool *pgxpool.Pool, sql string, args ...any) {
	t.Helper()
	if _, err := pool.Exec(context.Background(), sql, args...); err != nil {
		t.Fatalf("exec %q: %v", sql, err)
	}
}

func markDone(t *testing.T, pool *pgxpool.Pool, itemID uuid.UUID) {
	t.Helper()
	exec(t, pool, `UPDATE checklist_items SET done = true, done_at = now() WHERE id = $1`, itemID)
}

func TestRepo_CountByLaneStatus(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	project := uuid.New()

	testhelper.SeedCard(t, pool, project, "ROLE:BACKEND", domain.CardStatusPlanning)
	testhelper.SeedCard(t, pool, project, "ROLE:BACKEND", domain.CardStatusPlanning)
	testhelper.SeedCard(t, pool, project, "ROLE:BACKEND", domain.CardStatusDone)
	dead := testhelper.SeedCard(t, pool, project, "ROLE:DESIGN", domain.CardStatusPlanning)
	exec(t, pool, `UPDATE cards SET deleted_at = now() WHERE id = $1`, dead.ID)
	testhelper.SeedCard(t, pool, uuid.New(), "ROLE:BACKEND", domain.CardStatusPlanning)

	counts, err := repo.CountByLaneStatus(context.Background(), project)
	if err != nil {
		t.Fatalf("CountByLaneStatus: unexpected error: %v", err)
	}

	got := make(map[domain.Partition]int)
	for _, c := range counts {
		got[domain.Partition{ProjectID: project, Lane: c.Lane, Status: c.Status}] = c.Count
	}
	want := map[domain.Partition]int{
		{ProjectID: project, Lane: "ROLE:BACKEND", Status: domain.CardStatusPlanning}: 2,
		{ProjectID: project, Lane: "ROLE:BACKEND", Status: domain.CardStatusDone}:     1,
	}
	if len(got) != len(want) {
		t.Fatalf("CountByLaneStatus = %+v, want %d groups", counts, len(want))
	}
	for p, n := range want {
		if got[p] != n {
			t.Errorf("%s: count = %d, want %d", p, got[p], n)
		}
	}
}

func TestRepo_CountChecklist(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	card := testhelper.SeedCard(t, pool, uuid.New(), "ROLE:QA", domain.CardStatusInProgress)

	a := testhelper.SeedChecklistItem(t, pool, card.ID, 0)
	testhelper.SeedChecklistItem(t, pool, card.ID, 1)
	removed := testhelper.SeedChecklistItem(t, pool, card.ID, 2)
	markDone(t, pool, a.ID)
	markDone(t, pool, removed.ID)
	exec(t, pool, `UPDATE checklist_items SET deleted_at = now() WHERE id = $1`, removed.ID)

	got, err := repo.CountChecklist(context.Background(), card.ID)
	if err != nil {
		t.Fatalf("CountChecklist: unexpected error: %v", err)
	}
	want := domain.ChecklistCount{CardID: card.ID, Total: 2, Done: 1}
	if got != want {
		t.Errorf("CountChecklist = %+v, want %+v", got, want)
	}
}

func TestRepo_CountChecklist_NoItems(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	cardID := uuid.New()

	got, err := repo.CountChecklist(context.Background(), cardID)
	if err != nil {
		t.Fatalf("CountChecklist: unexpected error: %v", err)
	}
	if got.CardID != cardID || got.Total != 0 || got.Done != 0 {
		t.Errorf("CountChecklist = %+v, want zero counts", got)
	}
}

func TestRepo_CountChecklistsByProject(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	project := uuid.New()

	withItems := testhelper.SeedCard(t, pool, project, "ROLE:BACKEND", domain.CardStatusPlanning)
	empty := testhelper.SeedCard(t, pool, project, "ROLE:BACKEND", domain.CardStatusPlanning)
	dead := testhelper.SeedCard(t, pool, project, "ROLE:BACKEND", domain.CardStatusPlanning)
	exec(t, pool, `UPDATE cards SET deleted_at = now() WHERE id = $1`, dead.ID)

	item := testhelper.SeedChecklistItem(t, pool, withItems.ID, 0)
	testhelper.SeedChecklistItem(t, pool, withItems.ID, 1)
	testhelper.SeedChecklistItem(t, pool, dead.ID, 0)
	markDone(t, pool, item.ID)

	counts, err := repo.CountChecklistsByProject(context.Background(), project)
	if err != nil {
		t.Fatalf("CountChecklistsByProject: unexpected error: %v", err)
	}

	got := make(map[uuid.UUID]domain.ChecklistCount)
	for _, c := range counts {
		got[c.CardID] = c
	}
	if len(got) != 2 {
		t.Fatalf("CountChecklistsByProject = %+v, want 2 cards", counts)
	}
	if c := got[withItems.ID]; c.Total != 2 || c.Done != 1 {
		t.Errorf("card with items = %+v, want 2 total 1 done", c)
	}
	if c, ok := got[empty.ID]; !ok || c.Total != 0 {
		t.Errorf("empty card = %+v (present %v), want zero total", c, ok)
	}
}
