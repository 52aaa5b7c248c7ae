package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/board-planner/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedCard inserts an alive card row without a ledger row.
func SeedCard(t *testing.T, pool *pgxpool.Pool, projectID uuid.UUID, lane domain.LaneKey, status domain.CardStatus) domain.Card {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	card := domain.Card{
		ID:        uuid.New(),
		ProjectID: projectID,
		Title:     "Card " + uniqueSuffix(),
		Status:    status,
		Lane:      lane,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO cards (id, project_id, title, body, status, lane_key, created_at, updated_at)
		 VALUES ($1, $2, $3, '', $4, $5, $6, $7)`,
		card.ID, card.ProjectID, card.Title, string(card.Status), string(card.Lane), card.CreatedAt, card.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedCard: %v", err)
	}
	return card
}

// SeedPlacedCard inserts a card and its alive ledger row at position.
func SeedPlacedCard(t *testing.T, pool *pgxpool.Pool, p domain.Partition, position int) domain.Card {
	t.Helper()

	card := SeedCard(t, pool, p.ProjectID, p.Lane, p.Status)

	_, err := pool.Exec(context.Background(),
		`INSERT INTO order_ledger (id, project_id, card_id, lane_key, status, position)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New(), p.ProjectID, card.ID, string(p.Lane), string(p.Status), position,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedPlacedCard ledger row: %v", err)
	}
	return card
}

// SeedPartition places n fresh cards at positions 0..n-1 and returns their
// IDs in order.
func SeedPartition(t *testing.T, pool *pgxpool.Pool, p domain.Partition, n int) []uuid.UUID {
	t.Helper()

	ids := make([]uuid.UUID, n)
	for i := range n {
		ids[i] = SeedPlacedCard(t, pool, p, i).ID
	}
	return ids
}

// NewPartition returns a partition in a fresh project, so tests sharing the
// container never observe each other's rows.
func NewPartition(lane domain.LaneKey, status domain.CardStatus) domain.Partition {
	return domain.Partition{ProjectID: uuid.New(), Lane: lane, Status: status}
}

// AliveOrder returns the card IDs of a partition's alive rows by position.
func AliveOrder(t *testing.T, pool *pgxpool.Pool, p domain.Partition) []uuid.UUID {
	t.Helper()

	rows, err := pool.Query(context.Background(),
		`SELECT card_id FROM order_ledger
		 WHERE project_id = $1 AND lane_key = $2 AND status = $3 AND deleted_at IS NULL
		 ORDER BY position`,
		p.ProjectID, string(p.Lane), string(p.Status),
	)
	if err != nil {
		t.Fatalf("testhelper: AliveOrder: %v", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			t.Fatalf("testhelper: AliveOrder scan: %v", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("testhelper: AliveOrder rows: %v", err)
	}
	return ids
}

// AssertContiguous fails the test unless every alive partition of the project
// has positions exactly 0..N-1.
func AssertContiguous(t *testing.T, pool *pgxpool.Pool, projectID uuid.UUID) {
	t.Helper()

	var broken int
	err := pool.QueryRow(context.Background(),
		`SELECT count(*) FROM (
		   SELECT lane_key, status
		   FROM order_ledger
		   WHERE project_id = $1 AND deleted_at IS NULL
		   GROUP BY lane_key, status
		   HAVING min(position) <> 0 OR max(position) <> count(*) - 1
		      OR count(DISTINCT position) <> count(*)
		 ) AS bad`,
		projectID,
	).Scan(&broken)
	if err != nil {
		t.Fatalf("testhelper: AssertContiguous: %v", err)
	}
	if broken != 0 {
		t.Fatalf("testhelper: %d partition(s) of project %s are not contiguous", broken, projectID)
	}
}

// SeedChecklistItem inserts an alive checklist item at position.
func SeedChecklistItem(t *testing.T, pool *pgxpool.Pool, cardID uuid.UUID, position int) domain.ChecklistItem {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	item := domain.ChecklistItem{
		ID:        uuid.New(),
		CardID:    cardID,
		Content:   "Item " + uniqueSuffix(),
		Position:  position,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO checklist_items (id, card_id, content, done, position, created_at, updated_at)
		 VALUES ($1, $2, $3, false, $4, $5, $6)`,
		item.ID, item.CardID, item.Content, item.Position, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedChecklistItem: %v", err)
	}
	return item
}
