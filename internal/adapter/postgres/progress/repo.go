// Package progress implements the read-only aggregate queries behind
// board and checklist progress.
package progress

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/heartmarshall/board-planner/internal/adapter/postgres"
	"github.com/heartmarshall/board-planner/internal/domain"
)

// Repo runs progress aggregates against PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new progress repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

const countByLaneStatusSQL = `
SELECT lane_key, status, count(*) AS count
FROM cards
WHERE project_id = $1 AND deleted_at IS NULL
GROUP BY lane_key, status
ORDER BY lane_key, status`

const countChecklistSQL = `
SELECT $1::uuid AS card_id,
       count(*) AS total,
       count(*) FILTER (WHERE done) AS done
FROM checklist_items
WHERE card_id = $1 AND deleted_at IS NULL`

const countChecklistsByProjectSQL = `
SELECT c.id AS card_id,
       count(i.id) AS total,
       count(i.id) FILTER (WHERE i.done) AS done
FROM cards c
LEFT JOIN checklist_items i ON i.card_id = c.id AND i.deleted_at IS NULL
WHERE c.project_id = $1 AND c.deleted_at IS NULL
GROUP BY c.id, c.created_at
ORDER BY c.created_at, c.id`

type statusCountRow struct {
	LaneKey string `db:"lane_key"`
	Status  string `db:"status"`
	Count   int    `db:"count"`
}

type checklistCountRow struct {
	CardID uuid.UUID `db:"card_id"`
	Total  int       `db:"total"`
	Done   int       `db:"done"`
}

// CountByLaneStatus returns alive card counts grouped by lane and status.
// Only non-zero groups are returned.
func (r *Repo) CountByLaneStatus(ctx context.Context, projectID uuid.UUID) ([]domain.StatusCount, error) {
	var rows []statusCountRow
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, countByLaneStatusSQL, projectID); err != nil {
		return nil, postgres.MapError(err, "count cards by lane and status")
	}

	out := make([]domain.StatusCount, len(rows))
	for i, row := range rows {
		out[i] = domain.StatusCount{
			Lane:   domain.LaneKey(row.LaneKey),
			Status: domain.CardStatus(row.Status),
			Count:  row.Count,
		}
	}
	return out, nil
}

// CountChecklist returns checklist totals of one card.
func (r *Repo) CountChecklist(ctx context.Context, cardID uuid.UUID) (domain.ChecklistCount, error) {
	var row checklistCountRow
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &row, countChecklistSQL, cardID); err != nil {
		return domain.ChecklistCount{}, postgres.MapError(err, "count checklist")
	}
	return domain.ChecklistCount(row), nil
}

// CountChecklistsByProject returns checklist totals for every alive card of
// the project, including cards without items.
func (r *Repo) CountChecklistsByProject(ctx context.Context, projectID uuid.UUID) ([]domain.ChecklistCount, error) {
	var rows []checklistCountRow
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, countChecklistsByProjectSQL, projectID); err != nil {
		return nil, postgres.MapError(err, "count checklists by project")
	}

	out := make([]domain.ChecklistCount, len(rows))
	for i, row := range rows {
		out[i] = domain.ChecklistCount(row)
	}
	return out, nil
}
