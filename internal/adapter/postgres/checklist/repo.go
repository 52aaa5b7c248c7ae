// Package checklist implements the checklist item repository using PostgreSQL.
package checklist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/heartmarshall/board-planner/internal/adapter/postgres"
	"github.com/heartmarshall/board-planner/internal/domain"
)

const table = "checklist_items"

var columns = []string{
	"id", "card_id", "content", "done", "done_at", "position", "created_at", "updated_at", "deleted_at",
}

// Repo provides checklist persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new checklist repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

type itemRow struct {
	ID        uuid.UUID  `db:"id"`
	CardID    uuid.UUID  `db:"card_id"`
	Content   string     `db:"content"`
	Done      bool       `db:"done"`
	DoneAt    *time.Time `db:"done_at"`
	Position  int        `db:"position"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}

const updatePositionsSQL = `
UPDATE checklist_items AS c
SET position = u.position
FROM unnest($1::uuid[], $2::int[]) AS u(id, position)
WHERE c.id = u.id AND c.deleted_at IS NULL`

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// ListAlive returns the alive items of a card ordered by position.
func (r *Repo) ListAlive(ctx context.Context, cardID uuid.UUID) ([]domain.ChecklistItem, error) {
	q := postgres.Builder().
		Select(columns...).
		From(table).
		Where(squirrel.Eq{"card_id": cardID}).
		Where("deleted_at IS NULL").
		OrderBy("position")

	return r.selectItems(ctx, q, "list checklist")
}

// GetAlive returns an alive item by ID.
func (r *Repo) GetAlive(ctx context.Context, itemID uuid.UUID) (domain.ChecklistItem, error) {
	q := postgres.Builder().
		Select(columns...).
		From(table).
		Where(squirrel.Eq{"id": itemID}).
		Where("deleted_at IS NULL")

	items, err := r.selectItems(ctx, q, "get checklist item")
	if err != nil {
		return domain.ChecklistItem{}, err
	}
	if len(items) == 0 {
		return domain.ChecklistItem{}, fmt.Errorf("checklist item %s: %w", itemID, domain.ErrNotFound)
	}
	return items[0], nil
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Insert stores a new alive item.
func (r *Repo) Insert(ctx context.Context, item domain.ChecklistItem) (domain.ChecklistItem, error) {
	q := postgres.Builder().
		Insert(table).
		Columns("id", "card_id", "content", "done", "position", "created_at", "updated_at").
		Values(item.ID, item.CardID, item.Content, false, item.Position, item.CreatedAt, item.UpdatedAt).
		Suffix(returning())

	return r.writeOne(ctx, q, "insert checklist item")
}

// SetDone flips the done flag. doneAt must be nil when done is false.
func (r *Repo) SetDone(ctx context.Context, itemID uuid.UUID, done bool, doneAt *time.Time, at time.Time) (domain.ChecklistItem, error) {
	q := postgres.Builder().
		Update(table).
		Set("done", done).
		Set("done_at", doneAt).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": itemID}).
		Where("deleted_at IS NULL").
		Suffix(returning())

	return r.writeOne(ctx, q, "set done on checklist item "+itemID.String())
}

// UpdateContent replaces the item's text.
func (r *Repo) UpdateContent(ctx context.Context, itemID uuid.UUID, content string, at time.Time) (domain.ChecklistItem, error) {
	q := postgres.Builder().
		Update(table).
		Set("content", content).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": itemID}).
		Where("deleted_at IS NULL").
		Suffix(returning())

	return r.writeOne(ctx, q, "update checklist item "+itemID.String())
}

// SoftDelete marks an alive item deleted.
func (r *Repo) SoftDelete(ctx context.Context, itemID uuid.UUID, at time.Time) error {
	q := postgres.Builder().
		Update(table).
		Set("deleted_at", at).
		Where(squirrel.Eq{"id": itemID}).
		Where("deleted_at IS NULL")

	sql, args, err := q.ToSql()
	if err != nil {
		return postgres.MapError(err, "soft delete checklist item")
	}

	tag, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "soft delete checklist item")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("checklist item %s: %w", itemID, domain.ErrNotFound)
	}
	return nil
}

// UpdatePositions assigns new positions to existing alive items.
func (r *Repo) UpdatePositions(ctx context.Context, updates []domain.PositionUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(updates))
	positions := make([]int32, len(updates))
	for i, u := range updates {
		ids[i] = u.ID
		positions[i] = int32(u.Position)
	}

	if _, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, updatePositionsSQL, ids, positions); err != nil {
		return postgres.MapError(err, "update checklist positions")
	}
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (r *Repo) selectItems(ctx context.Context, q squirrel.SelectBuilder, op string) ([]domain.ChecklistItem, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, postgres.MapError(err, op)
	}

	var rows []itemRow
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, sql, args...); err != nil {
		return nil, postgres.MapError(err, op)
	}

	items := make([]domain.ChecklistItem, len(rows))
	for i, row := range rows {
		items[i] = toDomain(row)
	}
	return items, nil
}

func (r *Repo) writeOne(ctx context.Context, q squirrel.Sqlizer, op string) (domain.ChecklistItem, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return domain.ChecklistItem{}, postgres.MapError(err, op)
	}

	var rows []itemRow
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, sql, args...); err != nil {
		return domain.ChecklistItem{}, postgres.MapError(err, op)
	}
	if len(rows) == 0 {
		return domain.ChecklistItem{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return toDomain(rows[0]), nil
}

func returning() string {
	return "RETURNING " + strings.Join(columns, ", ")
}

func toDomain(row itemRow) domain.ChecklistItem {
	return domain.ChecklistItem{
		ID:        row.ID,
		CardID:    row.CardID,
		Content:   row.Content,
		Done:      row.Done,
		DoneAt:    row.DoneAt,
		Position:  row.Position,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
		DeletedAt: row.DeletedAt,
	}
}
