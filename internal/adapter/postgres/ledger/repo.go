// Package ledger implements the order ledger repository using PostgreSQL.
// The ledger is append-only across partitions: a row is never removed, only
// soft-deleted when its card leaves the partition.
package ledger

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

const table = "order_ledger"

var columns = []string{
	"id", "project_id", "card_id", "lane_key", "status", "position", "created_at", "deleted_at",
}

// Repo provides order ledger persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new ledger repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

type ledgerRow struct {
	ID        uuid.UUID  `db:"id"`
	ProjectID uuid.UUID  `db:"project_id"`
	CardID    uuid.UUID  `db:"card_id"`
	LaneKey   string     `db:"lane_key"`
	Status    string     `db:"status"`
	Position  int        `db:"position"`
	CreatedAt time.Time  `db:"created_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}

// ---------------------------------------------------------------------------
// Raw SQL
// ---------------------------------------------------------------------------

const updatePositionsSQL = `
UPDATE order_ledger AS l
SET position = u.position
FROM unnest($1::uuid[], $2::int[]) AS u(id, position)
WHERE l.id = u.id AND l.deleted_at IS NULL`

const listPartitionsSQL = `
SELECT DISTINCT project_id, lane_key, status
FROM order_ledger
WHERE deleted_at IS NULL
ORDER BY project_id, lane_key, status`

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// ListAlive returns the alive rows of one partition ordered by position.
func (r *Repo) ListAlive(ctx context.Context, p domain.Partition) ([]domain.LedgerRow, error) {
	q := postgres.Builder().
		Select(columns...).
		From(table).
		Where(partitionEq(p)).
		Where("deleted_at IS NULL").
		OrderBy("position")

	return r.selectRows(ctx, q, "list partition")
}

// FindAliveByCard returns the single alive row of a card, or
// domain.ErrNotFound when the card is not placed anywhere.
func (r *Repo) FindAliveByCard(ctx context.Context, cardID uuid.UUID) (domain.LedgerRow, error) {
	q := postgres.Builder().
		Select(columns...).
		From(table).
		Where(squirrel.Eq{"card_id": cardID}).
		Where("deleted_at IS NULL")

	rows, err := r.selectRows(ctx, q, "find alive row")
	if err != nil {
		return domain.LedgerRow{}, err
	}
	if len(rows) == 0 {
		return domain.LedgerRow{}, fmt.Errorf("ledger row for card %s: %w", cardID, domain.ErrNotFound)
	}
	return rows[0], nil
}

// History returns every row of a card, alive and soft-deleted, in insertion
// order.
func (r *Repo) History(ctx context.Context, cardID uuid.UUID) ([]domain.LedgerRow, error) {
	q := postgres.Builder().
		Select(columns...).
		From(table).
		Where(squirrel.Eq{"card_id": cardID}).
		OrderBy("seq")

	return r.selectRows(ctx, q, "card history")
}

// Board returns all alive rows of a project ordered by lane, status and
// position.
func (r *Repo) Board(ctx context.Context, projectID uuid.UUID) ([]domain.LedgerRow, error) {
	q := postgres.Builder().
		Select(columns...).
		From(table).
		Where(squirrel.Eq{"project_id": projectID}).
		Where("deleted_at IS NULL").
		OrderBy("lane_key", "status", "position")

	return r.selectRows(ctx, q, "board")
}

// Partitions lists every partition that currently holds at least one alive row.
func (r *Repo) Partitions(ctx context.Context) ([]domain.Partition, error) {
	var rows []struct {
		ProjectID uuid.UUID `db:"project_id"`
		LaneKey   string    `db:"lane_key"`
		Status    string    `db:"status"`
	}
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, listPartitionsSQL); err != nil {
		return nil, postgres.MapError(err, "list partitions")
	}

	out := make([]domain.Partition, len(rows))
	for i, row := range rows {
		out[i] = domain.Partition{
			ProjectID: row.ProjectID,
			Lane:      domain.LaneKey(row.LaneKey),
			Status:    domain.CardStatus(row.Status),
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Insert stores a new alive row at the given position, created at the
// caller's clock so it lines up with the row it replaces.
func (r *Repo) Insert(ctx context.Context, p domain.Partition, cardID uuid.UUID, position int, at time.Time) (domain.LedgerRow, error) {
	q := postgres.Builder().
		Insert(table).
		Columns("id", "project_id", "card_id", "lane_key", "status", "position", "created_at").
		Values(uuid.New(), p.ProjectID, cardID, string(p.Lane), string(p.Status), position, at).
		Suffix("RETURNING " + strings.Join(columns, ", "))

	sql, args, err := q.ToSql()
	if err != nil {
		return domain.LedgerRow{}, postgres.MapError(err, "insert ledger row")
	}

	var row ledgerRow
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &row, sql, args...); err != nil {
		return domain.LedgerRow{}, postgres.MapError(err, "insert ledger row")
	}
	return toDomain(row), nil
}

// SoftDelete marks an alive row as historical.
func (r *Repo) SoftDelete(ctx context.Context, rowID uuid.UUID, at time.Time) error {
	q := postgres.Builder().
		Update(table).
		Set("deleted_at", at).
		Where(squirrel.Eq{"id": rowID}).
		Where("deleted_at IS NULL")

	tag, err := r.exec(ctx, q, "soft delete ledger row")
	if err != nil {
		return err
	}
	if tag == 0 {
		return fmt.Errorf("soft delete ledger row %s: %w", rowID, domain.ErrNotFound)
	}
	return nil
}

// Shift adds delta to the position of every alive row in the partition whose
// position is at least from. The position exclusion constraint is deferred,
// so intermediate duplicates inside the transaction are allowed.
func (r *Repo) Shift(ctx context.Context, p domain.Partition, from, delta int) error {
	q := postgres.Builder().
		Update(table).
		Set("position", squirrel.Expr("position + ?", delta)).
		Where(partitionEq(p)).
		Where("deleted_at IS NULL").
		Where(squirrel.GtOrEq{"position": from})

	_, err := r.exec(ctx, q, "shift partition")
	return err
}

// UpdatePositions assigns new positions to existing alive rows in one
// statement.
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

	querier := postgres.QuerierFromCtx(ctx, r.db)
	if _, err := querier.Exec(ctx, updatePositionsSQL, ids, positions); err != nil {
		return postgres.MapError(err, "update positions")
	}
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (r *Repo) selectRows(ctx context.Context, q squirrel.SelectBuilder, op string) ([]domain.LedgerRow, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, postgres.MapError(err, op)
	}

	var rows []ledgerRow
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, sql, args...); err != nil {
		return nil, postgres.MapError(err, op)
	}

	out := make([]domain.LedgerRow, len(rows))
	for i, row := range rows {
		out[i] = toDomain(row)
	}
	return out, nil
}

func (r *Repo) exec(ctx context.Context, q squirrel.Sqlizer, op string) (int64, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return 0, postgres.MapError(err, op)
	}

	tag, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, sql, args...)
	if err != nil {
		return 0, postgres.MapError(err, op)
	}
	return tag.RowsAffected(), nil
}

func partitionEq(p domain.Partition) squirrel.Eq {
	return squirrel.Eq{
		"project_id": p.ProjectID,
		"lane_key":   string(p.Lane),
		"status":     string(p.Status),
	}
}

func toDomain(row ledgerRow) domain.LedgerRow {
	return domain.LedgerRow{
		ID:        row.ID,
		ProjectID: row.ProjectID,
		CardID:    row.CardID,
		Lane:      domain.LaneKey(row.LaneKey),
		Status:    domain.CardStatus(row.Status),
		Position:  row.Position,
		CreatedAt: row.CreatedAt,
		DeletedAt: row.DeletedAt,
	}
}
