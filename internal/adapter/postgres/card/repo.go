// Package card implements the Card repository using PostgreSQL.
package card

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

const table = "cards"

var columns = []string{
	"id", "project_id", "title", "body", "status", "lane_key",
	"start_date", "end_date", "created_at", "updated_at", "deleted_at",
}

// Repo provides card persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new card repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

type cardRow struct {
	ID        uuid.UUID  `db:"id"`
	ProjectID uuid.UUID  `db:"project_id"`
	Title     string     `db:"title"`
	Body      string     `db:"body"`
	Status    string     `db:"status"`
	LaneKey   string     `db:"lane_key"`
	StartDate *time.Time `db:"start_date"`
	EndDate   *time.Time `db:"end_date"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// Get returns a card of the project, alive or soft-deleted.
func (r *Repo) Get(ctx context.Context, projectID, cardID uuid.UUID) (domain.Card, error) {
	q := r.selectCard(projectID, cardID)
	return r.getOne(ctx, q, cardID)
}

// GetForUpdate returns a card and locks its row until the transaction ends.
// Every card-scoped mutation takes this lock first.
func (r *Repo) GetForUpdate(ctx context.Context, projectID, cardID uuid.UUID) (domain.Card, error) {
	q := r.selectCard(projectID, cardID).Suffix("FOR UPDATE")
	return r.getOne(ctx, q, cardID)
}

// ListAlive returns all alive cards of the project, oldest first.
func (r *Repo) ListAlive(ctx context.Context, projectID uuid.UUID) ([]domain.Card, error) {
	q := postgres.Builder().
		Select(columns...).
		From(table).
		Where(squirrel.Eq{"project_id": projectID}).
		Where("deleted_at IS NULL").
		OrderBy("created_at", "id")

	return r.selectCards(ctx, q, "list cards")
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a new alive card and returns the persisted row.
func (r *Repo) Create(ctx context.Context, card domain.Card) (domain.Card, error) {
	q := postgres.Builder().
		Insert(table).
		Columns("id", "project_id", "title", "body", "status", "lane_key", "start_date", "end_date", "created_at", "updated_at").
		Values(card.ID, card.ProjectID, card.Title, card.Body, string(card.Status), string(card.Lane),
			card.StartDate, card.EndDate, card.CreatedAt, card.UpdatedAt).
		Suffix(returning())

	return r.writeOne(ctx, q, "create card")
}

// UpdateContent replaces the editable payload of an alive card.
func (r *Repo) UpdateContent(ctx context.Context, cardID uuid.UUID, p domain.CardPayload, at time.Time) (domain.Card, error) {
	q := postgres.Builder().
		Update(table).
		Set("title", p.Title).
		Set("body", p.Body).
		Set("start_date", p.StartDate).
		Set("end_date", p.EndDate).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": cardID}).
		Where("deleted_at IS NULL").
		Suffix(returning())

	return r.writeOne(ctx, q, "update card "+cardID.String())
}

// SetPlacement records the card's current lane and status.
func (r *Repo) SetPlacement(ctx context.Context, cardID uuid.UUID, lane domain.LaneKey, status domain.CardStatus, at time.Time) error {
	q := postgres.Builder().
		Update(table).
		Set("lane_key", string(lane)).
		Set("status", string(status)).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": cardID})

	return r.execOne(ctx, q, "set placement of card "+cardID.String())
}

// SoftDelete stamps deleted_at on an alive card.
func (r *Repo) SoftDelete(ctx context.Context, cardID uuid.UUID, at time.Time) error {
	q := postgres.Builder().
		Update(table).
		Set("deleted_at", at).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": cardID}).
		Where("deleted_at IS NULL")

	return r.execOne(ctx, q, "soft delete card "+cardID.String())
}

// Restore clears deleted_at on a soft-deleted card.
func (r *Repo) Restore(ctx context.Context, cardID uuid.UUID, at time.Time) error {
	q := postgres.Builder().
		Update(table).
		Set("deleted_at", nil).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": cardID}).
		Where("deleted_at IS NOT NULL")

	return r.execOne(ctx, q, "restore card "+cardID.String())
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (r *Repo) selectCard(projectID, cardID uuid.UUID) squirrel.SelectBuilder {
	return postgres.Builder().
		Select(columns...).
		From(table).
		Where(squirrel.Eq{"id": cardID, "project_id": projectID})
}

func (r *Repo) getOne(ctx context.Context, q squirrel.SelectBuilder, cardID uuid.UUID) (domain.Card, error) {
	cards, err := r.selectCards(ctx, q, "get card")
	if err != nil {
		return domain.Card{}, err
	}
	if len(cards) == 0 {
		return domain.Card{}, fmt.Errorf("card %s: %w", cardID, domain.ErrNotFound)
	}
	return cards[0], nil
}

func (r *Repo) selectCards(ctx context.Context, q squirrel.SelectBuilder, op string) ([]domain.Card, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, postgres.MapError(err, op)
	}

	var rows []cardRow
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, sql, args...); err != nil {
		return nil, postgres.MapError(err, op)
	}

	cards := make([]domain.Card, len(rows))
	for i, row := range rows {
		cards[i] = toDomain(row)
	}
	return cards, nil
}

func (r *Repo) writeOne(ctx context.Context, q squirrel.Sqlizer, op string) (domain.Card, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return domain.Card{}, postgres.MapError(err, op)
	}

	var rows []cardRow
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, sql, args...); err != nil {
		return domain.Card{}, postgres.MapError(err, op)
	}
	if len(rows) == 0 {
		return domain.Card{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return toDomain(rows[0]), nil
}

func (r *Repo) execOne(ctx context.Context, q squirrel.Sqlizer, op string) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return postgres.MapError(err, op)
	}

	tag, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, op)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}

func returning() string {
	return "RETURNING " + strings.Join(columns, ", ")
}

func toDomain(row cardRow) domain.Card {
	return domain.Card{
		ID:        row.ID,
		ProjectID: row.ProjectID,
		Title:     row.Title,
		Body:      row.Body,
		Status:    domain.CardStatus(row.Status),
		Lane:      domain.LaneKey(row.LaneKey),
		StartDate: row.StartDate,
		EndDate:   row.EndDate,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
		DeletedAt: row.DeletedAt,
	}
}
