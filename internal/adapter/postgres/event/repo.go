// Package event implements the board event outbox using PostgreSQL.
// Event payloads are immutable; only published_at and feed_seq are ever set
// after insert.
package event

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/heartmarshall/board-planner/internal/adapter/postgres"
	"github.com/heartmarshall/board-planner/internal/domain"
)

const (
	table = "board_events"

	// feedLockKey serializes feed sequence assignment across relays.
	feedLockKey = "board_events:feed"
)

var eventColumns = []string{
	"id", "project_id", "card_id", "lane_key", "status", "change_kind", "actor_id", "occurred_at",
}

var selectColumns = slices.Concat(eventColumns, []string{"feed_seq"})

// markPublishedSQL numbers the batch in ID order. Already published rows
// keep their stamp and position.
const markPublishedSQL = `
UPDATE board_events e
SET published_at = $1, feed_seq = o.seq
FROM (
    SELECT id, nextval('board_events_feed_seq') AS seq
    FROM (
        SELECT id FROM board_events
        WHERE id = ANY($2) AND published_at IS NULL
        ORDER BY id
    ) pending
) o
WHERE e.id = o.id`

// Repo provides board event persistence backed by PostgreSQL.
type Repo struct {
	db     postgres.Querier
	locker *postgres.Locker
}

// New creates a new event repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db, locker: postgres.NewLocker()}
}

type eventRow struct {
	ID         string     `db:"id"`
	ProjectID  uuid.UUID  `db:"project_id"`
	CardID     uuid.UUID  `db:"card_id"`
	LaneKey    string     `db:"lane_key"`
	Status     string     `db:"status"`
	ChangeKind string     `db:"change_kind"`
	ActorID    *uuid.UUID `db:"actor_id"`
	OccurredAt time.Time  `db:"occurred_at"`
	FeedSeq    *int64     `db:"feed_seq"`
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Append stores events in one multi-row insert. Call it inside the
// transaction that made the change.
func (r *Repo) Append(ctx context.Context, events ...domain.BoardEvent) error {
	if len(events) == 0 {
		return nil
	}

	q := postgres.Builder().
		Insert(table).
		Columns(eventColumns...)
	for _, e := range events {
		q = q.Values(e.ID.String(), e.ProjectID, e.CardID, string(e.Lane), string(e.Status), string(e.Kind), e.ActorID, e.OccurredAt)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return postgres.MapError(err, "append board events")
	}
	if _, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "append board events")
	}
	return nil
}

// ClaimUnpublished locks up to limit unpublished events, oldest first.
// Rows locked by another relay are skipped. Must run inside a transaction;
// the locks are held until it ends.
func (r *Repo) ClaimUnpublished(ctx context.Context, limit int) ([]domain.BoardEvent, error) {
	if _, err := postgres.RequireTx(ctx); err != nil {
		return nil, err
	}

	q := postgres.Builder().
		Select(selectColumns...).
		From(table).
		Where("published_at IS NULL").
		OrderBy("id").
		Limit(uint64(limit)).
		Suffix("FOR UPDATE SKIP LOCKED")

	return r.selectEvents(ctx, q, "claim board events")
}

// MarkPublished stamps published_at on the given events and appends them to
// the feed. Must run inside the relay's transaction: the feed lock is held
// until commit, so feed positions become visible in increasing order.
func (r *Repo) MarkPublished(ctx context.Context, ids []ulid.ULID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	q, err := postgres.RequireTx(ctx)
	if err != nil {
		return err
	}
	if err := r.locker.Lock(ctx, feedLockKey); err != nil {
		return err
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	if _, err := q.Exec(ctx, markPublishedSQL, at, keys); err != nil {
		return postgres.MapError(err, "mark board events published")
	}
	return nil
}

// DeletePublishedBefore removes events published before threshold and
// returns how many were deleted. Unpublished events are never removed.
func (r *Repo) DeletePublishedBefore(ctx context.Context, threshold time.Time) (int64, error) {
	q := postgres.Builder().
		Delete(table).
		Where("published_at IS NOT NULL").
		Where(squirrel.Lt{"published_at": threshold})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, postgres.MapError(err, "purge board events")
	}
	tag, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, sql, args...)
	if err != nil {
		return 0, postgres.MapError(err, "purge board events")
	}
	return tag.RowsAffected(), nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// CountUnpublished returns the relay backlog.
func (r *Repo) CountUnpublished(ctx context.Context) (int64, error) {
	q := postgres.Builder().
		Select("count(*)").
		From(table).
		Where("published_at IS NULL")

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, postgres.MapError(err, "count unpublished board events")
	}
	var n int64
	if err := postgres.QuerierFromCtx(ctx, r.db).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, postgres.MapError(err, "count unpublished board events")
	}
	return n, nil
}

// ListByProject returns up to limit published events of a project with a
// feed position above after, in feed order. Zero starts from the beginning.
func (r *Repo) ListByProject(ctx context.Context, projectID uuid.UUID, after int64, limit int) ([]domain.BoardEvent, error) {
	q := postgres.Builder().
		Select(selectColumns...).
		From(table).
		Where(squirrel.Eq{"project_id": projectID}).
		Where(squirrel.Gt{"feed_seq": after}).
		OrderBy("feed_seq").
		Limit(uint64(limit))

	return r.selectEvents(ctx, q, "list board events")
}

func (r *Repo) selectEvents(ctx context.Context, q squirrel.SelectBuilder, op string) ([]domain.BoardEvent, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, postgres.MapError(err, op)
	}

	var rows []eventRow
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, sql, args...); err != nil {
		return nil, postgres.MapError(err, op)
	}

	events := make([]domain.BoardEvent, len(rows))
	for i, row := range rows {
		e, err := toDomain(row)
		if err != nil {
			return nil, err
		}
		events[i] = e
	}
	return events, nil
}

func toDomain(row eventRow) (domain.BoardEvent, error) {
	id, err := ulid.ParseStrict(row.ID)
	if err != nil {
		return domain.BoardEvent{}, fmt.Errorf("board event %q: parse id: %w", row.ID, err)
	}
	return domain.BoardEvent{
		ID:         id,
		ProjectID:  row.ProjectID,
		CardID:     row.CardID,
		Lane:       domain.LaneKey(row.LaneKey),
		Status:     domain.CardStatus(row.Status),
		Kind:       domain.ChangeKind(row.ChangeKind),
		ActorID:    row.ActorID,
		OccurredAt: row.OccurredAt,
		Seq:        derefSeq(row.FeedSeq),
	}, nil
}

func derefSeq(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
