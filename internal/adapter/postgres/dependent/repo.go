// Package dependent implements persistence for a card's dependent rows:
// links, feedback, attachment junctions and mentions, plus the table-driven
// cascade used when a card is soft-deleted or restored.
package dependent

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/heartmarshall/board-planner/internal/adapter/postgres"
	"github.com/heartmarshall/board-planner/internal/domain"
)

// cascadeTables maps each cascade kind to its table. Mentions are absent on
// purpose: they are an audit trail and outlive the card.
var cascadeTables = map[domain.DependentKind]string{
	domain.DependentChecklistItem: "checklist_items",
	domain.DependentLink:          "card_links",
	domain.DependentFeedback:      "card_feedback",
	domain.DependentAttachment:    "card_attachments",
}

// Repo provides dependent-row persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new dependent repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// ---------------------------------------------------------------------------
// Cascade
// ---------------------------------------------------------------------------

// SoftDeleteByCard stamps every alive row of kind belonging to cardID with at
// and returns the number of rows affected.
func (r *Repo) SoftDeleteByCard(ctx context.Context, kind domain.DependentKind, cardID uuid.UUID, at time.Time) (int64, error) {
	tbl, err := tableFor(kind)
	if err != nil {
		return 0, err
	}

	q := postgres.Builder().
		Update(tbl).
		Set("deleted_at", at).
		Where(squirrel.Eq{"card_id": cardID}).
		Where("deleted_at IS NULL")

	return r.exec(ctx, q, "cascade delete "+tbl)
}

// RestoreByCard revives rows of kind whose deleted_at equals at exactly.
// Rows deleted independently carry a different stamp and stay deleted.
func (r *Repo) RestoreByCard(ctx context.Context, kind domain.DependentKind, cardID uuid.UUID, at time.Time) (int64, error) {
	tbl, err := tableFor(kind)
	if err != nil {
		return 0, err
	}

	q := postgres.Builder().
		Update(tbl).
		Set("deleted_at", nil).
		Where(squirrel.Eq{"card_id": cardID, "deleted_at": at})

	return r.exec(ctx, q, "cascade restore "+tbl)
}

func tableFor(kind domain.DependentKind) (string, error) {
	tbl, ok := cascadeTables[kind]
	if !ok {
		return "", fmt.Errorf("cascade: unknown dependent kind %q", kind)
	}
	return tbl, nil
}

// ---------------------------------------------------------------------------
// Links
// ---------------------------------------------------------------------------

type linkRow struct {
	ID        uuid.UUID  `db:"id"`
	CardID    uuid.UUID  `db:"card_id"`
	Title     string     `db:"title"`
	URL       string     `db:"url"`
	CreatedAt time.Time  `db:"created_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}

// AddLink inserts a link.
func (r *Repo) AddLink(ctx context.Context, l domain.Link) (domain.Link, error) {
	q := postgres.Builder().
		Insert("card_links").
		Columns("id", "card_id", "title", "url", "created_at").
		Values(l.ID, l.CardID, l.Title, l.URL, l.CreatedAt).
		Suffix("RETURNING id, card_id, title, url, created_at, deleted_at")

	var row linkRow
	if err := r.get(ctx, q, &row, "add link"); err != nil {
		return domain.Link{}, err
	}
	return domain.Link(row), nil
}

// ListLinks returns the alive links of a card, oldest first.
func (r *Repo) ListLinks(ctx context.Context, cardID uuid.UUID) ([]domain.Link, error) {
	q := postgres.Builder().
		Select("id", "card_id", "title", "url", "created_at", "deleted_at").
		From("card_links").
		Where(squirrel.Eq{"card_id": cardID}).
		Where("deleted_at IS NULL").
		OrderBy("created_at", "id")

	var rows []linkRow
	if err := r.selectInto(ctx, q, &rows, "list links"); err != nil {
		return nil, err
	}

	out := make([]domain.Link, len(rows))
	for i, row := range rows {
		out[i] = domain.Link(row)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Feedback
// ---------------------------------------------------------------------------

type feedbackRow struct {
	ID        uuid.UUID  `db:"id"`
	CardID    uuid.UUID  `db:"card_id"`
	AuthorID  uuid.UUID  `db:"author_id"`
	Body      string     `db:"body"`
	CreatedAt time.Time  `db:"created_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}

// AddFeedback inserts a feedback entry.
func (r *Repo) AddFeedback(ctx context.Context, f domain.Feedback) (domain.Feedback, error) {
	q := postgres.Builder().
		Insert("card_feedback").
		Columns("id", "card_id", "author_id", "body", "created_at").
		Values(f.ID, f.CardID, f.AuthorID, f.Body, f.CreatedAt).
		Suffix("RETURNING id, card_id, author_id, body, created_at, deleted_at")

	var row feedbackRow
	if err := r.get(ctx, q, &row, "add feedback"); err != nil {
		return domain.Feedback{}, err
	}
	return domain.Feedback(row), nil
}

// ListFeedback returns the alive feedback of a card, oldest first.
func (r *Repo) ListFeedback(ctx context.Context, cardID uuid.UUID) ([]domain.Feedback, error) {
	q := postgres.Builder().
		Select("id", "card_id", "author_id", "body", "created_at", "deleted_at").
		From("card_feedback").
		Where(squirrel.Eq{"card_id": cardID}).
		Where("deleted_at IS NULL").
		OrderBy("created_at", "id")

	var rows []feedbackRow
	if err := r.selectInto(ctx, q, &rows, "list feedback"); err != nil {
		return nil, err
	}

	out := make([]domain.Feedback, len(rows))
	for i, row := range rows {
		out[i] = domain.Feedback(row)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Attachments
// ---------------------------------------------------------------------------

type attachmentRow struct {
	ID         uuid.UUID  `db:"id"`
	CardID     uuid.UUID  `db:"card_id"`
	DocumentID uuid.UUID  `db:"document_id"`
	CreatedAt  time.Time  `db:"created_at"`
	DeletedAt  *time.Time `db:"deleted_at"`
}

// Attach links a shared document to a card. Attaching the same document twice
// while both junctions are alive returns domain.ErrAlreadyExists.
func (r *Repo) Attach(ctx context.Context, a domain.Attachment) (domain.Attachment, error) {
	q := postgres.Builder().
		Insert("card_attachments").
		Columns("id", "card_id", "document_id", "created_at").
		Values(a.ID, a.CardID, a.DocumentID, a.CreatedAt).
		Suffix("RETURNING id, card_id, document_id, created_at, deleted_at")

	var row attachmentRow
	if err := r.get(ctx, q, &row, "attach document"); err != nil {
		return domain.Attachment{}, err
	}
	return domain.Attachment(row), nil
}

// ListAttachments returns the alive attachment junctions of a card.
func (r *Repo) ListAttachments(ctx context.Context, cardID uuid.UUID) ([]domain.Attachment, error) {
	q := postgres.Builder().
		Select("id", "card_id", "document_id", "created_at", "deleted_at").
		From("card_attachments").
		Where(squirrel.Eq{"card_id": cardID}).
		Where("deleted_at IS NULL").
		OrderBy("created_at", "id")

	var rows []attachmentRow
	if err := r.selectInto(ctx, q, &rows, "list attachments"); err != nil {
		return nil, err
	}

	out := make([]domain.Attachment, len(rows))
	for i, row := range rows {
		out[i] = domain.Attachment(row)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Mentions
// ---------------------------------------------------------------------------

type mentionRow struct {
	ID              uuid.UUID  `db:"id"`
	CardID          uuid.UUID  `db:"card_id"`
	MentionedUserID uuid.UUID  `db:"mentioned_user_id"`
	CreatedAt       time.Time  `db:"created_at"`
	DeletedAt       *time.Time `db:"deleted_at"`
}

// AddMention records a mention.
func (r *Repo) AddMention(ctx context.Context, m domain.Mention) (domain.Mention, error) {
	q := postgres.Builder().
		Insert("card_mentions").
		Columns("id", "card_id", "mentioned_user_id", "created_at").
		Values(m.ID, m.CardID, m.MentionedUserID, m.CreatedAt).
		Suffix("RETURNING id, card_id, mentioned_user_id, created_at, deleted_at")

	var row mentionRow
	if err := r.get(ctx, q, &row, "add mention"); err != nil {
		return domain.Mention{}, err
	}
	return domain.Mention(row), nil
}

// ListMentions returns every alive mention of a card regardless of the
// card's own state.
func (r *Repo) ListMentions(ctx context.Context, cardID uuid.UUID) ([]domain.Mention, error) {
	q := postgres.Builder().
		Select("id", "card_id", "mentioned_user_id", "created_at", "deleted_at").
		From("card_mentions").
		Where(squirrel.Eq{"card_id": cardID}).
		Where("deleted_at IS NULL").
		OrderBy("created_at", "id")

	var rows []mentionRow
	if err := r.selectInto(ctx, q, &rows, "list mentions"); err != nil {
		return nil, err
	}

	out := make([]domain.Mention, len(rows))
	for i, row := range rows {
		out[i] = domain.Mention(row)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Removal
// ---------------------------------------------------------------------------

// Remove soft-deletes one alive dependent row of kind on cardID. Mentions
// cannot be removed.
func (r *Repo) Remove(ctx context.Context, kind domain.DependentKind, cardID, id uuid.UUID, at time.Time) error {
	if kind == domain.DependentChecklistItem {
		return fmt.Errorf("remove: checklist items are removed through the checklist: %w", domain.ErrValidation)
	}
	tbl, err := tableFor(kind)
	if err != nil {
		return err
	}

	q := postgres.Builder().
		Update(tbl).
		Set("deleted_at", at).
		Where(squirrel.Eq{"id": id, "card_id": cardID}).
		Where("deleted_at IS NULL")

	n, err := r.exec(ctx, q, "remove from "+tbl)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

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

func (r *Repo) get(ctx context.Context, q squirrel.Sqlizer, dst any, op string) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return postgres.MapError(err, op)
	}
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), dst, sql, args...); err != nil {
		return postgres.MapError(err, op)
	}
	return nil
}

func (r *Repo) selectInto(ctx context.Context, q squirrel.Sqlizer, dst any, op string) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return postgres.MapError(err, op)
	}
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), dst, sql, args...); err != nil {
		return postgres.MapError(err, op)
	}
	return nil
}
