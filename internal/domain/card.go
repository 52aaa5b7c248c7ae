package domain

import (
	"time"

	"github.com/google/uuid"
)

// Card is a work item placed on a project board.
type Card struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	Title     string
	Body      string
	Status    CardStatus
	Lane      LaneKey
	StartDate *time.Time
	EndDate   *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// IsAlive reports whether the card has not been soft-deleted.
func (c *Card) IsAlive() bool { return c.DeletedAt == nil }

// Partition returns the partition the card belongs to (or last belonged to,
// if dead).
func (c *Card) Partition() Partition {
	return Partition{ProjectID: c.ProjectID, Lane: c.Lane, Status: c.Status}
}

// CardPayload is the opaque content of a card.
type CardPayload struct {
	Title     string
	Body      string
	StartDate *time.Time
	EndDate   *time.Time
}

// CardContentPatch is a partial content update. Nil fields are not changed.
// ClearStartDate / ClearEndDate set the corresponding date to NULL.
type CardContentPatch struct {
	Title          *string
	Body           *string
	StartDate      *time.Time
	EndDate        *time.Time
	ClearStartDate bool
	ClearEndDate   bool
}

// Apply returns the payload resulting from applying the patch to c.
func (p CardContentPatch) Apply(c *Card) CardPayload {
	out := CardPayload{
		Title:     c.Title,
		Body:      c.Body,
		StartDate: c.StartDate,
		EndDate:   c.EndDate,
	}
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Body != nil {
		out.Body = *p.Body
	}
	if p.StartDate != nil {
		out.StartDate = p.StartDate
	}
	if p.ClearStartDate {
		out.StartDate = nil
	}
	if p.EndDate != nil {
		out.EndDate = p.EndDate
	}
	if p.ClearEndDate {
		out.EndDate = nil
	}
	return out
}

// Link is a URL attached to a card.
type Link struct {
	ID        uuid.UUID
	CardID    uuid.UUID
	Title     string
	URL       string
	CreatedAt time.Time
	DeletedAt *time.Time
}

// Feedback is a review comment left on a card.
type Feedback struct {
	ID        uuid.UUID
	CardID    uuid.UUID
	AuthorID  uuid.UUID
	Body      string
	CreatedAt time.Time
	DeletedAt *time.Time
}

// Attachment is a junction row between a card and a shared document.
// Document storage lives outside this service.
type Attachment struct {
	ID         uuid.UUID
	CardID     uuid.UUID
	DocumentID uuid.UUID
	CreatedAt  time.Time
	DeletedAt  *time.Time
}

// Mention records that a user was mentioned on a card. Mentions survive card
// deletion.
type Mention struct {
	ID              uuid.UUID
	CardID          uuid.UUID
	MentionedUserID uuid.UUID
	CreatedAt       time.Time
	DeletedAt       *time.Time
}
