package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChecklistItem is one line of a card's checklist. Position is dense within
// the card and independent from the board ledger.
type ChecklistItem struct {
	ID        uuid.UUID
	CardID    uuid.UUID
	Content   string
	Done      bool
	DoneAt    *time.Time
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}
