package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// BoardEvent is emitted on every structural change to the board.
type BoardEvent struct {
	ID         ulid.ULID  `json:"id"`
	ProjectID  uuid.UUID  `json:"projectId"`
	CardID     uuid.UUID  `json:"cardId"`
	Lane       LaneKey    `json:"lane"`
	Status     CardStatus `json:"status"`
	Kind       ChangeKind `json:"changeKind"`
	ActorID    *uuid.UUID `json:"actorId,omitempty"`
	OccurredAt time.Time  `json:"occurredAt"`
	// Seq is the feed position, assigned when the event is published.
	// Zero until then.
	Seq int64 `json:"seq,omitempty"`
}

// NewBoardEvent builds an event with a fresh ULID. IDs generated in one
// process are strictly increasing.
func NewBoardEvent(kind ChangeKind, p Partition, cardID uuid.UUID, actor *uuid.UUID, at time.Time) BoardEvent {
	return BoardEvent{
		ID:         ulid.Make(),
		ProjectID:  p.ProjectID,
		CardID:     cardID,
		Lane:       p.Lane,
		Status:     p.Status,
		Kind:       kind,
		ActorID:    actor,
		OccurredAt: at,
	}
}
