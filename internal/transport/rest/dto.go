package rest

import (
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/board-planner/internal/domain"
)

type cardResponse struct {
	ID        uuid.UUID             `json:"id"`
	ProjectID uuid.UUID             `json:"projectId"`
	Title     string                `json:"title"`
	Body      string                `json:"body"`
	Status    domain.CardStatus     `json:"status"`
	LaneKey   domain.LaneKey        `json:"laneKey"`
	Lane      domain.LaneAssignment `json:"lane"`
	StartDate *string               `json:"startDate"`
	EndDate   *string               `json:"endDate"`
	CreatedAt time.Time             `json:"createdAt"`
	UpdatedAt time.Time             `json:"updatedAt"`
	DeletedAt *time.Time            `json:"deletedAt,omitempty"`
}

func toCardResponse(c domain.Card) cardResponse {
	return cardResponse{
		ID:        c.ID,
		ProjectID: c.ProjectID,
		Title:     c.Title,
		Body:      c.Body,
		Status:    c.Status,
		LaneKey:   c.Lane,
		Lane:      c.Lane.Assignment(),
		StartDate: formatDate(c.StartDate),
		EndDate:   formatDate(c.EndDate),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		DeletedAt: c.DeletedAt,
	}
}

type partitionResponse struct {
	LaneKey domain.LaneKey    `json:"laneKey"`
	Status  domain.CardStatus `json:"status"`
	CardIDs []uuid.UUID       `json:"cardIds"`
}

func toPartitionResponse(v domain.PartitionView) partitionResponse {
	ids := v.CardIDs
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return partitionResponse{LaneKey: v.Partition.Lane, Status: v.Partition.Status, CardIDs: ids}
}

type boardResponse struct {
	ProjectID  uuid.UUID           `json:"projectId"`
	Partitions []partitionResponse `json:"partitions"`
}

type ledgerRowResponse struct {
	LaneKey   domain.LaneKey    `json:"laneKey"`
	Status    domain.CardStatus `json:"status"`
	Position  int               `json:"position"`
	CreatedAt time.Time         `json:"createdAt"`
	DeletedAt *time.Time        `json:"deletedAt,omitempty"`
}

type checklistItemResponse struct {
	ID        uuid.UUID  `json:"id"`
	Content   string     `json:"content"`
	Done      bool       `json:"done"`
	DoneAt    *time.Time `json:"doneAt,omitempty"`
	Position  int        `json:"position"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func toChecklistItemResponse(it domain.ChecklistItem) checklistItemResponse {
	return checklistItemResponse{
		ID:        it.ID,
		Content:   it.Content,
		Done:      it.Done,
		DoneAt:    it.DoneAt,
		Position:  it.Position,
		CreatedAt: it.CreatedAt,
		UpdatedAt: it.UpdatedAt,
	}
}

type linkResponse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}

type feedbackResponse struct {
	ID        uuid.UUID `json:"id"`
	AuthorID  uuid.UUID `json:"authorId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

type attachmentResponse struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"documentId"`
	CreatedAt  time.Time `json:"createdAt"`
}

type mentionResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// mapSlice converts a slice, returning an empty (not nil) slice so lists
// always encode as [].
func mapSlice[T, R any](in []T, fn func(T) R) []R {
	out := make([]R, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}
