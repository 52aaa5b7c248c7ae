package domain

import "github.com/google/uuid"

// CompletionRate returns done/total as an integer percentage rounded half
// up. Zero total yields 0.
func CompletionRate(done, total int) int {
	if total <= 0 || done <= 0 {
		return 0
	}
	return (200*done + total) / (2 * total)
}

// LaneProgress is the per-status card count of one lane.
type LaneProgress struct {
	Lane     LaneKey            `json:"lane"`
	ByStatus map[CardStatus]int `json:"byStatus"`
	Total    int                `json:"total"`
	Done     int                `json:"done"`
	Rate     int                `json:"rate"`
}

// BoardProgress summarizes all lanes of a project.
type BoardProgress struct {
	ProjectID uuid.UUID      `json:"projectId"`
	Lanes     []LaneProgress `json:"lanes"`
	Total     int            `json:"total"`
	Done      int            `json:"done"`
	Rate      int            `json:"rate"`
}

// ChecklistProgress summarizes one card's checklist.
type ChecklistProgress struct {
	CardID uuid.UUID `json:"cardId"`
	Total  int       `json:"total"`
	Done   int       `json:"done"`
	Rate   int       `json:"rate"`
}

// ProjectOverview combines board and checklist progress of a project.
type ProjectOverview struct {
	Board      BoardProgress       `json:"board"`
	Checklists []ChecklistProgress `json:"checklists"`
}

// StatusCount is the number of alive cards in one lane and status.
type StatusCount struct {
	Lane   LaneKey
	Status CardStatus
	Count  int
}

// ChecklistCount is the number of alive and done items of one card.
type ChecklistCount struct {
	CardID uuid.UUID
	Total  int
	Done   int
}
