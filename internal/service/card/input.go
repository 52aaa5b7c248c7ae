package card

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/heartmarshall/board-planner/internal/domain"
)

const (
	MaxTitleLength = 200
	MaxBodyLength  = 10000
)

// CreateCardInput holds the parameters for creating a card.
type CreateCardInput struct {
	ProjectID uuid.UUID
	Lane      domain.LaneAssignment
	Status    domain.CardStatus
	Title     string
	Body      string
	StartDate *time.Time
	EndDate   *time.Time
}

// Validate checks all fields and collects all errors.
func (i CreateCardInput) Validate() error {
	var errs []domain.FieldError

	if i.ProjectID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "project_id", Message: "required"})
	}
	if _, err := domain.ResolveLaneKey(i.Lane); err != nil {
		errs = append(errs, fieldErrors(err)...)
	}
	if !i.Status.IsValid() {
		errs = append(errs, domain.FieldError{Field: "status", Message: fmt.Sprintf("unknown status %q", i.Status)})
	}
	errs = append(errs, validatePayload(i.payload())...)

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

func (i CreateCardInput) payload() domain.CardPayload {
	return domain.CardPayload{
		Title:     strings.TrimSpace(i.Title),
		Body:      i.Body,
		StartDate: i.StartDate,
		EndDate:   i.EndDate,
	}
}

// UpdateContentInput holds the parameters for editing a card's content.
type UpdateContentInput struct {
	ProjectID uuid.UUID
	CardID    uuid.UUID
	Patch     domain.CardContentPatch
}

// Validate checks all fields and collects all errors. The merged payload is
// validated separately once the current card is loaded.
func (i UpdateContentInput) Validate() error {
	var errs []domain.FieldError

	if i.CardID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "card_id", Message: "required"})
	}
	p := i.Patch
	if p.Title == nil && p.Body == nil && p.StartDate == nil && p.EndDate == nil && !p.ClearStartDate && !p.ClearEndDate {
		errs = append(errs, domain.FieldError{Field: "input", Message: "at least one field must be provided"})
	}
	if p.StartDate != nil && p.ClearStartDate {
		errs = append(errs, domain.FieldError{Field: "start_date", Message: "cannot set and clear at once"})
	}
	if p.EndDate != nil && p.ClearEndDate {
		errs = append(errs, domain.FieldError{Field: "end_date", Message: "cannot set and clear at once"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// MoveCardInput places a card at an index of a partition. The lane is
// optional; nil keeps the current lane.
type MoveCardInput struct {
	ProjectID   uuid.UUID
	CardID      uuid.UUID
	Lane        *domain.LaneAssignment
	Status      domain.CardStatus
	TargetIndex int
}

// Validate checks all fields and collects all errors.
func (i MoveCardInput) Validate() error {
	var errs []domain.FieldError

	if i.CardID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "card_id", Message: "required"})
	}
	if i.Lane != nil {
		if _, err := domain.ResolveLaneKey(*i.Lane); err != nil {
			errs = append(errs, fieldErrors(err)...)
		}
	}
	if !i.Status.IsValid() {
		errs = append(errs, domain.FieldError{Field: "status", Message: fmt.Sprintf("unknown status %q", i.Status)})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

func validatePayload(p domain.CardPayload) []domain.FieldError {
	var errs []domain.FieldError

	title := strings.TrimSpace(p.Title)
	if title == "" {
		errs = append(errs, domain.FieldError{Field: "title", Message: "required"})
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		errs = append(errs, domain.FieldError{Field: "title", Message: fmt.Sprintf("max %d characters", MaxTitleLength)})
	}
	if utf8.RuneCountInString(p.Body) > MaxBodyLength {
		errs = append(errs, domain.FieldError{Field: "body", Message: fmt.Sprintf("max %d characters", MaxBodyLength)})
	}
	if p.StartDate != nil && p.EndDate != nil && p.StartDate.After(*p.EndDate) {
		errs = append(errs, domain.FieldError{Field: "end_date", Message: "must not be before start_date"})
	}
	return errs
}

func fieldErrors(err error) []domain.FieldError {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Errors
	}
	return []domain.FieldError{{Field: "input", Message: err.Error()}}
}
