package checklist

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/heartmarshall/board-planner/internal/domain"
)

// MaxContentLength is the longest item text in runes.
const MaxContentLength = 500

// CardRef addresses the card that owns a checklist.
type CardRef struct {
	ProjectID uuid.UUID
	CardID    uuid.UUID
}

// UpdateItemInput changes the done flag, the text, or both.
type UpdateItemInput struct {
	Card    CardRef
	ItemID  uuid.UUID
	Done    *bool
	Content *string
}

// Validate checks all fields and collects all errors.
func (i UpdateItemInput) Validate() error {
	var errs []domain.FieldError

	if i.ItemID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "item_id", Message: "required"})
	}
	if i.Done == nil && i.Content == nil {
		errs = append(errs, domain.FieldError{Field: "input", Message: "at least one field must be provided"})
	}
	if i.Content != nil {
		if fe := validateContent(*i.Content); fe != nil {
			errs = append(errs, *fe)
		}
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

func validateContent(content string) *domain.FieldError {
	c := strings.TrimSpace(content)
	if c == "" {
		return &domain.FieldError{Field: "content", Message: "required"}
	}
	if utf8.RuneCountInString(c) > MaxContentLength {
		return &domain.FieldError{Field: "content", Message: fmt.Sprintf("max %d characters", MaxContentLength)}
	}
	return nil
}
