package dependent

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/heartmarshall/board-planner/internal/domain"
)

const (
	MaxLinkTitleLength = 200
	MaxURLLength       = 2048
	MaxFeedbackLength  = 5000
)

// AddLinkInput holds the data for attaching a URL to a card. An empty title
// falls back to the URL.
type AddLinkInput struct {
	Card  CardRef
	Title string
	URL   string
}

func (i AddLinkInput) Validate() error {
	var errs []domain.FieldError

	raw := strings.TrimSpace(i.URL)
	switch {
	case raw == "":
		errs = append(errs, domain.FieldError{Field: "url", Message: "required"})
	case len(raw) > MaxURLLength:
		errs = append(errs, domain.FieldError{Field: "url", Message: "too long"})
	default:
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, domain.FieldError{Field: "url", Message: "must be an absolute http(s) URL"})
		}
	}
	if utf8.RuneCountInString(strings.TrimSpace(i.Title)) > MaxLinkTitleLength {
		errs = append(errs, domain.FieldError{Field: "title", Message: "too long"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

func (i AddLinkInput) normalized() (title, link string) {
	link = strings.TrimSpace(i.URL)
	title = strings.TrimSpace(i.Title)
	if title == "" {
		title = link
	}
	return title, link
}

// AddFeedbackInput holds a review comment. The author is the request actor.
type AddFeedbackInput struct {
	Card CardRef
	Body string
}

func (i AddFeedbackInput) Validate() error {
	body := strings.TrimSpace(i.Body)
	switch {
	case body == "":
		return domain.NewValidationError("body", "required")
	case utf8.RuneCountInString(body) > MaxFeedbackLength:
		return domain.NewValidationError("body", "too long")
	}
	return nil
}

// AttachInput links an existing document to a card.
type AttachInput struct {
	Card       CardRef
	DocumentID uuid.UUID
}

func (i AttachInput) Validate() error {
	if i.DocumentID == uuid.Nil {
		return domain.NewValidationError("document_id", "required")
	}
	return nil
}

// MentionInput records a user mentioned on a card.
type MentionInput struct {
	Card   CardRef
	UserID uuid.UUID
}

func (i MentionInput) Validate() error {
	if i.UserID == uuid.Nil {
		return domain.NewValidationError("user_id", "required")
	}
	return nil
}

// removableKinds are the dependents a caller may delete one by one.
// Checklist items go through the checklist; mentions are permanent.
var removableKinds = map[domain.DependentKind]bool{
	domain.DependentLink:       true,
	domain.DependentFeedback:   true,
	domain.DependentAttachment: true,
}
