package dependent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/board-planner/internal/domain"
	"github.com/heartmarshall/board-planner/pkg/ctxutil"
)

// AddLink attaches a URL to an alive card.
func (s *Service) AddLink(ctx context.Context, in AddLinkInput) (domain.Link, error) {
	if err := in.Validate(); err != nil {
		return domain.Link{}, err
	}
	title, link := in.normalized()

	var out domain.Link
	err := s.withAliveCard(ctx, in.Card, func(txCtx context.Context) error {
		var err error
		out, err = s.deps.AddLink(txCtx, domain.Link{
			ID:        uuid.New(),
			CardID:    in.Card.CardID,
			Title:     title,
			URL:       link,
			CreatedAt: s.now(),
		})
		if err != nil {
			return fmt.Errorf("add link: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Link{}, err
	}

	s.log.DebugContext(ctx, "link added", slog.String("card_id", in.Card.CardID.String()))
	return out, nil
}

// ListLinks returns the alive links of an alive card.
func (s *Service) ListLinks(ctx context.Context, ref CardRef) ([]domain.Link, error) {
	if err := s.requireAlive(ctx, ref); err != nil {
		return nil, err
	}
	return s.deps.ListLinks(ctx, ref.CardID)
}

// AddFeedback records a review comment authored by the request actor.
func (s *Service) AddFeedback(ctx context.Context, in AddFeedbackInput) (domain.Feedback, error) {
	if err := in.Validate(); err != nil {
		return domain.Feedback{}, err
	}
	author, ok := ctxutil.ActorIDFromCtx(ctx)
	if !ok {
		return domain.Feedback{}, domain.NewValidationError("author", "feedback requires an identified actor")
	}

	var out domain.Feedback
	err := s.withAliveCard(ctx, in.Card, func(txCtx context.Context) error {
		var err error
		out, err = s.deps.AddFeedback(txCtx, domain.Feedback{
			ID:        uuid.New(),
			CardID:    in.Card.CardID,
			AuthorID:  author,
			Body:      strings.TrimSpace(in.Body),
			CreatedAt: s.now(),
		})
		if err != nil {
			return fmt.Errorf("add feedback: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Feedback{}, err
	}

	s.log.DebugContext(ctx, "feedback added",
		slog.String("card_id", in.Card.CardID.String()),
		slog.String("author_id", author.String()),
	)
	return out, nil
}

// ListFeedback returns the alive feedback of an alive card.
func (s *Service) ListFeedback(ctx context.Context, ref CardRef) ([]domain.Feedback, error) {
	if err := s.requireAlive(ctx, ref); err != nil {
		return nil, err
	}
	return s.deps.ListFeedback(ctx, ref.CardID)
}

// Attach links a document to an alive card. Attaching a document that is
// already attached returns domain.ErrAlreadyExists.
func (s *Service) Attach(ctx context.Context, in AttachInput) (domain.Attachment, error) {
	if err := in.Validate(); err != nil {
		return domain.Attachment{}, err
	}

	var out domain.Attachment
	err := s.withAliveCard(ctx, in.Card, func(txCtx context.Context) error {
		var err error
		out, err = s.deps.Attach(txCtx, domain.Attachment{
			ID:         uuid.New(),
			CardID:     in.Card.CardID,
			DocumentID: in.DocumentID,
			CreatedAt:  s.now(),
		})
		if err != nil {
			return fmt.Errorf("attach document: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Attachment{}, err
	}

	s.log.DebugContext(ctx, "document attached",
		slog.String("card_id", in.Card.CardID.String()),
		slog.String("document_id", in.DocumentID.String()),
	)
	return out, nil
}

// ListAttachments returns the alive attachments of an alive card.
func (s *Service) ListAttachments(ctx context.Context, ref CardRef) ([]domain.Attachment, error) {
	if err := s.requireAlive(ctx, ref); err != nil {
		return nil, err
	}
	return s.deps.ListAttachments(ctx, ref.CardID)
}

// AddMention records a mention on an alive card.
func (s *Service) AddMention(ctx context.Context, in MentionInput) (domain.Mention, error) {
	if err := in.Validate(); err != nil {
		return domain.Mention{}, err
	}

	var out domain.Mention
	err := s.withAliveCard(ctx, in.Card, func(txCtx context.Context) error {
		var err error
		out, err = s.deps.AddMention(txCtx, domain.Mention{
			ID:              uuid.New(),
			CardID:          in.Card.CardID,
			MentionedUserID: in.UserID,
			CreatedAt:       s.now(),
		})
		if err != nil {
			return fmt.Errorf("add mention: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Mention{}, err
	}
	return out, nil
}

// ListMentions returns the mentions of a card whether or not the card is
// alive. Only an unknown card is NotFound.
func (s *Service) ListMentions(ctx context.Context, ref CardRef) ([]domain.Mention, error) {
	if _, err := s.cards.Get(ctx, ref.ProjectID, ref.CardID); err != nil {
		return nil, fmt.Errorf("get card: %w", err)
	}
	return s.deps.ListMentions(ctx, ref.CardID)
}

// Remove soft-deletes one link, feedback entry or attachment of an alive
// card.
func (s *Service) Remove(ctx context.Context, ref CardRef, kind domain.DependentKind, id uuid.UUID) error {
	if !removableKinds[kind] {
		return domain.NewValidationError("kind", fmt.Sprintf("%s cannot be removed here", kind))
	}

	err := s.withAliveCard(ctx, ref, func(txCtx context.Context) error {
		return s.deps.Remove(txCtx, kind, ref.CardID, id, s.now())
	})
	if err != nil {
		return err
	}

	s.log.InfoContext(ctx, "dependent removed",
		slog.String("kind", kind.String()),
		slog.String("card_id", ref.CardID.String()),
		slog.String("id", id.String()),
	)
	return nil
}
