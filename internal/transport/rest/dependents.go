package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/heartmarshall/board-planner/internal/domain"
	"github.com/heartmarshall/board-planner/internal/service/dependent"
)

type dependentService interface {
	AddLink(ctx context.Context, in dependent.AddLinkInput) (domain.Link, error)
	ListLinks(ctx context.Context, ref dependent.CardRef) ([]domain.Link, error)
	AddFeedback(ctx context.Context, in dependent.AddFeedbackInput) (domain.Feedback, error)
	ListFeedback(ctx context.Context, ref dependent.CardRef) ([]domain.Feedback, error)
	Attach(ctx context.Context, in dependent.AttachInput) (domain.Attachment, error)
	ListAttachments(ctx context.Context, ref dependent.CardRef) ([]domain.Attachment, error)
	AddMention(ctx context.Context, in dependent.MentionInput) (domain.Mention, error)
	ListMentions(ctx context.Context, ref dependent.CardRef) ([]domain.Mention, error)
	Remove(ctx context.Context, ref dependent.CardRef, kind domain.DependentKind, id uuid.UUID) error
}

// DependentHandler serves links, feedback, attachments and mentions.
type DependentHandler struct {
	svc dependentService
	log *slog.Logger
}

// NewDependentHandler creates a DependentHandler.
func NewDependentHandler(svc dependentService, logger *slog.Logger) *DependentHandler {
	return &DependentHandler{svc: svc, log: logger.With("handler", "dependent")}
}

type addLinkRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type addFeedbackRequest struct {
	Body string `json:"body"`
}

type attachRequest struct {
	DocumentID uuid.UUID `json:"documentId"`
}

type mentionRequest struct {
	UserID uuid.UUID `json:"userId"`
}

func dependentRef(w http.ResponseWriter, r *http.Request) (dependent.CardRef, bool) {
	projectID, cardID, ok := cardRef(w, r)
	return dependent.CardRef{ProjectID: projectID, CardID: cardID}, ok
}

func toLinkResponse(l domain.Link) linkResponse {
	return linkResponse{ID: l.ID, Title: l.Title, URL: l.URL, CreatedAt: l.CreatedAt}
}

func toFeedbackResponse(f domain.Feedback) feedbackResponse {
	return feedbackResponse{ID: f.ID, AuthorID: f.AuthorID, Body: f.Body, CreatedAt: f.CreatedAt}
}

func toAttachmentResponse(a domain.Attachment) attachmentResponse {
	return attachmentResponse{ID: a.ID, DocumentID: a.DocumentID, CreatedAt: a.CreatedAt}
}

func toMentionResponse(m domain.Mention) mentionResponse {
	return mentionResponse{ID: m.ID, UserID: m.MentionedUserID, CreatedAt: m.CreatedAt}
}

// listDependents and addDependent share the plumbing of the four
// collection endpoints.
func listDependents[T, R any](h *DependentHandler, list func(context.Context, dependent.CardRef) ([]T, error), conv func(T) R) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, ok := dependentRef(w, r)
		if !ok {
			return
		}
		rows, err := list(r.Context(), ref)
		if err != nil {
			writeDomainError(w, r, h.log, err)
			return
		}
		writeJSON(w, http.StatusOK, mapSlice(rows, conv))
	}
}

func addDependent[Req, T, R any](h *DependentHandler, add func(context.Context, dependent.CardRef, Req) (T, error), conv func(T) R) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, ok := dependentRef(w, r)
		if !ok {
			return
		}
		var req Req
		if !decodeJSON(w, r, &req) {
			return
		}
		row, err := add(r.Context(), ref, req)
		if err != nil {
			writeDomainError(w, r, h.log, err)
			return
		}
		writeJSON(w, http.StatusCreated, conv(row))
	}
}

// ListLinks handles GET /projects/{projectID}/cards/{cardID}/links.
func (h *DependentHandler) ListLinks(w http.ResponseWriter, r *http.Request) {
	listDependents(h, h.svc.ListLinks, toLinkResponse)(w, r)
}

// AddLink handles POST /projects/{projectID}/cards/{cardID}/links.
func (h *DependentHandler) AddLink(w http.ResponseWriter, r *http.Request) {
	addDependent(h, func(ctx context.Context, ref dependent.CardRef, req addLinkRequest) (domain.Link, error) {
		return h.svc.AddLink(ctx, dependent.AddLinkInput{Card: ref, Title: req.Title, URL: req.URL})
	}, toLinkResponse)(w, r)
}

// ListFeedback handles GET /projects/{projectID}/cards/{cardID}/feedback.
func (h *DependentHandler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	listDependents(h, h.svc.ListFeedback, toFeedbackResponse)(w, r)
}

// AddFeedback handles POST /projects/{projectID}/cards/{cardID}/feedback.
// The author is the X-User-Id of the request.
func (h *DependentHandler) AddFeedback(w http.ResponseWriter, r *http.Request) {
	addDependent(h, func(ctx context.Context, ref dependent.CardRef, req addFeedbackRequest) (domain.Feedback, error) {
		return h.svc.AddFeedback(ctx, dependent.AddFeedbackInput{Card: ref, Body: req.Body})
	}, toFeedbackResponse)(w, r)
}

// ListAttachments handles GET /projects/{projectID}/cards/{cardID}/attachments.
func (h *DependentHandler) ListAttachments(w http.ResponseWriter, r *http.Request) {
	listDependents(h, h.svc.ListAttachments, toAttachmentResponse)(w, r)
}

// Attach handles POST /projects/{projectID}/cards/{cardID}/attachments.
func (h *DependentHandler) Attach(w http.ResponseWriter, r *http.Request) {
	addDependent(h, func(ctx context.Context, ref dependent.CardRef, req attachRequest) (domain.Attachment, error) {
		return h.svc.Attach(ctx, dependent.AttachInput{Card: ref, DocumentID: req.DocumentID})
	}, toAttachmentResponse)(w, r)
}

// ListMentions handles GET /projects/{projectID}/cards/{cardID}/mentions.
func (h *DependentHandler) ListMentions(w http.ResponseWriter, r *http.Request) {
	listDependents(h, h.svc.ListMentions, toMentionResponse)(w, r)
}

// AddMention handles POST /projects/{projectID}/cards/{cardID}/mentions.
func (h *DependentHandler) AddMention(w http.ResponseWriter, r *http.Request) {
	addDependent(h, func(ctx context.Context, ref dependent.CardRef, req mentionRequest) (domain.Mention, error) {
		return h.svc.AddMention(ctx, dependent.MentionInput{Card: ref, UserID: req.UserID})
	}, toMentionResponse)(w, r)
}

// Remove returns the DELETE handler for one removable kind, mounted at
// /projects/{projectID}/cards/{cardID}/<kind>/{id}.
func (h *DependentHandler) Remove(kind domain.DependentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, ok := dependentRef(w, r)
		if !ok {
			return
		}
		id, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		if err := h.svc.Remove(r.Context(), ref, kind, id); err != nil {
			writeDomainError(w, r, h.log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
