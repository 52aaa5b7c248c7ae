package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/heartmarshall/board-planner/internal/domain"
	"github.com/heartmarshall/board-planner/internal/service/card"
)

type cardService interface {
	CreateCard(ctx context.Context, input card.CreateCardInput) (domain.Card, error)
	GetCard(ctx context.Context, projectID, cardID uuid.UUID) (domain.Card, error)
	ListCards(ctx context.Context, projectID uuid.UUID) ([]domain.Card, error)
	UpdateContent(ctx context.Context, input card.UpdateContentInput) (domain.Card, error)
	ChangeStatus(ctx context.Context, projectID, cardID uuid.UUID, status domain.CardStatus) (domain.Card, error)
	ChangeLane(ctx context.Context, projectID, cardID uuid.UUID, lane domain.LaneAssignment) (domain.Card, error)
	MoveCard(ctx context.Context, input card.MoveCardInput) (domain.Card, error)
	SoftDeleteCard(ctx context.Context, projectID, cardID uuid.UUID) error
	RestoreCard(ctx context.Context, projectID, cardID uuid.UUID) (domain.Card, error)
}

// CardHandler serves card lifecycle endpoints.
type CardHandler struct {
	svc cardService
	log *slog.Logger
}

// NewCardHandler creates a CardHandler.
func NewCardHandler(svc cardService, logger *slog.Logger) *CardHandler {
	return &CardHandler{svc: svc, log: logger.With("handler", "card")}
}

type createCardRequest struct {
	Lane      domain.LaneAssignment `json:"lane"`
	Status    domain.CardStatus     `json:"status"`
	Title     string                `json:"title"`
	Body      string                `json:"body"`
	StartDate optionalDate          `json:"startDate"`
	EndDate   optionalDate          `json:"endDate"`
}

type updateCardRequest struct {
	Title     *string      `json:"title"`
	Body      *string      `json:"body"`
	StartDate optionalDate `json:"startDate"`
	EndDate   optionalDate `json:"endDate"`
}

type statusRequest struct {
	Status domain.CardStatus `json:"status"`
}

type moveRequest struct {
	Lane        *domain.LaneAssignment `json:"lane"`
	Status      domain.CardStatus      `json:"status"`
	TargetIndex int                    `json:"targetIndex"`
}

// cardRef reads projectID and cardID path parameters.
func cardRef(w http.ResponseWriter, r *http.Request) (projectID, cardID uuid.UUID, ok bool) {
	if projectID, ok = uuidParam(w, r, "projectID"); !ok {
		return
	}
	cardID, ok = uuidParam(w, r, "cardID")
	return
}

// List handles GET /projects/{projectID}/cards.
func (h *CardHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, ok := uuidParam(w, r, "projectID")
	if !ok {
		return
	}

	cards, err := h.svc.ListCards(r.Context(), projectID)
	if err != nil {
		writeDomainError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(cards, toCardResponse))
}

// Create handles POST /projects/{projectID}/cards.
func (h *CardHandler) Create(w http.ResponseWriter, r *http.Request) {
	projectID, ok := uuidParam(w, r, "projectID")
	if !ok {
		return
	}
	var req createCardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.svc.CreateCard(r.Context(), card.CreateCardInput{
		ProjectID: projectID,
		Lane:      req.Lane,
		Status:    req.Status,
		Title:     req.Title,
		Body:      req.Body,
		StartDate: req.StartDate.Value,
		EndDate:   req.EndDate.Value,
	})
	if err != nil {
		writeDomainError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCardResponse(c))
}

// Get handles GET /projects/{projectID}/cards/{cardID}.
func (h *CardHandler) Get(w http.ResponseWriter, r *http.Request) {
	projectID, cardID, ok := cardRef(w, r)
	if !ok {
		return
	}

	c, err := h.svc.GetCard(r.Context(), projectID, cardID)
	if err != nil {
		writeDomainError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toCardResponse(c))
}

// Update handles PATCH /projects/{projectID}/cards/{cardID}. A date sent as
// null clears it; an absent date is left unchanged.
func (h *CardHandler) Update(w http.ResponseWriter, r *http.Request) {
	projectID, cardID, ok := cardRef(w, r)
	if !ok {
		return
	}
	var req updateCardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	patch := domain.CardContentPatch{
		Title:          req.Title,
		Body:           req.Body,
		StartDate:      req.StartDate.Value,
		EndDate:        req.EndDate.Value,
		ClearStartDate: req.StartDate.Set && req.StartDate.Value == nil,
		ClearEndDate:   req.EndDate.Set && req.EndDate.Value == nil,
	}

	c, err := h.svc.UpdateContent(r.Context(), card.UpdateContentInput{
		ProjectID: projectID,
		CardID:    cardID,
		Patch:     patch,
	})
	if err != nil {
		writeDomainError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toCardResponse(c))
}

// ChangeStatus handles PUT /projects/{projectID}/cards/{cardID}/status.
func (h *CardHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	projectID, cardID, ok := cardRef(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.svc.ChangeStatus(r.Context(), projectID, cardID, req.Status)
	if err != nil {
		writeDomainError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toCardResponse(c))
}

// ChangeLane handles PUT /projects/{projectID}/cards/{cardID}/lane. The body
// is a lane assignment: {"role": "..."} or {"customName": "..."}.
func (h *CardHandler) ChangeLane(w http.ResponseWriter, r *http.Request) {
	projectID, cardID, ok := cardRef(w, r)
	if !ok {
		return
	}
	var req domain.LaneAssignment
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.svc.ChangeLane(r.Context(), projectID, cardID, req)
	if err != nil {
		writeDomainError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toCardResponse(c))
}

// Move handles POST /projects/{projectID}/cards/{cardID}/move.
func (h *CardHandler) Move(w http.ResponseWriter, r *http.Request) {
	projectID, cardID, ok := cardRef(w, r)
	if !ok {
		return
	}
	var req moveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.svc.MoveCard(r.Context(), card.MoveCardInput{
		ProjectID:   projectID,
		CardID:      cardID,
		Lane:        req.Lane,
		Status:      req.Status,
		TargetIndex: req.TargetIndex,
	})
	if err != nil {
		writeDomainError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toCardResponse(c))
}

// Delete handles DELETE /projects/{projectID}/cards/{cardID}. Deleting a
// dead card succeeds.
func (h *CardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID, cardID, ok := cardRef(w, r)
	if !ok {
		return
	}

	if err := h.svc.SoftDeleteCard(r.Context(), projectID, cardID); err != nil {
		writeDomainError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Restore handles POST /projects/{projectID}/cards/{cardID}/restore.
func (h *CardHandler) Restore(w http.ResponseWriter, r *http.Request) {
	projectID, cardID, ok := cardRef(w, r)
	if !ok {
		return
	}

	c, err := h.svc.RestoreCard(r.Context(), projectID, cardID)
	if err != nil {
		writeDomainError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toCardResponse(c))
}
