package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/heartmarshall/board-planner/internal/domain"
	"github.com/heartmarshall/board-planner/internal/service/checklist"
)

type checklistService interface {
	List(ctx context.Context, ref checklist.CardRef) ([]domain.ChecklistItem, error)
	Append(ctx context.Context, ref checklist.CardRef, content string) (domain.ChecklistItem, error)
	Reorder(ctx context.Context, ref checklist.CardRef, orderedItemIDs []uuid.UUID) ([]domain.ChecklistItem, error)
	Remove(ctx context.Context, ref checklist.CardRef, itemID uuid.UUID) error
	Update(ctx context.Context, input checklist.UpdateItemInput) (domain.ChecklistItem, error)
}

// ChecklistHandler serves the per-card checklist endpoints.
type ChecklistHandler struct {
	svc checklistService
	log *slog.Logger
}

// NewChecklistHandler creates a ChecklistHandler.
func NewChecklistHandler(svc checklistService, logger *slog.Logger) *ChecklistHandler {
	return &ChecklistHandler{svc: svc, log: logger.With("handler", "checklist")}
}

type appendItemRequest struct {
	Content string `json:"content"`
}

type reorderItemsRequest struct {
	ItemIDs []uuid.UUID `json:"itemIds"`
}

type updateItemRequest struct {
	Done    *bool   `json:"done"`
	Content *string `json:"content"`
}

func checklistRef(w http.ResponseWriter, r *http.Request) (checklist.CardRef, bool) {
	projectID, cardID, ok := cardRef(w, r)
	return checklist.CardRef{ProjectID: projectID, CardID: cardID}, ok
}

// List handles GET /projects/{projectID}/cards/{cardID}/checklist.
func (h *ChecklistHandler) List(w http.ResponseWriter, r *http.Request) {
	ref, ok := checklistRef(w, r)
	if !ok {
		return
	}

	items, err := h.svc.List(r.Context(), ref)
	if err != nil {
		writeDomainError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(items, toChecklistItemResponse))
}

// Append handles POST /projects/{projectID}/cards/{cardID}/checklist.
func (h *ChecklistHandler) Append(w http.ResponseWriter, r *http.Request) {
	ref, ok := checklistRef(w, r)
	if !ok {
		return
	}
	var req appendItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := h.svc.Append(r.Context(), ref, req.Content)
	if err != nil {
		writeDomainError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toChecklistItemResponse(item))
}

// Reorder handles PUT /projects/{projectID}/cards/{cardID}/checklist/order.
func (h *ChecklistHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	ref, ok := checklistRef(w, r)
	if !ok {
		return
	}
	var req reorderItemsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	items, err := h.svc.Reorder(r.Context(), ref, req.ItemIDs)
	if err != nil {
		writeDomainError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(items, toChecklistItemResponse))
}

// Update handles PATCH /projects/{projectID}/cards/{cardID}/checklist/{itemID}.
func (h *ChecklistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ref, ok := checklistRef(w, r)
	if !ok {
		return
	}
	itemID, ok := uuidParam(w, r, "itemID")
	if !ok {
		return
	}
	var req updateItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := h.svc.Update(r.Context(), checklist.UpdateItemInput{
		Card:    ref,
		ItemID:  itemID,
		Done:    req.Done,
		Content: req.Content,
	})
	if err != nil {
		writeDomainError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toChecklistItemResponse(item))
}

// Remove handles DELETE /projects/{projectID}/cards/{cardID}/checklist/{itemID}.
func (h *ChecklistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ref, ok := checklistRef(w, r)
	if !ok {
		return
	}
	itemID, ok := uuidParam(w, r, "itemID")
	if !ok {
		return
	}

	if err := h.svc.Remove(r.Context(), ref, itemID); err != nil {
		writeDomainError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
