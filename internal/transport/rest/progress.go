package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/heartmarshall/board-planner/internal/domain"
)

type progressService interface {
	Overview(ctx context.Context, projectID uuid.UUID) (domain.ProjectOverview, error)
	CardProgress(ctx context.Context, projectID, cardID uuid.UUID) (domain.ChecklistProgress, error)
}

// ProgressHandler serves read-only progress summaries.
type ProgressHandler struct {
	svc progressService
	log *slog.Logger
}

// NewProgressHandler creates a ProgressHandler.
func NewProgressHandler(svc progressService, logger *slog.Logger) *ProgressHandler {
	return &ProgressHandler{svc: svc, log: logger.With("handler", "progress")}
}

// Overview handles GET /projects/{projectID}/progress.
func (h *ProgressHandler) Overview(w http.ResponseWriter, r *http.Request) {
	projectID, ok := uuidParam(w, r, "projectID")
	if !ok {
		return
	}

	ov, err := h.svc.Overview(r.Context(), projectID)
	if err != nil {
		writeDomainError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

// Card handles GET /projects/{projectID}/cards/{cardID}/progress.
func (h *ProgressHandler) Card(w http.ResponseWriter, r *http.Request) {
	projectID, cardID, ok := cardRef(w, r)
	if !ok {
		return
	}

	p, err := h.svc.CardProgress(r.Context(), projectID, cardID)
	if err != nil {
		writeDomainError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
