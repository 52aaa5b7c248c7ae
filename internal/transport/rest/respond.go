package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/heartmarshall/board-planner/internal/domain"
)

type fieldErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// errorResponse is the body of every non-2xx answer. Only the fields that
// apply to the error kind are set.
type errorResponse struct {
	Error     string               `json:"error"`
	Retryable bool                 `json:"retryable,omitempty"`
	Fields    []fieldErrorResponse `json:"fields,omitempty"`

	Index *int `json:"index,omitempty"`
	Max   *int `json:"max,omitempty"`

	Missing    []uuid.UUID `json:"missing,omitempty"`
	Unexpected []uuid.UUID `json:"unexpected,omitempty"`
	Duplicates []uuid.UUID `json:"duplicates,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeDomainError maps a service error onto a status code and body.
// Unexpected errors are logged and reported as 500 without details.
func writeDomainError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var (
		ve  *domain.ValidationError
		oor *domain.OutOfRangeError
		mm  *domain.PartitionMembershipMismatchError
	)

	switch {
	case errors.As(err, &ve):
		resp := errorResponse{Error: "validation failed"}
		for _, fe := range ve.Errors {
			resp.Fields = append(resp.Fields, fieldErrorResponse{Field: fe.Field, Message: fe.Message})
		}
		writeJSON(w, http.StatusBadRequest, resp)

	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")

	case errors.As(err, &oor):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error: "target index out of range",
			Index: &oor.Index,
			Max:   &oor.Max,
		})

	case errors.As(err, &mm):
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:      "order does not match partition membership",
			Missing:    mm.Missing,
			Unexpected: mm.Unexpected,
			Duplicates: mm.Duplicates,
		})

	case errors.Is(err, domain.ErrConcurrentModification):
		log.WarnContext(r.Context(), "concurrent modification", slog.String("error", err.Error()))
		writeJSON(w, http.StatusConflict, errorResponse{Error: "concurrent modification, retry", Retryable: true})

	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")

	case errors.Is(err, context.DeadlineExceeded):
		log.WarnContext(r.Context(), "request timed out", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "timed out", Retryable: true})

	case errors.Is(err, domain.ErrInvariantViolation):
		log.ErrorContext(r.Context(), "ordering invariant violated", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")

	default:
		log.ErrorContext(r.Context(), "internal error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
