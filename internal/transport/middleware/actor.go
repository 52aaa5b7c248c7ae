package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/board-planner/pkg/ctxutil"
)

// ActorHeader names the caller. The gateway in front of the service has
// already authenticated and authorized the request.
const ActorHeader = "X-User-Id"

// Actor stores the X-User-Id header in the context. A missing header leaves
// the request anonymous; a malformed one is rejected with 400.
func Actor() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(ActorHeader))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			id, err := uuid.Parse(raw)
			if err != nil || id == uuid.Nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"error": "invalid " + ActorHeader + " header"}) //nolint:errcheck
				return
			}

			next.ServeHTTP(w, r.WithContext(ctxutil.WithActorID(r.Context(), id)))
		})
	}
}
