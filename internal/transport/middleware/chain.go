package middleware

import (
	"log/slog"
	"net/http"

	"github.com/heartmarshall/board-planner/internal/config"
)

// Middleware wraps an http.Handler. It matches chi's Use signature.
type Middleware func(http.Handler) http.Handler

// Chain composes mws so that the first one is outermost.
func Chain(mws ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			final = mws[i](final)
		}
		return final
	}
}

// Standard is the stack every request passes through. Logger reads the
// request ID and the actor, so both must wrap it; Recovery sits inside
// Logger so a panic is still logged with its status.
func Standard(logger *slog.Logger, cors config.CORSConfig) Middleware {
	return Chain(
		RequestID(),
		Actor(),
		Logger(logger),
		Recovery(logger),
		CORS(cors),
	)
}
