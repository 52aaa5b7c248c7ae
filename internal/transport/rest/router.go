package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/heartmarshall/board-planner/internal/config"
	"github.com/heartmarshall/board-planner/internal/domain"
	"github.com/heartmarshall/board-planner/internal/transport/middleware"
)

// Handlers groups every handler mounted by NewRouter.
type Handlers struct {
	Health    *HealthHandler
	Cards     *CardHandler
	Board     *BoardHandler
	Checklist *ChecklistHandler
	Dependent *DependentHandler
	Progress  *ProgressHandler
}

// RouterConfig carries the cross-cutting settings of the HTTP surface.
type RouterConfig struct {
	CORS config.CORSConfig
	// WriteRateLimit is the per-caller budget of mutating requests per
	// minute. Zero disables limiting.
	WriteRateLimit int
}

// NewRouter builds the HTTP handler. Probes live at the root, the API under
// /api/v1. limiter may be nil when WriteRateLimit is zero.
func NewRouter(h Handlers, cfg RouterConfig, limiter *middleware.RateLimiter, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Standard(logger, cfg.CORS))

	r.Get("/live", h.Health.Live)
	r.Get("/ready", h.Health.Ready)
	r.Get("/health", h.Health.Health)

	r.Route("/api/v1", func(r chi.Router) {
		if limiter != nil && cfg.WriteRateLimit > 0 {
			r.Use(limiter.LimitWrites(cfg.WriteRateLimit))
		}

		r.Route("/projects/{projectID}", func(r chi.Router) {
			r.Get("/board", h.Board.Board)
			r.Get("/events", h.Board.Events)
			r.Get("/progress", h.Progress.Overview)

			r.Route("/partitions/{laneKey}/{status}", func(r chi.Router) {
				r.Get("/", h.Board.Partition)
				r.Put("/order", h.Board.ReplaceOrder)
			})

			r.Route("/cards", func(r chi.Router) {
				r.Get("/", h.Cards.List)
				r.Post("/", h.Cards.Create)

				r.Route("/{cardID}", func(r chi.Router) {
					r.Get("/", h.Cards.Get)
					r.Patch("/", h.Cards.Update)
					r.Delete("/", h.Cards.Delete)
					r.Put("/status", h.Cards.ChangeStatus)
					r.Put("/lane", h.Cards.ChangeLane)
					r.Post("/move", h.Cards.Move)
					r.Post("/restore", h.Cards.Restore)
					r.Get("/history", h.Board.History)
					r.Get("/progress", h.Progress.Card)

					r.Route("/checklist", func(r chi.Router) {
						r.Get("/", h.Checklist.List)
						r.Post("/", h.Checklist.Append)
						r.Put("/order", h.Checklist.Reorder)
						r.Patch("/{itemID}", h.Checklist.Update)
						r.Delete("/{itemID}", h.Checklist.Remove)
					})

					r.Get("/links", h.Dependent.ListLinks)
					r.Post("/links", h.Dependent.AddLink)
					r.Delete("/links/{id}", h.Dependent.Remove(domain.DependentLink))

					r.Get("/feedback", h.Dependent.ListFeedback)
					r.Post("/feedback", h.Dependent.AddFeedback)
					r.Delete("/feedback/{id}", h.Dependent.Remove(domain.DependentFeedback))

					r.Get("/attachments", h.Dependent.ListAttachments)
					r.Post("/attachments", h.Dependent.Attach)
					r.Delete("/attachments/{id}", h.Dependent.Remove(domain.DependentAttachment))

					r.Get("/mentions", h.Dependent.ListMentions)
					r.Post("/mentions", h.Dependent.AddMention)
				})
			})
		})
	})

	return r
}
