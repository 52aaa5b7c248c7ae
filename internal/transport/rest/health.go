package rest

import (
	"context"
	"net/http"
	"time"
)

const probeTimeout = 3 * time.Second

type dbPinger interface {
	Ping(ctx context.Context) error
}

// outboxBacklog reports how many board events still wait for the relay.
type outboxBacklog interface {
	CountUnpublished(ctx context.Context) (int64, error)
}

// HealthHandler serves the liveness, readiness and health probes.
type HealthHandler struct {
	db      dbPinger
	outbox  outboxBacklog
	version string
}

// NewHealthHandler creates a HealthHandler. outbox may be nil, in which case
// /health omits the outbox component.
func NewHealthHandler(db dbPinger, outbox outboxBacklog, version string) *HealthHandler {
	return &HealthHandler{db: db, outbox: outbox, version: version}
}

// HealthResponse is the body of every probe.
type HealthResponse struct {
	Status     string                     `json:"status"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]ComponentStatus `json:"components,omitempty"`
	Timestamp  time.Time                  `json:"timestamp"`
}

// ComponentStatus describes one dependency checked by /health.
type ComponentStatus struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	// Pending is the unpublished event count; outbox only.
	Pending *int64 `json:"pending,omitempty"`
}

func probe(ok bool) (int, string) {
	if ok {
		return http.StatusOK, "ok"
	}
	return http.StatusServiceUnavailable, "down"
}

// Live always answers 200 while the process runs.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Timestamp: time.Now()})
}

// Ready answers 503 until the database answers a ping.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	code, status := probe(h.db.Ping(ctx) == nil)
	writeJSON(w, code, HealthResponse{Status: status, Timestamp: time.Now()})
}

// Health reports the database with its ping latency and, when configured,
// the relay backlog. Any failing component turns the whole response into
// 503.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	components := make(map[string]ComponentStatus, 2)
	healthy := true

	start := time.Now()
	if err := h.db.Ping(ctx); err != nil {
		components["database"] = ComponentStatus{Status: "down"}
		healthy = false
	} else {
		components["database"] = ComponentStatus{Status: "ok", Latency: time.Since(start).String()}
	}

	if h.outbox != nil {
		if n, err := h.outbox.CountUnpublished(ctx); err != nil {
			components["outbox"] = ComponentStatus{Status: "down"}
			healthy = false
		} else {
			components["outbox"] = ComponentStatus{Status: "ok", Pending: &n}
		}
	}

	code, status := probe(healthy)
	writeJSON(w, code, HealthResponse{
		Status:     status,
		Version:    h.version,
		Components: components,
		Timestamp:  time.Now(),
	})
}
