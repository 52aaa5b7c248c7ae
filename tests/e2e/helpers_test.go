//go:build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/board-planner/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/board-planner/internal/app"
	"github.com/heartmarshall/board-planner/internal/config"
	"github.com/heartmarshall/board-planner/internal/domain"
	"github.com/heartmarshall/board-planner/internal/transport/middleware"
)

// ---------------------------------------------------------------------------
// testServer wraps the full-stack HTTP server for E2E tests.
// ---------------------------------------------------------------------------

type testServer struct {
	URL      string
	Client   *http.Client
	Pool     *pgxpool.Pool
	Services *app.Services

	// Project is a fresh project so tests sharing the container stay
	// isolated.
	Project uuid.UUID
	Actor   uuid.UUID
}

// testLogWriter adapts testing.T to io.Writer for slog.
type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

func testConfig() *config.Config {
	return &config.Config{
		CORS: config.CORSConfig{
			AllowedOrigins: "*",
			AllowedMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
			AllowedHeaders: "Content-Type,X-User-Id,X-Request-Id",
			MaxAge:         86400,
		},
		Board: config.BoardConfig{
			LockTimeout:          5 * time.Second,
			VerifyContiguity:     true,
			MaxCardsPerPartition: 500,
			MaxChecklistItems:    100,
			RelayInterval:        time.Second,
			RelayBatchSize:       100,
			EventRetentionDays:   30,
		},
	}
}

// setupTestServer bootstraps the application stack backed by a real
// PostgreSQL container (shared via testhelper).
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	pool := testhelper.SetupTestDB(t)
	logger := slog.New(slog.NewTextHandler(testLogWriter{t}, nil))
	cfg := testConfig()

	svc := app.NewServices(cfg, pool, logger)
	handler, _ := app.NewHandler(cfg, pool, svc, logger)

	srv := httptest.NewServer(handler)
	t.Cleanup(func() { srv.Close() })

	return &testServer{
		URL:      srv.URL,
		Client:   srv.Client(),
		Pool:     pool,
		Services: svc,
		Project:  uuid.New(),
		Actor:    uuid.New(),
	}
}

// ---------------------------------------------------------------------------
// HTTP helpers
// ---------------------------------------------------------------------------

// do sends a JSON request as ts.Actor and returns the status and raw body.
func (ts *testServer) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, ts.URL+path, r)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(middleware.ActorHeader, ts.Actor.String())

	resp, err := ts.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

// doJSON is do followed by decoding the body into out when wantStatus
// matches.
func (ts *testServer) doJSON(t *testing.T, method, path string, body any, wantStatus int, out any) {
	t.Helper()

	status, raw := ts.do(t, method, path, body)
	require.Equal(t, wantStatus, status, "%s %s: %s", method, path, raw)
	if out != nil {
		require.NoError(t, json.Unmarshal(raw, out), "decode %s", raw)
	}
}

func (ts *testServer) projectPath() string {
	return "/api/v1/projects/" + ts.Project.String()
}

func (ts *testServer) cardPath(cardID uuid.UUID) string {
	return ts.projectPath() + "/cards/" + cardID.String()
}

func (ts *testServer) partitionPath(lane domain.LaneKey, status domain.CardStatus) string {
	return ts.projectPath() + "/partitions/" + string(lane) + "/" + string(status)
}

// ---------------------------------------------------------------------------
// Board helpers
// ---------------------------------------------------------------------------

type cardBody struct {
	ID      uuid.UUID         `json:"id"`
	Title   string            `json:"title"`
	Status  domain.CardStatus `json:"status"`
	LaneKey domain.LaneKey    `json:"laneKey"`
}

type partitionBody struct {
	LaneKey domain.LaneKey    `json:"laneKey"`
	Status  domain.CardStatus `json:"status"`
	CardIDs []uuid.UUID       `json:"cardIds"`
}

// createCard creates a card in a role lane through the API.
func (ts *testServer) createCard(t *testing.T, role domain.Role, status domain.CardStatus, title string) uuid.UUID {
	t.Helper()

	var c cardBody
	ts.doJSON(t, http.MethodPost, ts.projectPath()+"/cards", map[string]any{
		"lane":   map[string]any{"role": role},
		"status": status,
		"title":  title,
	}, http.StatusCreated, &c)
	return c.ID
}

// fillPartition creates n cards in one role lane and returns them in board
// order.
func (ts *testServer) fillPartition(t *testing.T, role domain.Role, status domain.CardStatus, titles ...string) []uuid.UUID {
	t.Helper()

	ids := make([]uuid.UUID, len(titles))
	for i, title := range titles {
		ids[i] = ts.createCard(t, role, status, title)
	}
	return ids
}

// publishEvents drains the outbox through the application's relay so the
// event feed can see everything committed so far.
func (ts *testServer) publishEvents(t *testing.T) {
	t.Helper()

	for {
		n, err := ts.Services.Relay.Flush(context.Background())
		require.NoError(t, err)
		if n == 0 {
			return
		}
	}
}

// order reads a partition through the API.
func (ts *testServer) order(t *testing.T, lane domain.LaneKey, status domain.CardStatus) []uuid.UUID {
	t.Helper()

	var p partitionBody
	ts.doJSON(t, http.MethodGet, ts.partitionPath(lane, status), nil, http.StatusOK, &p)
	return p.CardIDs
}

func (ts *testServer) partition(lane domain.LaneKey, status domain.CardStatus) domain.Partition {
	return domain.Partition{ProjectID: ts.Project, Lane: lane, Status: status}
}
