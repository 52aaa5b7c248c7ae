package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/board-planner/internal/adapter/postgres"
	cardrepo "github.com/heartmarshall/board-planner/internal/adapter/postgres/card"
	checklistrepo "github.com/heartmarshall/board-planner/internal/adapter/postgres/checklist"
	dependentrepo "github.com/heartmarshall/board-planner/internal/adapter/postgres/dependent"
	eventrepo "github.com/heartmarshall/board-planner/internal/adapter/postgres/event"
	ledgerrepo "github.com/heartmarshall/board-planner/internal/adapter/postgres/ledger"
	progressrepo "github.com/heartmarshall/board-planner/internal/adapter/postgres/progress"
	"github.com/heartmarshall/board-planner/internal/config"
	"github.com/heartmarshall/board-planner/internal/event"
	"github.com/heartmarshall/board-planner/internal/service/card"
	"github.com/heartmarshall/board-planner/internal/service/cascade"
	"github.com/heartmarshall/board-planner/internal/service/checklist"
	"github.com/heartmarshall/board-planner/internal/service/dependent"
	"github.com/heartmarshall/board-planner/internal/service/ledger"
	"github.com/heartmarshall/board-planner/internal/service/progress"
	"github.com/heartmarshall/board-planner/internal/transport/middleware"
	"github.com/heartmarshall/board-planner/internal/transport/rest"
)

// Services is the wired service layer. Commands that do not serve HTTP use
// it directly.
type Services struct {
	Ledger    *ledger.Service
	Cards     *card.Service
	Checklist *checklist.Service
	Dependent *dependent.Service
	Progress  *progress.Service

	Events *eventrepo.Repo
	Relay  *event.Relay
}

// NewServices builds repositories and services on top of pool.
func NewServices(cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) *Services {
	txm := postgres.NewTxManager(pool, postgres.WithLockTimeout(cfg.Board.LockTimeout))
	locker := postgres.NewLocker()

	cards := cardrepo.New(pool)
	ledgerRows := ledgerrepo.New(pool)
	items := checklistrepo.New(pool)
	deps := dependentrepo.New(pool)
	counts := progressrepo.New(pool)
	events := eventrepo.New(pool)

	ledgerSvc := ledger.NewService(logger, ledgerRows, locker, events, txm, ledger.Config{
		VerifyContiguity:     cfg.Board.VerifyContiguity,
		MaxCardsPerPartition: cfg.Board.MaxCardsPerPartition,
	})

	dispatcher := event.NewDispatcher(logger)
	dispatcher.Subscribe("log", event.LogSubscriber(logger))

	return &Services{
		Ledger:    ledgerSvc,
		Cards:     card.NewService(logger, cards, ledgerSvc, cascade.NewPropagator(logger, deps), events, txm),
		Checklist: checklist.NewService(logger, items, cards, txm, cfg.Board.MaxChecklistItems),
		Dependent: dependent.NewService(logger, deps, cards, txm),
		Progress:  progress.NewService(logger, counts, cards, txm),
		Events:    events,
		Relay: event.NewRelay(logger, events, txm, dispatcher, event.RelayConfig{
			Interval:  cfg.Board.RelayInterval,
			BatchSize: cfg.Board.RelayBatchSize,
		}),
	}
}

// NewHandler builds the HTTP surface for svc. The returned limiter must be
// stopped on shutdown; it is nil when write limiting is disabled.
func NewHandler(cfg *config.Config, pool *pgxpool.Pool, svc *Services, logger *slog.Logger) (http.Handler, *middleware.RateLimiter) {
	var limiter *middleware.RateLimiter
	if cfg.Server.WriteRateLimit > 0 {
		limiter = middleware.NewRateLimiter(5 * time.Minute)
	}

	handler := rest.NewRouter(rest.Handlers{
		Health:    rest.NewHealthHandler(pool, svc.Events, BuildVersion()),
		Cards:     rest.NewCardHandler(svc.Cards, logger),
		Board:     rest.NewBoardHandler(svc.Ledger, svc.Events, logger),
		Checklist: rest.NewChecklistHandler(svc.Checklist, logger),
		Dependent: rest.NewDependentHandler(svc.Dependent, logger),
		Progress:  rest.NewProgressHandler(svc.Progress, logger),
	}, rest.RouterConfig{
		CORS:           cfg.CORS,
		WriteRateLimit: cfg.Server.WriteRateLimit,
	}, limiter, logger)

	return handler, limiter
}

// Run is the application entry point. It serves HTTP and relays board
// events until ctx is cancelled, then drains in-flight requests within the
// configured shutdown timeout.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	svc := NewServices(cfg, pool, logger)
	handler, limiter := NewHandler(cfg, pool, svc, logger)
	if limiter != nil {
		defer limiter.Stop()
	}

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return svc.Relay.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("stopped")
	return nil
}
