// Command planner runs the board service and its maintenance tasks.
//
//	planner serve          serve the HTTP API and relay board events
//	planner migrate        apply pending database migrations
//	planner verify         check every partition for contiguous positions
//	planner purge-events   delete published events past retention
//
// Exit codes: 0 = success, 1 = error or invariant violation found.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/board-planner/internal/adapter/postgres"
	eventrepo "github.com/heartmarshall/board-planner/internal/adapter/postgres/event"
	"github.com/heartmarshall/board-planner/internal/app"
	"github.com/heartmarshall/board-planner/internal/config"
)

// errViolations makes verify exit non-zero without printing usage.
var errViolations = errors.New("ordering invariant violations found")

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves --config, then CONFIG_PATH, then ./config.yaml.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, app.NewLogger(cfg.Log), nil
}

var rootCmd = &cobra.Command{
	Use:          "planner",
	Short:        "Kanban board ordering service",
	SilenceUsage: true,
	Version:      app.BuildVersion(),
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return app.Run(ctx, cfg, logger)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
		defer cancel()

		if err := postgres.Migrate(ctx, cfg.Database.DSN, logger); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("migrations up to date")
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that every partition has contiguous positions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
		defer cancel()

		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()

		svc := app.NewServices(cfg, pool, logger)
		violations, err := svc.Ledger.VerifyAll(ctx)
		if err != nil {
			return fmt.Errorf("verify: %w", err)
		}

		for _, v := range violations {
			logger.Error("partition not contiguous",
				slog.String("partition", v.Scope),
				slog.Any("positions", v.Positions),
			)
		}
		if len(violations) > 0 {
			return fmt.Errorf("%w: %d partition(s)", errViolations, len(violations))
		}

		logger.Info("all partitions contiguous")
		return nil
	},
}

var purgeEventsCmd = &cobra.Command{
	Use:   "purge-events",
	Short: "Delete published board events older than the retention period",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
		defer cancel()

		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()

		threshold := time.Now().AddDate(0, 0, -cfg.Board.EventRetentionDays)

		events := eventrepo.New(pool)
		deleted, err := events.DeletePublishedBefore(ctx, threshold)
		if err != nil {
			logger.Error("purge failed",
				slog.String("error", err.Error()),
				slog.Time("threshold", threshold),
			)
			return err
		}

		// Unpublished rows are never purged; a growing backlog means the relay
		// is not keeping up.
		pending, err := events.CountUnpublished(ctx)
		if err != nil {
			return fmt.Errorf("count unpublished: %w", err)
		}

		logger.Info("purge completed",
			slog.Int64("deleted", deleted),
			slog.Int64("pending", pending),
			slog.Time("threshold", threshold),
		)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (overrides CONFIG_PATH)")
	rootCmd.AddCommand(serveCmd, migrateCmd, verifyCmd, purgeEventsCmd)
}
