package config

import (
	"fmt"
	"slices"
	"strings"
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"json", "text"}
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}
	if c.Server.WriteRateLimit < 0 {
		return fmt.Errorf("server.write_rate_limit must be >= 0 (got %d)", c.Server.WriteRateLimit)
	}

	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns (%d) exceeds max_conns (%d)", c.Database.MinConns, c.Database.MaxConns)
	}

	if !slices.Contains(logLevels, strings.ToLower(c.Log.Level)) {
		return fmt.Errorf("log.level must be one of %v (got %q)", logLevels, c.Log.Level)
	}
	if !slices.Contains(logFormats, strings.ToLower(c.Log.Format)) {
		return fmt.Errorf("log.format must be one of %v (got %q)", logFormats, c.Log.Format)
	}

	if err := c.Board.validate(); err != nil {
		return fmt.Errorf("board: %w", err)
	}

	return nil
}

func (b *BoardConfig) validate() error {
	if b.LockTimeout < 0 {
		return fmt.Errorf("lock_timeout must be >= 0 (got %v)", b.LockTimeout)
	}
	if b.MaxCardsPerPartition <= 0 {
		return fmt.Errorf("max_cards_per_partition must be > 0 (got %d)", b.MaxCardsPerPartition)
	}
	if b.MaxChecklistItems <= 0 {
		return fmt.Errorf("max_checklist_items must be > 0 (got %d)", b.MaxChecklistItems)
	}
	if b.RelayInterval <= 0 {
		return fmt.Errorf("relay_interval must be > 0 (got %v)", b.RelayInterval)
	}
	if b.RelayBatchSize <= 0 {
		return fmt.Errorf("relay_batch_size must be > 0 (got %d)", b.RelayBatchSize)
	}
	if b.EventRetentionDays <= 0 {
		return fmt.Errorf("event_retention_days must be > 0 (got %d)", b.EventRetentionDays)
	}
	return nil
}
