package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Board    BoardConfig    `yaml:"board"`
	CORS     CORSConfig     `yaml:"cors"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Content-Type,X-User-Id,X-Request-Id"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"false"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`

	// WriteRateLimit caps mutating requests per actor per minute. 0 disables.
	WriteRateLimit int `yaml:"write_rate_limit" env:"SERVER_WRITE_RATE_LIMIT" env-default:"600"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`

	// ApplicationName tags sessions in pg_stat_activity, which is where
	// advisory lock waits show up.
	ApplicationName string `yaml:"application_name" env:"DATABASE_APPLICATION_NAME" env-default:"board-planner"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// BoardConfig holds ordering and outbox settings.
type BoardConfig struct {
	LockTimeout          time.Duration `yaml:"lock_timeout"            env:"BOARD_LOCK_TIMEOUT"            env-default:"5s"`
	VerifyContiguity     bool          `yaml:"verify_contiguity"       env:"BOARD_VERIFY_CONTIGUITY"       env-default:"true"`
	MaxCardsPerPartition int           `yaml:"max_cards_per_partition" env:"BOARD_MAX_CARDS_PER_PARTITION" env-default:"500"`
	MaxChecklistItems    int           `yaml:"max_checklist_items"     env:"BOARD_MAX_CHECKLIST_ITEMS"     env-default:"100"`
	RelayInterval        time.Duration `yaml:"relay_interval"          env:"BOARD_RELAY_INTERVAL"          env-default:"1s"`
	RelayBatchSize       int           `yaml:"relay_batch_size"        env:"BOARD_RELAY_BATCH_SIZE"        env-default:"100"`

	// EventRetentionDays is how long published events are kept before
	// the purge command removes them.
	EventRetentionDays int `yaml:"event_retention_days" env:"BOARD_EVENT_RETENTION_DAYS" env-default:"30"`
}
