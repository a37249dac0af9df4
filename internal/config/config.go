package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port             int           `envconfig:"HANDOVER_PORT" default:"8460"`
	LogLevel         string        `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL      string        `envconfig:"DATABASE_URL"`
	DataDir          string        `envconfig:"DATA_DIR" default:"./data"`
	NatsURL          string        `envconfig:"NATS_URL"`
	NatsToken        string        `envconfig:"NATS_TOKEN"`
	LLMAPIKey        string        `envconfig:"LLM_API_KEY"`
	LLMModel         string        `envconfig:"LLM_MODEL" default:"claude-sonnet-4-20250514"`
	JWTSecret        string        `envconfig:"JWT_SECRET" default:"handover-dev-secret-change-in-production"`
	TokenTTL         time.Duration `envconfig:"TOKEN_TTL" default:"24h"`
	SnapshotInterval int           `envconfig:"SNAPSHOT_INTERVAL" default:"5"`
}

// Load reads configuration from the environment. DATABASE_URL and NATS_URL
// are optional: without them the service runs on the filesystem store and the
// in-process job queue.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.SnapshotInterval < 1 {
		return fmt.Errorf("snapshot interval must be at least 1, got %d", c.SnapshotInterval)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive, got %s", c.TokenTTL)
	}
	if c.DatabaseURL == "" && c.DataDir == "" {
		return fmt.Errorf("either DATABASE_URL or DATA_DIR is required")
	}
	return nil
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
