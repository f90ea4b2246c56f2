package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type StoreBackend string

const (
	BackendFile   StoreBackend = "file"
	BackendSQLite StoreBackend = "sqlite"
)

type Config struct {
	// Storage
	DataDir      string       `env:"RESEARCH_DATA_DIR" envDefault:"data"`
	StoreBackend StoreBackend `env:"RESEARCH_STORE_BACKEND" envDefault:"file"`
	SQLitePath   string       `env:"RESEARCH_SQLITE_PATH" envDefault:"data/research.db"`
	StateKey     string       `env:"RESEARCH_STATE_KEY" envDefault:"ai_education_research"`
	SessionKey   string       `env:"RESEARCH_SESSION_KEY" envDefault:"research_session"`
	UUIDSessions bool         `env:"RESEARCH_UUID_SESSIONS" envDefault:"false"`
	SeedSample   bool         `env:"RESEARCH_SEED_SAMPLE" envDefault:"true"`

	// Exports
	ExportDir  string `env:"RESEARCH_EXPORT_DIR" envDefault:"exports"`
	ReportCron string `env:"RESEARCH_REPORT_CRON" envDefault:"0 21 * * *"`

	// Assistant
	ReplyDelayMin     time.Duration `env:"RESEARCH_REPLY_DELAY_MIN" envDefault:"1s"`
	ReplyDelayMax     time.Duration `env:"RESEARCH_REPLY_DELAY_MAX" envDefault:"2s"`
	KnowledgeBasePath string        `env:"RESEARCH_KNOWLEDGE_BASE_PATH"`

	// Logging
	LogLevel string `env:"RESEARCH_LOG_LEVEL" envDefault:"info"`
}

func New() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations env.Parse cannot catch on its own.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("unknown store backend: %s", c.StoreBackend)
	}
	if c.ReplyDelayMin < 0 || c.ReplyDelayMax < c.ReplyDelayMin {
		return fmt.Errorf("invalid reply delay range: %s..%s", c.ReplyDelayMin, c.ReplyDelayMax)
	}
	if c.StateKey == "" || c.SessionKey == "" {
		return fmt.Errorf("state and session keys must not be empty")
	}
	return nil
}
