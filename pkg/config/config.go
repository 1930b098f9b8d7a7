// Package config loads framework configuration from config.yaml with
// environment variable overrides. Secrets come from the environment
// only.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/ontoflow-ai/ontoflow/pkg/llm"
)

// Config holds all framework configuration.
type Config struct {
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:""`
	Version  string `yaml:"-"` // set at load time

	// Database is the PostgreSQL pool used by the query executor and
	// domain handlers.
	Database DatabaseConfig `yaml:"database"`

	// LLM configures the oracle and embedder behind extractors,
	// generators and the schema index.
	LLM llm.FactoryConfig `yaml:"llm"`

	Retrieval RetrievalConfig `yaml:"retrieval"`

	HITL HITLConfig `yaml:"hitl"`

	MCP MCPConfig `yaml:"mcp"`
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"ontoflow"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // secret, env only
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"ontoflow"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RetrievalConfig tunes the schema retriever.
type RetrievalConfig struct {
	TopK int `yaml:"top_k" env:"RETRIEVAL_TOP_K" env-default:"10"`
}

// HITLConfig selects confirmation behavior.
type HITLConfig struct {
	// PolicyPath points at an optional YAML confirmation policy.
	PolicyPath string `yaml:"policy_path" env:"HITL_POLICY_PATH" env-default:""`
	// MinRiskLevel is the ConfirmByRisk floor; medium by default.
	MinRiskLevel string `yaml:"min_risk_level" env:"HITL_MIN_RISK_LEVEL" env-default:"medium"`
	// AmountThreshold triggers confirmation on financial actions above
	// this amount. Zero disables.
	AmountThreshold float64 `yaml:"amount_threshold" env:"HITL_AMOUNT_THRESHOLD" env-default:"0"`
	// BatchThreshold triggers confirmation on batches larger than this.
	// Zero disables.
	BatchThreshold int `yaml:"batch_threshold" env:"HITL_BATCH_THRESHOLD" env-default:"0"`
}

// MCPConfig configures the MCP tool server.
type MCPConfig struct {
	Enabled bool   `yaml:"enabled" env:"MCP_ENABLED" env-default:"false"`
	Name    string `yaml:"name" env:"MCP_NAME" env-default:"ontoflow"`
}

// Load reads config.yaml with environment overrides. A missing file is
// fine; configuration then comes from the environment alone.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	err := cleanenv.ReadConfig("config.yaml", cfg)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config.yaml: %w", err)
		}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("read environment: %w", err)
		}
	}
	return cfg, nil
}
