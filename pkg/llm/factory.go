package llm

import (
	"fmt"

	"go.uber.org/zap"
)

// Provider names an oracle backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// FactoryConfig selects and configures an oracle backend.
type FactoryConfig struct {
	Provider Provider `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	Endpoint string   `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:"https://api.openai.com/v1"`
	Model    string   `yaml:"model" env:"LLM_MODEL"`
	APIKey   string   `yaml:"api_key" env:"LLM_API_KEY"`

	EmbeddingModel string `yaml:"embedding_model" env:"LLM_EMBEDDING_MODEL"`
}

// NewOracle creates the configured oracle.
func NewOracle(cfg FactoryConfig, logger *zap.Logger) (Oracle, error) {
	switch cfg.Provider {
	case ProviderAnthropic:
		return NewAnthropicClient(cfg.APIKey, cfg.Model, logger)
	case ProviderOpenAI, "":
		return NewOpenAIClient(&Config{
			Endpoint:       cfg.Endpoint,
			Model:          cfg.Model,
			APIKey:         cfg.APIKey,
			EmbeddingModel: cfg.EmbeddingModel,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// NewEmbedder creates the configured embedder. Anthropic has no
// embedding API, so embedding always goes through the OpenAI-compatible
// client.
func NewEmbedder(cfg FactoryConfig, logger *zap.Logger) (Embedder, error) {
	return NewOpenAIClient(&Config{
		Endpoint:       cfg.Endpoint,
		Model:          cfg.Model,
		APIKey:         cfg.APIKey,
		EmbeddingModel: cfg.EmbeddingModel,
	}, logger)
}
