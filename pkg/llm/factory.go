package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/gradeline-systems/codebook-engine/pkg/config"
)

// NewFromConfig creates the LLM client selected by the server AI
// configuration. "openai" covers any OpenAI-compatible endpoint.
func NewFromConfig(cfg *config.AIConfig, logger *zap.Logger) (LLMClient, error) {
	clientCfg := &Config{
		Endpoint: cfg.BaseURL,
		Model:    cfg.Model,
		APIKey:   cfg.APIKey,
	}

	switch cfg.Provider {
	case "openai":
		return NewClient(clientCfg, logger)
	case "anthropic":
		return NewAnthropicClient(clientCfg, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
