package factory

import (
	"context"
	"fmt"

	"github.com/yash2163/ComplaintHandling-POC/internal/adapters/llm"
	"github.com/yash2163/ComplaintHandling-POC/internal/config"
	"github.com/yash2163/ComplaintHandling-POC/internal/ports"
	"github.com/yash2163/ComplaintHandling-POC/internal/utils"
	"go.uber.org/zap"
)

// LLMFactory creates LLM clients and the extractor built on them
type LLMFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger) *LLMFactory {
	return &LLMFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateLLMClient creates a new LLM client based on the configuration
func (f *LLMFactory) CreateLLMClient(ctx context.Context) (ports.LLMClient, error) {
	llmConfig, err := f.cfg.GetLLM()
	if err != nil {
		return nil, err
	}

	switch llmConfig.Provider {
	case "bedrock":
		return NewBedrockFactory(f.cfg, f.logger).CreateLLMClient(ctx)
	case "gemini":
		return NewGeminiFactory(f.cfg, f.logger).CreateLLMClient(ctx)
	case "openai":
		return NewOpenAIFactory(f.cfg, f.logger).CreateLLMClient()
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", llmConfig.Provider)
	}
}

// CreateExtractor wraps client in the prompt and validation layer
func (f *LLMFactory) CreateExtractor(client ports.LLMClient) (*llm.Extractor, error) {
	llmConfig, err := f.cfg.GetLLM()
	if err != nil {
		return nil, err
	}
	return llm.NewExtractor(
		client,
		utils.NewTextProcessor(f.logger),
		llmConfig.MaxBodySize,
		llmConfig.MaxResolutionSize,
		f.logger,
	), nil
}
