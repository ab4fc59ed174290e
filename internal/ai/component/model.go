package component

import (
	"context"
	"fmt"

	arkext "github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"ytfactory/internal/config"
	"ytfactory/internal/pkg/errkind"
)

const (
	defaultOpenAIModel = "gpt-4o-mini"
	defaultArkBaseURL  = "https://ark.cn-beijing.volces.com/api/v3"
	defaultArkModel    = "doubao-seed-1-6-flash-250615"
)

// NewChatModel 创建 ChatModel
// 支持多种 Provider: openai, azure, ark
func NewChatModel(ctx context.Context, cfg *config.AIConfig) (model.ChatModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: ai.api_key is empty for provider %q", errkind.ErrMissingCredentials, cfg.Provider)
	}

	switch cfg.Provider {
	case "openai", "":
		return newOpenAIChatModel(ctx, cfg, false)
	case "azure":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("azure provider requires ai.base_url")
		}
		return newOpenAIChatModel(ctx, cfg, true)
	case "ark":
		return newArkChatModel(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}

// newOpenAIChatModel OpenAI 及 Azure OpenAI 共用一个实现
func newOpenAIChatModel(ctx context.Context, cfg *config.AIConfig, byAzure bool) (model.ChatModel, error) {
	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultOpenAIModel
	}

	modelCfg := &openai.ChatModelConfig{
		Model:   modelName,
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		ByAzure: byAzure,
		Timeout: cfg.Timeout,
	}

	if cfg.Options.Temperature > 0 {
		temp := float32(cfg.Options.Temperature)
		modelCfg.Temperature = &temp
	}
	if cfg.Options.MaxTokens > 0 {
		modelCfg.MaxTokens = &cfg.Options.MaxTokens
	}
	if cfg.Options.TopP > 0 {
		topP := float32(cfg.Options.TopP)
		modelCfg.TopP = &topP
	}

	return openai.NewChatModel(ctx, modelCfg)
}

// newArkChatModel 创建 Ark ChatModel（使用 eino-ext 模块）
func newArkChatModel(ctx context.Context, cfg *config.AIConfig) (model.ChatModel, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultArkBaseURL
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultArkModel
	}

	modelCfg := &arkext.ChatModelConfig{
		Model:   modelName,
		APIKey:  cfg.APIKey,
		BaseURL: baseURL,
	}
	if cfg.Timeout > 0 {
		modelCfg.Timeout = &cfg.Timeout
	}

	if cfg.Options.Temperature > 0 {
		temp := float32(cfg.Options.Temperature)
		modelCfg.Temperature = &temp
	}
	if cfg.Options.MaxTokens > 0 {
		modelCfg.MaxTokens = &cfg.Options.MaxTokens
	}
	if cfg.Options.TopP > 0 {
		topP := float32(cfg.Options.TopP)
		modelCfg.TopP = &topP
	}

	return arkext.NewChatModel(ctx, modelCfg)
}
