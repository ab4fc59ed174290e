// Package llm 把不同的大模型 SDK 统一成「提示词进，文本出」
package llm

import (
	"context"
	"fmt"

	"ytfactory/internal/ai/component"
	"ytfactory/internal/config"
	"ytfactory/internal/pkg/errkind"
)

// Provider 定义了调用大模型的接口
// 具体的「如何调用大模型」由调用方通过实现此接口注入，方便单测和替换实现
type Provider interface {
	// Generate 根据提示词生成文本
	Generate(ctx context.Context, prompt string) (string, error)
	// Name 提供者名称，用于日志
	Name() string
}

// New 根据配置创建 Provider
// gemini 走 generative-ai-go，其余走 eino ChatModel
func New(ctx context.Context, cfg *config.AIConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: ai.api_key is empty for provider %q", errkind.ErrMissingCredentials, cfg.Provider)
	}

	if cfg.Provider == "gemini" {
		return NewGeminiProvider(ctx, cfg)
	}

	chatModel, err := component.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	name := cfg.Provider
	if name == "" {
		name = "openai"
	}
	return NewEinoProvider(name, chatModel), nil
}
