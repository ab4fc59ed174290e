package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// EinoProvider 基于 eino ChatModel 的 Provider
type EinoProvider struct {
	name      string
	chatModel model.BaseChatModel
}

// NewEinoProvider 创建基于 Eino 的 LLM 提供者
func NewEinoProvider(name string, chatModel model.BaseChatModel) *EinoProvider {
	return &EinoProvider{
		name:      name,
		chatModel: chatModel,
	}
}

// Name 返回提供者名称
func (p *EinoProvider) Name() string { return p.name }

// Generate 根据提示词生成文本
func (p *EinoProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if p.chatModel == nil {
		return "", fmt.Errorf("chatModel is required")
	}

	messages := []*schema.Message{
		schema.SystemMessage("You write narration scripts for short educational videos. Reply with JSON only."),
		schema.UserMessage(prompt),
	}

	response, err := p.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	content := strings.TrimSpace(response.Content)
	if content == "" {
		return "", fmt.Errorf("empty response from chat model")
	}

	return content, nil
}
