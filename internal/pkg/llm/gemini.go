package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"ytfactory/internal/config"
)

const defaultGeminiModel = "gemini-1.5-flash"

// GeminiProvider Google Gemini 提供者
type GeminiProvider struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiProvider 创建 Gemini 提供者
func NewGeminiProvider(ctx context.Context, cfg *config.AIConfig) (*GeminiProvider, error) {
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultGeminiModel
	}
	m := client.GenerativeModel(modelName)
	m.ResponseMIMEType = "application/json"
	if cfg.Options.Temperature > 0 {
		m.SetTemperature(float32(cfg.Options.Temperature))
	}
	if cfg.Options.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(cfg.Options.MaxTokens))
	}
	if cfg.Options.TopP > 0 {
		m.SetTopP(float32(cfg.Options.TopP))
	}

	return &GeminiProvider{client: client, model: m}, nil
}

// Name 返回提供者名称
func (p *GeminiProvider) Name() string { return "gemini" }

// Generate 根据提示词生成文本，拼接所有候选中的文本片段
func (p *GeminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := p.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	var b strings.Builder
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, part := range c.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
	}

	content := strings.TrimSpace(b.String())
	if content == "" {
		return "", fmt.Errorf("empty response from gemini")
	}
	return content, nil
}

// Close 关闭底层连接
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}
