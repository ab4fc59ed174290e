// Package script 调用大模型生成旁白脚本和配图关键词
package script

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"ytfactory/internal/model/video"
	"ytfactory/internal/pkg/errkind"
	"ytfactory/internal/pkg/llm"
)

// DefaultSentencesPerMinute 每分钟视频对应的句子数
const DefaultSentencesPerMinute = 12

// DefaultTimeout 单次模型调用的超时
const DefaultTimeout = 60 * time.Second

const promptTemplate = `Write a narration script for a %d-sentence educational video about "%s".

Rules:
- Exactly %d sentences, in the order they should be narrated.
- Each sentence is self-contained and suitable to be read aloud, 8 to 25 words.
- For each sentence give a 1-2 word English keyword describing a stock photo that illustrates it.
- Do not number the sentences and do not add headings.

Return only a JSON array like:
[{"sentence": "...", "keyword": "..."}]`

// SentenceCount 视频时长换算成句子数，至少 1 句
func SentenceCount(minutes, perMinute float64) int {
	if perMinute <= 0 {
		perMinute = DefaultSentencesPerMinute
	}
	n := int(math.Round(minutes * perMinute))
	if n < 1 {
		return 1
	}
	return n
}

// Generator 脚本生成器
type Generator struct {
	llm      llm.Provider
	keywords *KeywordExtractor
	timeout  time.Duration
}

// NewGenerator 创建脚本生成器
// provider 为 nil 表示没有配置模型凭证
func NewGenerator(provider llm.Provider, keywords *KeywordExtractor) *Generator {
	return &Generator{
		llm:      provider,
		keywords: keywords,
		timeout:  DefaultTimeout,
	}
}

// WithTimeout 设置单次模型调用的超时，d <= 0 时保持默认值
func (g *Generator) WithTimeout(d time.Duration) *Generator {
	if d > 0 {
		g.timeout = d
	}
	return g
}

// BuildPrompt 构建生成脚本的提示词
func BuildPrompt(topic string, sentenceCount int) string {
	return fmt.Sprintf(promptTemplate, sentenceCount, topic, sentenceCount)
}

// GenerateScript 生成 sentenceCount 句脚本
// 一次模型调用，不重试；句子顺序即旁白顺序
func (g *Generator) GenerateScript(ctx context.Context, topic string, sentenceCount int) ([]video.ScriptSentence, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("%w: topic is empty", errkind.ErrInvalidInput)
	}
	if sentenceCount < 1 {
		return nil, fmt.Errorf("%w: sentence count must be positive, got %d", errkind.ErrInvalidInput, sentenceCount)
	}
	if g.llm == nil {
		return nil, fmt.Errorf("%w: no language model configured", errkind.ErrMissingCredentials)
	}

	log.Info().
		Str("provider", g.llm.Name()).
		Str("topic", topic).
		Int("sentences", sentenceCount).
		Msg("generating script")

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	output, err := g.llm.Generate(callCtx, BuildPrompt(topic, sentenceCount))
	if err != nil {
		return nil, fmt.Errorf("generate script: %w", err)
	}

	sentences, err := ParseScript(output)
	if err != nil {
		log.Debug().Str("output", output).Msg("unparseable script output")
		return nil, err
	}

	for i := range sentences {
		s := &sentences[i]
		if s.Text == "" {
			continue
		}
		if s.Keyword == "" {
			s.Keyword = g.keywords.Extract(s.Text)
			log.Debug().Int("index", i).Str("keyword", s.Keyword).Msg("keyword derived locally")
		}
		s.Keyword = LimitKeyword(s.Keyword)
	}

	if len(sentences) != sentenceCount {
		log.Warn().
			Int("requested", sentenceCount).
			Int("received", len(sentences)).
			Msg("model returned a different number of sentences")
	}

	return sentences, nil
}

// Narration 拼接全部非空句子作为配音文本
func Narration(sentences []video.ScriptSentence) string {
	parts := make([]string, 0, len(sentences))
	for _, s := range sentences {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
