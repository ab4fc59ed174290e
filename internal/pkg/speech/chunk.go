package speech

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"

	"ytfactory/internal/pkg/errkind"
)

var sentencePattern = regexp.MustCompile(`[^.!?\n]+[.!?\n]+`)

// SplitSentences 按 . ! ? 换行 切分，保留标点，末尾无标点的剩余部分单独成段
// 没有任何字母数字的片段被丢弃
func SplitSentences(text string) []string {
	var out []string
	consumed := 0
	for _, loc := range sentencePattern.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[loc[0]:loc[1]]); speakable(s) {
			out = append(out, s)
		}
		consumed = loc[1]
	}
	if rest := strings.TrimSpace(text[consumed:]); speakable(rest) {
		out = append(out, rest)
	}
	return out
}

func speakable(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsNumber(r)
	}) >= 0
}

// SplitChunks 在 SplitSentences 基础上把超过 maxChars 的句子按词再切
// maxChars <= 0 表示不限制
func SplitChunks(text string, maxChars int) []string {
	sentences := SplitSentences(text)
	if maxChars <= 0 {
		return sentences
	}

	var out []string
	for _, s := range sentences {
		if len([]rune(s)) <= maxChars {
			out = append(out, s)
			continue
		}
		var cur strings.Builder
		for _, w := range strings.Fields(s) {
			// 单个词超长时按字符硬切
			for len([]rune(w)) > maxChars {
				if cur.Len() > 0 {
					out = append(out, cur.String())
					cur.Reset()
				}
				r := []rune(w)
				out = append(out, string(r[:maxChars]))
				w = string(r[maxChars:])
			}
			if cur.Len() > 0 && len([]rune(cur.String()))+1+len([]rune(w)) > maxChars {
				out = append(out, cur.String())
				cur.Reset()
			}
			if cur.Len() > 0 {
				cur.WriteByte(' ')
			}
			cur.WriteString(w)
		}
		if cur.Len() > 0 {
			out = append(out, cur.String())
		}
	}
	return out
}

// Concatenator 把多个音频片段按顺序拼成一个文件
type Concatenator interface {
	Concat(ctx context.Context, inputs []string, outputPath string) error
}

// ChunkedProvider 逐段合成再拼接
// 用于单次请求有长度限制的服务（gtts、volcano）
type ChunkedProvider struct {
	inner    Provider
	concat   Concatenator
	tempDir  string
	maxChars int
}

// NewChunkedProvider 创建分段合成器
// tempDir 为空时使用系统临时目录
func NewChunkedProvider(inner Provider, concat Concatenator, tempDir string, maxChars int) *ChunkedProvider {
	return &ChunkedProvider{
		inner:    inner,
		concat:   concat,
		tempDir:  tempDir,
		maxChars: maxChars,
	}
}

// Name 返回内部 Provider 名称
func (p *ChunkedProvider) Name() string { return p.inner.Name() }

// Synthesize 分段合成；临时目录无论成败都会删除
func (p *ChunkedProvider) Synthesize(ctx context.Context, text, outputPath string) error {
	chunks := SplitChunks(text, p.maxChars)
	if len(chunks) == 0 {
		return errkind.ErrEmptyNarration
	}

	if p.tempDir != "" {
		if err := os.MkdirAll(p.tempDir, 0o755); err != nil {
			return fmt.Errorf("create temp dir: %w", err)
		}
	}
	dir, err := os.MkdirTemp(p.tempDir, strings.TrimSuffix(filepath.Base(outputPath), filepath.Ext(outputPath))+"-tts-*")
	if err != nil {
		return fmt.Errorf("create chunk dir: %w", err)
	}
	defer os.RemoveAll(dir)

	files := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(dir, fmt.Sprintf("chunk_%03d.mp3", i))
		if err := p.inner.Synthesize(ctx, chunk, path); err != nil {
			return fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		files = append(files, path)
	}

	log.Debug().
		Str("provider", p.inner.Name()).
		Int("chunks", len(files)).
		Msg("speech chunks synthesized")

	if len(files) == 1 {
		return copyFile(files[0], outputPath)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := p.concat.Concat(ctx, files, outputPath); err != nil {
		_ = os.Remove(outputPath)
		return fmt.Errorf("concat speech chunks: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	data, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	return writeAtomic(dst, data)
}
