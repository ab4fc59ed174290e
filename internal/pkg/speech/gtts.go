package speech

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ytfactory/internal/config"
	"ytfactory/internal/pkg/errkind"
)

const (
	defaultGTTSURL = "https://translate.google.com/translate_tts"
	// GTTSMaxChars 单次请求的最大字符数
	GTTSMaxChars = 200
)

// GTTS Google Translate TTS，无需凭证，作为兜底
// 每次请求只处理一段，长文本需要配合 ChunkedProvider
type GTTS struct {
	baseURL    string
	lang       string
	slow       bool
	httpClient *http.Client
}

// NewGTTS 创建 Google Translate TTS Provider
func NewGTTS(cfg config.GTTSConfig) *GTTS {
	p := &GTTS{
		baseURL:    cfg.BaseURL,
		lang:       cfg.Lang,
		slow:       cfg.Slow,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
	if p.baseURL == "" {
		p.baseURL = defaultGTTSURL
	}
	if p.lang == "" {
		p.lang = "en"
	}
	if p.httpClient.Timeout == 0 {
		p.httpClient.Timeout = 30 * time.Second
	}
	return p
}

// Name 返回提供者名称
func (p *GTTS) Name() string { return "gtts" }

// Synthesize 合成一段文本
func (p *GTTS) Synthesize(ctx context.Context, text, outputPath string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errkind.ErrEmptyNarration
	}
	if len([]rune(text)) > GTTSMaxChars {
		return fmt.Errorf("%w: gtts text exceeds %d chars", errkind.ErrInvalidInput, GTTSMaxChars)
	}

	speed := "1"
	if p.slow {
		speed = "0.24"
	}
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("q", text)
	q.Set("tl", p.lang)
	q.Set("client", "tw-ob")
	q.Set("ttsspeed", speed)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gtts request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read gtts response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gtts error: status %d", resp.StatusCode)
	}

	return writeAtomic(outputPath, data)
}
