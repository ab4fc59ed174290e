package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"ytfactory/internal/config"
	"ytfactory/internal/pkg/errkind"
	"ytfactory/internal/pkg/id"
)

const (
	defaultVolcanoURL       = "https://openspeech.bytedance.com/api/v1/tts"
	defaultVolcanoCluster   = "volcano_tts"
	defaultVolcanoVoiceType = "BV115_streaming"
	volcanoSuccessCode      = 3000
	// VolcanoMaxChars 单次请求建议的最大字符数（接口限制 1024 字节）
	VolcanoMaxChars = 300
)

// Volcano 火山引擎 openspeech TTS
// 参考: https://openspeech.bytedance.com/api/v1/tts
type Volcano struct {
	apiURL      string
	accessToken string
	appID       string
	cluster     string
	voiceType   string
	sampleRate  int
	speedRatio  float64
	language    string
	httpClient  *http.Client
}

// NewVolcano 创建火山 TTS Provider
func NewVolcano(cfg config.VolcanoConfig) (*Volcano, error) {
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("%w: volcano access token", errkind.ErrMissingCredentials)
	}

	p := &Volcano{
		apiURL:      cfg.APIURL,
		accessToken: cfg.AccessToken,
		appID:       cfg.AppID,
		cluster:     cfg.Cluster,
		voiceType:   cfg.VoiceType,
		sampleRate:  cfg.SampleRate,
		speedRatio:  cfg.SpeedRatio,
		language:    cfg.Language,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
	}
	if p.apiURL == "" {
		p.apiURL = defaultVolcanoURL
	}
	if p.cluster == "" {
		p.cluster = defaultVolcanoCluster
	}
	if p.voiceType == "" {
		p.voiceType = defaultVolcanoVoiceType
	}
	if p.sampleRate == 0 {
		p.sampleRate = 24000
	}
	if p.speedRatio == 0 {
		p.speedRatio = 1.0
	}
	if p.language == "" {
		p.language = "en"
	}
	if p.httpClient.Timeout == 0 {
		p.httpClient.Timeout = 30 * time.Second
	}
	return p, nil
}

// Name 返回提供者名称
func (p *Volcano) Name() string { return "volcano" }

type volcanoResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

// Synthesize 合成一段文本，返回的 base64 音频解码后写入 outputPath
func (p *Volcano) Synthesize(ctx context.Context, text, outputPath string) error {
	if strings.TrimSpace(text) == "" {
		return errkind.ErrEmptyNarration
	}

	requestID := id.New()
	reqBody, err := json.Marshal(p.buildRequest(text, requestID))
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	// 鉴权头格式为 "Bearer;{token}"
	req.Header.Set("Authorization", "Bearer;"+p.accessToken)
	req.Header.Set("Content-Type", "application/json")

	log.Debug().
		Str("request_id", requestID).
		Int("chars", len(text)).
		Msg("sending volcano TTS request")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("volcano request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read volcano response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("volcano API error: status %d: %s", resp.StatusCode, truncate(string(respBody), 300))
	}

	var apiResp volcanoResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return fmt.Errorf("parse volcano response: %w", err)
	}
	if apiResp.Code != volcanoSuccessCode {
		msg := apiResp.Message
		if msg == "" {
			msg = "unknown error"
		}
		return fmt.Errorf("volcano API error: %s (code: %d)", msg, apiResp.Code)
	}
	if apiResp.Data == "" {
		return fmt.Errorf("volcano response has no audio data")
	}

	audio, err := base64.StdEncoding.DecodeString(apiResp.Data)
	if err != nil {
		return fmt.Errorf("decode audio data: %w", err)
	}
	return writeAtomic(outputPath, audio)
}

// buildRequest 构建请求体
func (p *Volcano) buildRequest(text, requestID string) map[string]any {
	app := map[string]any{
		"token":   p.accessToken,
		"cluster": p.cluster,
	}
	if p.appID != "" {
		app["appid"] = p.appID
	}

	return map[string]any{
		"app":  app,
		"user": map[string]any{"uid": requestID},
		"audio": map[string]any{
			"voice_type":   p.voiceType,
			"encoding":     "mp3",
			"rate":         p.sampleRate,
			"speed_ratio":  p.speedRatio,
			"volume_ratio": 1.0,
			"pitch_ratio":  1.0,
			"language":     p.language,
		},
		"request": map[string]any{
			"reqid":     requestID,
			"text":      text,
			"text_type": "plain",
			"operation": "query",
		},
	}
}
