package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"ytfactory/internal/config"
	"ytfactory/internal/pkg/errkind"
)

const (
	defaultElevenLabsURL   = "https://api.elevenlabs.io"
	defaultElevenLabsVoice = "21m00Tcm4TlvDq8ikWAM"
	defaultElevenLabsModel = "eleven_monolingual_v1"
)

// ElevenLabs ElevenLabs 文本转语音
type ElevenLabs struct {
	baseURL    string
	apiKey     string
	voiceID    string
	modelID    string
	stability  float64
	similarity float64
	httpClient *http.Client
}

// NewElevenLabs 创建 ElevenLabs Provider
func NewElevenLabs(cfg config.ElevenLabsConfig) (*ElevenLabs, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: elevenlabs api key", errkind.ErrMissingCredentials)
	}

	p := &ElevenLabs{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		voiceID:    cfg.VoiceID,
		modelID:    cfg.ModelID,
		stability:  cfg.Stability,
		similarity: cfg.SimilarityBoost,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
	if p.baseURL == "" {
		p.baseURL = defaultElevenLabsURL
	}
	if p.voiceID == "" {
		p.voiceID = defaultElevenLabsVoice
	}
	if p.modelID == "" {
		p.modelID = defaultElevenLabsModel
	}
	if p.stability == 0 {
		p.stability = 0.5
	}
	if p.similarity == 0 {
		p.similarity = 0.75
	}
	if p.httpClient.Timeout == 0 {
		p.httpClient.Timeout = 2 * time.Minute
	}
	return p, nil
}

// Name 返回提供者名称
func (p *ElevenLabs) Name() string { return "elevenlabs" }

type elevenLabsRequest struct {
	Text          string                  `json:"text"`
	ModelID       string                  `json:"model_id"`
	VoiceSettings elevenLabsVoiceSettings `json:"voice_settings"`
}

type elevenLabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize 整段文本一次请求，返回 audio/mpeg
func (p *ElevenLabs) Synthesize(ctx context.Context, text, outputPath string) error {
	if strings.TrimSpace(text) == "" {
		return errkind.ErrEmptyNarration
	}

	body, err := json.Marshal(elevenLabsRequest{
		Text:    text,
		ModelID: p.modelID,
		VoiceSettings: elevenLabsVoiceSettings{
			Stability:       p.stability,
			SimilarityBoost: p.similarity,
		},
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", p.baseURL, p.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("xi-api-key", p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	log.Debug().Str("voice", p.voiceID).Int("chars", len(text)).Msg("sending elevenlabs request")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("elevenlabs request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read elevenlabs response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("elevenlabs API error: status %d: %s", resp.StatusCode, truncate(string(data), 300))
	}

	return writeAtomic(outputPath, data)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
