package speech

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"ytfactory/internal/config"
	"ytfactory/internal/pkg/errkind"
)

// NewFromConfig 按配置组装主备合成器
// 主服务缺少凭证时只记录日志，由备用服务兜底
func NewFromConfig(cfg *config.SpeechConfig, concat Concatenator, tempDir string) (*Fallback, error) {
	primary, err := newProvider(cfg, cfg.Primary, concat, tempDir)
	if err != nil {
		if !errors.Is(err, errkind.ErrMissingCredentials) {
			return nil, err
		}
		log.Warn().Err(err).Str("provider", cfg.Primary).Msg("primary speech provider disabled")
		primary = nil
	}

	var fallback Provider
	if cfg.Fallback != "" && cfg.Fallback != cfg.Primary {
		fallback, err = newProvider(cfg, cfg.Fallback, concat, tempDir)
		if err != nil {
			return nil, fmt.Errorf("fallback speech provider: %w", err)
		}
	}

	if primary == nil && fallback == nil {
		return nil, fmt.Errorf("%w: no usable speech provider", errkind.ErrMissingCredentials)
	}
	return SynthesizeWithFallback(primary, fallback), nil
}

func newProvider(cfg *config.SpeechConfig, name string, concat Concatenator, tempDir string) (Provider, error) {
	switch name {
	case "elevenlabs":
		return NewElevenLabs(cfg.ElevenLabs)
	case "volcano":
		p, err := NewVolcano(cfg.Volcano)
		if err != nil {
			return nil, err
		}
		return NewChunkedProvider(p, concat, tempDir, VolcanoMaxChars), nil
	case "gtts":
		return NewChunkedProvider(NewGTTS(cfg.GTTS), concat, tempDir, GTTSMaxChars), nil
	default:
		return nil, fmt.Errorf("unsupported speech provider: %s", name)
	}
}
