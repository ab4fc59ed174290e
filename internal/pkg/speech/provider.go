// Package speech 旁白语音合成：具体厂商实现、分句合成与主备切换
package speech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"ytfactory/internal/pkg/errkind"
)

// Provider 语音合成接口
// Synthesize 成功返回时 outputPath 必须是完整可播放的音频文件
type Provider interface {
	Synthesize(ctx context.Context, text, outputPath string) error
	Name() string
}

// Fallback 主备切换的合成器，本身也是 Provider
type Fallback struct {
	primary  Provider
	fallback Provider
}

// SynthesizeWithFallback 组合主备两个 Provider
// primary 为 nil 表示主服务未配置，直接使用 fallback
func SynthesizeWithFallback(primary, fallback Provider) *Fallback {
	return &Fallback{primary: primary, fallback: fallback}
}

// Name 返回组合名称
func (f *Fallback) Name() string {
	names := make([]string, 0, 2)
	if f.primary != nil {
		names = append(names, f.primary.Name())
	}
	if f.fallback != nil {
		names = append(names, f.fallback.Name())
	}
	return strings.Join(names, "->")
}

// Synthesize 先试主服务，任何错误都记录后切换到备用服务，备用只试一次
func (f *Fallback) Synthesize(ctx context.Context, text, outputPath string) error {
	if strings.TrimSpace(text) == "" {
		return errkind.ErrEmptyNarration
	}

	var primaryErr error
	if f.primary != nil {
		primaryErr = f.primary.Synthesize(ctx, text, outputPath)
		if primaryErr == nil {
			return nil
		}
		if errors.Is(primaryErr, errkind.ErrEmptyNarration) {
			return primaryErr
		}
		log.Warn().
			Err(primaryErr).
			Str("provider", f.primary.Name()).
			Msg("primary speech provider failed, switching to fallback")
	} else {
		log.Info().Msg("primary speech provider not configured, using fallback")
	}

	if f.fallback == nil {
		if primaryErr != nil {
			return fmt.Errorf("speech synthesis failed: %w", primaryErr)
		}
		return fmt.Errorf("%w: no speech provider configured", errkind.ErrMissingCredentials)
	}

	// 主服务可能留下了不完整的文件
	_ = os.Remove(outputPath)

	if err := f.fallback.Synthesize(ctx, text, outputPath); err != nil {
		if primaryErr != nil {
			return fmt.Errorf("speech synthesis failed: primary: %v; fallback: %w", primaryErr, err)
		}
		return fmt.Errorf("speech synthesis failed: %w", err)
	}

	log.Info().Str("provider", f.fallback.Name()).Str("output", outputPath).Msg("speech synthesized by fallback")
	return nil
}

// writeAtomic 先写临时文件再改名，失败时不留下半截输出
func writeAtomic(outputPath string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty audio data")
	}
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(outputPath)+".*.part")
	if err != nil {
		return fmt.Errorf("create temp audio file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write audio: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close audio: %w", err)
	}
	return os.Rename(tmp.Name(), outputPath)
}
