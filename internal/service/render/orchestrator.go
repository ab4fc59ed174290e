// Package render 把时间线渲染成最终视频：Remotion 出无声视频，ffmpeg 混入旁白
package render

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"ytfactory/internal/config"
	"ytfactory/internal/model/video"
	"ytfactory/internal/pkg/errkind"
	"ytfactory/internal/pkg/id"
	"ytfactory/internal/pkg/remotion"
)

const (
	DefaultTimeout    = 10 * time.Minute
	DefaultMuxTimeout = 5 * time.Minute
)

// VideoRenderer 渲染无声视频，*remotion.Client 实现了它
type VideoRenderer interface {
	Render(ctx context.Context, req remotion.RenderRequest) error
}

// Muxer 混流，*ffmpeg.Client 实现了它
type Muxer interface {
	Mux(ctx context.Context, videoPath, audioPath, outputPath, audioBitrate string) error
}

// Options 单次渲染参数
type Options struct {
	Preset     remotion.Preset
	OutputPath string // 为空时输出到 <output_dir>/<id>.mp4
}

// Orchestrator 渲染编排
type Orchestrator struct {
	renderer  VideoRenderer
	muxer     Muxer
	cfg       *config.RenderConfig
	publicDir string
}

// NewOrchestrator 创建渲染编排器
// publicDir 是 audioUrl 的相对根目录之一
func NewOrchestrator(renderer VideoRenderer, muxer Muxer, cfg *config.RenderConfig, publicDir string) *Orchestrator {
	return &Orchestrator{
		renderer:  renderer,
		muxer:     muxer,
		cfg:       cfg,
		publicDir: publicDir,
	}
}

// RenderVideo 渲染时间线文件，返回最终视频路径
// 无声中间文件在任何情况下都会被删除
func (o *Orchestrator) RenderVideo(ctx context.Context, timelinePath string, opts Options) (string, error) {
	tl, err := video.LoadTimeline(timelinePath)
	if err != nil {
		return "", err
	}

	jobID := ArtifactID(tl.ID, timelinePath)

	// 有音频时先确认音频存在，避免白渲染一遍
	var audioPath string
	if tl.HasAudio() {
		audioPath, err = o.resolveAudio(*tl.AudioURL)
		if err != nil {
			return "", err
		}
	}

	tempDir := o.cfg.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	silentPath := filepath.Join(tempDir, jobID+".silent.mp4")

	finalPath := opts.OutputPath
	if finalPath == "" {
		finalPath = filepath.Join(o.cfg.OutputDir, jobID+".mp4")
	}
	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	defer func() {
		if err := os.Remove(silentPath); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", silentPath).Msg("remove silent video failed")
		}
	}()

	composition := tl.Composition
	if composition == "" {
		composition = o.cfg.Composition
	}

	renderCtx, cancelRender := context.WithTimeout(ctx, durationOr(o.cfg.Timeout, DefaultTimeout))
	defer cancelRender()
	err = o.renderer.Render(renderCtx, remotion.RenderRequest{
		PropsPath:        timelinePath,
		OutputPath:       silentPath,
		Composition:      composition,
		FPS:              tl.FPS,
		Width:            tl.Width,
		Height:           tl.Height,
		DurationInFrames: tl.DurationInFrames,
		Preset:           opts.Preset,
	})
	if err != nil {
		return "", fmt.Errorf("render silent video: %w", err)
	}

	if audioPath == "" {
		if err := promote(silentPath, finalPath); err != nil {
			return "", fmt.Errorf("move silent video to output: %w", err)
		}
		log.Info().Str("id", jobID).Str("output", finalPath).Msg("rendered video without audio")
		return finalPath, nil
	}

	muxCtx, cancelMux := context.WithTimeout(ctx, durationOr(o.cfg.MuxTimeout, DefaultMuxTimeout))
	defer cancelMux()
	if err := o.muxer.Mux(muxCtx, silentPath, audioPath, finalPath, o.cfg.AudioBitrate); err != nil {
		if rmErr := os.Remove(finalPath); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Warn().Err(rmErr).Str("path", finalPath).Msg("remove partial output failed")
		}
		return "", fmt.Errorf("mux audio: %w", err)
	}

	log.Info().Str("id", jobID).Str("audio", audioPath).Str("output", finalPath).Msg("rendered video")
	return finalPath, nil
}

// ArtifactID 生成中间文件和输出文件名用的ID
// 时间线里的 id 不能安全拼进路径时，改用时间线文件名生成
func ArtifactID(timelineID, timelinePath string) string {
	if id.IsSafeJobID(timelineID) {
		return timelineID
	}
	fallback := id.SanitizeTopic(strings.TrimSuffix(filepath.Base(timelinePath), filepath.Ext(timelinePath)))
	if timelineID != "" {
		log.Warn().Str("timeline_id", timelineID).Str("using", fallback).Msg("unsafe timeline id, using file name")
	}
	return fallback
}

// AudioCandidates audioUrl 可能对应的本地路径，按优先级排列
func (o *Orchestrator) AudioCandidates(audioURL string) []string {
	rel := strings.TrimPrefix(audioURL, "/")
	candidates := []string{audioURL}
	if o.publicDir != "" {
		candidates = append(candidates, filepath.Join(o.publicDir, rel))
	}
	if o.cfg.RemotionRoot != "" {
		candidates = append(candidates, filepath.Join(o.cfg.RemotionRoot, "public", rel))
	}
	return candidates
}

func (o *Orchestrator) resolveAudio(audioURL string) (string, error) {
	if strings.HasPrefix(audioURL, "http://") || strings.HasPrefix(audioURL, "https://") {
		return audioURL, nil
	}
	candidates := o.AudioCandidates(audioURL)
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s (tried %s)", errkind.ErrAudioNotFound, audioURL, strings.Join(candidates, ", "))
}

// promote 移动文件，跨设备时退化为复制后删除
func promote(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return os.Remove(src)
}

func durationOr(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}
