// Package remotion 封装 Remotion CLI 渲染调用
package remotion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"ytfactory/internal/pkg/ffmpeg"
)

const (
	DefaultEntryPoint  = "src/index.ts"
	DefaultComposition = "AiVideo"
)

// RenderRequest 一次渲染的参数
type RenderRequest struct {
	PropsPath        string // 时间线 JSON，作为 composition 的 input props
	OutputPath       string // 无声视频输出路径
	Composition      string
	FPS              int
	Width            int
	Height           int
	DurationInFrames int
	Preset           Preset
}

// Client Remotion 客户端
type Client struct {
	npxPath    string
	root       string // Remotion 工程目录，命令在这里执行
	entryPoint string
}

// NewClient 创建 Remotion 客户端
func NewClient(npxPath, root, entryPoint string) *Client {
	if npxPath == "" {
		npxPath = "npx"
	}
	if entryPoint == "" {
		entryPoint = DefaultEntryPoint
	}
	return &Client{npxPath: npxPath, root: root, entryPoint: entryPoint}
}

// Render 渲染无声视频
func (c *Client) Render(ctx context.Context, req RenderRequest) error {
	if req.DurationInFrames <= 0 {
		return fmt.Errorf("durationInFrames must be positive, got %d", req.DurationInFrames)
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	args, err := c.Args(req)
	if err != nil {
		return err
	}

	start := time.Now()
	log.Info().
		Str("composition", req.Composition).
		Int("frames", req.DurationInFrames).
		Str("preset", string(req.Preset)).
		Str("output", req.OutputPath).
		Msg("remotion render started")

	if _, err := ffmpeg.Run(ctx, c.root, c.npxPath, args...); err != nil {
		return err
	}

	log.Info().
		Dur("elapsed", time.Since(start)).
		Str("output", req.OutputPath).
		Msg("remotion render finished")
	return nil
}

// Args 构造 npx 参数
// props 和输出路径转成绝对路径，因为命令的工作目录是 Remotion 工程
func (c *Client) Args(req RenderRequest) ([]string, error) {
	props, err := filepath.Abs(req.PropsPath)
	if err != nil {
		return nil, fmt.Errorf("resolve props path: %w", err)
	}
	output, err := filepath.Abs(req.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("resolve output path: %w", err)
	}
	composition := req.Composition
	if composition == "" {
		composition = DefaultComposition
	}

	args := []string{
		"remotion", "render",
		c.entryPoint,
		composition,
		output,
		"--props=" + props,
		"--fps=" + strconv.Itoa(req.FPS),
		"--width=" + strconv.Itoa(req.Width),
		"--height=" + strconv.Itoa(req.Height),
		fmt.Sprintf("--frames=0-%d", req.DurationInFrames-1),
		"--muted",
		"--overwrite",
	}
	return append(args, req.Preset.Flags()...), nil
}
