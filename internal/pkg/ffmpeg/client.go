package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"ytfactory/internal/pkg/errkind"
)

// DefaultAudioBitrate 混流时音频码率
const DefaultAudioBitrate = "192k"

// Client FFmpeg 客户端
// 用于封装 FFmpeg 命令调用，参数以数组传递，不经过 shell
type Client struct {
	ffmpegPath  string // FFmpeg 可执行文件路径（默认: ffmpeg）
	ffprobePath string // FFprobe 可执行文件路径（默认: ffprobe）
}

// NewClient 创建 FFmpeg 客户端
// 路径为空时依次使用 FFMPEG_PATH / FFPROBE_PATH 环境变量和默认命令名
func NewClient(ffmpegPath, ffprobePath string) *Client {
	if ffmpegPath == "" {
		ffmpegPath = os.Getenv("FFMPEG_PATH")
	}
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}

	if ffprobePath == "" {
		ffprobePath = os.Getenv("FFPROBE_PATH")
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}

	return &Client{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
	}
}

// Run 执行外部命令，非零退出包装为 ExternalProcessError
func Run(ctx context.Context, dir, tool string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return stdout.Bytes(), &errkind.ExternalProcessError{
			Tool:     filepath.Base(tool),
			Args:     args,
			ExitCode: exitCode,
			Stderr:   stderr.String(),
			Err:      err,
		}
	}
	return stdout.Bytes(), nil
}

// ProbeDuration 获取媒体时长（秒）
func (c *Client) ProbeDuration(ctx context.Context, path string) (float64, error) {
	out, err := Run(ctx, "", c.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	)
	if err != nil {
		return 0, err
	}

	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &probe); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}
	duration, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", probe.Format.Duration, err)
	}
	return duration, nil
}

// Concat 按顺序无损拼接多个同编码文件
// 使用 concat demuxer，清单文件写在第一个输入所在目录并在返回前删除
func (c *Client) Concat(ctx context.Context, inputs []string, outputPath string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("no inputs to concat")
	}

	list, err := os.CreateTemp(filepath.Dir(inputs[0]), "concat_*.txt")
	if err != nil {
		return fmt.Errorf("create concat list file: %w", err)
	}
	defer os.Remove(list.Name())

	for _, in := range inputs {
		absPath, err := filepath.Abs(in)
		if err != nil {
			list.Close()
			return fmt.Errorf("get absolute path: %w", err)
		}
		// concat 清单里单引号需要转义
		fmt.Fprintf(list, "file '%s'\n", strings.ReplaceAll(absPath, "'", `'\''`))
	}
	if err := list.Close(); err != nil {
		return fmt.Errorf("write concat list file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	_, err = Run(ctx, "", c.ffmpegPath,
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", list.Name(),
		"-c", "copy",
		outputPath,
	)
	if err != nil {
		return err
	}

	log.Debug().
		Int("count", len(inputs)).
		Str("output", outputPath).
		Msg("concat finished")
	return nil
}

// Mux 把无声视频和音频合成最终文件
// 视频流直接复制，音频转 AAC，以较短的流为准
func (c *Client) Mux(ctx context.Context, videoPath, audioPath, outputPath, audioBitrate string) error {
	if audioBitrate == "" {
		audioBitrate = DefaultAudioBitrate
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	_, err := Run(ctx, "", c.ffmpegPath, MuxArgs(videoPath, audioPath, outputPath, audioBitrate)...)
	if err != nil {
		return err
	}

	log.Info().
		Str("video", videoPath).
		Str("audio", audioPath).
		Str("output", outputPath).
		Msg("mux finished")
	return nil
}

// MuxArgs 混流参数
func MuxArgs(videoPath, audioPath, outputPath, audioBitrate string) []string {
	return []string{
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", audioBitrate,
		"-shortest",
		outputPath,
	}
}
