// Package errkind 流水线各阶段共用的错误类型
package errkind

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingCredentials 必需的 API key / token 未配置
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrGenerationFormat 模型输出中找不到可解析的脚本 JSON
	ErrGenerationFormat = errors.New("generation output is not a valid script")
	// ErrEmptyNarration 旁白文本为空或切分后没有任何片段
	ErrEmptyNarration = errors.New("narration is empty")
	// ErrInvalidTimeline 时间线无法解析或不满足约束
	ErrInvalidTimeline = errors.New("invalid timeline")
	// ErrAudioNotFound 时间线引用的音频在所有候选路径都不存在
	ErrAudioNotFound = errors.New("audio file not found")
	// ErrInvalidInput 调用参数非法
	ErrInvalidInput = errors.New("invalid input")
)

// ExternalProcessError 外部进程（remotion / ffmpeg）非零退出
type ExternalProcessError struct {
	Tool     string
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExternalProcessError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Tool, e.ExitCode)
	if tail := tailLines(e.Stderr, 5); tail != "" {
		msg += ": " + tail
	}
	return msg
}

func (e *ExternalProcessError) Unwrap() error { return e.Err }

// StageError 标记失败发生在哪个流水线阶段
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// StageOf 返回错误链上的阶段名，没有则返回空串
func StageOf(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// tailLines 截取 stderr 最后 n 行，避免错误信息过长
func tailLines(s string, n int) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
