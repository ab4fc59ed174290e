package video

import (
	"encoding/json"
	"fmt"
	"os"

	"ytfactory/internal/pkg/errkind"
)

// 文件里缺省 fps / width / height 时使用的渲染参数
const (
	DefaultFPS    = 30
	DefaultWidth  = 1920
	DefaultHeight = 1080
)

// ScriptSentence 脚本中的一句旁白及其配图关键词
type ScriptSentence struct {
	Text    string `json:"sentence"`
	Keyword string `json:"keyword"`
}

// SentenceImage 句子与检索到的配图（ImageURL 为 nil 表示无图）
type SentenceImage struct {
	Text     string
	ImageURL *string
}

// SubtitleEntry 时间线上的一条字幕
// Start / Duration 单位为秒
type SubtitleEntry struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	ImageURL *string `json:"imageUrl"`
}

// End 字幕结束时间
func (s SubtitleEntry) End() float64 {
	return s.Start + s.Duration
}

// Timeline 渲染器消费的时间线 JSON
type Timeline struct {
	ID               string          `json:"id"`
	Topic            string          `json:"topic,omitempty"`
	Composition      string          `json:"composition"`
	FPS              int             `json:"fps"`
	Width            int             `json:"width"`
	Height           int             `json:"height"`
	DurationInFrames int             `json:"durationInFrames"`
	AudioURL         *string         `json:"audioUrl"`
	Subtitles        []SubtitleEntry `json:"subtitles"`
}

// ContentEnd 最后一条字幕的结束时间
func (t *Timeline) ContentEnd() float64 {
	var end float64
	for _, s := range t.Subtitles {
		if e := s.End(); e > end {
			end = e
		}
	}
	return end
}

// HasAudio 时间线是否引用了音频
func (t *Timeline) HasAudio() bool {
	return t.AudioURL != nil && *t.AudioURL != ""
}

// applyDefaults 补齐未写入文件的渲染参数
func (t *Timeline) applyDefaults() {
	if t.FPS <= 0 {
		t.FPS = DefaultFPS
	}
	if t.Width <= 0 {
		t.Width = DefaultWidth
	}
	if t.Height <= 0 {
		t.Height = DefaultHeight
	}
}

// Validate 校验从磁盘读入的时间线
func (t *Timeline) Validate() error {
	if t.DurationInFrames <= 0 {
		return fmt.Errorf("%w: durationInFrames must be positive, got %d", errkind.ErrInvalidTimeline, t.DurationInFrames)
	}
	if t.FPS <= 0 {
		return fmt.Errorf("%w: fps must be positive, got %d", errkind.ErrInvalidTimeline, t.FPS)
	}
	for i, s := range t.Subtitles {
		if s.Start < 0 {
			return fmt.Errorf("%w: subtitle %d starts at %g", errkind.ErrInvalidTimeline, i, s.Start)
		}
		if s.Duration <= 0 {
			return fmt.Errorf("%w: subtitle %d has duration %g", errkind.ErrInvalidTimeline, i, s.Duration)
		}
	}
	if seconds := float64(t.DurationInFrames) / float64(t.FPS); seconds < t.ContentEnd() {
		return fmt.Errorf("%w: video length %.2fs is shorter than content %.2fs", errkind.ErrInvalidTimeline, seconds, t.ContentEnd())
	}
	return nil
}

// LoadTimeline 读取并校验时间线文件
func LoadTimeline(path string) (*Timeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", errkind.ErrInvalidTimeline, path, err)
	}

	var tl Timeline
	if err := json.Unmarshal(data, &tl); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", errkind.ErrInvalidTimeline, path, err)
	}
	if tl.Subtitles == nil {
		tl.Subtitles = []SubtitleEntry{}
	}
	tl.applyDefaults()
	if err := tl.Validate(); err != nil {
		return nil, err
	}
	return &tl, nil
}
