// Package timeline 把句子和配图排成带时间的字幕时间线
package timeline

import (
	"math"
	"strings"

	"ytfactory/internal/model/video"
)

const (
	// LeadIn 第一条字幕前的静默时间（秒）
	LeadIn = 0.5
	// TailPadding 最后一条字幕后的留白（秒），在取整之前加上
	TailPadding = 1.0
	// MinDuration 单条字幕最短显示时间（秒）
	MinDuration = 3.0
	// WordsPerSecond 估算语速
	WordsPerSecond = 2.5

	DefaultFPS         = video.DefaultFPS
	DefaultWidth       = video.DefaultWidth
	DefaultHeight      = video.DefaultHeight
	DefaultComposition = "AiVideo"
)

// Options 时间线参数，零值字段使用默认值
type Options struct {
	Topic       string
	Composition string
	FPS         int
	Width       int
	Height      int
	AudioURL    *string
}

func (o Options) withDefaults() Options {
	if o.Composition == "" {
		o.Composition = DefaultComposition
	}
	if o.FPS <= 0 {
		o.FPS = DefaultFPS
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	return o
}

// Duration 按词数估算一句话的显示时长
func Duration(text string) float64 {
	words := len(strings.Fields(text))
	return math.Max(MinDuration, float64(words)/WordsPerSecond)
}

// Build 生成时间线，纯函数
// 空白句子被跳过；其余字幕首尾相接，从 LeadIn 开始
func Build(id string, items []video.SentenceImage, opts Options) *video.Timeline {
	opts = opts.withDefaults()

	subtitles := make([]video.SubtitleEntry, 0, len(items))
	cursor := LeadIn
	for _, item := range items {
		text := strings.TrimSpace(item.Text)
		if text == "" {
			continue
		}
		d := Duration(text)
		subtitles = append(subtitles, video.SubtitleEntry{
			Text:     text,
			Start:    cursor,
			Duration: d,
			ImageURL: item.ImageURL,
		})
		cursor += d
	}

	return &video.Timeline{
		ID:               id,
		Topic:            opts.Topic,
		Composition:      opts.Composition,
		FPS:              opts.FPS,
		Width:            opts.Width,
		Height:           opts.Height,
		DurationInFrames: int(math.Ceil(cursor+TailPadding)) * opts.FPS,
		AudioURL:         opts.AudioURL,
		Subtitles:        subtitles,
	}
}
