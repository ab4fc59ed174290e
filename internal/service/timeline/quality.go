package timeline

import (
	"fmt"
	"math"

	"ytfactory/internal/model/video"
)

const (
	maxSubtitleChars = 200
	charWidthRatio   = 0.6
	safeWidthRatio   = 0.95
	gapEpsilon       = 1e-6
	defaultFontSize  = 48
)

// QualityReport 时间线质量检查结果
// Errors 非空时 Passed 为 false；Warnings 只记录不阻断
type QualityReport struct {
	Passed   bool
	Errors   []string
	Warnings []string
}

func (r *QualityReport) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *QualityReport) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// CheckQuality 检查字幕衔接、文字溢出和配图缺失
// fontSize <= 0 时使用默认字号
func CheckQuality(tl *video.Timeline, fontSize int) *QualityReport {
	if fontSize <= 0 {
		fontSize = defaultFontSize
	}
	report := &QualityReport{}

	missing := 0
	for i, s := range tl.Subtitles {
		if i > 0 {
			prevEnd := tl.Subtitles[i-1].End()
			switch {
			case s.Start < prevEnd-gapEpsilon:
				report.errorf("subtitle %d overlaps previous by %.2fs", i, prevEnd-s.Start)
			case s.Start > prevEnd+gapEpsilon:
				report.warnf("gap of %.2fs before subtitle %d", s.Start-prevEnd, i)
			}
		}

		chars := len([]rune(s.Text))
		if chars > maxSubtitleChars {
			report.warnf("subtitle %d is %d chars long", i, chars)
		}
		if tl.Width > 0 {
			estimated := float64(chars) * float64(fontSize) * charWidthRatio
			if lines := math.Ceil(estimated / (float64(tl.Width) * safeWidthRatio)); lines > 3 {
				report.warnf("subtitle %d may overflow (%d lines estimated)", i, int(lines))
			}
		}

		if s.ImageURL == nil || *s.ImageURL == "" {
			missing++
		}
	}

	if missing > 0 {
		report.warnf("%d of %d subtitles have no image", missing, len(tl.Subtitles))
	}

	if tl.FPS > 0 {
		if seconds := float64(tl.DurationInFrames) / float64(tl.FPS); seconds < tl.ContentEnd() {
			report.errorf("video length %.2fs is shorter than content %.2fs", seconds, tl.ContentEnd())
		}
	}

	report.Passed = len(report.Errors) == 0
	return report
}
